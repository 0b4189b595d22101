package robot

import (
	"errors"
	"fmt"
)

// Robot bundles the hardware opened for one session. Board is nil when no
// board port is configured (a bus servo rig without buzzer or motors).
type Robot struct {
	Board *Board
	Pan   Pan
}

// Open acquires the board and the pan servo. Everything opened so far is
// released again if a later step fails.
func Open(cfg *Config) (*Robot, error) {
	r := &Robot{}
	if cfg.Board.Port != "" {
		board, err := OpenBoard(cfg.Board)
		if err != nil {
			return nil, err
		}
		r.Board = board
	}

	pan, err := OpenPan(cfg.Pan, r.Board)
	if err != nil {
		if r.Board != nil {
			err = errors.Join(err, r.Board.Close())
		}
		return nil, fmt.Errorf("open pan: %w", err)
	}
	r.Pan = pan
	return r, nil
}

// Close releases the pan servo, then the board.
func (r *Robot) Close() error {
	var errs []error
	if r.Pan != nil {
		if err := r.Pan.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Board != nil {
		if err := r.Board.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
