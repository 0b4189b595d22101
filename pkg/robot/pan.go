package robot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Pan drivers.
const (
	DriverBoard   = "board"
	DriverFeetech = "feetech"
)

// Pan points the camera at a horizontal angle in degrees [0, 180].
type Pan interface {
	SetAngle(ctx context.Context, deg float64) error
	Close() error
}

// AngleReader is a Pan that can report where it points.
type AngleReader interface {
	Angle(ctx context.Context) (float64, error)
}

// ReadAngle returns the pan's reported angle. ok is false for servos
// without position feedback.
func ReadAngle(ctx context.Context, p Pan) (deg float64, ok bool, err error) {
	r, ok := p.(AngleReader)
	if !ok {
		return 0, false, nil
	}
	deg, err = r.Angle(ctx)
	if err != nil {
		return 0, true, err
	}
	return deg, true, nil
}

// PanConfig selects and configures the camera pan servo.
type PanConfig struct {
	Driver      string      `json:"driver"`
	Channel     Register    `json:"channel"`        // board driver
	Port        string      `json:"port,omitempty"` // feetech driver
	ID          int         `json:"id,omitempty"`   // feetech driver
	Calibration Calibration `json:"calibration"`
}

// OpenPan opens the pan servo described by cfg. The board driver borrows
// board and does not close it.
func OpenPan(cfg PanConfig, board *Board) (Pan, error) {
	switch cfg.Driver {
	case "", DriverBoard:
		if board == nil {
			return nil, fmt.Errorf("pan driver %q needs a board", DriverBoard)
		}
		return NewBoardPan(board, cfg.Channel, cfg.Calibration), nil
	case DriverFeetech:
		return NewFeetechPan(cfg)
	default:
		return nil, fmt.Errorf("unknown pan driver %q", cfg.Driver)
	}
}

// BoardPan is a hobby PWM servo on one of the board's servo channels.
type BoardPan struct {
	board   *Board
	channel Register
	cal     Calibration
}

// NewBoardPan returns a pan servo on channel.
func NewBoardPan(board *Board, channel Register, cal Calibration) *BoardPan {
	return &BoardPan{board: board, channel: channel, cal: cal}
}

// SetAngle moves the servo. The board gives no position feedback.
func (p *BoardPan) SetAngle(_ context.Context, deg float64) error {
	return p.board.WriteReg(p.channel, p.cal.Pulse(p.cal.Angle(deg)))
}

// Close is a no-op; the board belongs to the caller.
func (p *BoardPan) Close() error {
	return nil
}

// FeetechPan is a Feetech STS bus servo.
type FeetechPan struct {
	bus   *feetech.Bus
	group *feetech.ServoGroup
	id    int
	cal   Calibration
}

// NewFeetechPan opens the servo bus and enables torque on the pan servo.
func NewFeetechPan(cfg PanConfig) (*FeetechPan, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	p := &FeetechPan{
		bus:   bus,
		group: feetech.NewServoGroupByIDs(bus, cfg.ID),
		id:    cfg.ID,
		cal:   cfg.Calibration,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.group.EnableAll(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("enable servo %d: %w", cfg.ID, err)
	}
	return p, nil
}

// SetAngle writes the target position.
func (p *FeetechPan) SetAngle(ctx context.Context, deg float64) error {
	raw := p.cal.Denormalize(p.cal.Angle(deg))
	if err := p.group.SetPositions(ctx, feetech.PositionMap{p.id: raw}); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// Angle reads back the servo position as a scene angle, the inverse of
// SetAngle.
func (p *FeetechPan) Angle(ctx context.Context) (float64, error) {
	raw, err := p.group.Positions(ctx)
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	pos, ok := raw[p.id]
	if !ok {
		return 0, fmt.Errorf("read position: servo %d did not answer", p.id)
	}
	return p.cal.SceneAngle(p.cal.Normalize(pos)), nil
}

// Close disables torque and closes the bus.
func (p *FeetechPan) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var errs []error
	if err := p.group.DisableAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("disable servo: %w", err))
	}
	if err := p.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bus: %w", err))
	}
	return errors.Join(errs...)
}
