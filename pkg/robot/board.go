package robot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.bug.st/serial"
)

// ErrBoardBusy is returned when another process holds the board.
var ErrBoardBusy = errors.New("board in use by another process")

// BoardConfig describes how to reach the controller board.
type BoardConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate,omitempty"`
}

// Direction selects the drive motor direction.
type Direction int

const (
	Backward Direction = 0
	Forward  Direction = 1
)

// Board writes register commands to the controller board. Each command is
// three bytes: the register, then the 16-bit value big-endian.
type Board struct {
	port io.ReadWriteCloser
	lock *flock.Flock

	mu       sync.Mutex
	gap      time.Duration // pause after each write
	rampStep time.Duration // pause between soft-start stages
}

// OpenBoard opens the serial port and takes an exclusive lock on it.
func OpenBoard(cfg BoardConfig) (*Board, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("open board: no port configured")
	}
	baud := cfg.BaudRate
	if baud == 0 {
		baud = 115200
	}

	lock := flock.New(lockPath(cfg.Port))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock board: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("open board %s: %w", cfg.Port, ErrBoardBusy)
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open board %s: %w", cfg.Port, err)
	}

	b := NewBoard(port)
	b.lock = lock
	return b, nil
}

// NewBoard wraps an already open connection to the board.
func NewBoard(port io.ReadWriteCloser) *Board {
	return &Board{
		port:     port,
		gap:      time.Millisecond,
		rampStep: 70 * time.Millisecond,
	}
}

func lockPath(port string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(filepath.Base(port))
	return filepath.Join(os.TempDir(), "robocam-"+name+".lock")
}

// Close releases the port and the lock.
func (b *Board) Close() error {
	var errs []error
	if err := b.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close port: %w", err))
	}
	if b.lock != nil {
		if err := b.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
	}
	return errors.Join(errs...)
}

// WriteReg sends one register command. Values are clamped to 16 bits.
func (b *Board) WriteReg(reg Register, value int) error {
	value = min(max(value, 0), 0xffff)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.port.Write([]byte{byte(reg), byte(value >> 8), byte(value & 0xff)}); err != nil {
		return fmt.Errorf("write %s=%d: %w", reg, value, err)
	}
	if b.gap > 0 {
		time.Sleep(b.gap)
	}
	return nil
}

// WriteServo moves a servo to angle degrees using the default pulse range.
func (b *Board) WriteServo(reg Register, angle float64) error {
	return b.WriteReg(reg, Calibration{}.Pulse(angle))
}

// SetLED switches one of the IO LEDs. The LEDs are active low.
func (b *Board) SetLED(reg Register, on bool) error {
	if on {
		return b.WriteReg(reg, 0)
	}
	return b.WriteReg(reg, 1)
}

// Buzz sets the buzzer frequency; 0 silences it.
func (b *Board) Buzz(freq int) error {
	return b.WriteReg(Buzzer, freq)
}

// Beep sounds the buzzer for d. The buzzer is silenced even if ctx is
// cancelled while it sounds.
func (b *Board) Beep(ctx context.Context, freq int, d time.Duration) error {
	if err := b.Buzz(freq); err != nil {
		return err
	}
	waitErr := Sleep(ctx, d)
	if err := b.Buzz(0); err != nil {
		return err
	}
	return waitErr
}

// Drive runs both motors in dir at speed percent, ramping up through a
// third and two thirds of the target duty to spare the gearbox.
func (b *Board) Drive(ctx context.Context, dir Direction, speed int) error {
	speed = min(max(speed, 0), 100)
	if err := b.WriteReg(Dir1, int(dir)); err != nil {
		return err
	}
	if err := b.WriteReg(Dir2, int(dir)); err != nil {
		return err
	}

	full := speed * 10
	stages := []int{full / 3, full * 2 / 3, full}
	for i, duty := range stages {
		if err := b.setDuty(duty); err != nil {
			return err
		}
		if i < len(stages)-1 {
			if err := Sleep(ctx, b.rampStep); err != nil {
				return b.stopAfter(err)
			}
		}
	}
	return nil
}

func (b *Board) setDuty(duty int) error {
	if err := b.WriteReg(PWM1, duty); err != nil {
		return err
	}
	return b.WriteReg(PWM2, duty)
}

func (b *Board) stopAfter(cause error) error {
	if err := b.Stop(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// Stop cuts power to both motors.
func (b *Board) Stop() error {
	return b.setDuty(0)
}

// Dim drives an LED with software PWM at level tenths of full brightness
// until ctx is done, then switches it off.
func (b *Board) Dim(ctx context.Context, reg Register, level int, period time.Duration) error {
	level = min(max(level, 0), 10)
	slot := period / 10
	for {
		if level > 0 {
			if err := b.SetLED(reg, true); err != nil {
				return err
			}
		}
		if err := Sleep(ctx, slot*time.Duration(level)); err != nil {
			return errors.Join(err, b.SetLED(reg, false))
		}
		if level < 10 {
			if err := b.SetLED(reg, false); err != nil {
				return err
			}
			if err := Sleep(ctx, slot*time.Duration(10-level)); err != nil {
				return err
			}
		}
	}
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
