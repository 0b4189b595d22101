// Package teleop provides keyboard remote control for the smart car.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/robocam/pkg/robot"
)

// Board is the part of *robot.Board the remote control drives.
type Board interface {
	WriteServo(reg robot.Register, angle float64) error
	SetLED(reg robot.Register, on bool) error
	Buzz(freq int) error
	Drive(ctx context.Context, dir robot.Direction, speed int) error
	Stop() error
}

// Motion is what the drive motors are doing.
type Motion int

const (
	Stopped Motion = iota
	Forward
	Backward
)

func (m Motion) String() string {
	switch m {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return "stopped"
}

// State is a snapshot of the car for the UI.
type State struct {
	Motion    Motion
	Speed     int     // percent
	Steering  float64 // degrees, 90 is straight ahead
	Pan       float64
	Tilt      float64
	LEDs      [3]bool // red, green, blue
	Buzzing   bool
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the controller.
type Config struct {
	Speed         int     // initial speed percent
	TurnStep      float64 // steering change per key press
	CameraStep    float64 // pan/tilt change per key press
	SteeringTrim  float64 // added to every steering write
	BuzzerFreq    int
	SteeringServo robot.Register
	PanServo      robot.Register
	TiltServo     robot.Register
}

// DefaultConfig matches the car's stock wiring.
func DefaultConfig() Config {
	return Config{
		Speed:         50,
		TurnStep:      10,
		CameraStep:    10,
		BuzzerFreq:    2000,
		SteeringServo: robot.Servo1,
		PanServo:      robot.Servo2,
		TiltServo:     robot.Servo3,
	}
}

const center = 90

// Controller turns key presses into board writes.
type Controller struct {
	board Board
	cfg   Config

	mu      sync.Mutex
	state   State
	stateCh chan State
	logCh   chan string
}

// NewController creates a controller. Nothing is written to the board
// until the first command.
func NewController(board Board, cfg Config) (*Controller, error) {
	if board == nil {
		return nil, errors.New("teleop: no board")
	}
	def := DefaultConfig()
	if cfg.Speed <= 0 {
		cfg.Speed = def.Speed
	}
	if cfg.TurnStep <= 0 {
		cfg.TurnStep = def.TurnStep
	}
	if cfg.CameraStep <= 0 {
		cfg.CameraStep = def.CameraStep
	}
	if cfg.BuzzerFreq <= 0 {
		cfg.BuzzerFreq = def.BuzzerFreq
	}
	return &Controller{
		board: board,
		cfg:   cfg,
		state: State{
			Speed:    min(cfg.Speed, 100),
			Steering: center,
			Pan:      center,
			Tilt:     center,
		},
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// update applies fn to the state under the lock, publishes the result and
// logs any error.
func (c *Controller) update(fn func(s *State) error) error {
	c.mu.Lock()
	err := fn(&c.state)
	c.state.Timestamp = time.Now()
	c.state.Error = err
	s := c.state
	c.mu.Unlock()

	if err != nil {
		c.log("Error: %v", err)
	}
	c.sendState(s)
	return err
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}

// Forward drives forward at the current speed.
func (c *Controller) Forward(ctx context.Context) error {
	return c.drive(ctx, Forward)
}

// Backward drives backward at the current speed.
func (c *Controller) Backward(ctx context.Context) error {
	return c.drive(ctx, Backward)
}

func (c *Controller) drive(ctx context.Context, m Motion) error {
	dir := robot.Forward
	if m == Backward {
		dir = robot.Backward
	}
	return c.update(func(s *State) error {
		if err := c.board.Drive(ctx, dir, s.Speed); err != nil {
			s.Motion = Stopped
			return fmt.Errorf("drive %s: %w", m, err)
		}
		s.Motion = m
		c.log("%s at %d%%", m, s.Speed)
		return nil
	})
}

// Stop cuts the motors.
func (c *Controller) Stop() error {
	return c.update(func(s *State) error {
		s.Motion = Stopped
		if err := c.board.Stop(); err != nil {
			return fmt.Errorf("stop: %w", err)
		}
		c.log("stop")
		return nil
	})
}

// AdjustSpeed changes the speed by delta percent. A running motor picks up
// the new speed on the next drive command.
func (c *Controller) AdjustSpeed(delta int) {
	_ = c.update(func(s *State) error {
		s.Speed = min(max(s.Speed+delta, 0), 100)
		return nil
	})
}

// Left turns the steering one step left.
func (c *Controller) Left() error {
	return c.steer(c.cfg.TurnStep)
}

// Right turns the steering one step right.
func (c *Controller) Right() error {
	return c.steer(-c.cfg.TurnStep)
}

// Straight centres the steering.
func (c *Controller) Straight() error {
	return c.update(func(s *State) error {
		s.Steering = center
		return c.writeSteering(s.Steering)
	})
}

func (c *Controller) steer(delta float64) error {
	return c.update(func(s *State) error {
		s.Steering = clamp(s.Steering + delta)
		return c.writeSteering(s.Steering)
	})
}

func (c *Controller) writeSteering(angle float64) error {
	if err := c.board.WriteServo(c.cfg.SteeringServo, angle+c.cfg.SteeringTrim); err != nil {
		return fmt.Errorf("steer: %w", err)
	}
	return nil
}

// PanBy moves the camera pan servo by steps camera steps.
func (c *Controller) PanBy(steps int) error {
	return c.update(func(s *State) error {
		s.Pan = clamp(s.Pan + float64(steps)*c.cfg.CameraStep)
		return c.board.WriteServo(c.cfg.PanServo, s.Pan)
	})
}

// TiltBy moves the camera tilt servo by steps camera steps.
func (c *Controller) TiltBy(steps int) error {
	return c.update(func(s *State) error {
		s.Tilt = clamp(s.Tilt + float64(steps)*c.cfg.CameraStep)
		return c.board.WriteServo(c.cfg.TiltServo, s.Tilt)
	})
}

// HomeCamera points the camera straight ahead.
func (c *Controller) HomeCamera() error {
	return c.update(func(s *State) error {
		s.Pan, s.Tilt = center, center
		return errors.Join(
			c.board.WriteServo(c.cfg.PanServo, s.Pan),
			c.board.WriteServo(c.cfg.TiltServo, s.Tilt),
		)
	})
}

// ToggleLED switches LED i (0 red, 1 green, 2 blue).
func (c *Controller) ToggleLED(i int) error {
	leds := robot.LEDs()
	if i < 0 || i >= len(leds) {
		return fmt.Errorf("no LED %d", i)
	}
	return c.update(func(s *State) error {
		on := !s.LEDs[i]
		if err := c.board.SetLED(leds[i], on); err != nil {
			return fmt.Errorf("led %s: %w", leds[i], err)
		}
		s.LEDs[i] = on
		return nil
	})
}

// ToggleBuzzer starts or silences the buzzer.
func (c *Controller) ToggleBuzzer() error {
	return c.update(func(s *State) error {
		freq := 0
		if !s.Buzzing {
			freq = c.cfg.BuzzerFreq
		}
		if err := c.board.Buzz(freq); err != nil {
			return fmt.Errorf("buzzer: %w", err)
		}
		s.Buzzing = freq > 0
		return nil
	})
}

// Close stops the motors and switches off the buzzer and LEDs. The board
// itself is left open.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := []error{c.board.Stop(), c.board.Buzz(0)}
	for _, led := range robot.LEDs() {
		errs = append(errs, c.board.SetLED(led, false))
	}
	c.state = State{Speed: c.state.Speed, Steering: c.state.Steering, Pan: c.state.Pan, Tilt: c.state.Tilt}
	return errors.Join(errs...)
}

func clamp(angle float64) float64 {
	return min(max(angle, 0), 180)
}
