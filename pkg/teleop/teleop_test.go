package teleop

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gwillem/robocam/pkg/robot"
)

type fakeBoard struct {
	calls []string
	fail  bool
}

func (b *fakeBoard) record(format string, args ...any) error {
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
	if b.fail {
		return errors.New("bus error")
	}
	return nil
}

func (b *fakeBoard) WriteServo(reg robot.Register, angle float64) error {
	return b.record("servo %s %v", reg, angle)
}

func (b *fakeBoard) SetLED(reg robot.Register, on bool) error {
	return b.record("led %s %v", reg, on)
}

func (b *fakeBoard) Buzz(freq int) error {
	return b.record("buzz %d", freq)
}

func (b *fakeBoard) Drive(ctx context.Context, dir robot.Direction, speed int) error {
	return b.record("drive %d %d", dir, speed)
}

func (b *fakeBoard) Stop() error {
	return b.record("stop")
}

func newTestController(t *testing.T) (*Controller, *fakeBoard) {
	t.Helper()
	b := &fakeBoard{}
	c, err := NewController(b, DefaultConfig())
	if err != nil {
		t.Fatalf("NewController() error: %v", err)
	}
	return c, b
}

func TestController_Steering(t *testing.T) {
	c, b := newTestController(t)
	for i := 0; i < 10; i++ {
		_ = c.Left()
	}
	_ = c.Right()
	_ = c.Straight()

	if got := c.State().Steering; got != 90 {
		t.Errorf("Steering = %v, want 90", got)
	}
	want := []string{"servo servo1 100", "servo servo1 110", "servo servo1 120"}
	if diff := cmp.Diff(want, b.calls[:3]); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	// left is clamped at 180, then one step right
	if diff := cmp.Diff([]string{"servo servo1 180", "servo servo1 170", "servo servo1 90"}, b.calls[9:]); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestController_SteeringTrim(t *testing.T) {
	b := &fakeBoard{}
	cfg := DefaultConfig()
	cfg.SteeringTrim = -3
	c, _ := NewController(b, cfg)
	_ = c.Straight()
	if diff := cmp.Diff([]string{"servo servo1 87"}, b.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestController_Drive(t *testing.T) {
	c, b := newTestController(t)
	ctx := context.Background()

	_ = c.Forward(ctx)
	if got := c.State().Motion; got != Forward {
		t.Errorf("Motion = %v, want forward", got)
	}
	c.AdjustSpeed(30)
	c.AdjustSpeed(30)
	_ = c.Backward(ctx)
	_ = c.Stop()

	want := []string{"drive 1 50", "drive 0 100", "stop"}
	if diff := cmp.Diff(want, b.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if s := c.State(); s.Motion != Stopped || s.Speed != 100 {
		t.Errorf("State = %+v", s)
	}
}

func TestController_DriveError(t *testing.T) {
	c, b := newTestController(t)
	b.fail = true
	if err := c.Forward(context.Background()); err == nil {
		t.Fatal("Forward() should report the bus error")
	}
	s := c.State()
	if s.Motion != Stopped || s.Error == nil {
		t.Errorf("State = %+v, want stopped with error", s)
	}
}

func TestController_Camera(t *testing.T) {
	c, b := newTestController(t)
	_ = c.PanBy(-2)
	_ = c.TiltBy(1)
	_ = c.HomeCamera()

	want := []string{
		"servo servo2 70",
		"servo servo3 100",
		"servo servo2 90",
		"servo servo3 90",
	}
	if diff := cmp.Diff(want, b.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestController_LEDsAndBuzzer(t *testing.T) {
	c, b := newTestController(t)
	_ = c.ToggleLED(1)
	_ = c.ToggleLED(1)
	_ = c.ToggleBuzzer()
	if !c.State().Buzzing {
		t.Error("buzzer should be on")
	}
	_ = c.ToggleBuzzer()
	if err := c.ToggleLED(3); err == nil {
		t.Error("ToggleLED(3) should fail")
	}

	want := []string{"led io2 true", "led io2 false", "buzz 2000", "buzz 0"}
	if diff := cmp.Diff(want, b.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestController_StatesPublishLatest(t *testing.T) {
	c, _ := newTestController(t)
	_ = c.PanBy(1)
	_ = c.PanBy(1)
	s := <-c.States()
	if s.Pan != 110 {
		t.Errorf("latest Pan = %v, want 110", s.Pan)
	}
}

func TestController_Close(t *testing.T) {
	c, b := newTestController(t)
	_ = c.ToggleLED(0)
	b.calls = nil
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	want := []string{"stop", "buzz 0", "led io1 false", "led io2 false", "led io3 false"}
	if diff := cmp.Diff(want, b.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if c.State().LEDs[0] {
		t.Error("LED state not cleared")
	}
}

func TestNewControllerRequiresBoard(t *testing.T) {
	if _, err := NewController(nil, DefaultConfig()); err == nil {
		t.Error("NewController(nil) should fail")
	}
}
