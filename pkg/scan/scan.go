// Package scan steps the camera pan servo through a range of angles and
// saves one averaged, low-noise frame per angle.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gwillem/robocam/pkg/average"
	"github.com/gwillem/robocam/pkg/camera"
	"github.com/gwillem/robocam/pkg/robot"
)

// Config holds the scan parameters.
type Config struct {
	Dir       string // base directory; each scan gets a numbered subdirectory
	MinAngle  int
	MaxAngle  int
	Step      int
	Frames    int           // burst size per angle
	Settle    time.Duration // wait after each servo move
	WarmUp    time.Duration // wait after the start beep
	Countdown time.Duration // wait after the "about to start" beep
	Home      float64       // pan angle restored when the scan ends
	Beep      bool
	Averager  average.Averager
}

// DefaultConfig sweeps 0 to 180 degrees in 5 degree steps, averaging 20
// frames per angle.
func DefaultConfig() Config {
	return Config{
		Dir:       "panorama",
		MinAngle:  0,
		MaxAngle:  180,
		Step:      5,
		Frames:    20,
		Settle:    time.Second,
		WarmUp:    30 * time.Second,
		Countdown: 5 * time.Second,
		Home:      90,
		Beep:      true,
		Averager:  average.Default(),
	}
}

// Validate rejects configurations that cannot produce a scan.
func (c Config) Validate() error {
	switch {
	case c.Dir == "":
		return errors.New("scan: no output directory")
	case c.Step <= 0:
		return fmt.Errorf("scan: step %d must be positive", c.Step)
	case c.MinAngle > c.MaxAngle:
		return fmt.Errorf("scan: min angle %d above max angle %d", c.MinAngle, c.MaxAngle)
	case c.Frames <= 0:
		return fmt.Errorf("scan: burst size %d must be positive", c.Frames)
	}
	return nil
}

// Angles lists the pan angles visited, clamped to [0, 180]. Like a range
// up to MaxAngle+Step, the last step may overshoot and is clamped.
func (c Config) Angles() []int {
	var out []int
	for a := c.MinAngle; a < c.MaxAngle+c.Step; a += c.Step {
		clamped := min(max(a, 0), 180)
		if len(out) > 0 && out[len(out)-1] == clamped {
			continue
		}
		out = append(out, clamped)
	}
	return out
}

// Buzzer signals the operator. *robot.Board implements it.
type Buzzer interface {
	Beep(ctx context.Context, freq int, d time.Duration) error
}

// Result reports one angle of a scan.
type Result struct {
	Angle     int           `json:"angle"`
	Accepted  int           `json:"accepted"`
	Total     int           `json:"total"`
	SeedIndex int           `json:"seed_index"`
	Path      string        `json:"path"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Ratio returns accepted/total.
func (r Result) Ratio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Total)
}

// SeedOnly reports whether only the seed frame survived.
func (r Result) SeedOnly() bool {
	return r.Total > 1 && r.Accepted == 1
}

// Controller runs panorama scans.
type Controller struct {
	cfg    Config
	pan    robot.Pan
	cam    camera.Source
	buzzer Buzzer
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	resultCh chan Result
	logCh    chan string
}

// NewController checks cfg and wires the hardware. buzzer may be nil.
func NewController(cfg Config, pan robot.Pan, cam camera.Source, buzzer Buzzer, logger *slog.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pan == nil || cam == nil {
		return nil, errors.New("scan: pan and camera are required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		cfg:      cfg,
		pan:      pan,
		cam:      cam,
		buzzer:   buzzer,
		logger:   logger,
		resultCh: make(chan Result, len(cfg.Angles())),
		logCh:    make(chan string, 10),
	}, nil
}

// Results returns a channel that receives one Result per finished angle.
// It holds one scan's worth of results; when nobody reads it, later results
// are dropped. Session.Results always has the full list.
func (c *Controller) Results() <-chan Result {
	return c.resultCh
}

// Logs returns a channel of human readable progress lines.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Config returns the scan configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) publish(r Result) {
	select {
	case c.resultCh <- r:
	default:
		// Drop if channel full
	}
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Run performs one scan into a fresh session directory. Whatever happens,
// the pan servo is sent home and the manifest written before Run returns.
func (c *Controller) Run(ctx context.Context) (sess *Session, err error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	dir, err := NextSessionDir(c.cfg.Dir)
	if err != nil {
		return nil, err
	}
	sess = &Session{
		ID:        uuid.NewString(),
		Dir:       dir,
		Started:   time.Now(),
		Frames:    c.cfg.Frames,
		Threshold: c.cfg.Averager.Threshold,
		Seed:      c.cfg.Averager.Seed.String(),
	}
	logger := c.logger.With(slog.String("session", sess.ID), slog.String("dir", dir))
	logger.Info("scan started", slog.Int("angles", len(c.cfg.Angles())), slog.Int("frames", c.cfg.Frames))
	c.log("Scan started in %s", dir)

	defer func() {
		err = errors.Join(err, c.finish(sess, err, logger))
	}()

	c.beep(ctx, 1000, logger)
	if err := robot.Sleep(ctx, c.cfg.WarmUp); err != nil {
		return sess, err
	}
	c.beep(ctx, 2000, logger)
	if err := robot.Sleep(ctx, c.cfg.Countdown); err != nil {
		return sess, err
	}

	for _, angle := range c.cfg.Angles() {
		res, err := c.capture(ctx, angle, dir, logger)
		if err != nil {
			return sess, fmt.Errorf("angle %d: %w", angle, err)
		}
		sess.Results = append(sess.Results, res)
		c.publish(res)
	}
	return sess, nil
}

func (c *Controller) capture(ctx context.Context, angle int, dir string, logger *slog.Logger) (Result, error) {
	start := time.Now()
	if err := c.pan.SetAngle(ctx, float64(angle)); err != nil {
		return Result{}, fmt.Errorf("pan: %w", err)
	}
	if err := robot.Sleep(ctx, c.cfg.Settle); err != nil {
		return Result{}, err
	}

	frames, err := camera.Burst(ctx, c.cam, c.cfg.Frames)
	if err != nil {
		return Result{}, err
	}
	avg, err := c.cfg.Averager.Run(frames)
	if err != nil {
		return Result{}, fmt.Errorf("average: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.png", angle))
	if err := avg.Frame.Save(path); err != nil {
		return Result{}, err
	}

	res := Result{
		Angle:     angle,
		Accepted:  avg.Accepted,
		Total:     avg.Total,
		SeedIndex: avg.SeedIndex,
		Path:      path,
		Elapsed:   time.Since(start),
	}
	attrs := []any{
		slog.Int("angle", angle),
		slog.Int("accepted", res.Accepted),
		slog.Int("total", res.Total),
		slog.Duration("elapsed", res.Elapsed),
	}
	if res.SeedOnly() {
		logger.Warn("only the seed frame was kept, capture is likely bad", attrs...)
		c.log("Angle %d: averaged %d of %d images (bad capture?)", angle, res.Accepted, res.Total)
	} else {
		logger.Info("angle captured", attrs...)
		c.log("Angle %d: averaged %d of %d images", angle, res.Accepted, res.Total)
	}
	return res, nil
}

// finish homes the servo, sounds the end beep and writes the manifest and
// report. It runs on every exit path, including cancellation.
func (c *Controller) finish(sess *Session, runErr error, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := c.pan.SetAngle(ctx, c.cfg.Home); err != nil {
		errs = append(errs, fmt.Errorf("return pan home: %w", err))
	}
	c.beep(ctx, 1000, logger)

	sess.Finished = time.Now()
	if runErr != nil {
		sess.Error = runErr.Error()
	}
	if err := sess.WriteManifest(); err != nil {
		errs = append(errs, err)
	}
	if len(sess.Results) > 0 {
		if err := WriteReport(sess, filepath.Join(sess.Dir, ReportFile)); err != nil {
			errs = append(errs, err)
		}
	}

	if runErr != nil {
		logger.Error("scan stopped", slog.Any("error", runErr), slog.Int("angles_done", len(sess.Results)))
		c.log("Scan stopped: %v", runErr)
	} else {
		logger.Info("scan finished", slog.Duration("elapsed", sess.Finished.Sub(sess.Started)))
		c.log("Scan finished: %d angles", len(sess.Results))
	}
	return errors.Join(errs...)
}

func (c *Controller) beep(ctx context.Context, freq int, logger *slog.Logger) {
	if !c.cfg.Beep || c.buzzer == nil {
		return
	}
	if err := c.buzzer.Beep(ctx, freq, 200*time.Millisecond); err != nil {
		logger.Warn("beep failed", slog.Any("error", err))
	}
}
