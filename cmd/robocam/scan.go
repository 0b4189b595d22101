package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/robocam/pkg/average"
	"github.com/gwillem/robocam/pkg/camera"
	"github.com/gwillem/robocam/pkg/robot"
	"github.com/gwillem/robocam/pkg/scan"
)

type ScanCommand struct {
	Dir       string        `short:"d" long:"dir" default:"panorama" description:"Base directory for numbered scan sessions"`
	Min       int           `long:"min" default:"0" description:"First pan angle"`
	Max       int           `long:"max" default:"180" description:"Last pan angle"`
	Step      int           `long:"step" default:"5" description:"Pan angle step"`
	Frames    int           `short:"n" long:"frames" default:"20" description:"Frames captured per angle"`
	Threshold float64       `short:"t" long:"threshold" default:"0.75" description:"Similarity a frame must exceed to be averaged"`
	Seed      string        `long:"seed" default:"last" choice:"last" choice:"median" description:"Reference frame the average starts from"`
	Settle    time.Duration `long:"settle" default:"1s" description:"Wait after each servo move"`
	WarmUp    time.Duration `long:"warm-up" default:"30s" description:"Wait after the start beep"`
	Countdown time.Duration `long:"countdown" default:"5s" description:"Wait after the second beep"`
	Quiet     bool          `long:"quiet" description:"Do not beep"`
	Plain     bool          `long:"plain" description:"Log progress instead of showing the dashboard"`
}

const (
	scanHeaderHeight = 3 // title + status + blank line
	scanFooterHeight = 7 // log box height
	scanMaxLogs      = 5
	ratioDataSet     = "ratio"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (c *ScanCommand) Execute(args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	seed, err := average.ParseSeedStrategy(c.Seed)
	if err != nil {
		return err
	}

	scanCfg := scan.DefaultConfig()
	scanCfg.Dir = c.Dir
	scanCfg.MinAngle, scanCfg.MaxAngle, scanCfg.Step = c.Min, c.Max, c.Step
	scanCfg.Frames = c.Frames
	scanCfg.Settle, scanCfg.WarmUp, scanCfg.Countdown = c.Settle, c.WarmUp, c.Countdown
	scanCfg.Beep = !c.Quiet
	scanCfg.Averager = average.Averager{Threshold: c.Threshold, Seed: seed}

	r, err := robot.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Error("close robot", slog.Any("error", err))
		}
	}()

	cam, err := camera.Open(cfg.Camera)
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	var buzzer scan.Buzzer
	if r.Board != nil {
		buzzer = r.Board
	}

	tui := !c.Plain && isatty.IsTerminal(os.Stdout.Fd())
	runLogger := logger
	if tui {
		runLogger = dashboardLogger(os.Stderr)
	}

	ctrl, err := scan.NewController(scanCfg, r.Pan, cam, buzzer, runLogger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var sess *scan.Session
	if tui {
		sess, err = runScanTUI(ctx, ctrl)
	} else {
		sess, err = ctrl.Run(ctx)
	}
	if sess != nil {
		fmt.Printf("Session %s saved to %s\n", sess.ID, sess.Dir)
	}
	if errors.Is(err, context.Canceled) {
		return errors.New("scan interrupted")
	}
	return err
}

type scanModel struct {
	ctrl     *scan.Controller
	cancel   context.CancelFunc
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	total    int
	done     int
	bad      int
	stopping bool
	finished bool
	sess     *scan.Session
	err      error
}

type scanResultMsg scan.Result
type scanLogMsg string
type scanDoneMsg struct {
	sess *scan.Session
	err  error
}

func waitForResult(ctrl *scan.Controller) tea.Cmd {
	return func() tea.Msg {
		return scanResultMsg(<-ctrl.Results())
	}
}

func waitForScanLog(ctrl *scan.Controller) tea.Cmd {
	return func() tea.Msg {
		return scanLogMsg(<-ctrl.Logs())
	}
}

func newScanModel(ctrl *scan.Controller, cancel context.CancelFunc) *scanModel {
	chart := streamlinechart.New(80, 15,
		streamlinechart.WithYRange(0, 1),
	)
	chart.SetDataSetStyles(ratioDataSet, runes.ThinLineStyle, lipgloss.NewStyle().Foreground(lipgloss.Color("46")))
	return &scanModel{
		ctrl:   ctrl,
		cancel: cancel,
		chart:  &chart,
		total:  len(ctrl.Config().Angles()),
	}
}

func (m *scanModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > scanMaxLogs {
		m.logs = m.logs[len(m.logs)-scanMaxLogs:]
	}
}

func (m *scanModel) resizeChart() {
	w := max(m.width-4, 40)
	h := max(m.height-scanHeaderHeight-scanFooterHeight-2, 5)
	m.chart.Resize(w, h)
	m.chart.DrawAll()
}

func (m *scanModel) Init() tea.Cmd {
	return tea.Batch(
		waitForResult(m.ctrl),
		waitForScanLog(m.ctrl),
	)
}

func (m *scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// keep running until the controller has sent the pan home
			if !m.stopping {
				m.stopping = true
				m.addLog("Stopping, returning pan home...")
				m.cancel()
			}
		}
		return m, nil

	case scanResultMsg:
		r := scan.Result(msg)
		m.done++
		if r.SeedOnly() {
			m.bad++
		}
		m.chart.PushDataSet(ratioDataSet, r.Ratio())
		m.chart.DrawAll()
		return m, waitForResult(m.ctrl)

	case scanLogMsg:
		m.addLog(string(msg))
		return m, waitForScanLog(m.ctrl)

	case scanDoneMsg:
		m.finished = true
		m.sess = msg.sess
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *scanModel) View() string {
	if m.finished {
		if m.err != nil {
			return fmt.Sprintf("Scan stopped after %d of %d angles: %v\n", m.done, m.total, m.err)
		}
		return fmt.Sprintf("Scan complete: %d angles.\n", m.done)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("robocam scan"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  angle %d/%d", m.done, m.total)))
	if m.bad > 0 {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("  %d seed-only", m.bad)))
	}
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render("frames averaged per angle (fraction of burst)"))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to stop")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")
	return sb.String()
}

func runScanTUI(parent context.Context, ctrl *scan.Controller) (*scan.Session, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	model := newScanModel(ctrl, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan scanDoneMsg, 1)
	go func() {
		sess, err := ctrl.Run(ctx)
		msg := scanDoneMsg{sess: sess, err: err}
		done <- msg
		p.Send(msg)
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		d := <-done
		return d.sess, errors.Join(fmt.Errorf("run dashboard: %w", err), d.err)
	}
	m := final.(*scanModel)
	return m.sess, m.err
}
