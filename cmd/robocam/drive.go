package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/robocam/pkg/robot"
	"github.com/gwillem/robocam/pkg/teleop"
)

type DriveCommand struct {
	Speed      int     `long:"speed" default:"50" description:"Initial motor speed in percent"`
	TurnStep   float64 `long:"turn-step" default:"10" description:"Steering degrees per key press"`
	CameraStep float64 `long:"camera-step" default:"10" description:"Camera pan/tilt degrees per key press"`
	Trim       float64 `long:"trim" description:"Steering trim in degrees"`
	BuzzerFreq int     `long:"buzzer" default:"2000" description:"Buzzer frequency in Hz"`
}

const driveMaxLogs = 5

var driveHelp = []string{
	"w/s  forward/backward   space  stop",
	"a/d  steer              c      straight",
	"←/→  pan  ↑/↓ tilt      h      camera home",
	"+/-  speed              1/2/3  LEDs   b buzzer",
	"q    quit",
}

var (
	onStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	offStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (c *DriveCommand) Execute(args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Board.Port == "" {
		return fmt.Errorf("no board port in %s, run 'robocam setup' first", opts.Config)
	}

	board, err := robot.OpenBoard(cfg.Board)
	if err != nil {
		return err
	}
	defer board.Close()

	tcfg := teleop.DefaultConfig()
	tcfg.Speed = c.Speed
	tcfg.TurnStep = c.TurnStep
	tcfg.CameraStep = c.CameraStep
	tcfg.SteeringTrim = c.Trim
	tcfg.BuzzerFreq = c.BuzzerFreq
	if cfg.Pan.Driver == robot.DriverBoard {
		tcfg.PanServo = cfg.Pan.Channel
	}

	ctrl, err := teleop.NewController(board, tcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			logger.Error("shut down car", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newDriveModel(ctx, ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run remote control: %w", err)
	}
	return nil
}

type driveModel struct {
	ctx   context.Context
	ctrl  *teleop.Controller
	state teleop.State
	width int
	logs  []string
}

type driveStateMsg teleop.State
type driveLogMsg string

func waitForDriveState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return driveStateMsg(<-ctrl.States())
	}
}

func waitForDriveLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return driveLogMsg(<-ctrl.Logs())
	}
}

func newDriveModel(ctx context.Context, ctrl *teleop.Controller) driveModel {
	return driveModel{ctx: ctx, ctrl: ctrl, state: ctrl.State()}
}

func (m *driveModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > driveMaxLogs {
		m.logs = m.logs[len(m.logs)-driveMaxLogs:]
	}
}

// do runs a controller command off the UI goroutine; results come back
// through the state and log channels.
func do(fn func() error) tea.Cmd {
	return func() tea.Msg {
		_ = fn()
		return nil
	}
}

func (m driveModel) Init() tea.Cmd {
	return tea.Batch(
		waitForDriveState(m.ctrl),
		waitForDriveLog(m.ctrl),
	)
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		c := m.ctrl
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			return m, do(func() error { return c.Forward(m.ctx) })
		case "s":
			return m, do(func() error { return c.Backward(m.ctx) })
		case " ":
			return m, do(c.Stop)
		case "a":
			return m, do(c.Left)
		case "d":
			return m, do(c.Right)
		case "c":
			return m, do(c.Straight)
		case "left":
			return m, do(func() error { return c.PanBy(1) })
		case "right":
			return m, do(func() error { return c.PanBy(-1) })
		case "up":
			return m, do(func() error { return c.TiltBy(1) })
		case "down":
			return m, do(func() error { return c.TiltBy(-1) })
		case "h":
			return m, do(c.HomeCamera)
		case "+", "=":
			c.AdjustSpeed(10)
		case "-":
			c.AdjustSpeed(-10)
		case "1", "2", "3":
			i := int(msg.String()[0] - '1')
			return m, do(func() error { return c.ToggleLED(i) })
		case "b":
			return m, do(c.ToggleBuzzer)
		}
		return m, nil

	case driveStateMsg:
		m.state = teleop.State(msg)
		return m, waitForDriveState(m.ctrl)

	case driveLogMsg:
		m.addLog(string(msg))
		return m, waitForDriveLog(m.ctrl)
	}
	return m, nil
}

func onOff(on bool, label string) string {
	if on {
		return onStyle.Render(label)
	}
	return offStyle.Render(label)
}

func (m driveModel) View() string {
	s := m.state
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("robocam drive"))
	sb.WriteString("\n\n")

	leds := strings.Join([]string{
		onOff(s.LEDs[0], "red"),
		onOff(s.LEDs[1], "green"),
		onOff(s.LEDs[2], "blue"),
	}, " ")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(statusStyle).
		Rows(
			[]string{"Motion", s.Motion.String()},
			[]string{"Speed", fmt.Sprintf("%d%%", s.Speed)},
			[]string{"Steering", fmt.Sprintf("%.0f°", s.Steering)},
			[]string{"Camera", fmt.Sprintf("pan %.0f°  tilt %.0f°", s.Pan, s.Tilt)},
			[]string{"LEDs", leds},
			[]string{"Buzzer", onOff(s.Buzzing, "on")},
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(strings.Join(driveHelp, "\n")))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))
	logLines := statusStyle.Render("Ready")
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")
	return sb.String()
}
