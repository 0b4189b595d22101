package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/robocam/pkg/camera"
	"github.com/gwillem/robocam/pkg/robot"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const noPort = "none"

type SetupCommand struct {
	Wiggle bool `long:"wiggle" description:"Sweep the pan servo once the configuration is saved"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("robocam setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		cfg = robot.DefaultConfig()
	}

	ports, err := listPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found. Continuing without a board.")
	}

	boardPort := cfg.Board.Port
	if boardPort == "" {
		boardPort = noPort
	}
	driver := cfg.Pan.Driver
	if driver == "" {
		driver = robot.DriverBoard
	}
	portOptions := append(huh.NewOptions(ports...), huh.NewOption("No board", noPort))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the controller board on?").
				Description("Motors, buzzer, LEDs and hobby servos").
				Options(portOptions...).
				Value(&boardPort),
			huh.NewSelect[string]().
				Title("How is the camera pan servo driven?").
				Options(
					huh.NewOption("Servo channel on the board", robot.DriverBoard),
					huh.NewOption("Feetech bus servo", robot.DriverFeetech),
				).
				Value(&driver),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Board.Port = ""
	if boardPort != noPort {
		cfg.Board.Port = boardPort
	}
	cfg.Pan.Driver = driver

	switch driver {
	case robot.DriverBoard:
		if cfg.Board.Port == "" {
			return errors.New("the board pan driver needs a board port")
		}
		if err := askBoardPan(&cfg.Pan); err != nil {
			return err
		}
	case robot.DriverFeetech:
		if err := askFeetechPan(&cfg.Pan, ports); err != nil {
			return err
		}
	}
	if err := askCalibration(&cfg.Pan.Calibration); err != nil {
		return err
	}
	if err := askCamera(&cfg.Camera); err != nil {
		return err
	}

	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(renderConfig(cfg))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)

	if c.Wiggle {
		if err := wigglePan(cfg); err != nil {
			return fmt.Errorf("wiggle pan: %w", err)
		}
	}

	fmt.Println()
	fmt.Println("Start a scan with: " + headerStyle.Render("robocam scan"))
	return nil
}

func listPorts() ([]string, error) {
	all, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	var ports []string
	for _, p := range all {
		// Skip Bluetooth ports on macOS
		if strings.Contains(p, "Bluetooth") {
			continue
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func askBoardPan(pan *robot.PanConfig) error {
	channel := pan.Channel.String()
	var options []huh.Option[string]
	for _, r := range robot.Servos() {
		options = append(options, huh.NewOption(r.String(), r.String()))
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which servo channel pans the camera?").
				Options(options...).
				Value(&channel),
		),
	).Run()
	if err != nil {
		return err
	}
	r, err := robot.ParseRegister(channel)
	if err != nil {
		return err
	}
	pan.Channel = r
	return nil
}

func askFeetechPan(pan *robot.PanConfig, ports []string) error {
	if len(ports) == 0 {
		return errors.New("no serial ports for the servo bus")
	}
	port := pan.Port
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the servo bus on?").
				Options(huh.NewOptions(ports...)...).
				Value(&port),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %s for servos...\n", port)
	servos, err := scanBus(port)
	if err != nil {
		return err
	}
	if len(servos) == 0 {
		return fmt.Errorf("no servos answered on %s", port)
	}

	var options []huh.Option[int]
	for _, s := range servos {
		options = append(options, huh.NewOption(fmt.Sprintf("ID %d (model %v)", s.ID, s.Model), s.ID))
	}
	id := servos[0].ID
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which servo pans the camera?").
				Options(options...).
				Value(&id),
		),
	).Run()
	if err != nil {
		return err
	}

	pan.Port = port
	pan.ID = id
	if pan.Calibration.RangeMax == 0 {
		pan.Calibration.RangeMin = 0
		pan.Calibration.RangeMax = 2048
	}
	return nil
}

func scanBus(port string) ([]feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	defer bus.Close()

	servos, err := bus.Scan(ctx, 1, 20)
	if err != nil {
		return nil, fmt.Errorf("scan bus: %w", err)
	}
	return servos, nil
}

func askCalibration(cal *robot.Calibration) error {
	invert := cal.Invert
	trim := strconv.FormatFloat(cal.Trim, 'f', -1, 64)
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Is the pan servo mounted mirrored?").
				Description("Angle 0 then points where 180 would on an upright servo").
				Value(&invert),
			huh.NewInput().
				Title("Pan trim in degrees").
				Value(&trim).
				Validate(func(s string) error {
					_, err := strconv.ParseFloat(s, 64)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}
	cal.Invert = invert
	cal.Trim, _ = strconv.ParseFloat(trim, 64)
	return nil
}

func askCamera(cam *camera.Config) error {
	kind := cam.Kind
	files := cam.Files
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where do frames come from?").
				Options(
					huh.NewOption("Capture command ("+strings.Join(cam.Command, " ")+")", camera.KindCommand),
					huh.NewOption("Image files (replay)", camera.KindFiles),
					huh.NewOption("Screen capture", camera.KindScreen),
				).
				Value(&kind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Directory or glob pattern of images").
				Value(&files),
		).WithHideFunc(func() bool { return kind != camera.KindFiles }),
	).Run()
	if err != nil {
		return err
	}
	cam.Kind = kind
	cam.Files = files
	return nil
}

func renderConfig(cfg *robot.Config) string {
	board := cfg.Board.Port
	if board == "" {
		board = "-"
	}
	pan := fmt.Sprintf("%s on %s", cfg.Pan.Driver, cfg.Pan.Channel)
	if cfg.Pan.Driver == robot.DriverFeetech {
		pan = fmt.Sprintf("%s ID %d on %s", cfg.Pan.Driver, cfg.Pan.ID, cfg.Pan.Port)
	}
	cam := cfg.Camera.Kind
	if cfg.Camera.Kind == camera.KindFiles {
		cam += " " + cfg.Camera.Files
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Setting", "Value").
		Rows(
			[]string{"Board", board},
			[]string{"Pan servo", pan},
			[]string{"Pan invert", strconv.FormatBool(cfg.Pan.Calibration.Invert)},
			[]string{"Pan trim", fmt.Sprintf("%g°", cfg.Pan.Calibration.Trim)},
			[]string{"Camera", cam},
			[]string{"Frame size", fmt.Sprintf("%dx%d", cfg.Camera.Width, cfg.Camera.Height)},
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.Render()
}

// wigglePan sweeps the pan servo so the operator can check its direction.
func wigglePan(cfg *robot.Config) error {
	r, err := robot.Open(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx := context.Background()
	for _, angle := range []float64{90, 45, 135, 90} {
		fmt.Printf("  pan -> %.0f°\n", angle)
		if err := r.Pan.SetAngle(ctx, angle); err != nil {
			return err
		}
		time.Sleep(700 * time.Millisecond)
		got, ok, err := robot.ReadAngle(ctx, r.Pan)
		if err != nil {
			return err
		}
		if ok {
			fmt.Println(dimStyle.Render(fmt.Sprintf("    servo reports %.1f°", got)))
		}
	}
	return nil
}
