// Package robot drives the smart car's controller board and camera servos.
package robot

import "fmt"

// Register is a command byte understood by the controller board.
type Register uint8

// Controller board registers.
const (
	Servo1 Register = iota // steering
	Servo2                 // camera pan
	Servo3                 // camera tilt
	Servo4
	PWM1
	PWM2
	Dir1
	Dir2
	Buzzer
	IO1 // red LED, active low
	IO2 // green LED, active low
	IO3 // blue LED, active low
	Sonic
)

var registerNames = map[Register]string{
	Servo1: "servo1",
	Servo2: "servo2",
	Servo3: "servo3",
	Servo4: "servo4",
	PWM1:   "pwm1",
	PWM2:   "pwm2",
	Dir1:   "dir1",
	Dir2:   "dir2",
	Buzzer: "buzzer",
	IO1:    "io1",
	IO2:    "io2",
	IO3:    "io3",
	Sonic:  "sonic",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("register(%d)", uint8(r))
}

// ParseRegister maps a register name such as "servo2" back to its value.
func ParseRegister(name string) (Register, error) {
	for r, n := range registerNames {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

// Servos returns the servo registers in channel order.
func Servos() []Register {
	return []Register{Servo1, Servo2, Servo3, Servo4}
}

// LEDs returns the LED registers (red, green, blue).
func LEDs() []Register {
	return []Register{IO1, IO2, IO3}
}
