// Package robocam captures low-noise panoramas with a servo mounted camera
// on a small robot car.
//
// Each pan angle gets a burst of frames. Frames that do not look like the
// running average (a passing shadow, a frame torn by the camera) are left
// out, the rest are averaged into one image per angle.
//
// # Installation
//
//	go install github.com/gwillem/robocam/cmd/robocam@latest
//
// # Usage
//
// First, run setup to pick the board port and the pan servo:
//
//	robocam setup
//
// Then capture a panorama:
//
//	robocam scan
//
// Offline tools work on image files:
//
//	robocam average -o ave-img.png burst/*.png
//	robocam simm a.png b.png
//	robocam enhance ave-img.png
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/robocam: CLI with setup, scan, average, simm, enhance and drive commands
//   - pkg/frame: Frame type, shape checks and image conversion
//   - pkg/similarity: Scale-normalized similarity score
//   - pkg/average: Outlier-rejecting frame averager
//   - pkg/camera: Frame sources (capture command, files, screen)
//   - pkg/robot: Controller board, pan servo, calibration and configuration
//   - pkg/scan: Panorama scan controller, session manifest and report
//   - pkg/teleop: Keyboard remote control
//   - pkg/enhance: Edge enhancement
package robocam
