package scan

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ReportFile is the acceptance chart written into every session directory.
const ReportFile = "acceptance.png"

// WriteReport plots the fraction of frames averaged at each angle.
func WriteReport(s *Session, path string) error {
	if len(s.Results) == 0 {
		return fmt.Errorf("write report: no results")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s: frames averaged per angle", s.ID)
	p.X.Label.Text = "angle (deg)"
	p.Y.Label.Text = "accepted / captured"
	p.Y.Min = 0
	p.Y.Max = 1

	pts := make(plotter.XYs, 0, len(s.Results))
	bad := make(plotter.XYs, 0)
	for _, r := range s.Results {
		pt := plotter.XY{X: float64(r.Angle), Y: r.Ratio()}
		pts = append(pts, pt)
		if r.SeedOnly() {
			bad = append(bad, pt)
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("acceptance line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)

	if len(bad) > 0 {
		marks, err := plotter.NewScatter(bad)
		if err != nil {
			return fmt.Errorf("seed-only markers: %w", err)
		}
		marks.GlyphStyle.Color = color.RGBA{R: 220, A: 255}
		marks.GlyphStyle.Radius = vg.Points(3)
		p.Add(marks)
		p.Legend.Add("seed only", marks)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
