package report

import (
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const diagramSize = 6 * vg.Inch

// PhasorPlot draws every non-reference node voltage as an arrow from the
// origin of the complex plane.
func PhasorPlot(title string, nodes []string, voltages map[string]complex128, reference string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Re (V)"
	p.Y.Label.Text = "Im (V)"
	p.Add(plotter.NewGrid())

	labels := plotter.XYLabels{}
	radius := 0.0
	for i, node := range nodes {
		if node == reference {
			continue
		}
		v, ok := voltages[node]
		if !ok {
			continue
		}

		line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: real(v), Y: imag(v)}})
		if err != nil {
			return nil, fmt.Errorf("node %s: %v", node, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("V("+node+")", line)

		labels.XYs = append(labels.XYs, plotter.XY{X: real(v), Y: imag(v)})
		labels.Labels = append(labels.Labels, node)
		radius = math.Max(radius, math.Hypot(real(v), imag(v)))
	}

	if len(labels.XYs) > 0 {
		names, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, err
		}
		p.Add(names)
	}

	// Square, centred view
	if radius == 0 {
		radius = 1
	}
	radius *= 1.15
	p.X.Min, p.X.Max = -radius, radius
	p.Y.Min, p.Y.Max = -radius, radius
	p.Legend.Top = true

	return p, nil
}

// WritePhasorPlot renders the phasor diagram as PNG.
func WritePhasorPlot(w io.Writer, title string, nodes []string, voltages map[string]complex128, reference string) error {
	p, err := PhasorPlot(title, nodes, voltages, reference)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(diagramSize, diagramSize, "png")
	if err != nil {
		return fmt.Errorf("rendering phasor diagram: %v", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func SavePhasorPlot(path, title string, nodes []string, voltages map[string]complex128, reference string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := WritePhasorPlot(f, title, nodes, voltages, reference); err != nil {
		return err
	}
	return f.Close()
}
