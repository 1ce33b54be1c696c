// Package chart draws density chart specs to image files with gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/present"
)

// Supported output formats.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// FileRenderer writes each chart to <Dir>/<metric>.<Format>.
type FileRenderer struct {
	Dir    string
	Format string
	Width  vg.Length
	Height vg.Length
}

// NewFileRenderer returns a renderer with default dimensions. An empty
// format means PNG.
func NewFileRenderer(dir, format string) (*FileRenderer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPNG
	}
	if format != FormatPNG && format != FormatSVG {
		return nil, fmt.Errorf("unsupported chart format '%s' (use png or svg)", format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}
	return &FileRenderer{Dir: dir, Format: format, Width: DefaultWidth, Height: DefaultHeight}, nil
}

// File is a chart written to disk. Destroying it removes the file.
type File struct {
	Path string
}

func (f *File) Destroy() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove chart file: %w", err)
	}
	return nil
}

// Render draws spec and saves it.
func (r *FileRenderer) Render(spec present.ChartSpec) (present.Drawable, error) {
	p, err := plot.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create plot: %w", err)
	}
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.X.Min = 0
	p.Add(plotter.NewGrid())

	for _, s := range spec.Series {
		xys := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}

		if s.Fill != nil && len(xys) > 1 {
			area := append(plotter.XYs{{X: xys[0].X, Y: 0}}, xys...)
			area = append(area, plotter.XY{X: xys[len(xys)-1].X, Y: 0})
			poly, err := plotter.NewPolygon(area)
			if err != nil {
				return nil, fmt.Errorf("failed to fill series %q: %w", s.Label, err)
			}
			poly.Color = toNRGBA(*s.Fill)
			poly.LineStyle.Width = 0
			p.Add(poly)
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("failed to draw series %q: %w", s.Label, err)
		}
		line.LineStyle.Color = toNRGBA(s.Color)
		line.LineStyle.Width = vg.Points(2)
		if s.Dashed {
			line.LineStyle.Width = vg.Points(1)
			line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		}

		p.Add(line)
		if s.InLegend() {
			p.Legend.Add(s.Label, line)
		}
	}

	width, height := r.Width, r.Height
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}

	path := r.Path(spec.Metric)
	if err := p.Save(width, height, path); err != nil {
		return nil, fmt.Errorf("failed to save chart: %w", err)
	}
	return &File{Path: path}, nil
}

// Path returns the file a metric's chart is written to.
func (r *FileRenderer) Path(m analysis.Metric) string {
	format := r.Format
	if format == "" {
		format = FormatPNG
	}
	return filepath.Join(r.Dir, string(m)+"."+format)
}

func toNRGBA(c present.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(c.A*255 + 0.5)}
}
