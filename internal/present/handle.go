package present

import "fmt"

// Drawable is a live chart owned by a ChartHandle.
type Drawable interface {
	Destroy() error
}

// Renderer is the charting collaborator: it turns a spec into a Drawable.
type Renderer interface {
	Render(spec ChartSpec) (Drawable, error)
}

// ChartHandle owns at most one live chart. Replace always releases the
// previous chart before a new one is created.
type ChartHandle struct {
	renderer Renderer
	current  Drawable
}

func NewChartHandle(r Renderer) *ChartHandle {
	return &ChartHandle{renderer: r}
}

// Replace destroys the current chart, if any, and renders spec. When the old
// chart cannot be destroyed no new one is created.
func (h *ChartHandle) Replace(spec ChartSpec) error {
	if err := h.Close(); err != nil {
		return err
	}

	d, err := h.renderer.Render(spec)
	if err != nil {
		return fmt.Errorf("failed to render %s chart: %w", spec.Metric, err)
	}
	h.current = d
	return nil
}

// Current returns the live chart, or nil.
func (h *ChartHandle) Current() Drawable {
	return h.current
}

// Close destroys the live chart. The handle forgets it even if Destroy fails.
func (h *ChartHandle) Close() error {
	if h.current == nil {
		return nil
	}
	d := h.current
	h.current = nil
	if err := d.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy chart: %w", err)
	}
	return nil
}
