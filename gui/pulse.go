//go:build gui

package gui

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const pulseSize = 14

var (
	pulseIdle   = color.RGBA{180, 180, 180, 255}
	pulseListen = color.RGBA{220, 40, 40, 255}
	pulseError  = color.RGBA{255, 165, 0, 255}
)

// pulse is the dictation indicator next to the microphone button. It
// breathes while listening.
type pulse struct {
	widget.BaseWidget
	mu     sync.Mutex
	frame  int
	col    color.Color
	active bool
	stopCh chan struct{}
}

func newPulse() *pulse {
	p := &pulse{col: pulseIdle, stopCh: make(chan struct{})}
	p.ExtendBaseWidget(p)
	go p.animate()
	return p
}

func (p *pulse) set(c color.Color, active bool) {
	p.mu.Lock()
	p.col = c
	p.active = active
	p.mu.Unlock()
	p.Refresh()
}

func (p *pulse) Stop() {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}

func (p *pulse) animate() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.mu.Lock()
			active := p.active
			if active {
				p.frame++
			}
			p.mu.Unlock()
			if active {
				fyne.Do(p.Refresh)
			}
		}
	}
}

func (p *pulse) MinSize() fyne.Size {
	return fyne.NewSize(pulseSize*2, pulseSize*2)
}

func (p *pulse) CreateRenderer() fyne.WidgetRenderer {
	return &pulseRenderer{p: p, dot: canvas.NewCircle(pulseIdle)}
}

type pulseRenderer struct {
	p    *pulse
	dot  *canvas.Circle
	size fyne.Size
}

func (r *pulseRenderer) Layout(size fyne.Size) {
	r.size = size
	r.place()
}

func (r *pulseRenderer) place() {
	r.p.mu.Lock()
	frame, active := r.p.frame, r.p.active
	r.p.mu.Unlock()

	radius := float32(pulseSize) / 2
	if active {
		radius *= 1 + 0.35*float32(math.Sin(float64(frame)*0.25))
	}
	cx, cy := r.size.Width/2, r.size.Height/2
	r.dot.Move(fyne.NewPos(cx-radius, cy-radius))
	r.dot.Resize(fyne.NewSize(radius*2, radius*2))
}

func (r *pulseRenderer) MinSize() fyne.Size { return r.p.MinSize() }

func (r *pulseRenderer) Refresh() {
	r.p.mu.Lock()
	r.dot.FillColor = r.p.col
	r.p.mu.Unlock()
	r.place()
	r.dot.Refresh()
}

func (r *pulseRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.dot} }

func (r *pulseRenderer) Destroy() { r.p.Stop() }
