package components

import (
	"math"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/john/playauth/internal/ui/styles"
)

// BlinkDuration is how long the not-found banner blinks before settling
const BlinkDuration = time.Second

const blinkFPS = 60

var lastBlinkID int64

func nextBlinkID() int {
	return int(atomic.AddInt64(&lastBlinkID, 1))
}

// BlinkFrameMsg advances a running blink by one frame
type BlinkFrameMsg struct {
	Time time.Time
	ID   int
	tag  int
}

// Blink drives the theme's "blink" animation for a fixed window, then eases
// the opacity back to fully visible with a spring
type Blink struct {
	id       int
	tag      int
	theme    *styles.Theme
	duration time.Duration
	fps      int

	start    time.Time
	active   bool
	settling bool
	opacity  float64
	velocity float64
	spring   harmonica.Spring
}

// NewBlink creates an idle blink using the theme's keyframes
func NewBlink(theme *styles.Theme) *Blink {
	return &Blink{
		id:       nextBlinkID(),
		theme:    theme,
		duration: BlinkDuration,
		fps:      blinkFPS,
		opacity:  1,
		spring:   harmonica.NewSpring(harmonica.FPS(blinkFPS), 8.0, 1.0),
	}
}

// ID returns the blink's identifier
func (b *Blink) ID() int {
	return b.id
}

// SetTheme swaps the keyframe source; a running blink keeps going
func (b *Blink) SetTheme(theme *styles.Theme) {
	b.theme = theme
}

// Active reports whether the blink window is still running
func (b *Blink) Active() bool {
	return b.active
}

// Opacity is the current banner opacity in [0,1]
func (b *Blink) Opacity() float64 {
	return math.Max(0, math.Min(1, b.opacity))
}

// Start (re)starts the blink at now. Frames from earlier runs are ignored.
func (b *Blink) Start(now time.Time) tea.Cmd {
	b.tag++
	b.start = now
	b.active = true
	b.settling = false
	b.opacity = 1
	b.velocity = 0
	return b.tick()
}

// Stop ends the blink immediately at full opacity
func (b *Blink) Stop() {
	b.tag++
	b.active = false
	b.settling = false
	b.opacity = 1
	b.velocity = 0
}

// Update handles frame messages addressed to this blink
func (b *Blink) Update(msg tea.Msg) tea.Cmd {
	frame, ok := msg.(BlinkFrameMsg)
	if !ok || frame.ID != b.id || frame.tag != b.tag {
		return nil
	}
	return b.Advance(frame.Time)
}

// Advance samples the animation at now and schedules the next frame while
// there is anything left to draw
func (b *Blink) Advance(now time.Time) tea.Cmd {
	if b.active {
		elapsed := now.Sub(b.start)
		if elapsed < b.duration {
			b.opacity, _ = b.theme.Opacity(styles.BlinkAnimation, elapsed)
			return b.tick()
		}
		b.active = false
		b.settling = true
	}

	if b.settling {
		b.opacity, b.velocity = b.spring.Update(b.opacity, b.velocity, 1)
		if math.Abs(1-b.opacity) < 0.01 && math.Abs(b.velocity) < 0.01 {
			b.opacity = 1
			b.velocity = 0
			b.settling = false
			return nil
		}
		return b.tick()
	}

	return nil
}

func (b *Blink) tick() tea.Cmd {
	id, tag := b.id, b.tag
	interval := time.Duration(harmonica.FPS(b.fps) * float64(time.Second))
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return BlinkFrameMsg{Time: t, ID: id, tag: tag}
	})
}
