package styles

import (
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Keyframe is one opacity stop of an animation, Offset in [0,1]
type Keyframe struct {
	Offset  float64 `yaml:"offset"`
	Opacity float64 `yaml:"opacity"`
}

// Animation binds keyframes to a cycle duration and an easing curve
type Animation struct {
	Keyframes string
	Duration  time.Duration
	Easing    string
}

// Easing names
const (
	LinearName    = "linear"
	EaseInName    = "ease-in"
	EaseOutName   = "ease-out"
	EaseInOutName = "ease-in-out"
)

var easings = map[string]func(float64) float64{
	LinearName:    func(t float64) float64 { return t },
	EaseInName:    func(t float64) float64 { return t * t },
	EaseOutName:   func(t float64) float64 { return 1 - (1-t)*(1-t) },
	EaseInOutName: EaseInOut,
}

// EaseInOut accelerates through the first half and decelerates through the second
func EaseInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - 2*(1-t)*(1-t)
}

var (
	errTooFewKeyframes = errors.New("at least two keyframes are required")
	errKeyframeRange   = errors.New("keyframe offset and opacity must be within [0,1]")
	errKeyframeOrder   = errors.New("keyframe offsets must be strictly increasing")
)

func validateKeyframes(frames []Keyframe) error {
	if len(frames) < 2 {
		return errTooFewKeyframes
	}
	for i, f := range frames {
		if f.Offset < 0 || f.Offset > 1 || f.Opacity < 0 || f.Opacity > 1 {
			return errKeyframeRange
		}
		if i > 0 && f.Offset <= frames[i-1].Offset {
			return errKeyframeOrder
		}
	}
	return nil
}

// Opacity samples the animation at elapsed time, repeating every Duration.
// Easing applies per keyframe segment.
func (t *Theme) Opacity(name string, elapsed time.Duration) (float64, bool) {
	a, ok := t.Animations[name]
	if !ok {
		return 1, false
	}
	frames, ok := t.Keyframes[a.Keyframes]
	if !ok || len(frames) == 0 || a.Duration <= 0 {
		return 1, false
	}

	ease, ok := easings[a.Easing]
	if !ok {
		ease = easings[LinearName]
	}

	p := math.Mod(float64(elapsed), float64(a.Duration)) / float64(a.Duration)
	if elapsed > 0 && p == 0 {
		// Cycle boundaries land on the final stop
		p = 1
	}
	return sampleKeyframes(frames, p, ease), true
}

func sampleKeyframes(frames []Keyframe, p float64, ease func(float64) float64) float64 {
	if p <= frames[0].Offset {
		return frames[0].Opacity
	}
	last := frames[len(frames)-1]
	if p >= last.Offset {
		return last.Opacity
	}
	for i := 1; i < len(frames); i++ {
		from, to := frames[i-1], frames[i]
		if p <= to.Offset {
			local := (p - from.Offset) / (to.Offset - from.Offset)
			return from.Opacity + (to.Opacity-from.Opacity)*ease(local)
		}
	}
	return last.Opacity
}

// Fade approximates fg drawn at the given opacity over bg
func Fade(fg, bg lipgloss.Color, opacity float64) lipgloss.Color {
	opacity = math.Max(0, math.Min(1, opacity))
	f, err := colorful.Hex(string(fg))
	if err != nil {
		return stepFade(fg, bg, opacity)
	}
	b, err := colorful.Hex(string(bg))
	if err != nil {
		return stepFade(fg, bg, opacity)
	}
	return lipgloss.Color(b.BlendRgb(f, opacity).Clamped().Hex())
}

// stepFade handles ANSI indices and empty colours, which cannot be blended
func stepFade(fg, bg lipgloss.Color, opacity float64) lipgloss.Color {
	if opacity >= 0.5 {
		return fg
	}
	return bg
}
