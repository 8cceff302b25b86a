package styles

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// Theme represents the complete set of visual tokens for the playground
type Theme struct {
	Name   string
	IsDark bool

	Colors ColorTokens
	Radius Radius
	Fonts  Fonts

	// Keyframes by name; animations reference them by the same name
	Keyframes  map[string][]Keyframe
	Animations map[string]Animation
}

// ColorPair is a surface colour and the text colour drawn on it
type ColorPair struct {
	Default    lipgloss.Color
	Foreground lipgloss.Color
}

// ColorTokens defines the semantic colour system
type ColorTokens struct {
	Border     lipgloss.Color
	Input      lipgloss.Color
	Ring       lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color

	Primary     ColorPair
	Secondary   ColorPair
	Destructive ColorPair
	Muted       ColorPair
	Accent      ColorPair
	Popover     ColorPair
	Card        ColorPair
}

// Radius is the corner radius scale in rem. Terminals only distinguish
// rounded from square corners, see Border.
type Radius struct {
	LG float64
	MD float64
	SM float64
}

// Fonts lists the font family stacks
type Fonts struct {
	Sans []string
	Mono []string
}

// Radius sizes
const (
	RadiusLG = "lg"
	RadiusMD = "md"
	RadiusSM = "sm"
)

// BlinkAnimation is the name of the not-found banner animation
const BlinkAnimation = "blink"

const baseRadius = 0.5

func newRadius(base float64) Radius {
	// md and sm are 2px and 4px below lg at a 16px root
	return Radius{LG: base, MD: base - 0.125, SM: base - 0.25}
}

func defaultFonts() Fonts {
	return Fonts{
		Sans: []string{"Inter", "ui-sans-serif", "system-ui", "sans-serif"},
		Mono: []string{"JetBrains Mono", "ui-monospace", "SFMono-Regular", "monospace"},
	}
}

func defaultKeyframes() map[string][]Keyframe {
	return map[string][]Keyframe{
		BlinkAnimation: {
			{Offset: 0, Opacity: 1},
			{Offset: 0.5, Opacity: 0},
			{Offset: 1, Opacity: 1},
		},
	}
}

func defaultAnimations() map[string]Animation {
	return map[string]Animation{
		BlinkAnimation: {
			Keyframes: BlinkAnimation,
			Duration:  500 * time.Millisecond,
			Easing:    EaseInOutName,
		},
	}
}

// Built-in themes
var (
	Light = Theme{
		Name:   "light",
		IsDark: false,
		Colors: ColorTokens{
			Border:     lipgloss.Color("#E4E4E7"),
			Input:      lipgloss.Color("#E4E4E7"),
			Ring:       lipgloss.Color("#18181B"),
			Background: lipgloss.Color("#FFFFFF"),
			Foreground: lipgloss.Color("#09090B"),

			Primary:     ColorPair{Default: "#18181B", Foreground: "#FAFAFA"},
			Secondary:   ColorPair{Default: "#F4F4F5", Foreground: "#18181B"},
			Destructive: ColorPair{Default: "#EF4444", Foreground: "#FAFAFA"},
			Muted:       ColorPair{Default: "#F4F4F5", Foreground: "#71717A"},
			Accent:      ColorPair{Default: "#F4F4F5", Foreground: "#18181B"},
			Popover:     ColorPair{Default: "#FFFFFF", Foreground: "#09090B"},
			Card:        ColorPair{Default: "#FFFFFF", Foreground: "#09090B"},
		},
	}

	Dark = Theme{
		Name:   "dark",
		IsDark: true,
		Colors: ColorTokens{
			Border:     lipgloss.Color("#27272A"),
			Input:      lipgloss.Color("#27272A"),
			Ring:       lipgloss.Color("#D4D4D8"),
			Background: lipgloss.Color("#09090B"),
			Foreground: lipgloss.Color("#FAFAFA"),

			Primary:     ColorPair{Default: "#FAFAFA", Foreground: "#18181B"},
			Secondary:   ColorPair{Default: "#27272A", Foreground: "#FAFAFA"},
			Destructive: ColorPair{Default: "#DC2626", Foreground: "#FAFAFA"},
			Muted:       ColorPair{Default: "#27272A", Foreground: "#A1A1AA"},
			Accent:      ColorPair{Default: "#27272A", Foreground: "#FAFAFA"},
			Popover:     ColorPair{Default: "#09090B", Foreground: "#FAFAFA"},
			Card:        ColorPair{Default: "#09090B", Foreground: "#FAFAFA"},
		},
	}
)

func init() {
	for _, t := range []*Theme{&Light, &Dark} {
		t.Radius = newRadius(baseRadius)
		t.Fonts = defaultFonts()
		t.Keyframes = defaultKeyframes()
		t.Animations = defaultAnimations()
	}
}

// Clone returns a deep copy so overrides never leak into the built-ins
func (t *Theme) Clone() *Theme {
	c := *t
	c.Fonts = Fonts{
		Sans: append([]string(nil), t.Fonts.Sans...),
		Mono: append([]string(nil), t.Fonts.Mono...),
	}
	c.Keyframes = make(map[string][]Keyframe, len(t.Keyframes))
	for name, frames := range t.Keyframes {
		c.Keyframes[name] = append([]Keyframe(nil), frames...)
	}
	c.Animations = make(map[string]Animation, len(t.Animations))
	for name, a := range t.Animations {
		c.Animations[name] = a
	}
	return &c
}

// colorRefs maps token names to the fields holding them
func (t *Theme) colorRefs() map[string]*lipgloss.Color {
	c := &t.Colors
	return map[string]*lipgloss.Color{
		"border":                 &c.Border,
		"input":                  &c.Input,
		"ring":                   &c.Ring,
		"background":             &c.Background,
		"foreground":             &c.Foreground,
		"primary":                &c.Primary.Default,
		"primary-foreground":     &c.Primary.Foreground,
		"secondary":              &c.Secondary.Default,
		"secondary-foreground":   &c.Secondary.Foreground,
		"destructive":            &c.Destructive.Default,
		"destructive-foreground": &c.Destructive.Foreground,
		"muted":                  &c.Muted.Default,
		"muted-foreground":       &c.Muted.Foreground,
		"accent":                 &c.Accent.Default,
		"accent-foreground":      &c.Accent.Foreground,
		"popover":                &c.Popover.Default,
		"popover-foreground":     &c.Popover.Foreground,
		"card":                   &c.Card.Default,
		"card-foreground":        &c.Card.Foreground,
	}
}

// Color looks a colour token up by name, e.g. "destructive-foreground"
func (t *Theme) Color(name string) (lipgloss.Color, bool) {
	ref, ok := t.colorRefs()[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return *ref, true
}

// TokenNames returns every colour token name in sorted order
func (t *Theme) TokenNames() []string {
	refs := t.colorRefs()
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Border returns the lipgloss border matching a radius size
func (t *Theme) Border(size string) lipgloss.Border {
	var r float64
	switch size {
	case RadiusLG:
		r = t.Radius.LG
	case RadiusMD:
		r = t.Radius.MD
	default:
		r = t.Radius.SM
	}
	if r > 0 {
		return lipgloss.RoundedBorder()
	}
	return lipgloss.NormalBorder()
}

// ThemeFile is the YAML shape of a theme override file
type ThemeFile struct {
	Name       string                   `yaml:"name"`
	Base       string                   `yaml:"base"`
	Colors     map[string]string        `yaml:"colors"`
	Radius     *float64                 `yaml:"radius"`
	Fonts      *ThemeFileFonts          `yaml:"fonts"`
	Keyframes  map[string][]Keyframe    `yaml:"keyframes"`
	Animations map[string]AnimationFile `yaml:"animations"`
}

// ThemeFileFonts overrides font stacks
type ThemeFileFonts struct {
	Sans []string `yaml:"sans"`
	Mono []string `yaml:"mono"`
}

// AnimationFile overrides an animation; Duration uses Go syntax ("500ms")
type AnimationFile struct {
	Keyframes string `yaml:"keyframes"`
	Duration  string `yaml:"duration"`
	Easing    string `yaml:"easing"`
}

// ParseThemeFile decodes a theme override document
func ParseThemeFile(data []byte) (*ThemeFile, error) {
	var tf ThemeFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	return &tf, nil
}

// Apply returns a copy of base with the overrides applied
func (tf *ThemeFile) Apply(base *Theme) (*Theme, error) {
	t := base.Clone()
	if tf.Name != "" {
		t.Name = tf.Name
	}

	refs := t.colorRefs()
	for name, value := range tf.Colors {
		ref, ok := refs[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown colour token %q", name)
		}
		*ref = lipgloss.Color(value)
	}

	if tf.Radius != nil {
		if *tf.Radius < 0 {
			return nil, fmt.Errorf("radius cannot be negative")
		}
		t.Radius = newRadius(*tf.Radius)
	}

	if tf.Fonts != nil {
		if len(tf.Fonts.Sans) > 0 {
			t.Fonts.Sans = tf.Fonts.Sans
		}
		if len(tf.Fonts.Mono) > 0 {
			t.Fonts.Mono = tf.Fonts.Mono
		}
	}

	for name, frames := range tf.Keyframes {
		if err := validateKeyframes(frames); err != nil {
			return nil, fmt.Errorf("keyframes %q: %w", name, err)
		}
		t.Keyframes[name] = frames
	}

	for name, af := range tf.Animations {
		a := t.Animations[name]
		if af.Keyframes != "" {
			a.Keyframes = af.Keyframes
		}
		if a.Keyframes == "" {
			a.Keyframes = name
		}
		if af.Duration != "" {
			d, err := time.ParseDuration(af.Duration)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("animation %q: invalid duration %q", name, af.Duration)
			}
			a.Duration = d
		}
		if af.Easing != "" {
			if _, ok := easings[af.Easing]; !ok {
				return nil, fmt.Errorf("animation %q: unknown easing %q", name, af.Easing)
			}
			a.Easing = af.Easing
		}
		if _, ok := t.Keyframes[a.Keyframes]; !ok {
			return nil, fmt.Errorf("animation %q references unknown keyframes %q", name, a.Keyframes)
		}
		t.Animations[name] = a
	}

	return t, nil
}

// ThemeManager resolves the active theme and adapts it to the terminal
type ThemeManager struct {
	currentTheme    *Theme
	availableThemes map[string]*Theme
	profile         termenv.Profile
	darkBackground  bool
}

// NewThemeManager creates a theme manager for the given terminal profile
func NewThemeManager(profile termenv.Profile, darkBackground bool) *ThemeManager {
	tm := &ThemeManager{
		availableThemes: make(map[string]*Theme),
		profile:         profile,
		darkBackground:  darkBackground,
	}

	tm.RegisterTheme(&Light)
	tm.RegisterTheme(&Dark)

	// auto always resolves against built-ins
	_ = tm.SetTheme("auto")

	return tm
}

// NewTerminalThemeManager detects the colour profile and background of stdout
func NewTerminalThemeManager() *ThemeManager {
	output := termenv.NewOutput(os.Stdout)
	return NewThemeManager(output.ColorProfile(), output.HasDarkBackground())
}

// RegisterTheme registers a theme under its name
func (tm *ThemeManager) RegisterTheme(theme *Theme) {
	tm.availableThemes[theme.Name] = theme
}

// LoadThemeFile registers the theme described by a YAML override file and
// returns its name
func (tm *ThemeManager) LoadThemeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read theme file: %w", err)
	}
	tf, err := ParseThemeFile(data)
	if err != nil {
		return "", err
	}

	base := tm.resolve(tf.Base)
	if base == nil {
		return "", fmt.Errorf("theme '%s' not found", tf.Base)
	}
	if tf.Name == "" {
		tf.Name = "custom"
	}

	theme, err := tf.Apply(base)
	if err != nil {
		return "", err
	}
	tm.RegisterTheme(theme)
	return theme.Name, nil
}

// resolve maps "" and "auto" to the built-in matching the background
func (tm *ThemeManager) resolve(name string) *Theme {
	if name == "" || name == "auto" {
		if tm.darkBackground {
			return tm.availableThemes[Dark.Name]
		}
		return tm.availableThemes[Light.Name]
	}
	return tm.availableThemes[name]
}

// SetTheme activates a theme by name
func (tm *ThemeManager) SetTheme(name string) error {
	theme := tm.resolve(name)
	if theme == nil {
		return fmt.Errorf("theme '%s' not found", name)
	}

	tm.currentTheme = tm.adaptThemeToTerminal(theme)
	return nil
}

// GetCurrentTheme returns the currently active theme
func (tm *ThemeManager) GetCurrentTheme() *Theme {
	return tm.currentTheme
}

// Profile returns the terminal colour profile themes are adapted to
func (tm *ThemeManager) Profile() termenv.Profile {
	return tm.profile
}

// adaptThemeToTerminal downsamples every colour token to the profile
func (tm *ThemeManager) adaptThemeToTerminal(theme *Theme) *Theme {
	adapted := theme.Clone()
	if tm.profile == termenv.TrueColor {
		return adapted
	}
	for _, ref := range adapted.colorRefs() {
		*ref = convertColor(tm.profile, *ref)
	}
	return adapted
}

// convertColor maps a hex colour to the nearest colour the profile can show
func convertColor(profile termenv.Profile, c lipgloss.Color) lipgloss.Color {
	if profile == termenv.Ascii {
		return lipgloss.Color("")
	}
	switch converted := profile.Color(string(c)).(type) {
	case termenv.ANSIColor:
		return lipgloss.Color(strconv.Itoa(int(converted)))
	case termenv.ANSI256Color:
		return lipgloss.Color(strconv.Itoa(int(converted)))
	case termenv.RGBColor:
		return lipgloss.Color(string(converted))
	default:
		return c
	}
}
