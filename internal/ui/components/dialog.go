package components

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/john/playauth/internal/api"
	"github.com/john/playauth/internal/auth"
	"github.com/john/playauth/internal/playground"
	"github.com/john/playauth/internal/storage"
	"github.com/john/playauth/internal/ui/styles"
)

// DialogPhase is the view-model state of the auth dialog
type DialogPhase int

const (
	PhaseClosed DialogPhase = iota
	PhaseOpen
	PhaseSubmitting
	PhaseNotFound
)

// String returns the string representation of DialogPhase
func (p DialogPhase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseOpen:
		return "open"
	case PhaseSubmitting:
		return "submitting"
	case PhaseNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Auditor records the outcome of each sign-in attempt
type Auditor interface {
	Record(outcome storage.Outcome, phone string, latency time.Duration, cause error) error
}

// TokenResultMsg carries the result of a token request back to the dialog
type TokenResultMsg struct {
	Seq     int
	Phone   string
	Token   string
	Err     error
	Latency time.Duration
}

// AuthDialogOptions configures an AuthDialog
type AuthDialogOptions struct {
	Context         context.Context
	Store           *playground.Store
	Source          api.TokenSource
	Styles          *styles.Styles
	Logger          *log.Logger
	Auditor         Auditor
	RegistrationURL string
	// PrefillFromKey copies the stored API key into the phone number field
	// every time the key changes
	PrefillFromKey bool
	// OnComplete runs once per successful sign-in
	OnComplete func(token string)
	// OnError runs for token requests that failed for reasons other than
	// not-found or cancellation; its command is returned from Update
	OnError func(err error) tea.Cmd
	Width      int
}

// AuthDialog is the modal phone number form that exchanges a number for an
// API key. Its visibility follows the store's ShowAuthDialog flag.
type AuthDialog struct {
	ctx     context.Context
	store   *playground.Store
	source  api.TokenSource
	styles  *styles.Styles
	logger  *log.Logger
	auditor Auditor

	registrationURL string
	prefill         bool
	onComplete      func(token string)
	onError         func(err error) tea.Cmd

	form    *huh.Form
	pending tea.Cmd
	phone   string
	// fieldErr is set by validation or a failed request and shown under the field
	fieldErr string

	open       bool
	submitting bool
	notFound   bool
	seq        int
	cancel     context.CancelFunc

	blink   *Blink
	spinner spinner.Model
	width   int
}

// NewAuthDialog creates the dialog and subscribes it to the store
func NewAuthDialog(opts AuthDialogOptions) *AuthDialog {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	width := opts.Width
	if width <= 0 {
		width = 48
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = opts.Styles.Spinner

	d := &AuthDialog{
		ctx:             ctx,
		store:           opts.Store,
		source:          opts.Source,
		styles:          opts.Styles,
		logger:          logger,
		auditor:         opts.Auditor,
		registrationURL: opts.RegistrationURL,
		prefill:         opts.PrefillFromKey,
		onComplete:      opts.OnComplete,
		onError:         opts.OnError,
		blink:           NewBlink(opts.Styles.Theme),
		spinner:         s,
		width:           width,
	}

	state := d.store.State()
	if d.prefill {
		d.phone = state.APIKey
	}
	d.buildForm()
	if state.ShowAuthDialog {
		d.onOpen()
	}

	d.store.Subscribe(d.onStateChange)
	return d
}

// onStateChange keeps the dialog in step with the shared state
func (d *AuthDialog) onStateChange(prev, next playground.State, _ playground.Action) {
	if d.prefill && prev.APIKey != next.APIKey {
		d.logger.Debug("Prefilling phone number from stored API key", "key", auth.Mask(next.APIKey))
		d.phone = next.APIKey
		d.buildForm()
	}

	if prev.ShowAuthDialog != next.ShowAuthDialog {
		if next.ShowAuthDialog {
			d.onOpen()
		} else {
			d.onClose()
		}
	}
}

func (d *AuthDialog) onOpen() {
	d.open = true
	d.fieldErr = ""
	d.notFound = false
	d.blink.Stop()
	d.buildForm()
}

func (d *AuthDialog) onClose() {
	d.open = false
	d.fieldErr = ""
	d.cancelInFlight()
	d.blink.Stop()
}

// cancelInFlight aborts the outstanding request; its result will be dropped
func (d *AuthDialog) cancelInFlight() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.submitting {
		d.seq++
		d.submitting = false
	}
}

func (d *AuthDialog) buildForm() {
	input := huh.NewInput().
		Key(auth.FieldPhoneNumber).
		Title("Phone number").
		Placeholder("+1 555 010 0000").
		Value(&d.phone).
		Validate(auth.ValidatePhoneNumber)

	d.form = huh.NewForm(huh.NewGroup(input)).
		WithTheme(d.styles.FormTheme()).
		WithShowHelp(false).
		WithWidth(d.width)
	d.pending = d.form.Init()
}

// Open asks the store to show the dialog
func (d *AuthDialog) Open() {
	d.store.Dispatch(playground.SetShowAuthDialog(true))
}

// Close asks the store to hide the dialog
func (d *AuthDialog) Close() {
	d.store.Dispatch(playground.SetShowAuthDialog(false))
}

// Phase derives the current view-model phase
func (d *AuthDialog) Phase() DialogPhase {
	switch {
	case !d.open:
		return PhaseClosed
	case d.submitting:
		return PhaseSubmitting
	case d.notFound:
		return PhaseNotFound
	default:
		return PhaseOpen
	}
}

// IsOpen reports whether the dialog is visible
func (d *AuthDialog) IsOpen() bool {
	return d.open
}

// NotFound reports whether the not-registered banner is shown
func (d *AuthDialog) NotFound() bool {
	return d.notFound
}

// Blink exposes the banner animation
func (d *AuthDialog) Blink() *Blink {
	return d.blink
}

// PhoneNumber returns the current value of the phone number field
func (d *AuthDialog) PhoneNumber() string {
	return d.phone
}

// SetPhoneNumber replaces the phone number field value
func (d *AuthDialog) SetPhoneNumber(phone string) {
	d.phone = phone
	d.buildForm()
}

// FieldError returns the message shown under the phone number field
func (d *AuthDialog) FieldError() string {
	return d.fieldErr
}

// SetStyles applies a new style set
func (d *AuthDialog) SetStyles(s *styles.Styles) {
	d.styles = s
	d.spinner.Style = s.Spinner
	d.blink.SetTheme(s.Theme)
	d.buildForm()
}

// SetWidth sets the form width
func (d *AuthDialog) SetWidth(width int) {
	if width > 0 && width != d.width {
		d.width = width
		d.buildForm()
	}
}

// Submit validates the form and starts a token request. It returns nil when
// validation fails, the dialog is closed, or a request is already running.
func (d *AuthDialog) Submit() tea.Cmd {
	if !d.open || d.submitting {
		return nil
	}

	result := auth.Validate(auth.FormValues{PhoneNumber: d.phone})
	if !result.OK() {
		if fe := result.FieldError(auth.FieldPhoneNumber); fe != nil {
			d.fieldErr = fe.Message
		}
		return nil
	}
	d.fieldErr = ""

	d.seq++
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancel = cancel
	d.submitting = true

	seq, phone, source := d.seq, d.phone, d.source
	fetch := func() tea.Msg {
		start := time.Now()
		token, err := source.GetAccessToken(ctx, phone)
		return TokenResultMsg{
			Seq:     seq,
			Phone:   phone,
			Token:   token,
			Err:     err,
			Latency: time.Since(start),
		}
	}

	return tea.Batch(fetch, d.spinner.Tick)
}

// Update handles keys while open, token results and animation frames
func (d *AuthDialog) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if d.pending != nil {
		cmds = append(cmds, d.pending)
		d.pending = nil
	}

	switch msg := msg.(type) {
	case TokenResultMsg:
		cmds = append(cmds, d.handleResult(msg))
		return tea.Batch(cmds...)

	case BlinkFrameMsg:
		cmds = append(cmds, d.blink.Update(msg))
		return tea.Batch(cmds...)

	case spinner.TickMsg:
		if d.submitting {
			var cmd tea.Cmd
			d.spinner, cmd = d.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return tea.Batch(cmds...)

	case tea.KeyMsg:
		if !d.open {
			return tea.Batch(cmds...)
		}
		if msg.Type == tea.KeyEsc {
			d.Close()
			return tea.Batch(cmds...)
		}
	}

	if !d.open {
		return tea.Batch(cmds...)
	}

	model, cmd := d.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		d.form = f
	}
	cmds = append(cmds, cmd)

	if d.form.State == huh.StateCompleted {
		cmds = append(cmds, d.Submit())
		// A completed form renders nothing; start a fresh one with the same value
		d.buildForm()
		cmds = append(cmds, d.pending)
		d.pending = nil
	}

	return tea.Batch(cmds...)
}

func (d *AuthDialog) handleResult(msg TokenResultMsg) tea.Cmd {
	if msg.Seq != d.seq || !d.submitting {
		d.logger.Debug("Dropping stale token result", "seq", msg.Seq, "current", d.seq)
		return nil
	}

	d.submitting = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	switch {
	case msg.Err == nil:
		d.notFound = false
		d.blink.Stop()
		d.record(storage.OutcomeSuccess, msg, nil)

		token := msg.Token
		d.store.Dispatch(playground.SetAPIKey(&token))
		d.store.Dispatch(playground.SetShowAuthDialog(false))
		if d.onComplete != nil {
			d.onComplete(token)
		}
		return nil

	case api.IsNotFound(msg.Err):
		d.notFound = true
		d.record(storage.OutcomeNotFound, msg, nil)
		return d.blink.Start(time.Now())

	case errors.Is(msg.Err, context.Canceled):
		return nil

	default:
		d.logger.Error("Failed to fetch API key", "error", msg.Err)
		d.fieldErr = auth.MsgFetchFailed
		d.record(storage.OutcomeFailed, msg, msg.Err)
		if d.onError != nil {
			return d.onError(msg.Err)
		}
		return nil
	}
}

func (d *AuthDialog) record(outcome storage.Outcome, msg TokenResultMsg, cause error) {
	if d.auditor == nil {
		return
	}
	if err := d.auditor.Record(outcome, msg.Phone, msg.Latency, cause); err != nil {
		d.logger.Warn("Failed to record audit event", "error", err)
	}
}

// View renders the dialog box, or "" while closed
func (d *AuthDialog) View() string {
	if !d.open {
		return ""
	}
	st := d.styles

	var b strings.Builder
	b.WriteString(st.DialogTitle.Render("Sign in to the playground"))
	b.WriteString("\n")
	b.WriteString(st.DialogDescription.Render("Enter the phone number registered with your account to fetch an API key."))
	b.WriteString("\n")

	if d.notFound {
		b.WriteString(d.renderBanner())
		b.WriteString("\n")
	}

	b.WriteString(d.form.View())

	if d.fieldErr != "" {
		b.WriteString("\n")
		b.WriteString(st.FieldError.Render(d.fieldErr))
	}

	if d.submitting {
		b.WriteString("\n")
		b.WriteString(d.spinner.View() + " " + st.Muted.Render("Fetching API key..."))
	}

	b.WriteString("\n")
	b.WriteString(st.Footer.Render("enter submit • esc close"))

	return st.Dialog.Render(b.String())
}

func (d *AuthDialog) renderBanner() string {
	box, title := d.styles.FadedBanner(d.blink.Opacity())

	lines := []string{title.Render(auth.MsgNotFound)}
	if d.registrationURL != "" {
		lines = append(lines, "Register at "+d.styles.Link.Render(d.registrationURL))
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
