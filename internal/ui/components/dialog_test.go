package components

import (
	"context"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/john/playauth/internal/api"
	"github.com/john/playauth/internal/auth"
	"github.com/john/playauth/internal/playground"
	"github.com/john/playauth/internal/storage"
	"github.com/john/playauth/internal/ui/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	token  string
	err    error
	phones []string
}

func (f *fakeSource) GetAccessToken(ctx context.Context, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phones = append(f.phones, phone)
	return f.token, f.err
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.phones)
}

type auditEntry struct {
	outcome storage.Outcome
	phone   string
	cause   error
}

type fakeAuditor struct {
	entries []auditEntry
}

func (f *fakeAuditor) Record(outcome storage.Outcome, phone string, _ time.Duration, cause error) error {
	f.entries = append(f.entries, auditEntry{outcome, phone, cause})
	return nil
}

type dialogHarness struct {
	dialog      *AuthDialog
	store       *playground.Store
	source      *fakeSource
	auditor     *fakeAuditor
	completions []string
}

func newDialogHarness(t *testing.T, initial playground.State, prefill bool) *dialogHarness {
	t.Helper()
	h := &dialogHarness{
		store:   playground.NewStore(initial),
		source:  &fakeSource{},
		auditor: &fakeAuditor{},
	}
	h.dialog = NewAuthDialog(AuthDialogOptions{
		Store:           h.store,
		Source:          h.source,
		Styles:          styles.NewStyles(styles.Light.Clone()),
		Logger:          log.New(io.Discard),
		Auditor:         h.auditor,
		RegistrationURL: "https://example.com/register",
		PrefillFromKey:  prefill,
		OnComplete: func(token string) {
			h.completions = append(h.completions, token)
		},
	})
	return h
}

// tokenResult runs a submit command and returns the token result it produced
func tokenResult(t *testing.T, cmd tea.Cmd) TokenResultMsg {
	t.Helper()
	require.NotNil(t, cmd)

	for _, msg := range collect(cmd) {
		if res, ok := msg.(TokenResultMsg); ok {
			return res
		}
	}
	t.Fatal("command did not produce a TokenResultMsg")
	return TokenResultMsg{}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collect(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// pump feeds the messages produced by cmd back into the dialog until the
// chain settles. Commands that block, such as cursor blink and spinner
// ticks, are abandoned after a short wait.
func pump(t *testing.T, d *AuthDialog, cmd tea.Cmd) {
	t.Helper()
	cmdType := reflect.TypeOf((tea.Cmd)(nil))
	queue := []tea.Cmd{cmd}

	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("command chain did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		done := make(chan tea.Msg, 1)
		go func() { done <- next() }()
		var msg tea.Msg
		select {
		case msg = <-done:
		case <-time.After(50 * time.Millisecond):
			continue
		}

		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		// tea.Sequence yields an unexported []tea.Cmd
		if v := reflect.ValueOf(msg); v.IsValid() && v.Kind() == reflect.Slice && v.Type().Elem() == cmdType {
			for i := 0; i < v.Len(); i++ {
				queue = append(queue, v.Index(i).Interface().(tea.Cmd))
			}
			continue
		}
		if msg == nil {
			continue
		}
		queue = append(queue, d.Update(msg))
	}
}

// startForm runs the huh form's init commands
func startForm(t *testing.T, d *AuthDialog) {
	t.Helper()
	initCmd := d.pending
	d.pending = nil
	pump(t, d, initCmd)
}

func typeKeys(t *testing.T, d *AuthDialog, text string) {
	t.Helper()
	for _, r := range text {
		pump(t, d, d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}))
	}
}

func TestAuthDialog_TypeAndEnterSignsIn(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.source.token = "abc123"
	startForm(t, h.dialog)

	typeKeys(t, h.dialog, "5550100")
	pump(t, h.dialog, h.dialog.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	assert.Equal(t, []string{"5550100"}, h.source.phones)
	assert.Equal(t, "abc123", h.store.State().APIKey)
	assert.False(t, h.store.State().ShowAuthDialog)
	assert.False(t, h.dialog.IsOpen())
	assert.Equal(t, []string{"abc123"}, h.completions)
}

func TestAuthDialog_EnterOnEmptyShowsRequired(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	startForm(t, h.dialog)

	pump(t, h.dialog, h.dialog.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	assert.Equal(t, 0, h.source.calls())
	assert.True(t, h.dialog.IsOpen())
	assert.Equal(t, PhaseOpen, h.dialog.Phase())
	assert.Contains(t, h.dialog.View(), "required")
	assert.Empty(t, h.completions)
}

func TestAuthDialog_EmptyPhoneIsBlocked(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)

	cmd := h.dialog.Submit()

	assert.Nil(t, cmd)
	assert.Equal(t, auth.MsgRequired, h.dialog.FieldError())
	assert.Contains(t, h.dialog.FieldError(), "required")
	assert.Equal(t, 0, h.source.calls())
	assert.Equal(t, PhaseOpen, h.dialog.Phase())
}

func TestAuthDialog_NotFound(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.source.err = &api.APIError{StatusCode: http.StatusNotFound, Message: "user not registered"}
	h.dialog.SetPhoneNumber("5550100")

	cmd := h.dialog.Submit()
	assert.Equal(t, PhaseSubmitting, h.dialog.Phase())
	h.dialog.Update(tokenResult(t, cmd))

	assert.True(t, h.dialog.IsOpen())
	assert.True(t, h.dialog.NotFound())
	assert.Equal(t, PhaseNotFound, h.dialog.Phase())
	assert.Equal(t, playground.State{ShowAuthDialog: true}, h.store.State())
	assert.Empty(t, h.completions)
	assert.Contains(t, h.dialog.View(), auth.MsgNotFound)
	assert.Contains(t, h.dialog.View(), "https://example.com/register")

	blink := h.dialog.Blink()
	assert.True(t, blink.Active())
	blink.Advance(time.Now().Add(500 * time.Millisecond))
	assert.True(t, blink.Active())
	blink.Advance(time.Now().Add(1100 * time.Millisecond))
	assert.False(t, blink.Active())

	// The banner outlives the blink
	assert.True(t, h.dialog.NotFound())

	require.Len(t, h.auditor.entries, 1)
	assert.Equal(t, storage.OutcomeNotFound, h.auditor.entries[0].outcome)
	assert.Equal(t, "5550100", h.auditor.entries[0].phone)
}

func TestAuthDialog_Success(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.source.token = "abc123"
	h.dialog.SetPhoneNumber("5550100")

	result := tokenResult(t, h.dialog.Submit())
	h.dialog.Update(result)

	state := h.store.State()
	assert.Equal(t, "abc123", state.APIKey)
	assert.False(t, state.ShowAuthDialog)
	assert.False(t, h.dialog.IsOpen())
	assert.Equal(t, PhaseClosed, h.dialog.Phase())
	assert.Equal(t, []string{"abc123"}, h.completions)
	assert.Equal(t, []string{"5550100"}, h.source.phones)

	// A duplicate delivery never completes twice
	h.dialog.Update(result)
	assert.Len(t, h.completions, 1)

	require.Len(t, h.auditor.entries, 1)
	assert.Equal(t, storage.OutcomeSuccess, h.auditor.entries[0].outcome)
}

func TestAuthDialog_TransportError(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.source.err = errors.New("dial tcp: connection refused")
	h.dialog.SetPhoneNumber("5550100")
	before := h.store.State()

	h.dialog.Update(tokenResult(t, h.dialog.Submit()))

	assert.True(t, h.dialog.IsOpen())
	assert.Equal(t, before, h.store.State())
	assert.Equal(t, "Failed to fetch API key. Please try again.", h.dialog.FieldError())
	assert.False(t, h.dialog.NotFound())
	assert.Empty(t, h.completions)

	require.Len(t, h.auditor.entries, 1)
	assert.Equal(t, storage.OutcomeFailed, h.auditor.entries[0].outcome)
	assert.Error(t, h.auditor.entries[0].cause)
}

func TestAuthDialog_OpenCloseLeavesStateUnchanged(t *testing.T) {
	h := newDialogHarness(t, playground.State{}, true)
	before := h.store.State()
	assert.Equal(t, PhaseClosed, h.dialog.Phase())
	assert.Empty(t, h.dialog.View())

	h.dialog.Open()
	assert.True(t, h.dialog.IsOpen())
	assert.NotEmpty(t, h.dialog.View())

	h.dialog.Close()
	assert.False(t, h.dialog.IsOpen())
	assert.Equal(t, before, h.store.State())
	assert.Equal(t, 0, h.source.calls())
}

func TestAuthDialog_SubmitWhileSubmittingIsIgnored(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.source.token = "tok"
	h.dialog.SetPhoneNumber("5550100")

	first := h.dialog.Submit()
	require.NotNil(t, first)
	assert.Nil(t, h.dialog.Submit())

	h.dialog.Update(tokenResult(t, first))
	assert.Equal(t, []string{"tok"}, h.completions)
}

func TestAuthDialog_CloseDropsInFlightResult(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.source.token = "late-token"
	h.dialog.SetPhoneNumber("5550100")

	cmd := h.dialog.Submit()
	h.dialog.Close()

	h.dialog.Update(tokenResult(t, cmd))

	assert.Empty(t, h.store.State().APIKey)
	assert.Empty(t, h.completions)
	assert.Empty(t, h.auditor.entries)
}

func TestAuthDialog_EscCloses(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)

	h.dialog.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, h.dialog.IsOpen())
	assert.False(t, h.store.State().ShowAuthDialog)
}

func TestAuthDialog_SuccessClearsNotFound(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.dialog.SetPhoneNumber("5550100")

	h.source.err = &api.APIError{StatusCode: http.StatusNotFound}
	h.dialog.Update(tokenResult(t, h.dialog.Submit()))
	require.True(t, h.dialog.NotFound())

	h.source.err = nil
	h.source.token = "abc123"
	h.dialog.Update(tokenResult(t, h.dialog.Submit()))

	assert.False(t, h.dialog.NotFound())
	assert.False(t, h.dialog.Blink().Active())
}

func TestAuthDialog_ReopenResetsBanner(t *testing.T) {
	h := newDialogHarness(t, playground.State{ShowAuthDialog: true}, true)
	h.dialog.SetPhoneNumber("5550100")
	h.source.err = &api.APIError{StatusCode: http.StatusNotFound}
	h.dialog.Update(tokenResult(t, h.dialog.Submit()))
	require.True(t, h.dialog.NotFound())

	h.dialog.Close()
	h.dialog.Open()

	assert.False(t, h.dialog.NotFound())
	assert.Equal(t, PhaseOpen, h.dialog.Phase())
}

func TestAuthDialog_PrefillFromKey(t *testing.T) {
	h := newDialogHarness(t, playground.State{APIKey: "stored-key"}, true)
	assert.Equal(t, "stored-key", h.dialog.PhoneNumber())

	key := "new-key"
	h.store.Dispatch(playground.SetAPIKey(&key))
	assert.Equal(t, "new-key", h.dialog.PhoneNumber())

	h.store.Dispatch(playground.ClearAPIKey())
	assert.Empty(t, h.dialog.PhoneNumber())
}

func TestAuthDialog_PrefillDisabled(t *testing.T) {
	h := newDialogHarness(t, playground.State{APIKey: "stored-key"}, false)
	assert.Empty(t, h.dialog.PhoneNumber())

	key := "new-key"
	h.store.Dispatch(playground.SetAPIKey(&key))
	assert.Empty(t, h.dialog.PhoneNumber())
}

func TestDialogPhaseString(t *testing.T) {
	assert.Equal(t, "closed", PhaseClosed.String())
	assert.Equal(t, "open", PhaseOpen.String())
	assert.Equal(t, "submitting", PhaseSubmitting.String())
	assert.Equal(t, "not_found", PhaseNotFound.String())
	assert.Equal(t, "unknown", DialogPhase(42).String())
}
