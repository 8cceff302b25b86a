package app

import (
	"slices"
	"time"
)

// AppState represents the different states the application can be in
type AppState int

const (
	StateInitializing AppState = iota
	StatePlayground
	StateHelp
	StateError
	StateShutdown
)

var appStateNames = map[AppState]string{
	StateInitializing: "initializing",
	StatePlayground:   "playground",
	StateHelp:         "help",
	StateError:        "error",
	StateShutdown:     "shutdown",
}

func (s AppState) String() string {
	if name, ok := appStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// transitions lists the screens reachable from each screen. Retry from the
// error screen re-runs initialization.
var transitions = map[AppState][]AppState{
	StateInitializing: {StatePlayground, StateError, StateShutdown},
	StatePlayground:   {StateHelp, StateError, StateShutdown},
	StateHelp:         {StatePlayground, StateError, StateShutdown},
	StateError:        {StateInitializing, StatePlayground, StateShutdown},
}

// InitializationStep represents the different initialization steps
type InitializationStep int

const (
	StepStarting InitializationStep = iota
	StepStorage
	StepKeystore
	StepConfig
	StepClient
	StepComplete
)

var stepMessages = [...]string{
	StepStarting: "Starting...",
	StepStorage:  "Initializing storage...",
	StepKeystore: "Loading keystore...",
	StepConfig:   "Loading configuration...",
	StepClient:   "Connecting identity service...",
	StepComplete: "Ready!",
}

func (s InitializationStep) String() string {
	if s < StepStarting || s > StepComplete {
		return "Unknown step"
	}
	return stepMessages[s]
}

// Progress returns how far along initialization is at this step
func (s InitializationStep) Progress() float64 {
	if s < StepStarting || s > StepComplete {
		return 0
	}
	return float64(s) / float64(StepComplete)
}

// LoadingState drives the initialization screen
type LoadingState struct {
	Step     InitializationStep
	Message  string
	Progress float64
	Started  time.Time
	Done     bool
	Err      error
}

func NewLoadingState(message string) *LoadingState {
	return &LoadingState{Message: message, Started: time.Now()}
}

// SetStep moves to step and updates the progress bar with it
func (ls *LoadingState) SetStep(step InitializationStep) {
	ls.Step = step
	ls.Progress = step.Progress()
	ls.Message = step.String()
}

// Fail stops loading with err
func (ls *LoadingState) Fail(err error) {
	ls.Err = err
	ls.Done = true
}

func (ls *LoadingState) Complete() {
	ls.Done = true
	ls.Progress = 1
}

// Elapsed is the time spent loading as of now
func (ls *LoadingState) Elapsed(now time.Time) time.Duration {
	return now.Sub(ls.Started)
}

// ErrorState is what the error screen shows
type ErrorState struct {
	Error *AppError
	Title string
	From  AppState
}

func NewErrorState(err *AppError, title string, from AppState) *ErrorState {
	return &ErrorState{Error: err, Title: title, From: from}
}

// CanRetry reports whether re-running initialization may help
func (es *ErrorState) CanRetry() bool {
	return es.Error == nil || es.Error.Recoverable
}

const maxStateHistory = 10

// StateManager holds the current screen and a bounded stack of earlier ones
type StateManager struct {
	current  AppState
	previous AppState
	history  []AppState
}

func NewStateManager() *StateManager {
	return &StateManager{}
}

func (sm *StateManager) Current() AppState  { return sm.current }
func (sm *StateManager) Previous() AppState { return sm.previous }

// CanTransition reports whether the current screen may move to to
func (sm *StateManager) CanTransition(to AppState) bool {
	return slices.Contains(transitions[sm.current], to)
}

// Transition moves to to when the transition table allows it
func (sm *StateManager) Transition(to AppState) bool {
	if !sm.CanTransition(to) {
		return false
	}

	sm.history = append(sm.history, sm.current)
	if over := len(sm.history) - maxStateHistory; over > 0 {
		sm.history = slices.Delete(sm.history, 0, over)
	}
	sm.previous, sm.current = sm.current, to
	return true
}

// Back returns to the screen before the current one. Shutdown is final.
func (sm *StateManager) Back() bool {
	n := len(sm.history)
	if n == 0 || sm.current == StateShutdown {
		return false
	}

	sm.previous, sm.current = sm.current, sm.history[n-1]
	sm.history = sm.history[:n-1]
	return true
}
