// Package interview composes transcription, stage progression, question
// generation, feedback scoring and persistence into the voice-interview
// workflow.
package interview

import (
	"errors"
	"fmt"
	"sync"

	"ai-interview-service/internal/models"
)

// State represents the lifecycle state of one interview.
type State int

const (
	// StateCollecting - responses are still arriving.
	StateCollecting State = iota
	// StateEvaluating - final transcript assembled, feedback requested.
	StateEvaluating
	// StateCompleted - feedback persisted, session closed. Terminal.
	StateCompleted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCollecting:
		return "COLLECTING"
	case StateEvaluating:
		return "EVALUATING"
	case StateCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true for the absorbing completed state.
func (s State) IsTerminal() bool {
	return s == StateCompleted
}

// Errors for invalid state transitions.
var (
	ErrAlreadyCompleted = errors.New("interview already completed")
	ErrNotEvaluating    = errors.New("interview is not being evaluated")
)

// Lifecycle manages the state machine for a single interview. Completion
// is an explicit transition owned by the workflow; the stage calculator's
// "completed" output is a progress estimate only and never drives this
// machine.
//
// State transitions:
//
//	COLLECTING → EVALUATING → COMPLETED
//
// Rules:
//   - COLLECTING: responses may be recorded, evaluation may begin (once)
//   - EVALUATING: feedback is being generated and persisted
//   - COMPLETED: terminal, all transitions rejected
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a lifecycle in the collecting state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateCollecting}
}

// LifecycleFromStatus reconstructs the lifecycle from a persisted session
// status. Each request rebuilds the machine from the stored row; the
// service holds no state between requests.
func LifecycleFromStatus(status string) *Lifecycle {
	if status == models.StatusCompleted {
		return &Lifecycle{state: StateCompleted}
	}
	return &Lifecycle{state: StateCollecting}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// CanRecordResponse reports whether a response turn may still be recorded.
func (l *Lifecycle) CanRecordResponse() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateCollecting
}

// BeginEvaluation transitions collecting → evaluating.
func (l *Lifecycle) BeginEvaluation() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateCollecting:
		l.state = StateEvaluating
		return nil
	case StateEvaluating:
		// Already evaluating; treat as a no-op so a retried request does
		// not fail before the persistence layer can reject duplicates.
		return nil
	case StateCompleted:
		return ErrAlreadyCompleted
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Complete transitions evaluating → completed.
func (l *Lifecycle) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateEvaluating:
		l.state = StateCompleted
		return nil
	case StateCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrNotEvaluating
	}
}
