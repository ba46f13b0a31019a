package types

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a result arrives outside Loading
var ErrInvalidTransition = errors.New("invalid response state transition")

// Phase is the position of a ResponseState
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// ResponseState tracks the response side of a tab.
// Response is set only in PhaseSuccess, Err only in PhaseError.
type ResponseState struct {
	Phase    Phase
	Response *ResponseData
	Err      string
}

// Begin enters Loading from any phase and drops the previous outcome
func (s *ResponseState) Begin() {
	*s = ResponseState{Phase: PhaseLoading}
}

// Succeed stores resp. Only legal while Loading.
func (s *ResponseState) Succeed(resp *ResponseData) error {
	if s.Phase != PhaseLoading {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, PhaseSuccess)
	}
	*s = ResponseState{Phase: PhaseSuccess, Response: resp}
	return nil
}

// Fail stores msg. Only legal while Loading.
func (s *ResponseState) Fail(msg string) error {
	if s.Phase != PhaseLoading {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Phase, PhaseError)
	}
	*s = ResponseState{Phase: PhaseError, Err: msg}
	return nil
}

// Reset returns to Idle from any phase
func (s *ResponseState) Reset() {
	*s = ResponseState{}
}

func (s ResponseState) IsLoading() bool { return s.Phase == PhaseLoading }
