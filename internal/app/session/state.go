package session

import (
	"errors"
	"time"
)

type State string

const (
	StateLoading     State = "loading"
	StatePlaying     State = "playing"
	StateAutosaving  State = "autosaving"
	StateMinting     State = "minting"
	StateSyncing     State = "syncing"
	StateWithdrawing State = "withdrawing"
	StateReadonly    State = "readonly"
	StateSuccess     State = "success"
	StateError       State = "error"
)

// Terminal states are left only through Restart.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateError
}

// Async states hold an outstanding gateway call.
func (s State) Async() bool {
	switch s {
	case StateLoading, StateAutosaving, StateMinting, StateSyncing, StateWithdrawing:
		return true
	default:
		return false
	}
}

type Event string

const (
	EventLoad     Event = "LOAD"
	EventLoaded   Event = "LOADED"
	EventSave     Event = "SAVE"
	EventMint     Event = "MINT"
	EventSync     Event = "SYNC"
	EventWithdraw Event = "WITHDRAW"
	EventDone     Event = "DONE"
	EventFailed   Event = "FAILED"
	EventRestart  Event = "RESTART"
)

type Transition struct {
	From  State
	To    State
	Event Event
	Err   error
	At    time.Time
}

var (
	ErrNotPlaying        = errors.New("session is not accepting actions")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrInvalidIdentity   = errors.New("invalid session identity")
	ErrInvalidRequest    = errors.New("invalid session request")
	ErrNoGateway         = errors.New("session has no remote gateway")
	// ErrActionDropped is the cause passed to OnDrop observers for accepted
	// or queued actions that will never reach the gateway.
	ErrActionDropped = errors.New("session action dropped")
)
