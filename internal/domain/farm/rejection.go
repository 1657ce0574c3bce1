package farm

import "fmt"

type RejectionReason string

const (
	InsufficientFunds RejectionReason = "InsufficientFunds"
	InsufficientStock RejectionReason = "InsufficientStock"
	LockedItem        RejectionReason = "LockedItem"
	InvalidPlot       RejectionReason = "InvalidPlot"
	UnknownAction     RejectionReason = "UnknownAction"
)

// Rejection is returned by Apply when an action fails a precondition.
type Rejection struct {
	Reason RejectionReason
	Action ActionType
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("%s rejected: %s", r.Action, r.Reason)
	}
	return fmt.Sprintf("%s rejected: %s (%s)", r.Action, r.Reason, r.Detail)
}

func reject(a Action, reason RejectionReason, detail string) *Rejection {
	var t ActionType
	if a != nil {
		t = a.Type()
	}
	return &Rejection{Reason: reason, Action: t, Detail: detail}
}
