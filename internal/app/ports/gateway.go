package ports

import (
	"context"
	"strings"
	"time"

	"farmsession/internal/domain/farm"
)

// Identity is the session credential threaded through every gateway call.
// A zero SessionID marks an anonymous session with no remote record.
type Identity struct {
	FarmID    int64  `json:"farm_id"`
	SessionID string `json:"session_id"`
	Signature string `json:"signature,omitempty"`
	Sender    string `json:"sender,omitempty"`
}

func (i Identity) Anonymous() bool {
	return strings.TrimSpace(i.SessionID) == ""
}

type AutosaveReceipt struct {
	ConfirmedAt time.Time `json:"confirmed_at"`
	Applied     int       `json:"applied"`
	Skipped     int       `json:"skipped"`
}

type MintRequest struct {
	Item farm.ItemName `json:"item"`
}

type WithdrawRequest struct {
	IDs     []farm.ItemName `json:"ids"`
	Amounts []farm.Quantity `json:"amounts"`
	Balance farm.Quantity   `json:"sfl"`
}

// SessionGateway is the remote system of record for a farm session.
//
// Autosave must be all-or-nothing and idempotent per LoggedAction.ID. Mint is
// not idempotent. Timeouts are the gateway's concern and surface as errors.
type SessionGateway interface {
	LoadSession(ctx context.Context, id Identity) (farm.Snapshot, error)
	Autosave(ctx context.Context, id Identity, actions []farm.LoggedAction) (AutosaveReceipt, error)
	Mint(ctx context.Context, id Identity, req MintRequest) error
	Sync(ctx context.Context, id Identity) error
	Withdraw(ctx context.Context, id Identity, req WithdrawRequest) error
}
