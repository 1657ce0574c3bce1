package ports

import (
	"context"
	"time"

	"farmsession/internal/domain/farm"
)

type FarmRecord struct {
	FarmID    int64
	SessionID string
	Snapshot  farm.Snapshot
	Version   int64
	UpdatedAt time.Time
}

type FarmRepository interface {
	GetByFarmID(ctx context.Context, farmID int64) (FarmRecord, error)
	SaveWithVersion(ctx context.Context, record FarmRecord, expectedVersion int64) error
}

type ActionRecord struct {
	FarmID      int64             `json:"farm_id"`
	Action      farm.LoggedAction `json:"action"`
	ConfirmedAt time.Time         `json:"confirmed_at"`
}

type ActionRepository interface {
	ExistingIDs(ctx context.Context, farmID int64, ids []string) (map[string]bool, error)
	Append(ctx context.Context, records []ActionRecord) error
	ListByFarmID(ctx context.Context, farmID int64, limit int) ([]ActionRecord, error)
}

type LedgerEntryKind string

const (
	LedgerMint     LedgerEntryKind = "mint"
	LedgerSync     LedgerEntryKind = "sync"
	LedgerWithdraw LedgerEntryKind = "withdraw"
)

type LedgerEntry struct {
	ID        string
	FarmID    int64
	Kind      LedgerEntryKind
	Item      farm.ItemName
	Payload   map[string]any
	CreatedAt time.Time
}

type LedgerRepository interface {
	Append(ctx context.Context, entry LedgerEntry) error
	ListByFarmID(ctx context.Context, farmID int64, kind LedgerEntryKind) ([]LedgerEntry, error)
}
