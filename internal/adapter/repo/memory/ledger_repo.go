package memory

import (
	"context"

	"farmsession/internal/app/ports"
)

type LedgerRepo struct {
	store *Store
}

func NewLedgerRepo(store *Store) LedgerRepo {
	return LedgerRepo{store: store}
}

func (r LedgerRepo) Append(ctx context.Context, entry ports.LedgerEntry) error {
	return r.store.write(ctx, func() error {
		r.store.entries[entry.FarmID] = append(r.store.entries[entry.FarmID], entry)
		return nil
	})
}

// ListByFarmID returns entries of kind, or every entry when kind is empty.
func (r LedgerRepo) ListByFarmID(ctx context.Context, farmID int64, kind ports.LedgerEntryKind) ([]ports.LedgerEntry, error) {
	var out []ports.LedgerEntry
	r.store.read(ctx, func() {
		for _, e := range r.store.entries[farmID] {
			if kind == "" || e.Kind == kind {
				out = append(out, e)
			}
		}
	})
	return out, nil
}
