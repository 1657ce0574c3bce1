package memory

import (
	"context"

	"farmsession/internal/app/ports"
)

type ActionRepo struct {
	store *Store
}

func NewActionRepo(store *Store) ActionRepo {
	return ActionRepo{store: store}
}

func (r ActionRepo) ExistingIDs(ctx context.Context, farmID int64, ids []string) (map[string]bool, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[string]bool)
	r.store.read(ctx, func() {
		for _, rec := range r.store.actions[farmID] {
			if want[rec.Action.ID] {
				out[rec.Action.ID] = true
			}
		}
	})
	return out, nil
}

func (r ActionRepo) Append(ctx context.Context, records []ports.ActionRecord) error {
	return r.store.write(ctx, func() error {
		for _, rec := range records {
			for _, existing := range r.store.actions[rec.FarmID] {
				if existing.Action.ID == rec.Action.ID {
					return ports.ErrConflict
				}
			}
			r.store.actions[rec.FarmID] = append(r.store.actions[rec.FarmID], rec)
		}
		return nil
	})
}

// ListByFarmID returns the most recent records in confirmation order.
func (r ActionRepo) ListByFarmID(ctx context.Context, farmID int64, limit int) ([]ports.ActionRecord, error) {
	var out []ports.ActionRecord
	r.store.read(ctx, func() {
		all := r.store.actions[farmID]
		start := 0
		if limit > 0 && len(all) > limit {
			start = len(all) - limit
		}
		out = append([]ports.ActionRecord(nil), all[start:]...)
	})
	return out, nil
}
