package memory

import (
	"context"

	"farmsession/internal/app/ports"
)

type FarmRepo struct {
	store *Store
}

func NewFarmRepo(store *Store) FarmRepo {
	return FarmRepo{store: store}
}

func (r FarmRepo) GetByFarmID(ctx context.Context, farmID int64) (ports.FarmRecord, error) {
	var (
		rec ports.FarmRecord
		ok  bool
	)
	r.store.read(ctx, func() {
		rec, ok = r.store.farms[farmID]
	})
	if !ok {
		return ports.FarmRecord{}, ports.ErrNotFound
	}
	rec.Snapshot = rec.Snapshot.Clone()
	return rec, nil
}

func (r FarmRepo) SaveWithVersion(ctx context.Context, rec ports.FarmRecord, expectedVersion int64) error {
	rec.Snapshot = rec.Snapshot.Clone()
	return r.store.write(ctx, func() error {
		current, ok := r.store.farms[rec.FarmID]
		if !ok {
			if expectedVersion != 0 {
				return ports.ErrConflict
			}
			r.store.farms[rec.FarmID] = rec
			return nil
		}
		if current.Version != expectedVersion {
			return ports.ErrConflict
		}
		r.store.farms[rec.FarmID] = rec
		return nil
	})
}
