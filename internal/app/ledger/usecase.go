package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

var ErrInvalidRequest = errors.New("invalid ledger request")

// UseCase is the system of record behind the session gateway. Every
// operation runs in a single transaction and bumps the farm version.
type UseCase struct {
	TxManager ports.TxManager
	Farms     ports.FarmRepository
	Actions   ports.ActionRepository
	Entries   ports.LedgerRepository
	Now       func() time.Time
	NewID     func() string
}

var _ ports.SessionGateway = UseCase{}

// Seed creates the farm record for identity. It fails with ErrConflict when
// the farm already exists.
func (u UseCase) Seed(ctx context.Context, id ports.Identity, snapshot farm.Snapshot) error {
	if id.FarmID <= 0 || strings.TrimSpace(id.SessionID) == "" {
		return ErrInvalidRequest
	}
	if !snapshot.Valid() {
		return fmt.Errorf("%w: seed snapshot has negative quantities", ErrInvalidRequest)
	}
	snapshot = snapshot.Clone()
	snapshot.ID = id.FarmID
	return u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		return u.Farms.SaveWithVersion(txCtx, ports.FarmRecord{
			FarmID:    id.FarmID,
			SessionID: id.SessionID,
			Snapshot:  snapshot,
			Version:   1,
			UpdatedAt: u.now(),
		}, 0)
	})
}

func (u UseCase) LoadSession(ctx context.Context, id ports.Identity) (farm.Snapshot, error) {
	var out farm.Snapshot
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := u.record(txCtx, id)
		if err != nil {
			return err
		}
		out = rec.Snapshot
		return nil
	})
	if err != nil {
		return farm.Snapshot{}, err
	}
	return out, nil
}

// Autosave replays the actions not stored yet on top of the stored snapshot.
// A rejection anywhere in the batch discards the whole batch.
func (u UseCase) Autosave(ctx context.Context, id ports.Identity, actions []farm.LoggedAction) (ports.AutosaveReceipt, error) {
	ids := make([]string, 0, len(actions))
	for _, la := range actions {
		if strings.TrimSpace(la.ID) == "" || la.Action == nil {
			return ports.AutosaveReceipt{}, fmt.Errorf("%w: logged action without id or payload", ErrInvalidRequest)
		}
		ids = append(ids, la.ID)
	}

	var receipt ports.AutosaveReceipt
	err := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := u.record(txCtx, id)
		if err != nil {
			return err
		}
		existing, err := u.Actions.ExistingIDs(txCtx, id.FarmID, ids)
		if err != nil {
			return err
		}

		fresh := make([]farm.LoggedAction, 0, len(actions))
		seen := make(map[string]bool, len(actions))
		for _, la := range actions {
			if existing[la.ID] || seen[la.ID] {
				continue
			}
			seen[la.ID] = true
			fresh = append(fresh, la)
		}
		now := u.now()
		receipt = ports.AutosaveReceipt{ConfirmedAt: now, Applied: len(fresh), Skipped: len(actions) - len(fresh)}
		if len(fresh) == 0 {
			return nil
		}

		replayed := make([]farm.Action, 0, len(fresh))
		for _, la := range fresh {
			replayed = append(replayed, la.Action)
		}
		next, err := farm.Replay(rec.Snapshot, replayed...)
		if err != nil {
			return fmt.Errorf("%w: %v", ports.ErrRejected, err)
		}
		if err := u.save(txCtx, rec, next, now); err != nil {
			return err
		}

		records := make([]ports.ActionRecord, 0, len(fresh))
		for _, la := range fresh {
			records = append(records, ports.ActionRecord{FarmID: id.FarmID, Action: la, ConfirmedAt: now})
		}
		return u.Actions.Append(txCtx, records)
	})
	if err != nil {
		return ports.AutosaveReceipt{}, err
	}
	return receipt, nil
}

func (u UseCase) Mint(ctx context.Context, id ports.Identity, req ports.MintRequest) error {
	item, ok := farm.LookupItem(req.Item)
	if !ok || item.Kind != farm.KindLimited {
		return fmt.Errorf("%w: %q is not a limited item", ErrInvalidRequest, req.Item)
	}
	return u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := u.record(txCtx, id)
		if err != nil {
			return err
		}
		if !rec.Snapshot.Inventory.Get(item.Name).IsZero() {
			return fmt.Errorf("%w: %s already minted", ports.ErrRejected, item.Name)
		}
		next := rec.Snapshot.Clone()
		next.Inventory[item.Name] = farm.NewQuantity(1)
		now := u.now()
		if err := u.save(txCtx, rec, next, now); err != nil {
			return err
		}
		return u.Entries.Append(txCtx, ports.LedgerEntry{
			ID:        u.newID(),
			FarmID:    id.FarmID,
			Kind:      ports.LedgerMint,
			Item:      item.Name,
			Payload:   map[string]any{"version": rec.Version + 1},
			CreatedAt: now,
		})
	})
}

// Sync restocks the market.
func (u UseCase) Sync(ctx context.Context, id ports.Identity) error {
	return u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := u.record(txCtx, id)
		if err != nil {
			return err
		}
		next := rec.Snapshot.Clone()
		next.Stock = farm.InitialStock()
		now := u.now()
		if err := u.save(txCtx, rec, next, now); err != nil {
			return err
		}
		return u.Entries.Append(txCtx, ports.LedgerEntry{
			ID:        u.newID(),
			FarmID:    id.FarmID,
			Kind:      ports.LedgerSync,
			Payload:   map[string]any{"version": rec.Version + 1},
			CreatedAt: now,
		})
	})
}

func (u UseCase) Withdraw(ctx context.Context, id ports.Identity, req ports.WithdrawRequest) error {
	if len(req.IDs) != len(req.Amounts) || req.Balance.IsNegative() {
		return fmt.Errorf("%w: withdraw ids and amounts must pair up", ErrInvalidRequest)
	}
	for i, amount := range req.Amounts {
		if amount.IsNegative() {
			return fmt.Errorf("%w: negative amount for %s", ErrInvalidRequest, req.IDs[i])
		}
	}
	return u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := u.record(txCtx, id)
		if err != nil {
			return err
		}
		next := rec.Snapshot.Clone()
		if next.Balance.LessThan(req.Balance) {
			return fmt.Errorf("%w: balance %s below %s", ports.ErrRejected, next.Balance, req.Balance)
		}
		next.Balance = next.Balance.Sub(req.Balance)
		items := make(map[string]string, len(req.IDs))
		for i, name := range req.IDs {
			held := next.Inventory.Get(name)
			if held.LessThan(req.Amounts[i]) {
				return fmt.Errorf("%w: %s holds %s", ports.ErrRejected, name, held)
			}
			next.Inventory[name] = held.Sub(req.Amounts[i])
			items[string(name)] = req.Amounts[i].String()
		}
		now := u.now()
		if err := u.save(txCtx, rec, next, now); err != nil {
			return err
		}
		return u.Entries.Append(txCtx, ports.LedgerEntry{
			ID:     u.newID(),
			FarmID: id.FarmID,
			Kind:   ports.LedgerWithdraw,
			Payload: map[string]any{
				"sfl":     req.Balance.String(),
				"items":   items,
				"version": rec.Version + 1,
			},
			CreatedAt: now,
		})
	})
}

// record loads the farm for id. A session id mismatch is reported as
// ErrNotFound so stale sessions cannot write.
func (u UseCase) record(ctx context.Context, id ports.Identity) (ports.FarmRecord, error) {
	if id.FarmID <= 0 || strings.TrimSpace(id.SessionID) == "" {
		return ports.FarmRecord{}, ErrInvalidRequest
	}
	rec, err := u.Farms.GetByFarmID(ctx, id.FarmID)
	if err != nil {
		return ports.FarmRecord{}, err
	}
	if rec.SessionID != id.SessionID {
		return ports.FarmRecord{}, fmt.Errorf("session %s: %w", id.SessionID, ports.ErrNotFound)
	}
	return rec, nil
}

func (u UseCase) save(ctx context.Context, rec ports.FarmRecord, next farm.Snapshot, now time.Time) error {
	next.ID = rec.FarmID
	expected := rec.Version
	rec.Snapshot = next
	rec.Version = expected + 1
	rec.UpdatedAt = now
	return u.Farms.SaveWithVersion(ctx, rec, expected)
}

func (u UseCase) now() time.Time {
	if u.Now == nil {
		return time.Now().UTC()
	}
	return u.Now()
}

func (u UseCase) newID() string {
	if u.NewID == nil {
		return uuid.NewString()
	}
	return u.NewID()
}
