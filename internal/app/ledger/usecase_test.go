package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"farmsession/internal/adapter/repo/memory"
	"farmsession/internal/app/ledger"
	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

var identity = ports.Identity{FarmID: 11, SessionID: "session-11"}

type fixture struct {
	uc      ledger.UseCase
	farms   memory.FarmRepo
	actions memory.ActionRepo
	entries memory.LedgerRepo
}

func newFixture(t *testing.T, snapshot farm.Snapshot) fixture {
	t.Helper()
	store := memory.NewStore()
	seq := 0
	f := fixture{
		farms:   memory.NewFarmRepo(store),
		actions: memory.NewActionRepo(store),
		entries: memory.NewLedgerRepo(store),
	}
	f.uc = ledger.UseCase{
		TxManager: memory.NewTxManager(store),
		Farms:     f.farms,
		Actions:   f.actions,
		Entries:   f.entries,
		Now:       func() time.Time { return time.Unix(1700000000, 0).UTC() },
		NewID: func() string {
			seq++
			return fmt.Sprintf("entry-%d", seq)
		},
	}
	if err := f.uc.Seed(context.Background(), identity, snapshot); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return f
}

func shopFarm() farm.Snapshot {
	return farm.Snapshot{
		Balance:   farm.NewQuantity(20),
		Fields:    farm.Fields{},
		Inventory: farm.Inventory{"Sunflower": farm.NewQuantity(3)},
		Stock:     farm.Inventory{"Sunflower Seed": farm.NewQuantity(5)},
	}
}

func logged(id string, a farm.Action) farm.LoggedAction {
	return farm.LoggedAction{ID: id, Action: a, CreatedAt: time.Unix(1699999990, 0).UTC()}
}

func TestUseCase_LoadSessionChecksSession(t *testing.T) {
	f := newFixture(t, shopFarm())
	snap, err := f.uc.LoadSession(context.Background(), identity)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if snap.ID != identity.FarmID || !snap.Balance.Equal(farm.NewQuantity(20)) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	stale := identity
	stale.SessionID = "other"
	if _, err := f.uc.LoadSession(context.Background(), stale); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stale session, got %v", err)
	}
	if _, err := f.uc.LoadSession(context.Background(), ports.Identity{FarmID: 404, SessionID: "x"}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown farm, got %v", err)
	}
}

func TestUseCase_AutosaveAppliesAndDeduplicates(t *testing.T) {
	f := newFixture(t, shopFarm())
	batch := []farm.LoggedAction{
		logged("a-1", farm.CraftAction{Item: "Sunflower Seed", Amount: 2}),
		logged("a-2", farm.SellAction{Item: "Sunflower", Amount: 1}),
	}

	receipt, err := f.uc.Autosave(context.Background(), identity, batch)
	if err != nil {
		t.Fatalf("Autosave: %v", err)
	}
	if receipt.Applied != 2 || receipt.Skipped != 0 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	// 20 - 2*0.01 + 0.02
	want := farm.MustQuantity("20")
	snap, _ := f.uc.LoadSession(context.Background(), identity)
	if !snap.Balance.Equal(want) {
		t.Fatalf("expected balance %s, got %s", want, snap.Balance)
	}
	if !snap.Stock.Get("Sunflower Seed").Equal(farm.NewQuantity(3)) {
		t.Fatalf("expected stock 3, got %s", snap.Stock.Get("Sunflower Seed"))
	}

	again := append(batch, logged("a-3", farm.CraftAction{Item: "Sunflower Seed", Amount: 1}))
	receipt, err = f.uc.Autosave(context.Background(), identity, again)
	if err != nil {
		t.Fatalf("Autosave retry: %v", err)
	}
	if receipt.Applied != 1 || receipt.Skipped != 2 {
		t.Fatalf("expected only the new action applied, got %+v", receipt)
	}
	rec, _ := f.farms.GetByFarmID(context.Background(), identity.FarmID)
	if rec.Version != 3 {
		t.Fatalf("expected version 3, got %d", rec.Version)
	}
	stored, _ := f.actions.ListByFarmID(context.Background(), identity.FarmID, 0)
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored actions, got %d", len(stored))
	}
}

func TestUseCase_AutosaveIsAllOrNothing(t *testing.T) {
	f := newFixture(t, shopFarm())
	batch := []farm.LoggedAction{
		logged("b-1", farm.CraftAction{Item: "Sunflower Seed", Amount: 1}),
		logged("b-2", farm.CraftAction{Item: "Sunflower Seed", Amount: 50}),
	}
	_, err := f.uc.Autosave(context.Background(), identity, batch)
	if !errors.Is(err, ports.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	snap, _ := f.uc.LoadSession(context.Background(), identity)
	if !snap.Equal(func() farm.Snapshot { s := shopFarm(); s.ID = identity.FarmID; return s }()) {
		t.Fatalf("expected stored snapshot untouched, got %+v", snap)
	}
	stored, _ := f.actions.ListByFarmID(context.Background(), identity.FarmID, 0)
	if len(stored) != 0 {
		t.Fatalf("expected no stored actions, got %d", len(stored))
	}
}

func TestUseCase_AutosaveRejectsMalformedBatch(t *testing.T) {
	f := newFixture(t, shopFarm())
	_, err := f.uc.Autosave(context.Background(), identity, []farm.LoggedAction{{ID: "", Action: farm.CraftAction{Item: "Axe", Amount: 1}}})
	if !errors.Is(err, ledger.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUseCase_MintLimitedItemOnce(t *testing.T) {
	f := newFixture(t, shopFarm())
	ctx := context.Background()

	if err := f.uc.Mint(ctx, identity, ports.MintRequest{Item: "Axe"}); !errors.Is(err, ledger.ErrInvalidRequest) {
		t.Fatalf("expected non-limited item refused, got %v", err)
	}
	if err := f.uc.Mint(ctx, identity, ports.MintRequest{Item: "Gnome"}); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := f.uc.Mint(ctx, identity, ports.MintRequest{Item: "Gnome"}); !errors.Is(err, ports.ErrRejected) {
		t.Fatalf("expected second mint rejected, got %v", err)
	}
	snap, _ := f.uc.LoadSession(ctx, identity)
	if !snap.Inventory.Get("Gnome").Equal(farm.NewQuantity(1)) {
		t.Fatalf("expected minted gnome in inventory")
	}
	mints, _ := f.entries.ListByFarmID(ctx, identity.FarmID, ports.LedgerMint)
	if len(mints) != 1 || mints[0].Item != "Gnome" || mints[0].ID != "entry-1" {
		t.Fatalf("unexpected mint entries %+v", mints)
	}
}

func TestUseCase_SyncRestocks(t *testing.T) {
	f := newFixture(t, shopFarm())
	ctx := context.Background()
	if err := f.uc.Sync(ctx, identity); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	snap, _ := f.uc.LoadSession(ctx, identity)
	if !snap.Stock.Get("Iron Pickaxe").Equal(farm.InitialStock().Get("Iron Pickaxe")) {
		t.Fatalf("expected stock reset, got %+v", snap.Stock)
	}
	syncs, _ := f.entries.ListByFarmID(ctx, identity.FarmID, ports.LedgerSync)
	if len(syncs) != 1 {
		t.Fatalf("expected one sync entry, got %d", len(syncs))
	}
}

func TestUseCase_Withdraw(t *testing.T) {
	f := newFixture(t, shopFarm())
	ctx := context.Background()

	tooMuch := ports.WithdrawRequest{Balance: farm.NewQuantity(21)}
	if err := f.uc.Withdraw(ctx, identity, tooMuch); !errors.Is(err, ports.ErrRejected) {
		t.Fatalf("expected overdraw rejected, got %v", err)
	}
	mismatched := ports.WithdrawRequest{IDs: []farm.ItemName{"Sunflower"}}
	if err := f.uc.Withdraw(ctx, identity, mismatched); !errors.Is(err, ledger.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}

	req := ports.WithdrawRequest{
		IDs:     []farm.ItemName{"Sunflower"},
		Amounts: []farm.Quantity{farm.NewQuantity(2)},
		Balance: farm.MustQuantity("5.5"),
	}
	if err := f.uc.Withdraw(ctx, identity, req); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	snap, _ := f.uc.LoadSession(ctx, identity)
	if !snap.Balance.Equal(farm.MustQuantity("14.5")) || !snap.Inventory.Get("Sunflower").Equal(farm.NewQuantity(1)) {
		t.Fatalf("unexpected snapshot after withdraw %+v", snap)
	}
	withdrawals, _ := f.entries.ListByFarmID(ctx, identity.FarmID, ports.LedgerWithdraw)
	if len(withdrawals) != 1 || withdrawals[0].Payload["sfl"] != "5.5" {
		t.Fatalf("unexpected withdraw entries %+v", withdrawals)
	}
}

func TestUseCase_SeedRejectsDuplicates(t *testing.T) {
	f := newFixture(t, shopFarm())
	if err := f.uc.Seed(context.Background(), identity, shopFarm()); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := f.uc.Seed(context.Background(), ports.Identity{FarmID: 12}, shopFarm()); !errors.Is(err, ledger.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
