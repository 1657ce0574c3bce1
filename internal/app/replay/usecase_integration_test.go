package replay

import (
	"context"
	"os"
	"testing"
	"time"

	gormrepo "farmsession/internal/adapter/repo/gorm"
	"farmsession/internal/app/ledger"
	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

func TestUseCase_E2E_FiltersByConfirmedTimeWindow(t *testing.T) {
	dsn := os.Getenv("FARM_DB_DSN")
	if dsn == "" {
		t.Skip("FARM_DB_DSN is required for integration test")
	}

	db, err := gormrepo.OpenPostgres(dsn, gormrepo.PoolOptions{})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if _, err := gormrepo.ApplyMigrations(context.Background(), db, os.DirFS("../../../db/migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	id := ports.Identity{FarmID: 910001, SessionID: "it-replay-window"}
	ctx := context.Background()
	for _, table := range []string{"farm_actions", "ledger_entries", "farm_sessions"} {
		if err := db.Exec("DELETE FROM "+table+" WHERE farm_id = ?", id.FarmID).Error; err != nil {
			t.Fatalf("cleanup %s: %v", table, err)
		}
	}

	uc := ledger.UseCase{
		TxManager: gormrepo.NewTxManager(db),
		Farms:     gormrepo.NewFarmRepo(db),
		Actions:   gormrepo.NewActionRepo(db),
		Entries:   gormrepo.NewLedgerRepo(db),
		Now:       func() time.Time { return time.Unix(1700000000, 0) },
	}
	if err := uc.Seed(ctx, id, farm.InitialFarm()); err != nil {
		t.Fatalf("seed farm: %v", err)
	}

	first := farm.LoggedAction{ID: "it-replay-1", Action: farm.CraftAction{Item: "Sunflower Seed", Amount: 1}, CreatedAt: time.Unix(1699999999, 0)}
	if _, err := uc.Autosave(ctx, id, []farm.LoggedAction{first}); err != nil {
		t.Fatalf("first autosave: %v", err)
	}
	uc.Now = func() time.Time { return time.Unix(1700003600, 0) }
	second := farm.LoggedAction{ID: "it-replay-2", Action: farm.CraftAction{Item: "Axe", Amount: 1}, CreatedAt: time.Unix(1700003500, 0)}
	if _, err := uc.Autosave(ctx, id, []farm.LoggedAction{second}); err != nil {
		t.Fatalf("second autosave: %v", err)
	}

	out, err := UseCase{Actions: gormrepo.NewActionRepo(db)}.Execute(ctx, Request{
		FarmID:        id.FarmID,
		Limit:         10,
		ConfirmedFrom: 1700003000,
	})
	if err != nil {
		t.Fatalf("replay execute: %v", err)
	}
	if len(out.Actions) != 1 || out.Actions[0].Action.ID != "it-replay-2" {
		t.Fatalf("expected only the second action, got %+v", out.Actions)
	}
}
