//go:build e2e

package e2e

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"farmsession/internal/adapter/gateway/remote"
	"farmsession/internal/app/ports"
	"farmsession/internal/app/session"
	"farmsession/internal/domain/farm"
)

// Runs against a live ledger, e.g. `go run ./cmd/server` with the default
// demo farm.
func TestRemoteLedger_SessionLifecycle(t *testing.T) {
	baseURL := strings.TrimRight(envOr("E2E_LEDGER_URL", "http://127.0.0.1:8080"), "/")
	farmID, err := strconv.ParseInt(envOr("E2E_FARM_ID", "1"), 10, 64)
	if err != nil {
		t.Fatalf("E2E_FARM_ID: %v", err)
	}
	id := ports.Identity{FarmID: farmID, SessionID: envOr("E2E_SESSION_ID", "demo-session")}

	gw, err := remote.New(remote.Options{BaseURL: baseURL, Timeout: 20 * time.Second})
	if err != nil {
		t.Fatalf("remote.New: %v", err)
	}
	ctx := context.Background()

	t.Run("stale session is not found", func(t *testing.T) {
		stale := id
		stale.SessionID = "e2e-stale-" + time.Now().UTC().Format("20060102150405")
		if _, err := gw.LoadSession(ctx, stale); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("play save and resubmit", func(t *testing.T) {
		c, err := session.New(id, gw, session.Options{})
		if err != nil {
			t.Fatalf("session.New: %v", err)
		}
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		before := c.Snapshot()

		res, err := c.Dispatch(farm.CraftAction{Item: "Sunflower Seed", Amount: 1})
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if err := c.Save(ctx); err != nil {
			t.Fatalf("Save: %v", err)
		}

		receipt, err := gw.Autosave(ctx, id, []farm.LoggedAction{res.Logged})
		if err != nil {
			t.Fatalf("resubmit: %v", err)
		}
		if receipt.Applied != 0 || receipt.Skipped != 1 {
			t.Fatalf("expected resubmission skipped, got %+v", receipt)
		}

		after, err := gw.LoadSession(ctx, id)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		want := before.Balance.Sub(farm.MustQuantity("0.01"))
		if !after.Balance.Equal(want) {
			t.Fatalf("expected balance %s, got %s", want, after.Balance)
		}
	})

	t.Run("sync restocks", func(t *testing.T) {
		c, err := session.New(id, gw, session.Options{})
		if err != nil {
			t.Fatalf("session.New: %v", err)
		}
		if err := c.Load(ctx); err != nil {
			t.Fatalf("Load: %v", err)
		}
		if err := c.Sync(ctx); err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if c.State() != session.StateSuccess {
			t.Fatalf("expected success, got %s", c.State())
		}
		if err := c.Restart(ctx); err != nil {
			t.Fatalf("Restart: %v", err)
		}
		if !c.Snapshot().Stock.Get("Sunflower Seed").Equal(farm.InitialStock().Get("Sunflower Seed")) {
			t.Fatalf("expected restocked market")
		}
	})
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
