package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

var errGatewayDown = errors.New("gateway down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubGateway struct {
	mu          sync.Mutex
	snapshot    farm.Snapshot
	loadErr     error
	autosaveErr error
	mintErr     error
	syncErr     error
	withdrawErr error
	onAutosave  func()

	calls     []string
	autosaved [][]farm.LoggedAction
	minted    []ports.MintRequest
	withdrawn []ports.WithdrawRequest
}

func (g *stubGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *stubGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *stubGateway) LoadSession(_ context.Context, _ ports.Identity) (farm.Snapshot, error) {
	g.record("load")
	if g.loadErr != nil {
		return farm.Snapshot{}, g.loadErr
	}
	return g.snapshot.Clone(), nil
}

func (g *stubGateway) Autosave(_ context.Context, _ ports.Identity, actions []farm.LoggedAction) (ports.AutosaveReceipt, error) {
	g.record("autosave")
	if g.onAutosave != nil {
		g.onAutosave()
	}
	if g.autosaveErr != nil {
		return ports.AutosaveReceipt{}, g.autosaveErr
	}
	g.mu.Lock()
	g.autosaved = append(g.autosaved, actions)
	g.mu.Unlock()
	return ports.AutosaveReceipt{Applied: len(actions)}, nil
}

func (g *stubGateway) Mint(_ context.Context, _ ports.Identity, req ports.MintRequest) error {
	g.record("mint")
	if g.mintErr != nil {
		return g.mintErr
	}
	g.minted = append(g.minted, req)
	return nil
}

func (g *stubGateway) Sync(_ context.Context, _ ports.Identity) error {
	g.record("sync")
	return g.syncErr
}

func (g *stubGateway) Withdraw(_ context.Context, _ ports.Identity, req ports.WithdrawRequest) error {
	g.record("withdraw")
	if g.withdrawErr != nil {
		return g.withdrawErr
	}
	g.withdrawn = append(g.withdrawn, req)
	return nil
}

type stubMetrics struct {
	transitions []string
	rejections  []farm.RejectionReason
	flushes     int
	failed      int
}

func (m *stubMetrics) RecordTransition(from, to string) {
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *stubMetrics) RecordRejection(reason farm.RejectionReason) {
	m.rejections = append(m.rejections, reason)
}

func (m *stubMetrics) RecordFlush(_ int, failed bool) {
	m.flushes++
	if failed {
		m.failed++
	}
}

var testIdentity = ports.Identity{FarmID: 7, SessionID: "session-7", Signature: "sig", Sender: "0xabc"}

func marketFarm(balance string) farm.Snapshot {
	return farm.Snapshot{
		ID:        7,
		Balance:   farm.MustQuantity(balance),
		Fields:    farm.Fields{},
		Inventory: farm.Inventory{"Stone Pickaxe": farm.NewQuantity(1)},
		Stock: farm.Inventory{
			"Iron Pickaxe":   farm.NewQuantity(10),
			"Sunflower Seed": farm.NewQuantity(100),
			"Potato Seed":    farm.NewQuantity(0),
		},
	}
}

func buyPickaxe() farm.Action {
	return farm.CraftAction{Item: "Iron Pickaxe", Amount: 1}
}

func buySeeds(n int64) farm.Action {
	return farm.CraftAction{Item: "Sunflower Seed", Amount: n}
}
