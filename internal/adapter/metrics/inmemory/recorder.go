package inmemory

import (
	"sync"

	"farmsession/internal/domain/farm"
)

type Snapshot struct {
	Transitions   map[string]uint64 `json:"transitions"`
	ByState       map[string]uint64 `json:"by_state"`
	RejectTotal   uint64            `json:"reject_total"`
	ByReason      map[string]uint64 `json:"by_reason"`
	FlushTotal    uint64            `json:"flush_total"`
	FlushFailure  uint64            `json:"flush_failure"`
	FlushedAction uint64            `json:"flushed_actions"`
	LedgerCalls   map[string]uint64 `json:"ledger_calls"`
	LedgerFailed  map[string]uint64 `json:"ledger_failures"`
}

type Recorder struct {
	mu          sync.Mutex
	transitions map[string]uint64
	byState     map[string]uint64
	byReason    map[string]uint64
	flushes     uint64
	failures    uint64
	flushed     uint64
	ledgerCalls map[string]uint64
	ledgerFail  map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		transitions: map[string]uint64{},
		byState:     map[string]uint64{},
		byReason:    map[string]uint64{},
		ledgerCalls: map[string]uint64{},
		ledgerFail:  map[string]uint64{},
	}
}

func (r *Recorder) RecordTransition(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[from+"->"+to]++
	r.byState[to]++
}

func (r *Recorder) RecordRejection(reason farm.RejectionReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byReason[string(reason)]++
}

// RecordFlush counts a flush attempt; entries only count toward the flushed
// total when the flush succeeded.
func (r *Recorder) RecordFlush(entries int, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	if failed {
		r.failures++
		return
	}
	r.flushed += uint64(entries)
}

func (r *Recorder) RecordLedgerCall(op string, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgerCalls[op]++
	if failed {
		r.ledgerFail[op]++
	}
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		Transitions:   copyCounts(r.transitions),
		ByState:       copyCounts(r.byState),
		ByReason:      copyCounts(r.byReason),
		FlushTotal:    r.flushes,
		FlushFailure:  r.failures,
		FlushedAction: r.flushed,
		LedgerCalls:   copyCounts(r.ledgerCalls),
		LedgerFailed:  copyCounts(r.ledgerFail),
	}
	for _, v := range r.byReason {
		out.RejectTotal += v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
