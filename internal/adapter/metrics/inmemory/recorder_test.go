package inmemory

import (
	"testing"

	"farmsession/internal/app/ports"
	"farmsession/internal/domain/farm"
)

var (
	_ ports.SessionMetrics = (*Recorder)(nil)
	_ ports.LedgerMetrics  = (*Recorder)(nil)
)

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	r.RecordTransition("loading", "playing")
	r.RecordTransition("playing", "autosaving")
	r.RecordTransition("autosaving", "playing")
	r.RecordRejection(farm.InsufficientFunds)
	r.RecordRejection(farm.InsufficientFunds)
	r.RecordRejection(farm.InvalidPlot)
	r.RecordFlush(3, false)
	r.RecordFlush(2, true)

	s := r.Snapshot()
	if s.ByState["playing"] != 2 {
		t.Fatalf("expected playing entered twice, got %d", s.ByState["playing"])
	}
	if s.Transitions["playing->autosaving"] != 1 {
		t.Fatalf("expected one playing->autosaving transition")
	}
	if s.RejectTotal != 3 || s.ByReason[string(farm.InsufficientFunds)] != 2 {
		t.Fatalf("unexpected rejections %+v", s)
	}
	if s.FlushTotal != 2 || s.FlushFailure != 1 || s.FlushedAction != 3 {
		t.Fatalf("unexpected flush counts %+v", s)
	}

	s.ByState["playing"] = 100
	if r.Snapshot().ByState["playing"] != 2 {
		t.Fatalf("expected snapshot maps to be copies")
	}
}

func TestRecorderLedgerCalls(t *testing.T) {
	r := NewRecorder()
	r.RecordLedgerCall("autosave", false)
	r.RecordLedgerCall("autosave", true)
	r.RecordLedgerCall("mint", false)

	s := r.Snapshot()
	if s.LedgerCalls["autosave"] != 2 || s.LedgerCalls["mint"] != 1 {
		t.Fatalf("unexpected ledger calls %+v", s.LedgerCalls)
	}
	if s.LedgerFailed["autosave"] != 1 || s.LedgerFailed["mint"] != 0 {
		t.Fatalf("unexpected ledger failures %+v", s.LedgerFailed)
	}
}
