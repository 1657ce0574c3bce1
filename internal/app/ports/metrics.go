package ports

import "farmsession/internal/domain/farm"

type SessionMetrics interface {
	RecordTransition(from, to string)
	RecordRejection(reason farm.RejectionReason)
	RecordFlush(entries int, failed bool)
}

// LedgerMetrics is recorded by the system of record for each served call.
type LedgerMetrics interface {
	RecordLedgerCall(op string, failed bool)
	RecordFlush(entries int, failed bool)
}
