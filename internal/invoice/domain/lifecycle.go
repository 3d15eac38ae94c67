package domain

import "time"

// validTransitions is the full lifecycle table. Adding a state means adding
// rows here, not conditionals elsewhere.
//
//	DRAFT -> SENT | CANCELLED
//	SENT  -> PAID | CANCELLED
//	PAID, CANCELLED are terminal.
var validTransitions = map[InvoiceStatus]map[InvoiceStatus]bool{
	InvoiceStatusDraft: {
		InvoiceStatusSent:      true,
		InvoiceStatusCancelled: true,
	},
	InvoiceStatusSent: {
		InvoiceStatusPaid:      true,
		InvoiceStatusCancelled: true,
	},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
// OVERDUE is a display state, never a stored one, so it is valid on
// neither side of an edge.
func CanTransition(from, to InvoiceStatus) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// EffectiveStatus applies the read-time overdue rule: a SENT invoice past
// its due date displays as OVERDUE while remaining SENT in storage. Keeping
// this a pure function of its inputs avoids clock-skew writes.
func EffectiveStatus(status InvoiceStatus, dueDate, now time.Time) InvoiceStatus {
	if status == InvoiceStatusSent && dueDate.Before(truncateToDay(now)) {
		return InvoiceStatusOverdue
	}
	return status
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
