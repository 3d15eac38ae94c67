package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_FullMatrix(t *testing.T) {
	states := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusPaid,
		InvoiceStatusCancelled,
	}

	allowed := map[InvoiceStatus]map[InvoiceStatus]bool{
		InvoiceStatusDraft: {InvoiceStatusSent: true, InvoiceStatusCancelled: true},
		InvoiceStatusSent:  {InvoiceStatusPaid: true, InvoiceStatusCancelled: true},
	}

	for _, from := range states {
		for _, to := range states {
			want := allowed[from][to]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_OverdueIsNeverAnEdge(t *testing.T) {
	for _, other := range []InvoiceStatus{
		InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled,
	} {
		assert.False(t, CanTransition(InvoiceStatusOverdue, other))
		assert.False(t, CanTransition(other, InvoiceStatusOverdue))
	}
}

func TestEffectiveStatus(t *testing.T) {
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status InvoiceStatus
		now    time.Time
		want   InvoiceStatus
	}{
		{"sent before due date", InvoiceStatusSent, due.AddDate(0, 0, -1), InvoiceStatusSent},
		{"sent on due date", InvoiceStatusSent, due.Add(23 * time.Hour), InvoiceStatusSent},
		{"sent day after due date", InvoiceStatusSent, due.AddDate(0, 0, 1), InvoiceStatusOverdue},
		{"sent long past due date", InvoiceStatusSent, due.AddDate(0, 2, 0), InvoiceStatusOverdue},
		{"draft past due date stays draft", InvoiceStatusDraft, due.AddDate(0, 0, 10), InvoiceStatusDraft},
		{"paid past due date stays paid", InvoiceStatusPaid, due.AddDate(0, 0, 10), InvoiceStatusPaid},
		{"cancelled past due date stays cancelled", InvoiceStatusCancelled, due.AddDate(0, 0, 10), InvoiceStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(tt.status, due, tt.now))
		})
	}
}

func TestEffectiveStatus_PaidInvoiceNeverFlipsBack(t *testing.T) {
	// A paid invoice stays PAID no matter how far the clock moves.
	due := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	for months := 0; months < 24; months++ {
		now := due.AddDate(0, months, 3)
		assert.Equal(t, InvoiceStatusPaid, EffectiveStatus(InvoiceStatusPaid, due, now))
	}
}
