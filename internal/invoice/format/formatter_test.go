package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceNumber(t *testing.T) {
	issue := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		template string
		seq      int64
		want     string
	}{
		{"default template", "INV-{YYYY}{MM}-{SEQ4}", 1, "INV-202603-0001"},
		{"padding overflows gracefully", "INV-{YYYY}{MM}-{SEQ4}", 12345, "INV-202603-12345"},
		{"unpadded seq", "{YYYY}/{MM}/{SEQ}", 7, "2026/03/7"},
		{"short year and day", "{YY}{MM}{DD}-{SEQ6}", 42, "260307-000042"},
		{"no tokens passes through", "PLAIN", 9, "PLAIN"},
		{"wide pad", "{SEQ8}", 3, "00000003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InvoiceNumber(tt.template, issue, tt.seq))
		})
	}
}

func TestInvoiceNumber_NonUTCIssueDate(t *testing.T) {
	// 1 Apr 02:00 in Riyadh is still 31 Mar in UTC; the number must follow
	// the UTC bucket.
	riyadh := time.FixedZone("AST", 3*60*60)
	issue := time.Date(2026, 4, 1, 2, 0, 0, 0, riyadh)

	assert.Equal(t, "INV-202603-0001", InvoiceNumber("INV-{YYYY}{MM}-{SEQ4}", issue, 1))
}
