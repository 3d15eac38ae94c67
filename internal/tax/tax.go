// Package tax implements VAT arithmetic for invoicing.
//
// All functions are PURE:
// - No side effects
// - No DB access
// - Fully deterministic
package tax

import "math"

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeLineVat calculates VAT for a single taxable line amount.
// Rounding happens independently per line; invoice totals are sums of
// already-rounded line values, never VAT on the rounded subtotal.
func ComputeLineVat(taxableAmount, ratePercent float64) float64 {
	if ratePercent <= 0 {
		return 0
	}
	return Round2(taxableAmount * ratePercent / 100)
}

// Line is the monetary slice of an invoice item the totals care about.
type Line struct {
	LineTotal float64
	VatAmount float64
}

// ComputeInvoiceTotals sums already-rounded line values. The trailing
// Round2 calls only strip float accumulation noise; they never change the
// cent value of the sum.
func ComputeInvoiceTotals(lines []Line) (subtotal, vatAmount, total float64) {
	for _, line := range lines {
		subtotal += line.LineTotal
		vatAmount += line.VatAmount
	}
	subtotal = Round2(subtotal)
	vatAmount = Round2(vatAmount)
	total = Round2(subtotal + vatAmount)
	return subtotal, vatAmount, total
}
