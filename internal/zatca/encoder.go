// Package zatca builds the KSA e-invoicing QR payload.
//
// The payload is five Tag-Length-Value triplets concatenated in tag order
// and Base64-encoded: 1 seller name, 2 VAT registration number, 3 invoice
// timestamp, 4 invoice total with VAT, 5 VAT total. Lengths are UTF-8 byte
// lengths. The transform is pure, so the same invoice always produces the
// same payload and an audit can regenerate it bit for bit.
package zatca

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

const (
	tagSellerName = 1
	tagVATNumber  = 2
	tagTimestamp  = 3
	tagTotal      = 4
	tagVATTotal   = 5
)

// Encode renders the Base64 TLV payload embedded in the invoice QR code.
func Encode(sellerName, vatNumber string, timestampUTC time.Time, invoiceTotal, vatTotal float64) (string, error) {
	fields := []struct {
		tag   byte
		value string
	}{
		{tagSellerName, sellerName},
		{tagVATNumber, vatNumber},
		{tagTimestamp, timestampUTC.UTC().Format(time.RFC3339)},
		{tagTotal, formatAmount(invoiceTotal)},
		{tagVATTotal, formatAmount(vatTotal)},
	}

	var buf []byte
	for _, field := range fields {
		raw := []byte(field.value)
		if len(raw) > 255 {
			return "", fmt.Errorf("zatca: field %d exceeds 255 bytes", field.tag)
		}
		buf = append(buf, field.tag, byte(len(raw)))
		buf = append(buf, raw...)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
