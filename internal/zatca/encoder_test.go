package zatca

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Deterministic(t *testing.T) {
	ts := time.Date(2026, 3, 31, 14, 5, 0, 0, time.UTC)

	first, err := Encode("Ajyal Contracting LLC", "310122393500003", ts, 1150.00, 150.00)
	require.NoError(t, err)
	second, err := Encode("Ajyal Contracting LLC", "310122393500003", ts, 1150.00, 150.00)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestEncode_TLVLayout(t *testing.T) {
	ts := time.Date(2026, 3, 31, 14, 5, 0, 0, time.UTC)

	payload, err := Encode("Seller", "300000000000003", ts, 115.00, 15.00)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	fields := map[byte]string{}
	for i := 0; i < len(raw); {
		tag := raw[i]
		length := int(raw[i+1])
		fields[tag] = string(raw[i+2 : i+2+length])
		i += 2 + length
	}

	assert.Equal(t, "Seller", fields[1])
	assert.Equal(t, "300000000000003", fields[2])
	assert.Equal(t, "2026-03-31T14:05:00Z", fields[3])
	assert.Equal(t, "115.00", fields[4])
	assert.Equal(t, "15.00", fields[5])
}

func TestEncode_MultiByteSellerName(t *testing.T) {
	// Arabic seller names are multi-byte in UTF-8; the length octet must
	// count bytes, not runes.
	name := "شركة أجيال للمقاولات"
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	payload, err := Encode(name, "300000000000003", ts, 100.00, 15.00)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	assert.Equal(t, byte(1), raw[0])
	assert.Equal(t, byte(len([]byte(name))), raw[1])
	assert.Equal(t, name, string(raw[2:2+len([]byte(name))]))
}

func TestEncode_RejectsOversizedField(t *testing.T) {
	_, err := Encode(strings.Repeat("x", 300), "300000000000003", time.Now(), 1, 0)
	assert.Error(t, err)
}

func TestEncode_NonUTCTimestampNormalized(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	local := time.Date(2026, 3, 31, 17, 5, 0, 0, riyadh)
	utc := time.Date(2026, 3, 31, 14, 5, 0, 0, time.UTC)

	a, err := Encode("Seller", "300000000000003", local, 115.00, 15.00)
	require.NoError(t, err)
	b, err := Encode("Seller", "300000000000003", utc, 115.00, 15.00)
	require.NoError(t, err)

	assert.Equal(t, b, a)
}
