package bencode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripDecodeEncode(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
	}{
		{"zero", int64(0)},
		{"positive int", int64(42)},
		{"negative int", int64(-17)},
		{"empty string", ""},
		{"string", "spam"},
		{"empty list", []interface{}{}},
		{"list", []interface{}{int64(1), "two", int64(3)}},
		{"dict", map[string]interface{}{"bar": "spam", "foo": int64(42)}},
		{"nested", map[string]interface{}{
			"info": map[string]interface{}{
				"length": int64(12345),
				"name":   "file.bin",
				"pieces": "",
			},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := Encode(tc.in)
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			require.Equal(t, tc.in, decoded)
		})
	}
}

func TestEncodeIsCanonicalRoundTrip(t *testing.T) {
	// P2: encode(decode(b)) == b whenever b already has sorted keys and
	// canonical integers.
	canonical := []byte("d3:bar4:spam3:fooi42ee")

	decoded, err := Decode(canonical)
	require.NoError(t, err)

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, canonical, reencoded)
}

func TestDecodeAcceptsUnsortedAndDuplicateKeys(t *testing.T) {
	// Accept on decode per spec; only the encoder enforces sorted order.
	unsorted := []byte("d3:fooi1e3:bar4:spame")
	v, err := Decode(unsorted)
	require.NoError(t, err)
	m := v.(map[string]interface{})
	require.Equal(t, int64(1), m["foo"])
	require.Equal(t, "spam", m["bar"])

	duplicate := []byte("d3:fooi1e3:fooi2ee")
	v, err = Decode(duplicate)
	require.NoError(t, err)
	m = v.(map[string]interface{})
	require.Equal(t, int64(2), m["foo"])
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"truncated int":       "i42",
		"leading zero":        "i042e",
		"negative zero":       "i-0e",
		"bare minus":          "i-e",
		"non-digit length":    "3x:abc",
		"truncated string":    "5:ab",
		"unterminated list":   "li1ei2e",
		"unterminated dict":   "d3:fooi1e",
		"bad tag":             "x",
		"empty input":         "",
		"leading zero length": "03:abc",
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(in))
			require.Error(t, err)
		})
	}
}

func TestDecodeAllowsI0e(t *testing.T) {
	v, err := Decode([]byte("i0e"))
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestEncodeSortsDictKeys(t *testing.T) {
	m := map[string]interface{}{
		"zebra": int64(1),
		"apple": int64(2),
		"mango": int64(3),
	}
	encoded, err := Encode(m)
	require.NoError(t, err)
	require.Equal(t, "d5:applei2e5:mangoi3e5:zebrai1ee", string(encoded))
}
