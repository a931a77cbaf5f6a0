// Package bencode implements the BitTorrent bencoding used by the HTTP
// tracker protocol and by .torrent files: signed integers, length-prefixed
// byte strings, ordered lists, and string-keyed dictionaries.
//
// A decoded dictionary key, list element, or top-level value comes back as
// one of: int64, string, []interface{}, or map[string]interface{}. Byte
// strings decode to Go strings without any UTF-8 assumption -- callers that
// need raw bytes should use []byte(s).
package bencode

import (
	"fmt"
	"strconv"

	"bttracker/internal/trackerr"
)

// Decoder reads a single bencoded value from a byte stream. It is not
// safe for concurrent use.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder returns a Decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Decode parses exactly one bencoded value starting at the decoder's
// current position and advances past it. It does not require the stream to
// be fully consumed, so callers can decode a sequence of values.
func (d *Decoder) Decode() (interface{}, error) {
	if d.pos >= len(d.data) {
		return nil, malformed("unexpected end of input")
	}

	switch d.data[d.pos] {
	case 'i':
		return d.decodeInt()
	case 'l':
		return d.decodeList()
	case 'd':
		return d.decodeDict()
	default:
		if d.data[d.pos] >= '0' && d.data[d.pos] <= '9' {
			return d.decodeString()
		}
		return nil, malformed(fmt.Sprintf("invalid bencode tag %q at offset %d", d.data[d.pos], d.pos))
	}
}

// decodeInt parses i<digits>e. Leading zeros are rejected except for the
// literal i0e, and -0 is rejected outright.
func (d *Decoder) decodeInt() (int64, error) {
	if d.data[d.pos] != 'i' {
		return 0, malformed("expected 'i'")
	}
	d.pos++

	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != 'e' {
		d.pos++
	}
	if d.pos >= len(d.data) {
		return 0, malformed("unterminated integer")
	}

	digits := d.data[start:d.pos]
	d.pos++ // skip 'e'

	if err := validateIntDigits(digits); err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0, malformed("integer out of range: " + err.Error())
	}
	return n, nil
}

func validateIntDigits(digits []byte) error {
	if len(digits) == 0 {
		return malformed("empty integer")
	}
	s := digits
	if s[0] == '-' {
		if len(s) == 1 {
			return malformed("bare '-' is not an integer")
		}
		if s[1] == '0' {
			return malformed("negative zero is not allowed")
		}
		s = s[1:]
	}
	if s[0] == '0' && len(s) > 1 {
		return malformed("leading zero in integer")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return malformed("non-digit in integer")
		}
	}
	return nil
}

// decodeString parses <length>:<bytes>.
func (d *Decoder) decodeString() (string, error) {
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != ':' {
		if d.data[d.pos] < '0' || d.data[d.pos] > '9' {
			return "", malformed("non-digit in string length prefix")
		}
		d.pos++
	}
	if d.pos >= len(d.data) {
		return "", malformed("unterminated string length")
	}

	lengthStr := string(d.data[start:d.pos])
	if len(lengthStr) > 1 && lengthStr[0] == '0' {
		return "", malformed("leading zero in string length")
	}
	length, err := strconv.Atoi(lengthStr)
	if err != nil {
		return "", malformed("invalid string length: " + err.Error())
	}

	d.pos++ // skip ':'
	if d.pos+length > len(d.data) || length < 0 {
		return "", malformed("string length exceeds input")
	}

	result := string(d.data[d.pos : d.pos+length])
	d.pos += length
	return result, nil
}

// decodeList parses l<values>e.
func (d *Decoder) decodeList() ([]interface{}, error) {
	if d.data[d.pos] != 'l' {
		return nil, malformed("expected 'l'")
	}
	d.pos++

	result := []interface{}{}
	for d.pos < len(d.data) && d.data[d.pos] != 'e' {
		item, err := d.Decode()
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if d.pos >= len(d.data) {
		return nil, malformed("unterminated list")
	}
	d.pos++ // skip 'e'
	return result, nil
}

// decodeDict parses d<key><value>...e. Keys must be byte strings. Duplicate
// or out-of-order keys are accepted on decode (the last value for a
// duplicate key wins, following plain Go map assignment); only the encoder
// enforces sorted-key canonical form.
func (d *Decoder) decodeDict() (map[string]interface{}, error) {
	if d.data[d.pos] != 'd' {
		return nil, malformed("expected 'd'")
	}
	d.pos++

	result := make(map[string]interface{})
	for d.pos < len(d.data) && d.data[d.pos] != 'e' {
		key, err := d.decodeString()
		if err != nil {
			return nil, malformed("dictionary key: " + err.Error())
		}
		value, err := d.Decode()
		if err != nil {
			return nil, malformed("dictionary value for key " + key + ": " + err.Error())
		}
		result[key] = value
	}
	if d.pos >= len(d.data) {
		return nil, malformed("unterminated dictionary")
	}
	d.pos++ // skip 'e'
	return result, nil
}

// Decode decodes a single bencoded value from data.
func Decode(data []byte) (interface{}, error) {
	return NewDecoder(data).Decode()
}

func malformed(reason string) *trackerr.Error {
	return trackerr.New(trackerr.KindMalformedBencode, reason)
}
