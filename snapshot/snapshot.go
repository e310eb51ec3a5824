// Package snapshot holds the raw peer snapshot produced by the network crawler
// and the tolerant accessors used to read its positional peer records.
package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Positions of the fields inside a PeerTuple.
const (
	FieldHost = iota
	FieldPort
	FieldProtocolVersion
	FieldUserAgent
	FieldConnectedSince
	FieldServices
	FieldHeight
	FieldHostname
	FieldCity
	FieldCountryCode
	FieldLatitude
	FieldLongitude
	FieldTimezone
	FieldASN
	FieldOrganizationName

	// TupleFields is the number of positions in a complete PeerTuple.
	TupleFields
)

// PeerTuple is one crawled peer encoded positionally (see the Field constants).
// Values are whatever the decoder produced: string, json.Number, float64,
// bool or nil. Accessors never fail on short or mistyped tuples; they report
// absence instead so callers can substitute defaults.
type PeerTuple []any

// Snapshot is a single point-in-time capture of the peer network.
// It is immutable once handed to a consumer; a newer capture replaces it wholesale.
type Snapshot struct {
	CapturedAt int64
	Peers      []PeerTuple
	// Skipped counts peer entries that were not arrays and were dropped by the decoder.
	Skipped int
}

// Len returns the number of peers, tolerating a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Peers)
}

// Value returns the raw value at position i or nil when the tuple is too short.
func (t PeerTuple) Value(i int) any {
	if i < 0 || i >= len(t) {
		return nil
	}
	return t[i]
}

// Text renders the value at position i as display text. Missing and null
// values render as "".
func (t PeerTuple) Text(i int) string {
	switch v := t.Value(i).(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int reads the value at position i as an integer using parseInt rules:
// numeric values are truncated toward zero and strings contribute their
// leading integer prefix ("1000s" -> 1000). ok is false when nothing numeric
// is present.
func (t PeerTuple) Int(i int) (int64, bool) {
	switch v := t.Value(i).(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return truncFloat(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return truncFloat(f)
		}
		return ParseInt(v.String())
	case string:
		return ParseInt(v)
	}
	return 0, false
}

// Float reads the value at position i as a float64.
func (t PeerTuple) Float(i int) (float64, bool) {
	switch v := t.Value(i).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// ParseInt extracts the leading base-10 integer of s. Leading whitespace and a
// single sign are accepted; parsing stops at the first non-digit.
func ParseInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func truncFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
