// Package player contains the per-player ledger aggregate: running point
// totals, the consecutive-day streak, and the pure decision logic that a
// completion applies to them. The ledger is always merged, never
// overwritten wholesale.
package player

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// PointValue models a stored point field as it exists in the document
// store: a JSON number, a numeric string, or absent/blank. The dual shape
// is a schema-migration artifact; everything outside this package works
// with one canonical int64 produced by the resolver.
type PointValue struct {
	raw json.RawMessage
}

// PointNumber returns a PointValue holding a JSON number.
func PointNumber(n int64) PointValue {
	return PointValue{raw: json.RawMessage(strconv.FormatInt(n, 10))}
}

// PointString returns a PointValue holding a numeric JSON string.
func PointString(n int64) PointValue {
	return PointValue{raw: json.RawMessage(strconv.Quote(strconv.FormatInt(n, 10)))}
}

// PointRaw wraps a raw JSON value read from storage. A nil or empty raw
// value means the field is absent.
func PointRaw(raw []byte) PointValue {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PointValue{}
	}
	return PointValue{raw: json.RawMessage(trimmed)}
}

// IsSet reports whether the field is present at all.
func (v PointValue) IsSet() bool {
	return len(v.raw) > 0
}

// IsNumber reports whether the stored shape is a JSON number.
func (v PointValue) IsNumber() bool {
	if !v.IsSet() {
		return false
	}
	c := v.raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

// Coerce returns the numeric value of the field, coercing numeric strings.
// The second return value is false for absent, blank, or non-numeric
// content.
func (v PointValue) Coerce() (int64, bool) {
	if !v.IsSet() {
		return 0, false
	}

	s := string(v.raw)
	if v.raw[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return 0, false
		}
		s = strings.TrimSpace(unquoted)
		if s == "" {
			return 0, false
		}
	}

	// Float parse mirrors the loose numeric coercion of the stored
	// documents; fractional values truncate toward zero.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// Mirror returns the value total represented in this field's prior shape:
// a number stays a number, anything else (including absent) becomes a
// numeric string. Used to keep the legacy wallet mirror type-consistent.
func (v PointValue) Mirror(total int64) PointValue {
	if v.IsNumber() {
		return PointNumber(total)
	}
	return PointString(total)
}

// Raw returns the stored JSON value, or nil when the field is absent.
func (v PointValue) Raw() json.RawMessage {
	if !v.IsSet() {
		return nil
	}
	return v.raw
}

// MarshalJSON implements json.Marshaler. Absent values marshal as null.
func (v PointValue) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *PointValue) UnmarshalJSON(data []byte) error {
	*v = PointRaw(data)
	return nil
}

// Ledger is the per-player running totals record.
type Ledger struct {
	// PlayerID is the ledger key.
	PlayerID string

	// DisplayName is the name shown on the leaderboard.
	DisplayName string

	// Username is a legacy alias set once at profile creation; when
	// present it wins the display-name merge.
	Username string

	// TotalPoints is the canonical point total. May be absent on records
	// written before the wallet migration.
	TotalPoints PointValue

	// Wallet is the legacy point mirror (number or numeric string).
	Wallet PointValue

	// StreakDays is the consecutive-day completion streak. At least 1
	// once any completion exists.
	StreakDays int

	// LastCompletedDateKey is the date key of the most recent completion.
	LastCompletedDateKey string

	// CreatedAt is preserved across merges once set.
	CreatedAt time.Time

	// UpdatedAt is bumped on every merge.
	UpdatedAt time.Time
}

// MergedDisplayName resolves the display name a completion merge should
// store: the first non-empty of the stored username, the requested name,
// the previously stored display name, and finally the player ID.
func (l *Ledger) MergedDisplayName(requested, playerID string) string {
	if l != nil && l.Username != "" {
		return l.Username
	}
	if requested != "" {
		return requested
	}
	if l != nil && l.DisplayName != "" {
		return l.DisplayName
	}
	return playerID
}
