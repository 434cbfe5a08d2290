// internal/models/metadata.go
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type MetaKind string

const (
	MetaKindString    MetaKind = "string"
	MetaKindNumber    MetaKind = "number"
	MetaKindBoolean   MetaKind = "boolean"
	MetaKindTimestamp MetaKind = "timestamp"
)

// MetaValue is a tagged metadata value. The zero value is an empty string.
type MetaValue struct {
	kind MetaKind
	str  string
	num  decimal.Decimal
	b    bool
	ts   time.Time
}

// Metadata holds typed key/value details attached to admin activity.
type Metadata map[string]MetaValue

func StringValue(v string) MetaValue {
	return MetaValue{kind: MetaKindString, str: v}
}

func NumberValue(v decimal.Decimal) MetaValue {
	return MetaValue{kind: MetaKindNumber, num: v}
}

func IntValue(v int) MetaValue {
	return NumberValue(decimal.NewFromInt(int64(v)))
}

func BoolValue(v bool) MetaValue {
	return MetaValue{kind: MetaKindBoolean, b: v}
}

func TimeValue(v time.Time) MetaValue {
	return MetaValue{kind: MetaKindTimestamp, ts: v.UTC()}
}

func (v MetaValue) Kind() MetaKind {
	if v.kind == "" {
		return MetaKindString
	}
	return v.kind
}

func (v MetaValue) Str() (string, bool) {
	return v.str, v.Kind() == MetaKindString
}

func (v MetaValue) Number() (decimal.Decimal, bool) {
	return v.num, v.kind == MetaKindNumber
}

func (v MetaValue) Bool() (bool, bool) {
	return v.b, v.kind == MetaKindBoolean
}

func (v MetaValue) Time() (time.Time, bool) {
	return v.ts, v.kind == MetaKindTimestamp
}

func (v MetaValue) String() string {
	switch v.Kind() {
	case MetaKindNumber:
		return v.num.String()
	case MetaKindBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case MetaKindTimestamp:
		return v.ts.Format(time.RFC3339)
	}
	return v.str
}

type metaValueJSON struct {
	Kind  MetaKind        `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch v.Kind() {
	case MetaKindNumber:
		raw = []byte(v.num.String())
	case MetaKindBoolean:
		raw, err = json.Marshal(v.b)
	case MetaKindTimestamp:
		raw, err = json.Marshal(v.ts.Format(time.RFC3339Nano))
	default:
		raw, err = json.Marshal(v.str)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(metaValueJSON{Kind: v.Kind(), Value: raw})
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var wire metaValueJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Kind {
	case MetaKindString, "":
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("metadata string value: %w", err)
		}
		*v = StringValue(s)
	case MetaKindNumber:
		var d decimal.Decimal
		if err := d.UnmarshalJSON(wire.Value); err != nil {
			return fmt.Errorf("metadata number value: %w", err)
		}
		*v = NumberValue(d)
	case MetaKindBoolean:
		var b bool
		if err := json.Unmarshal(wire.Value, &b); err != nil {
			return fmt.Errorf("metadata boolean value: %w", err)
		}
		*v = BoolValue(b)
	case MetaKindTimestamp:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("metadata timestamp value: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("metadata timestamp value: %w", err)
		}
		*v = TimeValue(ts)
	default:
		return fmt.Errorf("unknown metadata kind %q", wire.Kind)
	}
	return nil
}
