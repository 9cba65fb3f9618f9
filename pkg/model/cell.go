// pkg/model/cell.go
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColumnKind is the declared kind of a dataset column. It is inferred from
// the source column type at extraction time and never changes during
// cleaning; only cell values are filled or normalized.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindReal
	KindBoolean
	KindTemporal
)

// String returns a string representation of the column kind
func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBoolean:
		return "boolean"
	case KindTemporal:
		return "temporal"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Cell is a single dataset value tagged with its declared kind. The kind tag
// drives all cleaning decisions so that policies never have to inspect the
// dynamic type of Value. A missing value is carried as Null=true, Value=nil.
type Cell struct {
	Kind  ColumnKind
	Null  bool
	Value interface{}
}

// NullCell returns an explicit missing-value cell of the given kind.
func NullCell(kind ColumnKind) Cell {
	return Cell{Kind: kind, Null: true}
}

// RawCell wraps a value produced by the database driver without coercing it.
// A nil value becomes an explicit null cell.
func RawCell(kind ColumnKind, value interface{}) Cell {
	if value == nil {
		return NullCell(kind)
	}
	return Cell{Kind: kind, Value: value}
}

// TextCell returns a text cell holding s.
func TextCell(s string) Cell {
	return Cell{Kind: KindText, Value: s}
}

// IntCell returns an integer cell holding v.
func IntCell(v int64) Cell {
	return Cell{Kind: KindInteger, Value: v}
}

// RealCell returns a real cell holding v.
func RealCell(v float64) Cell {
	return Cell{Kind: KindReal, Value: v}
}

// BoolCell returns a boolean cell holding v.
func BoolCell(v bool) Cell {
	return Cell{Kind: KindBoolean, Value: v}
}

// TimeCell returns a temporal cell holding t.
func TimeCell(t time.Time) Cell {
	return Cell{Kind: KindTemporal, Value: t}
}

// Render returns the snapshot (CSV) text for the cell. Null cells render as
// the empty string. Temporal values without a time-of-day component render
// as a plain date.
func (c Cell) Render() string {
	if c.Null || c.Value == nil {
		return ""
	}

	switch c.Kind {
	case KindTemporal:
		if t, ok := c.Value.(time.Time); ok {
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
				return t.Format("2006-01-02")
			}
			return t.Format("2006-01-02 15:04:05")
		}
	case KindReal:
		switch v := c.Value.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case float32:
			return strconv.FormatFloat(float64(v), 'f', -1, 32)
		}
	case KindBoolean:
		if b, ok := c.Value.(bool); ok {
			return strconv.FormatBool(b)
		}
	}

	switch v := c.Value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports whether two cells carry the same kind and the same value.
// Both cells being null of the same kind counts as equal.
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		return false
	}
	if c.Null || other.Null {
		return c.Null == other.Null
	}
	return c.Render() == other.Render()
}

// IsIdentifierColumn reports whether a column name designates the surrogate
// identifier column, which is exempt from imputation.
func IsIdentifierColumn(name string) bool {
	return strings.EqualFold(name, "id")
}
