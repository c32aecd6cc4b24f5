package heap

import (
	"bytes"
	"encoding/binary"
	"math"
)

// FieldType names the canonical width used to interpret the bytes of a
// filtered attribute.
type FieldType int

const (
	StringType FieldType = iota
	IntegerType
	FloatType
)

// canonicalWidth returns the required byte length for INTEGER/FLOAT fields;
// STRING has no fixed width.
func canonicalWidth(t FieldType) (int, bool) {
	switch t {
	case IntegerType:
		return 4, true
	case FloatType:
		return 4, true
	default:
		return 0, false
	}
}

// Op is a comparison operator applied between an attribute and a filter
// value.
type Op int

const (
	LT Op = iota
	LTE
	EQ
	GTE
	GT
	NE
)

func (op Op) holds(diff int) bool {
	switch op {
	case LT:
		return diff < 0
	case LTE:
		return diff <= 0
	case EQ:
		return diff == 0
	case GTE:
		return diff >= 0
	case GT:
		return diff > 0
	case NE:
		return diff != 0
	default:
		return false
	}
}

// predicate is the stored offset/length/type/operator tuple a scan filters
// records against. An inactive predicate (constructed via noFilter) accepts
// every record.
type predicate struct {
	offset int
	length int
	typ    FieldType
	op     Op
	value  []byte
	active bool
}

func noFilter() predicate { return predicate{} }

func newPredicate(offset, length int, typ FieldType, value []byte, op Op) (predicate, error) {
	return predicate{offset: offset, length: length, typ: typ, op: op, value: value, active: true}, nil
}

// matches implements matchRec: true when the predicate is inactive, or when
// the record's bytes at [offset:offset+length] relate to value as op
// demands.
func (p predicate) matches(rec []byte) bool {
	if !p.active {
		return true
	}
	if p.offset+p.length > len(rec) {
		return false
	}

	attr := rec[p.offset : p.offset+p.length]

	switch p.typ {
	case StringType:
		return p.op.holds(bytes.Compare(attr, p.value))
	case IntegerType:
		a := int64(int32(binary.BigEndian.Uint32(attr)))
		f := int64(int32(binary.BigEndian.Uint32(p.value)))
		return p.op.holds(sign64(a - f))
	case FloatType:
		a := math.Float32frombits(binary.BigEndian.Uint32(attr))
		f := math.Float32frombits(binary.BigEndian.Uint32(p.value))
		return p.op.holds(signFloat(a - f))
	default:
		return false
	}
}

func sign64(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func signFloat(v float32) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
