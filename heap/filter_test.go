package heap

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func encodeInt(n int32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(n))
	return buf
}

func TestNoFilterMatchesEverything(t *testing.T) {
	p := noFilter()
	assert.True(t, p.matches([]byte("anything")))
	assert.True(t, p.matches(nil))
}

func TestStringPredicateEquality(t *testing.T) {
	p, err := newPredicate(0, 3, StringType, []byte("bob"), EQ)
	assert.NoError(t, err)
	assert.True(t, p.matches([]byte("bob")))
	assert.True(t, p.matches([]byte("bobby")), "only the first length bytes are compared")
	assert.False(t, p.matches([]byte("ann")))
}

func TestStringPredicateShortRecordNeverMatches(t *testing.T) {
	p, err := newPredicate(10, 3, StringType, []byte("bob"), EQ)
	assert.NoError(t, err)
	assert.False(t, p.matches([]byte("short")))
}

func TestIntegerPredicateOrdering(t *testing.T) {
	p, err := newPredicate(0, 4, IntegerType, encodeInt(3), GT)
	assert.NoError(t, err)
	assert.False(t, p.matches(encodeInt(2)))
	assert.False(t, p.matches(encodeInt(3)))
	assert.True(t, p.matches(encodeInt(4)))
}

func TestIntegerPredicateNegativeValues(t *testing.T) {
	p, err := newPredicate(0, 4, IntegerType, encodeInt(0), LT)
	assert.NoError(t, err)
	assert.True(t, p.matches(encodeInt(-5)))
	assert.False(t, p.matches(encodeInt(5)))
}

func TestFloatPredicateOrdering(t *testing.T) {
	lo := make([]byte, 4)
	binary.BigEndian.PutUint32(lo, math.Float32bits(1.5))
	hi := make([]byte, 4)
	binary.BigEndian.PutUint32(hi, math.Float32bits(2.5))

	p, err := newPredicate(0, 4, FloatType, lo, LTE)
	assert.NoError(t, err)
	assert.True(t, p.matches(lo))
	assert.False(t, p.matches(hi))
}

func TestCanonicalWidth(t *testing.T) {
	w, ok := canonicalWidth(IntegerType)
	assert.True(t, ok)
	assert.Equal(t, 4, w)

	_, ok = canonicalWidth(StringType)
	assert.False(t, ok)
}

func TestOpHolds(t *testing.T) {
	assert.True(t, LT.holds(-1))
	assert.False(t, LT.holds(0))
	assert.True(t, NE.holds(1))
	assert.False(t, NE.holds(0))
}
