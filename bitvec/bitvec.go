package bitvec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

var (
	// ErrLengthMismatch indicates two vectors (or a vector and its mask)
	// differ in length.
	ErrLengthMismatch = errors.New("vector length mismatch")

	// ErrEmptyVector indicates a zero-length vector where at least one
	// position is required.
	ErrEmptyVector = errors.New("vector is empty")

	// ErrInvalidBit indicates input containing anything other than 0 and 1.
	ErrInvalidBit = errors.New("bit must be 0 or 1")
)

// Vector is a fixed-length binary feature vector. Test reports whether
// position i is set; i must be in [0, Len()).
type Vector interface {
	Len() int
	Test(i int) bool
}

// Dense is a bool-slice-backed Vector.
type Dense []bool

// NewDense wraps bits as a Dense vector without copying.
func NewDense(bits []bool) Dense {
	return Dense(bits)
}

// DenseFromInts converts a slice of 0/1 integers to a Dense vector.
func DenseFromInts(bits []int) (Dense, error) {
	d := make(Dense, len(bits))
	for i, b := range bits {
		switch b {
		case 0:
		case 1:
			d[i] = true
		default:
			return nil, fmt.Errorf("%w: position %d holds %d", ErrInvalidBit, i, b)
		}
	}
	return d, nil
}

// ParseBitString parses a non-empty string of '0' and '1' runes into a
// Dense vector.
func ParseBitString(s string) (Dense, error) {
	if s == "" {
		return nil, ErrEmptyVector
	}
	d := make(Dense, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			d[i] = true
		default:
			return nil, fmt.Errorf("%w: position %d holds %q", ErrInvalidBit, i, s[i])
		}
	}
	return d, nil
}

func (d Dense) Len() int { return len(d) }

func (d Dense) Test(i int) bool { return d[i] }

func (d Dense) String() string { return bitString(d) }

// Packed is a word-packed Vector backed by a bitset. The zero value is an
// empty vector; use the constructors to build non-empty ones.
type Packed struct {
	bits *bitset.BitSet
}

// NewPacked returns an all-zeros Packed vector of length n.
func NewPacked(n int) Packed {
	return Packed{bits: bitset.New(uint(n))}
}

// PackedFromIndices returns a Packed vector of length n with the given
// positions set.
func PackedFromIndices(n int, idx []int) (Packed, error) {
	p := NewPacked(n)
	for _, i := range idx {
		if i < 0 || i >= n {
			return Packed{}, fmt.Errorf("index %d out of range for length %d", i, n)
		}
		p.bits.Set(uint(i))
	}
	return p, nil
}

// PackedFromVector copies any Vector into the packed representation.
func PackedFromVector(v Vector) Packed {
	p := NewPacked(v.Len())
	for i := 0; i < v.Len(); i++ {
		if v.Test(i) {
			p.bits.Set(uint(i))
		}
	}
	return p
}

// ParsePacked parses a non-empty string of '0' and '1' runes into a Packed
// vector.
func ParsePacked(s string) (Packed, error) {
	d, err := ParseBitString(s)
	if err != nil {
		return Packed{}, err
	}
	return PackedFromVector(d), nil
}

func (p Packed) Len() int {
	if p.bits == nil {
		return 0
	}
	return int(p.bits.Len())
}

func (p Packed) Test(i int) bool {
	if p.bits == nil {
		return false
	}
	return p.bits.Test(uint(i))
}

func (p Packed) String() string { return bitString(p) }

// MarshalBinary encodes the vector in the bitset wire format, which
// preserves length.
func (p Packed) MarshalBinary() ([]byte, error) {
	if p.bits == nil {
		return bitset.New(0).MarshalBinary()
	}
	return p.bits.MarshalBinary()
}

// UnmarshalBinary decodes a vector previously encoded with MarshalBinary.
func (p *Packed) UnmarshalBinary(data []byte) error {
	b := new(bitset.BitSet)
	if err := b.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decoding packed vector: %w", err)
	}
	p.bits = b
	return nil
}

func bitString(v Vector) string {
	var sb strings.Builder
	sb.Grow(v.Len())
	for i := 0; i < v.Len(); i++ {
		if v.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
