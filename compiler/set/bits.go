package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

type (
	Key interface {
		~int | ~int64 | ~uint8
	}

	// Bits is a dense set of small keys starting at base.
	Bits[K Key] struct {
		base K
		b    []uint64
		b0   [1]uint64
	}
)

func MakeBits[K Key](base K) Bits[K] {
	s := Bits[K]{
		base: base,
	}

	s.b = s.b0[:]

	return s
}

func (s *Bits[K]) Set(k K) {
	i, j := s.ij(k)

	s.grow(i)

	s.b[i] |= 1 << j
}

func (s Bits[K]) IsSet(k K) bool {
	i, j := s.ij(k)

	if i >= len(s.b) {
		return false
	}

	return s.b[i]&(1<<j) != 0
}

// FirstClear returns the smallest key below limit not in the set.
func (s Bits[K]) FirstClear(limit K) (K, bool) {
	n := int(limit - s.base)

	for i := 0; i*64 < n; i++ {
		var w uint64
		if i < len(s.b) {
			w = s.b[i]
		}

		if w == ^uint64(0) {
			continue
		}

		j := bits.TrailingZeros64(^w)

		if p := i*64 + j; p < n {
			return s.base + K(p), true
		}

		break
	}

	return limit, false
}

func (s Bits[K]) Range(f func(k K) bool) {
	for i, x := range s.b {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(s.base + K(i*64+j)) {
				return
			}
		}
	}
}

func (s *Bits[K]) Reset() {
	clear(s.b)
}

func (s Bits[K]) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	var ks []K

	s.Range(func(k K) bool {
		ks = append(ks, k)
		return true
	})

	return e.AppendFormat(b, "%v", ks)
}

func (s *Bits[K]) ij(k K) (i int, j int) {
	p := int(k - s.base)

	return p / 64, p % 64
}

func (s *Bits[K]) grow(i int) {
	if s.b == nil {
		s.b = s.b0[:]
	}

	for i >= len(s.b) {
		s.b = append(s.b, 0)
	}
}
