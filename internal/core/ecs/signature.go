package ecs

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxComponents is the number of component types a Signature can describe.
const MaxComponents = 128

const signatureWords = MaxComponents / 64

// ComponentType is the dense index assigned to a component type at registration.
type ComponentType uint8

// Signature is a fixed-width bitset with one bit per registered component type.
// Bit i is set iff the entity holds the component registered as type i.
type Signature [signatureWords]uint64

// SignatureOf builds a signature with the given bits set.
func SignatureOf(types ...ComponentType) Signature {
	var s Signature
	for _, t := range types {
		s.Set(t)
	}
	return s
}

// Set and Clear ignore types at or above MaxComponents; no such type can be
// registered.
func (s *Signature) Set(t ComponentType) {
	if t >= MaxComponents {
		return
	}
	s[t>>6] |= 1 << (t & 63)
}

func (s *Signature) Clear(t ComponentType) {
	if t >= MaxComponents {
		return
	}
	s[t>>6] &^= 1 << (t & 63)
}

// Test reports false for types at or above MaxComponents.
func (s Signature) Test(t ComponentType) bool {
	if t >= MaxComponents {
		return false
	}
	return s[t>>6]&(1<<(t&63)) != 0
}

// Contains reports whether every bit of sub is also set in s,
// i.e. (s & sub) == sub.
func (s Signature) Contains(sub Signature) bool {
	for i := range s {
		if s[i]&sub[i] != sub[i] {
			return false
		}
	}
	return true
}

func (s Signature) IsEmpty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// Count returns the population count.
func (s Signature) Count() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// Each calls fn for every set bit in ascending order.
func (s Signature) Each(fn func(ComponentType)) {
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(ComponentType(i*64 + b))
			w &= w - 1
		}
	}
}

func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	s.Each(func(t ComponentType) {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(strconv.Itoa(int(t)))
	})
	sb.WriteByte('}')
	return sb.String()
}
