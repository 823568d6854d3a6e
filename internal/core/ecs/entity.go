package ecs

import "fmt"

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
// Generations start at 1, so the zero EntityID never refers to a live entity.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// DefaultMaxEntities is used when an EntityManager is built with a non-positive limit.
const DefaultMaxEntities = 4096

// EntityManager issues entity handles, recycles freed indices in FIFO order
// and owns the signature of every live entity.
type EntityManager struct {
	generations []uint32
	signatures  []Signature
	livePos     []int32 // index -> position in live, -1 when dead
	live        []EntityID
	freeList    []uint32
	max         int
}

func NewEntityManager(max int) *EntityManager {
	if max <= 0 {
		max = DefaultMaxEntities
	}
	return &EntityManager{
		generations: make([]uint32, 0, 1024),
		signatures:  make([]Signature, 0, 1024),
		livePos:     make([]int32, 0, 1024),
		live:        make([]EntityID, 0, 1024),
		freeList:    make([]uint32, 0, 256),
		max:         max,
	}
}

// Create returns a fresh or recycled handle with an empty signature.
func (m *EntityManager) Create() (EntityID, error) {
	if len(m.live) >= m.max {
		return 0, fmt.Errorf("%w: limit %d", ErrEntityCapacity, m.max)
	}
	var idx uint32
	if len(m.freeList) > 0 {
		idx = m.freeList[0]
		m.freeList = m.freeList[1:]
	} else {
		idx = uint32(len(m.generations))
		m.generations = append(m.generations, 1)
		m.signatures = append(m.signatures, Signature{})
		m.livePos = append(m.livePos, -1)
	}
	id := NewEntityID(idx, m.generations[idx])
	m.livePos[idx] = int32(len(m.live))
	m.live = append(m.live, id)
	return id, nil
}

// Alive reports whether id refers to a live entity of the current generation.
func (m *EntityManager) Alive(id EntityID) bool {
	idx := id.Index()
	if int(idx) >= len(m.generations) {
		return false
	}
	return m.livePos[idx] >= 0 && m.generations[idx] == id.Generation()
}

// Destroy clears the signature and releases the index for reuse.
func (m *EntityManager) Destroy(id EntityID) error {
	if !m.Alive(id) {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	idx := id.Index()
	m.signatures[idx] = Signature{}

	pos := m.livePos[idx]
	last := len(m.live) - 1
	moved := m.live[last]
	m.live[pos] = moved
	m.livePos[moved.Index()] = pos
	m.live = m.live[:last]
	m.livePos[idx] = -1

	m.generations[idx]++
	if m.generations[idx] == 0 {
		m.generations[idx] = 1
	}
	m.freeList = append(m.freeList, idx)
	return nil
}

func (m *EntityManager) Signature(id EntityID) (Signature, error) {
	if !m.Alive(id) {
		return Signature{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return m.signatures[id.Index()], nil
}

func (m *EntityManager) SetSignature(id EntityID, sig Signature) error {
	if !m.Alive(id) {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	m.signatures[id.Index()] = sig
	return nil
}

// ComponentCount returns the number of components the entity holds.
func (m *EntityManager) ComponentCount(id EntityID) (int, error) {
	sig, err := m.Signature(id)
	if err != nil {
		return 0, err
	}
	return sig.Count(), nil
}

// All returns a copy of the live entity set.
func (m *EntityManager) All() []EntityID {
	out := make([]EntityID, len(m.live))
	copy(out, m.live)
	return out
}

func (m *EntityManager) Len() int { return len(m.live) }
func (m *EntityManager) Max() int { return m.max }
