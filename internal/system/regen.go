package system

import (
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/coordinator"
	coresys "github.com/l1jgo/engine/internal/core/system"
)

// RegenSystem restores Health.Regen HP per second. Fractions accumulate in
// RegenAcc so short frames still add up. Dead (HP <= 0) entities do not regen.
// Requires: Health.
type RegenSystem struct {
	coresys.Base
	c *coordinator.Coordinator
}

func NewRegenSystem(c *coordinator.Coordinator) *RegenSystem {
	return &RegenSystem{c: c}
}

func (s *RegenSystem) Update(dt time.Duration) {
	for _, e := range s.Entities() {
		h, err := coordinator.GetComponent[component.Health](s.c, e)
		if err != nil {
			continue
		}
		if h.HP <= 0 || h.HP >= h.MaxHP || h.Regen <= 0 {
			h.RegenAcc = 0
			continue
		}
		h.RegenAcc += float64(h.Regen) * dt.Seconds()
		whole := int(h.RegenAcc)
		if whole == 0 {
			continue
		}
		h.RegenAcc -= float64(whole)
		h.HP = min(h.HP+whole, h.MaxHP)
	}
}
