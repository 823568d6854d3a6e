package ecs

// AddComponent inserts v into T's array for entity e.
func AddComponent[T any](cm *ComponentManager, e EntityID, v T) error {
	a, err := ArrayOf[T](cm)
	if err != nil {
		return err
	}
	return a.Add(e, v)
}

// RemoveComponent compacts T's array by moving its last element into e's slot.
func RemoveComponent[T any](cm *ComponentManager, e EntityID) error {
	a, err := ArrayOf[T](cm)
	if err != nil {
		return err
	}
	return a.Remove(e)
}

// GetComponent returns a pointer into T's dense array. It must not be kept
// across an add or remove of T on any entity.
func GetComponent[T any](cm *ComponentManager, e EntityID) (*T, error) {
	a, err := ArrayOf[T](cm)
	if err != nil {
		return nil, err
	}
	return a.Get(e)
}

func HasComponent[T any](cm *ComponentManager, e EntityID) bool {
	a, err := ArrayOf[T](cm)
	if err != nil {
		return false
	}
	return a.Has(e)
}

// EntityDestroyed drops e from every array named by its signature.
func (cm *ComponentManager) EntityDestroyed(e EntityID, sig Signature) {
	sig.Each(func(t ComponentType) {
		if int(t) < len(cm.stores) {
			_ = cm.stores[t].Remove(e)
		}
	})
}

// CloneEntity copies every component listed in sig from src to dst.
func (cm *ComponentManager) CloneEntity(dst, src EntityID, sig Signature) error {
	var err error
	sig.Each(func(t ComponentType) {
		if err != nil {
			return
		}
		s, serr := cm.Store(t)
		if serr != nil {
			err = serr
			return
		}
		err = s.Clone(dst, src)
	})
	return err
}

// Components returns name -> *T for every component listed in sig.
func (cm *ComponentManager) Components(e EntityID, sig Signature) map[string]any {
	out := make(map[string]any, sig.Count())
	sig.Each(func(t ComponentType) {
		if int(t) >= len(cm.stores) {
			return
		}
		s := cm.stores[t]
		if v, err := s.Value(e); err == nil {
			out[s.Info().Name] = v
		}
	})
	return out
}
