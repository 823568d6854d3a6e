package ecs

import "errors"

var (
	ErrEntityCapacity             = errors.New("entity capacity reached")
	ErrEntityNotFound             = errors.New("entity does not exist")
	ErrComponentCapacity          = errors.New("component type capacity reached")
	ErrComponentAlreadyRegistered = errors.New("component already registered")
	ErrComponentNotRegistered     = errors.New("component not registered")
	ErrComponentAlreadyOnEntity   = errors.New("component already on entity")
	ErrComponentNotOnEntity       = errors.New("component not on entity")
	ErrComponentValueType         = errors.New("component value has wrong type")
)
