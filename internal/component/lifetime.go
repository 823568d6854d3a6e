package component

import "time"

// Lifetime destroys its entity once Remaining reaches zero.
type Lifetime struct {
	Remaining time.Duration `yaml:"remaining"`
}
