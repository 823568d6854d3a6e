package component

// Health holds hit points. Regen is HP restored per second while 0 < HP < MaxHP.
type Health struct {
	HP    int `yaml:"hp"`
	MaxHP int `yaml:"max_hp"`
	Regen int `yaml:"regen"`

	RegenAcc float64 `yaml:"-"` // fractional HP carried between frames
}
