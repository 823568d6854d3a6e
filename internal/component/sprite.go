package component

// Sprite is what the render system draws at an entity's Position.
type Sprite struct {
	Glyph string `yaml:"glyph"`
	Color string `yaml:"color"`
	Layer int    `yaml:"layer"` // higher draws on top
}

// Tags is a free-form label set used by scripts and the editor.
type Tags struct {
	Values []string `yaml:"values"`
}

// Clone copies the label slice so cloned entities do not share it.
func (t Tags) Clone() Tags {
	return Tags{Values: append([]string(nil), t.Values...)}
}

// Has reports whether label is present.
func (t Tags) Has(label string) bool {
	for _, v := range t.Values {
		if v == label {
			return true
		}
	}
	return false
}
