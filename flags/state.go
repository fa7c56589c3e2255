package flags

// State maps every flag of a catalog to its current value.
type State map[Name]bool

// Enabled returns the value of name, or false if the state has no such key.
func (s State) Enabled(name Name) bool {
	return s[name]
}

// Clone returns a copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal reports whether s and other hold exactly the same keys and values.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if w, ok := other[k]; !ok || w != v {
			return false
		}
	}
	return true
}
