package flags

import "testing"

func TestStateEnabledUnknown(t *testing.T) {
	s := State{EnhancedRbac: true}
	if !s.Enabled(EnhancedRbac) {
		t.Errorf("want true for %s", EnhancedRbac)
	}
	if s.Enabled("NoSuchFlag") {
		t.Errorf("unknown flag should read false")
	}
	var nilState State
	if nilState.Enabled(EnhancedRbac) {
		t.Errorf("nil state should read false")
	}
}

func TestStateCloneEqual(t *testing.T) {
	s := Defaults()
	c := s.Clone()
	if !s.Equal(c) {
		t.Fatalf("clone differs from original")
	}
	c[EnhancedRbac] = !c[EnhancedRbac]
	if s.Equal(c) {
		t.Errorf("mutating the clone changed the original")
	}
	delete(c, EnhancedRbac)
	c["Other"] = s[EnhancedRbac]
	if s.Equal(c) {
		t.Errorf("states with different keys compare equal")
	}
}
