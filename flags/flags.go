package flags

import "context"

// Booler describes a feature flag that returns a simple boolean response.
type Booler interface {
	Bool(c context.Context) bool
}

// BoolerFunc is an adapter to use a stand-alone function as a Booler.
type BoolerFunc func(c context.Context) bool

// Bool conforms to the Booler interface.
func (fn BoolerFunc) Bool(c context.Context) bool {
	return fn(c)
}

// Const returns a Booler that always answers v.
func Const(v bool) Booler {
	return BoolerFunc(func(context.Context) bool { return v })
}
