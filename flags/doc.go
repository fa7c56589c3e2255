// Package flags provides the catalog of boolean feature flags known to the
// application, and small utilities for consuming them.
//
// The catalog is closed: it is declared once, in Authorization, and never
// changes at runtime. Current values live in a store (see package
// flags/store), which should be constructed in func main and passed to the
// components that need it in the same way you'd construct and pass a database
// handle. Components read flags through an accessor (package flags/binding)
// or, where a single flag is a dependency, through a Booler.
package flags
