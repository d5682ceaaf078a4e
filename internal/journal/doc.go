// Package journal defines the worry journal's data model and the pure
// operations over it.
//
// A Document is the single unit of persistence: an ordered list of entries,
// always read and written whole. Everything in this package is free of I/O;
// persistence lives in package records.
//
// Derived values such as ExpectedCost are computed on read for display and
// ordering and are never stored.
package journal
