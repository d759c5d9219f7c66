// Package model defines the canonical in-memory form schema shared by the
// registry, the store, the codec and the evaluators. A FormSchema is an
// ordered list of steps plus the components placed inside them; each
// Component carries typed Props made of the common FieldConfig attributes, an
// optional VisibilityRule and a Settings payload selected by the component's
// FieldType. Keys that no typed field claims are preserved in Props.Extra so
// schemas written by newer builders round-trip without loss.
//
// Values of this package are treated as immutable snapshots by the store:
// callers that need to modify a schema should Clone it first.
package model
