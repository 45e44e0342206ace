package veneer

// Override interfaces allow domain types to bypass reflection in ReflectHost.
// When an object implements one of these interfaces, the host asks it first
// and only falls back to reflection when the object declines.

// Attributer bypasses reflection for attribute and association reads.
type Attributer interface {
	// ReadAttribute returns the named attribute and whether the object has it.
	// Associations are read through the same method: return a single related
	// object, a slice of them, or nil when absent.
	ReadAttribute(name string) (any, bool)
}

// Snapshotter bypasses reflection when an object of a type that is not
// enabled is projected into the output of an association.
type Snapshotter interface {
	// Snapshot returns the object's public attributes as a plain map.
	Snapshot() map[string]any
}
