package driven

// StateCatalog is the list of states a dashboard can be built for.
type StateCatalog interface {
	Names() []string
	// Canonical returns the catalog spelling of name, ignoring case.
	Canonical(name string) (string, bool)
}
