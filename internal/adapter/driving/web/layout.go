package web

//go:generate go tool templ generate -f layout.templ

var chartKinds = []string{KindLine, KindArea, KindBar}

// Controls is the form that selects the state, stock and chart style.
type Controls struct {
	States  []string
	State   string
	Symbol  string
	Period  string
	Periods []string
	Kind    string
	Color   string
}

func (c Controls) kind() string {
	if c.Kind == "" {
		return KindLine
	}
	return c.Kind
}

func (c Controls) color() string {
	if c.Color == "" {
		return defaultColor
	}
	return c.Color
}
