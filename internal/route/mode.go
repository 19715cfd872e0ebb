package route

type Mode int

const (
	NormalMode Mode = iota
	SimpleMode
)

func (m Mode) String() string {
	if m == SimpleMode {
		return "simple"
	}
	return "normal"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// SelectMode picks the encoding for the whole route. SimpleMode needs a
// non-native input and a directly chainable first hop in every sequence.
func SelectMode(nativeIn bool, r Route) Mode {
	if nativeIn || r.Empty() {
		return NormalMode
	}
	for _, seq := range r.Sequences {
		if len(seq) == 0 || seq[0].Class != DirectlyChainable {
			return NormalMode
		}
	}
	return SimpleMode
}
