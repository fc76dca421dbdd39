package behavior

// Event is the output of one processed sample: either a PositionDelta or a
// ScrollDelta.
type Event interface {
	Kind() string
	Delta() (x, y int16)
	isEvent()
}

// PositionDelta is relative cursor motion.
type PositionDelta struct {
	X int16
	Y int16
}

func (PositionDelta) Kind() string            { return "move" }
func (e PositionDelta) Delta() (int16, int16) { return e.X, e.Y }
func (PositionDelta) isEvent()                {}

// ScrollDelta is wheel motion in ticks.
type ScrollDelta struct {
	X int16
	Y int16
}

func (ScrollDelta) Kind() string            { return "scroll" }
func (e ScrollDelta) Delta() (int16, int16) { return e.X, e.Y }
func (ScrollDelta) isEvent()                {}

// Emitter delivers finished events downstream.
type Emitter interface {
	Emit(binding string, ev Event) error
}

// EmitterFunc adapts a function to an Emitter.
type EmitterFunc func(binding string, ev Event) error

func (f EmitterFunc) Emit(binding string, ev Event) error {
	return f(binding, ev)
}

// MultiEmitter delivers to every emitter in order and returns the first error.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(binding string, ev Event) error {
	var first error
	for _, e := range m {
		if err := e.Emit(binding, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
