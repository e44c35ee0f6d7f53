// Package sink is the Presentation Sink Interface (spec §4.8): the abstract
// widget contract the engine publishes options and values through, and
// receives frontend_change events from. There is no analogue of this layer
// in the teacher repo (OLM has no interactive UI); it is grounded directly
// on ProConPy/config_var.py's widget glue.
package sink

import "github.com/CROCODILE-CESM/visualCaseGen/pkg/observable"

// Marker glyphs ProConPy's later (layer-aware) config_var.py prefixes onto
// a display string to indicate whether that option is currently valid.
// ValidMark is a zero-width space: a present-but-invisible marker, so a
// valid option's display string reads identically to its bare value.
const (
	ValidMark   = "​"
	InvalidMark = "❌"
)

// Decorate prefixes display with the marker glyph for valid.
func Decorate(display string, valid bool) string {
	if valid {
		return ValidMark + " " + display
	}
	return InvalidMark + " " + display
}

// Sink is the abstract UI attachment point for one Variable.
type Sink interface {
	// SetOptions publishes the Variable's current option list as marker-
	// decorated display strings, in declaration order.
	SetOptions(display []string)
	// SetValue publishes the Variable's current value as a display string,
	// or the none sentinel if unset.
	SetValue(display string)
	// SetTooltips publishes one tooltip string per option, aligned with the
	// most recent SetOptions call.
	SetTooltips(tooltips []string)
	// Changes exposes the sink's frontend_change event stream: a raw,
	// marker-decorated string the user picked, which the engine strips and
	// parses before calling assign.
	Changes() *observable.Observable[string]
}

// NoneValue is the sentinel SetValue receives, and Changes may emit, to
// mean "unset".
const NoneValue = "None"

// Noop is the default headless sink: it records the last published state
// for inspection but renders nothing, and emits a frontend_change only
// when Emit is called.
type Noop struct {
	changes  observable.Observable[string]
	Options  []string
	Value    string
	Tooltips []string
}

// NewNoop constructs a Noop sink.
func NewNoop() *Noop {
	return &Noop{Value: NoneValue}
}

func (n *Noop) SetOptions(display []string)  { n.Options = display }
func (n *Noop) SetValue(display string)      { n.Value = display }
func (n *Noop) SetTooltips(tooltips []string) { n.Tooltips = tooltips }
func (n *Noop) Changes() *observable.Observable[string] { return &n.changes }

// Emit drives a synthetic frontend_change, letting tests simulate a user
// picking a (possibly marker-decorated) display string.
func (n *Noop) Emit(raw string) { n.changes.Emit(raw) }
