package domain

// Outcome reports whether a stage returned its degraded default instead of
// the primary result. Reason is a short machine-readable label.
type Outcome struct {
	Degraded bool
	Reason   string
}

// OK is the outcome of a stage that took its primary path.
var OK = Outcome{}

// Degraded returns the outcome of a stage that fell back for reason.
func Degraded(reason string) Outcome {
	return Outcome{Degraded: true, Reason: reason}
}
