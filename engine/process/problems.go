package process

import "fmt"

// Severity ranks a recorded problem.
type Severity int

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Problem classes, roughly following the error taxonomy of the engine:
// structural problems concern the document and its masters, data
// problems concern single glyphs, policy problems mark refused
// operations.
const (
	ProblemStructural = "structural"
	ProblemData       = "data"
	ProblemPolicy     = "policy"
)

// Problem is one non-fatal finding, recorded during processing instead
// of aborting the batch.
type Problem struct {
	Severity Severity
	Class    string
	Message  string
	Source   string // source name, if the problem concerns a master
	Glyph    string // glyph name, if the problem concerns a glyph
}

func (p Problem) String() string {
	s := fmt.Sprintf("[%s/%s] %s", p.Severity, p.Class, p.Message)
	if p.Source != "" {
		s += " (source " + p.Source + ")"
	}
	if p.Glyph != "" {
		s += " (glyph " + p.Glyph + ")"
	}
	return s
}

// Problems returns the ordered log of problems recorded so far.
func (proc *Processor) Problems() []Problem {
	return append([]Problem(nil), proc.problems...)
}

// ClearProblems empties the problems log.
func (proc *Processor) ClearProblems() {
	proc.problems = nil
}

func (proc *Processor) problemf(sev Severity, class string, format string, args ...interface{}) {
	p := Problem{Severity: sev, Class: class, Message: fmt.Sprintf(format, args...)}
	proc.problems = append(proc.problems, p)
	tracer().Infof("problem: %s", p)
}

func (proc *Processor) sourceProblemf(sev Severity, class, source string, format string, args ...interface{}) {
	p := Problem{Severity: sev, Class: class, Source: source, Message: fmt.Sprintf(format, args...)}
	proc.problems = append(proc.problems, p)
	tracer().Infof("problem: %s", p)
}

func (proc *Processor) glyphProblemf(sev Severity, class, glyph string, format string, args ...interface{}) {
	p := Problem{Severity: sev, Class: class, Glyph: glyph, Message: fmt.Sprintf(format, args...)}
	proc.problems = append(proc.problems, p)
	tracer().Infof("problem: %s", p)
}
