package bulkimport

import (
	"github.com/fernleaf/nursery/internal/backend"
)

// LineError is one problem with the imported CSV. Line is nil when the
// problem is not tied to a row, such as a transport failure.
type LineError struct {
	Line    *int   `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Result is what the console shows after an import, whatever the outcome.
type Result struct {
	Imported int         `json:"imported" yaml:"imported"`
	Errors   []LineError `json:"errors" yaml:"errors"`
}

// Failed builds the result shown when the import never reached a verdict.
func Failed(reason string) Result {
	if reason == "" {
		reason = backend.GenericFailure
	}
	return Result{
		Imported: 0,
		Errors:   []LineError{{Message: reason}},
	}
}

// Normalize folds the backend's answer, or its failure, into a Result.
func Normalize(summary *backend.ImportSummary, err error) Result {
	if err != nil {
		return Failed(backend.MessageOf(err))
	}
	if summary == nil {
		return Failed("")
	}

	r := Result{
		Imported: max(summary.Imported, 0),
		Errors:   make([]LineError, 0, len(summary.Errors)),
	}
	for _, e := range summary.Errors {
		le := LineError{Message: e.Message}
		if e.Line != nil {
			line := *e.Line
			le.Line = &line
		}
		r.Errors = append(r.Errors, le)
	}
	return r
}

// OK reports whether every row was accepted.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

func (r Result) clone() Result {
	out := Result{Imported: r.Imported, Errors: make([]LineError, len(r.Errors))}
	for i, e := range r.Errors {
		out.Errors[i] = LineError{Message: e.Message}
		if e.Line != nil {
			line := *e.Line
			out.Errors[i].Line = &line
		}
	}
	return out
}
