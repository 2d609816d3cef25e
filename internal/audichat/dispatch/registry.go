// Package dispatch implements ordered first-match-wins pattern dispatch:
// an immutable list of (category, regexp, handler) entries tried in
// declaration order against a normalized question. Handler failures are
// absorbed at the dispatch boundary and surface as an explicit outcome
// kind, never as an error crossing into the caller.
package dispatch

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/logger"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// Row is one result record, keyed by French display labels.
type Row = map[string]any

// Result is the common shape every analytic handler returns.
// Data order is handler-defined and stable for identical input.
type Result struct {
	Data        []Row
	Summary     string
	Explanation string
	Columns     []string
}

// Captures wraps the capture groups of a matched pattern. Index 0 is the
// whole match, as with regexp.FindStringSubmatch.
type Captures []string

// Int parses capture group i as an integer, returning def when the group
// is absent, empty or unparsable. Handlers use this for numeric question
// parameters like "3 or more hosts".
func (c Captures) Int(i, def int) int {
	if i < 0 || i >= len(c) || c[i] == "" {
		return def
	}
	n, err := strconv.Atoi(c[i])
	if err != nil {
		return def
	}
	return n
}

// Str returns capture group i or "" when absent.
func (c Captures) Str(i int) string {
	if i < 0 || i >= len(c) {
		return ""
	}
	return c[i]
}

// HandlerFunc computes an analysis over the dataset using the captures
// of the matched pattern. Handlers must not mutate the dataset.
type HandlerFunc func(ds model.Dataset, caps Captures) (Result, error)

// Entry is one catalog line: a category label, a compiled pattern and
// the handler invoked when the pattern matches.
type Entry struct {
	Category string
	Pattern  *regexp.Regexp
	Handler  HandlerFunc
}

// Kind tags a dispatch outcome so failure handling is visible in the
// contract instead of hiding behind swallowed exceptions.
type Kind int

const (
	// Matched means a pattern matched and its handler produced a result.
	Matched Kind = iota
	// NoMatch means no pattern in the registry matched the question.
	NoMatch
	// Failed means a pattern matched but its handler returned an error
	// or panicked. Callers treat this like NoMatch; the cause is logged.
	Failed
)

// Outcome is the result of trying a registry against one question.
type Outcome struct {
	Kind     Kind
	Category string
	Result   Result
}

// Registry is an ordered pattern catalog, built once at startup and
// never mutated afterwards, so concurrent dispatch needs no locking.
type Registry struct {
	name    string
	entries []Entry
}

// NewRegistry builds a registry from entries in their final traversal
// order. The name only appears in logs.
func NewRegistry(name string, entries []Entry) *Registry {
	return &Registry{name: name, entries: entries}
}

// Len returns the number of catalog entries.
func (r *Registry) Len() int { return len(r.entries) }

// Dispatch tries every entry in order and returns on the first pattern
// whose match succeeds (a find, not a full-string match). The matched
// handler runs inside a recover boundary: a panic or error becomes a
// Failed outcome rather than propagating.
func (r *Registry) Dispatch(question string, ds model.Dataset) Outcome {
	for _, entry := range r.entries {
		m := entry.Pattern.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		result, err := r.invoke(entry, ds, Captures(m))
		if err != nil {
			logger.L().Warnw("handler failed",
				"registry", r.name,
				"category", entry.Category,
				"pattern", entry.Pattern.String(),
				"error", err)
			return Outcome{Kind: Failed, Category: entry.Category}
		}
		return Outcome{Kind: Matched, Category: entry.Category, Result: result}
	}
	return Outcome{Kind: NoMatch}
}

func (r *Registry) invoke(entry Entry, ds model.Dataset, caps Captures) (result Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return entry.Handler(ds, caps)
}
