package dispatch

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

func textEntry(category, pattern, summary string) Entry {
	return Entry{
		Category: category,
		Pattern:  regexp.MustCompile(pattern),
		Handler: func(ds model.Dataset, caps Captures) (Result, error) {
			return Result{Summary: summary}, nil
		},
	}
}

func TestDispatchFirstMatchWins(t *testing.T) {
	// Both patterns match the question; the earlier entry must win.
	r := NewRegistry("test", []Entry{
		textEntry("first", `utilisateur`, "from first"),
		textEntry("second", `utilisateur.*actif`, "from second"),
	})

	out := r.Dispatch("utilisateur le plus actif", nil)
	if out.Kind != Matched {
		t.Fatalf("Kind = %v, want Matched", out.Kind)
	}
	if out.Category != "first" {
		t.Errorf("Category = %q, want first", out.Category)
	}
	if out.Result.Summary != "from first" {
		t.Errorf("Summary = %q", out.Result.Summary)
	}
}

func TestDispatchNoMatch(t *testing.T) {
	r := NewRegistry("test", []Entry{
		textEntry("only", `utilisateur`, "hit"),
	})
	out := r.Dispatch("rien de pertinent ici", nil)
	if out.Kind != NoMatch {
		t.Errorf("Kind = %v, want NoMatch", out.Kind)
	}
}

func TestDispatchCaptures(t *testing.T) {
	var got Captures
	r := NewRegistry("test", []Entry{{
		Category: "cap",
		Pattern:  regexp.MustCompile(`au moins (\d+) sessions`),
		Handler: func(ds model.Dataset, caps Captures) (Result, error) {
			got = caps
			return Result{Summary: fmt.Sprintf("seuil %d", caps.Int(1, 3))}, nil
		},
	}})

	out := r.Dispatch("sessions avec au moins 7 sessions", nil)
	if out.Kind != Matched {
		t.Fatalf("Kind = %v, want Matched", out.Kind)
	}
	if got.Int(1, 3) != 7 {
		t.Errorf("Int(1) = %d, want 7", got.Int(1, 3))
	}
	if out.Result.Summary != "seuil 7" {
		t.Errorf("Summary = %q", out.Result.Summary)
	}
}

func TestCapturesIntDefaults(t *testing.T) {
	caps := Captures{"whole", "", "12", "abc"}
	tests := []struct {
		name string
		i    int
		def  int
		want int
	}{
		{"empty group", 1, 5, 5},
		{"numeric group", 2, 5, 12},
		{"unparsable group", 3, 5, 5},
		{"out of range", 9, 5, 5},
		{"negative index", -1, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := caps.Int(tt.i, tt.def); got != tt.want {
				t.Errorf("Int(%d, %d) = %d, want %d", tt.i, tt.def, got, tt.want)
			}
		})
	}
}

func TestDispatchHandlerErrorBecomesFailed(t *testing.T) {
	r := NewRegistry("test", []Entry{{
		Category: "boom",
		Pattern:  regexp.MustCompile(`échec`),
		Handler: func(ds model.Dataset, caps Captures) (Result, error) {
			return Result{}, errors.New("broken handler")
		},
	}})

	out := r.Dispatch("question qui provoque un échec", nil)
	if out.Kind != Failed {
		t.Fatalf("Kind = %v, want Failed", out.Kind)
	}
	if out.Category != "boom" {
		t.Errorf("Category = %q, want boom", out.Category)
	}
}

func TestDispatchHandlerPanicBecomesFailed(t *testing.T) {
	r := NewRegistry("test", []Entry{{
		Category: "panic",
		Pattern:  regexp.MustCompile(`panique`),
		Handler: func(ds model.Dataset, caps Captures) (Result, error) {
			panic("unexpected state")
		},
	}})

	out := r.Dispatch("question qui panique", nil)
	if out.Kind != Failed {
		t.Fatalf("Kind = %v, want Failed", out.Kind)
	}
}

func TestDispatchFailedDoesNotFallThrough(t *testing.T) {
	// A matched-but-failed entry ends the dispatch; later entries that
	// also match must not run.
	r := NewRegistry("test", []Entry{
		{
			Category: "boom",
			Pattern:  regexp.MustCompile(`utilisateur`),
			Handler: func(ds model.Dataset, caps Captures) (Result, error) {
				return Result{}, errors.New("broken handler")
			},
		},
		textEntry("later", `utilisateur`, "should not run"),
	})

	out := r.Dispatch("utilisateur actif", nil)
	if out.Kind != Failed {
		t.Fatalf("Kind = %v, want Failed", out.Kind)
	}
	if out.Category != "boom" {
		t.Errorf("Category = %q, want boom", out.Category)
	}
}
