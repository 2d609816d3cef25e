// Package classify scores a normalized question against fixed keyword
// vocabularies to produce a primary intent, extracted entities, derived
// context and an overall confidence. There is no learned model here:
// classification is substring counting over declarative word lists, which
// keeps the result deterministic and cheap.
package classify

import (
	"math"
	"regexp"
	"strings"
)

// Intent is the coarse category of what the question asks about, plus
// independent modifiers and a confidence in [0,1].
type Intent struct {
	Primary    string
	Modifiers  []string
	Confidence float64
}

// Entities are the concrete tokens recognized in the question text.
type Entities struct {
	Columns         []string
	Actions         []string
	Programs        []string
	AuthTypes       []string
	Values          []string
	TimeExpressions []string
}

// Context captures what kind of processing the question calls for.
type Context struct {
	QuestionType             string
	Complexity               int
	RequiresAggregation      bool
	RequiresFiltering        bool
	RequiresTemporalAnalysis bool
	SuggestedColumns         []string
}

// ValueFilter asks downstream processing to match a literal against one
// of the suggested columns.
type ValueFilter struct {
	Value            string
	SuggestedColumns []string
}

// Aggregation asks downstream processing for a grouped count.
type Aggregation struct {
	Type    string
	GroupBy string
}

// StructuredQuery is a machine-usable restatement of the question.
type StructuredQuery struct {
	Type         string
	Filters      []ValueFilter
	Aggregations []Aggregation
}

// Result is the full classification output for one question.
// Success is false only when classification itself failed internally; in
// that case Confidence is 0 and ShouldProcess is false so downstream
// stages skip work instead of receiving an error.
type Result struct {
	Success            bool
	OriginalQuestion   string
	NormalizedQuestion string
	Intent             Intent
	Entities           Entities
	Context            Context
	Query              StructuredQuery
	Confidence         float64
	ShouldProcess      bool
	Tier               string
	Suggestions        []string
}

// Processing tiers recommended from the overall confidence.
const (
	TierAdvanced = "advanced"
	TierStandard = "standard"
	TierSimple   = "simple"
	TierFallback = "fallback"
)

var (
	quotedValue     = regexp.MustCompile(`'([^']+)'`)
	analyticalWords = regexp.MustCompile(`analyse|statistique|combien|nombre|classement|top`)
	listingWords    = regexp.MustCompile(`liste|affiche|montre|quel`)
	interrogWords   = regexp.MustCompile(`\bqui\b|quand|où|comment|pourquoi`)
	aggregateWords  = regexp.MustCompile(`combien|nombre|total|somme|moyenne|statistique|top|plus|moins`)
	filterWords     = regexp.MustCompile(`pour|avec|où|\bqui\b|dont`)
)

// suggestedByIntent maps each primary intent to its canonical columns.
var suggestedByIntent = map[string][]string{
	IntentUsers:       {"dbusername", "os_username"},
	IntentActions:     {"action_name", "dbusername"},
	IntentObjects:     {"object_name", "object_schema"},
	IntentSessions:    {"sessionid", "dbusername", "userhost"},
	IntentSecurity:    {"authentication_type", "userhost"},
	IntentPerformance: {"action_name", "sql_text"},
	IntentTemporal:    {"event_timestamp"},
}

// Classifier scores questions against a vocabulary. Safe for concurrent
// use once constructed; the vocabulary is never mutated afterwards.
type Classifier struct {
	vocab Vocabulary
}

func NewClassifier(vocab Vocabulary) *Classifier {
	return &Classifier{vocab: vocab}
}

// Classify analyzes a normalized question. It never returns an error:
// any internal failure degrades to a zero-confidence Result.
func (c *Classifier) Classify(original, normalized string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Success:            false,
				OriginalQuestion:   original,
				NormalizedQuestion: normalized,
				Intent:             Intent{Primary: IntentUnknown},
				Confidence:         0.0,
				ShouldProcess:      false,
				Tier:               TierFallback,
			}
		}
	}()

	intent := c.classifyIntent(normalized)
	entities := c.extractEntities(normalized)
	ctx := c.deriveContext(normalized, intent, entities)
	confidence := overallConfidence(intent, entities, ctx)

	res = Result{
		Success:            true,
		OriginalQuestion:   original,
		NormalizedQuestion: normalized,
		Intent:             intent,
		Entities:           entities,
		Context:            ctx,
		Query:              buildQuery(intent, entities, ctx),
		Confidence:         confidence,
		ShouldProcess:      confidence > 0.6,
		Tier:               tierFor(confidence),
	}
	if !res.ShouldProcess {
		res.Suggestions = c.fallbackSuggestions(normalized)
	}
	return res
}

// classifyIntent counts keyword hits per category. The strictly highest
// count wins; on a tie the first declared category keeps the win. A zero
// maximum yields UNKNOWN with the 0.1 confidence floor.
func (c *Classifier) classifyIntent(q string) Intent {
	best := IntentUnknown
	bestCount := 0
	for _, entry := range c.vocab.Intents {
		count := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(q, kw) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = entry.Name
		}
	}

	var mods []string
	for _, m := range c.vocab.Modifiers {
		for _, kw := range m.Keywords {
			if strings.Contains(q, kw) {
				mods = append(mods, m.Name)
				break
			}
		}
	}

	conf := 0.1
	if bestCount > 0 {
		conf = math.Min(float64(bestCount)/3.0, 1.0)
	}
	return Intent{Primary: best, Modifiers: mods, Confidence: conf}
}

func (c *Classifier) extractEntities(q string) Entities {
	var e Entities
	for _, col := range c.vocab.SchemaColumns {
		if strings.Contains(q, col) {
			e.Columns = append(e.Columns, col)
		}
	}
	for _, a := range c.vocab.Actions {
		if strings.Contains(q, a) {
			e.Actions = append(e.Actions, a)
		}
	}
	for _, p := range c.vocab.Programs {
		if strings.Contains(q, p) {
			e.Programs = append(e.Programs, p)
		}
	}
	for _, t := range c.vocab.AuthTypes {
		if strings.Contains(q, t) {
			e.AuthTypes = append(e.AuthTypes, t)
		}
	}
	for _, m := range quotedValue.FindAllStringSubmatch(q, -1) {
		e.Values = append(e.Values, m[1])
	}
	for _, p := range timePatterns {
		if m := p.FindString(q); m != "" {
			e.TimeExpressions = append(e.TimeExpressions, m)
		}
	}
	return e
}

func (c *Classifier) deriveContext(q string, intent Intent, e Entities) Context {
	ctx := Context{
		QuestionType:             questionType(q),
		RequiresAggregation:      aggregateWords.MatchString(q),
		RequiresFiltering:        len(e.Values) > 0 || filterWords.MatchString(q),
		RequiresTemporalAnalysis: len(e.TimeExpressions) > 0,
	}

	complexity := 1
	if len(intent.Modifiers) > 1 {
		complexity += 2
	}
	if len(e.Columns) > 2 {
		complexity++
	}
	if len(e.TimeExpressions) > 0 {
		complexity++
	}
	if len(e.Actions) > 1 {
		complexity++
	}
	if complexity > 5 {
		complexity = 5
	}
	ctx.Complexity = complexity

	seen := map[string]bool{}
	for _, col := range suggestedByIntent[intent.Primary] {
		if !seen[col] {
			seen[col] = true
			ctx.SuggestedColumns = append(ctx.SuggestedColumns, col)
		}
	}
	for _, col := range e.Columns {
		if !seen[col] {
			seen[col] = true
			ctx.SuggestedColumns = append(ctx.SuggestedColumns, col)
		}
	}
	return ctx
}

func questionType(q string) string {
	switch {
	case analyticalWords.MatchString(q):
		return "analytical"
	case listingWords.MatchString(q):
		return "listing"
	case interrogWords.MatchString(q):
		return "interrogative"
	default:
		return "simple"
	}
}

// overallConfidence combines the intent score (40%), an entity score
// capped at 0.3, a question-type bonus and a structure bonus, clamped to
// [0,1]. Adding keywords for the winning intent can only raise this.
func overallConfidence(intent Intent, e Entities, ctx Context) float64 {
	conf := intent.Confidence * 0.4

	entityScore := (float64(len(e.Columns))*0.2 +
		float64(len(e.Actions))*0.15 +
		float64(len(e.Values))*0.1) / 3.0
	conf += math.Min(entityScore, 0.3)

	switch ctx.QuestionType {
	case "analytical":
		conf += 0.2
	case "simple":
		conf += 0.1
	}

	if len(e.Columns) > 0 && intent.Primary != IntentUnknown {
		conf += 0.1
	}
	return math.Min(conf, 1.0)
}

func tierFor(confidence float64) string {
	switch {
	case confidence > 0.8:
		return TierAdvanced
	case confidence > 0.6:
		return TierStandard
	case confidence > 0.3:
		return TierSimple
	default:
		return TierFallback
	}
}

func buildQuery(intent Intent, e Entities, ctx Context) StructuredQuery {
	q := StructuredQuery{Type: intent.Primary}
	for _, v := range e.Values {
		q.Filters = append(q.Filters, ValueFilter{Value: v, SuggestedColumns: e.Columns})
	}
	if ctx.RequiresAggregation {
		groupBy := "dbusername"
		if len(ctx.SuggestedColumns) > 0 {
			groupBy = ctx.SuggestedColumns[0]
		}
		q.Aggregations = append(q.Aggregations, Aggregation{Type: "count", GroupBy: groupBy})
	}
	return q
}

// fallbackSuggestions proposes rephrased example questions keyed on the
// keywords that did appear, so a low-confidence caller has somewhere to
// go next.
func (c *Classifier) fallbackSuggestions(q string) []string {
	var s []string
	if strings.Contains(q, "utilisateur") {
		s = append(s,
			"Quels sont les utilisateurs les plus actifs ?",
			"Combien d'utilisateurs distincts se connectent ?")
	}
	if strings.Contains(q, "action") {
		s = append(s,
			"Quelles sont les actions les plus fréquentes ?",
			"Analyse des actions par utilisateur")
	}
	if strings.Contains(q, "objet") || strings.Contains(q, "table") || strings.Contains(q, "schéma") {
		s = append(s,
			"Quels objets sont les plus accédés ?",
			"Analyse des schémas par activité")
	}
	if len(s) == 0 {
		s = []string{
			"Quels sont les utilisateurs les plus actifs ?",
			"Quelles sont les actions les plus fréquentes ?",
			"Quels objets sont les plus accédés ?",
			"Y a-t-il des activités suspectes ?",
		}
	}
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}
