// Package respond turns raw analysis aggregates into the final answer
// object handed to presentation layers. It owns the display cap, the
// rank annotations, the French summary templates and the data quality
// scoring.
package respond

import (
	"fmt"
	"strings"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/classify"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/logger"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
)

// Answer is the final response object. Type is "detailed_analysis" for
// every successful path and "error" when the formatter itself failed.
type Answer struct {
	Type        string         `json:"type"`
	Category    string         `json:"category,omitempty"`
	Template    string         `json:"template,omitempty"`
	Data        []dispatch.Row `json:"data"`
	Columns     []string       `json:"columns"`
	Summary     string         `json:"summary"`
	Explanation string         `json:"explanation"`
	Confidence  float64        `json:"confidence"`
	Performance *Performance   `json:"performance,omitempty"`
}

// Performance carries the analysis coverage metadata attached to every
// non-error answer.
type Performance struct {
	TotalRecordsAnalyzed int    `json:"total_records_analyzed"`
	UniqueResults        int    `json:"unique_results"`
	AnalysisCoverage     string `json:"analysis_coverage"`
	DataQualityScore     int    `json:"data_quality_score"`
	Completeness         int    `json:"completeness"`
}

const (
	TypeAnalysis = "detailed_analysis"
	TypeError    = "error"

	displayCap = 20
	missing    = "AUCUN"
	missingFem = "AUCUNE"
)

// FormatDispatch wraps a catalog handler result into a final answer:
// first 20 rows with rank metadata, coverage metrics over the whole
// dataset, and the confidence tier sentence appended to the handler's
// explanation.
func FormatDispatch(category string, res dispatch.Result, cls classify.Result, ds model.Dataset) Answer {
	return Answer{
		Type:        TypeAnalysis,
		Category:    category,
		Data:        capRows(res.Data),
		Columns:     res.Columns,
		Summary:     res.Summary,
		Explanation: res.Explanation + tierSentence(cls.Confidence),
		Confidence:  cls.Confidence,
		Performance: performanceFor(len(res.Data), ds),
	}
}

// Generate builds a template-driven answer from the classified intent
// when neither catalog matched. A nil or unclassified intent falls back
// to the generic per-user aggregate; an internal panic degrades to a
// typed error answer.
func Generate(cls classify.Result, ds model.Dataset) (ans Answer) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Errorw("response generation failed", "reason", r)
			ans = ErrorAnswer(fmt.Sprint(r))
		}
	}()
	if cls.Intent.Primary == classify.IntentUnknown || cls.Intent.Primary == "" {
		return Fallback(cls, ds)
	}
	t := analysisTypeFor(cls.Intent.Primary)
	stats := statisticsFor(t, ds)
	return Answer{
		Type:        TypeAnalysis,
		Template:    t,
		Data:        capRows(stats.rows),
		Columns:     stats.columns,
		Summary:     stats.summary,
		Explanation: stats.explanation + tierSentence(cls.Confidence),
		Confidence:  cls.Confidence,
		Performance: performanceFor(len(stats.rows), ds),
	}
}

// Fallback is the generic per-user aggregate used when no intent was
// classified: the ten most active users over the whole dataset.
func Fallback(cls classify.Result, ds model.Dataset) Answer {
	stats := userStatistics(ds)
	rows := stats.rows
	if len(rows) > 10 {
		rows = rows[:10]
	}
	return Answer{
		Type:     TypeAnalysis,
		Template: "user_analysis",
		Data:     rows,
		Columns:  []string{"Utilisateur", "Nombre_Actions", "Pourcentage", "Dernière_Activité"},
		Summary: fmt.Sprintf("ANALYSE GÉNÉRALE - %d utilisateurs identifiés dans %d entrées d'audit.",
			len(stats.rows), len(ds)),
		Explanation: "Analyse générale du journal d'audit avec focus sur l'activité par utilisateur." +
			tierSentence(cls.Confidence),
		Confidence:  cls.Confidence,
		Performance: performanceFor(len(stats.rows), ds),
	}
}

// ErrorAnswer is the typed failure response. The message becomes the
// user-facing explanation; data stays empty.
func ErrorAnswer(message string) Answer {
	return Answer{
		Type:        TypeError,
		Template:    "error",
		Data:        []dispatch.Row{},
		Columns:     []string{},
		Summary:     "Erreur lors de l'analyse des données",
		Explanation: fmt.Sprintf("Une erreur s'est produite: %s", message),
	}
}

// capRows keeps the first 20 rows and annotates each with its rank and
// rank-based percentile. The annotations are display metadata only.
func capRows(rows []dispatch.Row) []dispatch.Row {
	total := len(rows)
	n := total
	if n > displayCap {
		n = displayCap
	}
	out := make([]dispatch.Row, 0, n)
	for i := 0; i < n; i++ {
		row := make(dispatch.Row, len(rows[i])+3)
		for k, v := range rows[i] {
			row[k] = v
		}
		row["_rank"] = i + 1
		row["_total_items"] = total
		row["_display_percentage"] = percentage(i+1, total)
		out = append(out, row)
	}
	return out
}

func tierSentence(confidence float64) string {
	switch {
	case confidence > 0.8:
		return " Analyse de haute précision avec données complètes."
	case confidence > 0.6:
		return " Analyse fiable avec quelques approximations."
	default:
		return " Analyse préliminaire nécessitant validation."
	}
}

func performanceFor(uniqueResults int, ds model.Dataset) *Performance {
	return &Performance{
		TotalRecordsAnalyzed: len(ds),
		UniqueResults:        uniqueResults,
		AnalysisCoverage:     percentage(uniqueResults, len(ds)),
		DataQualityScore:     dataQualityScore(ds),
		Completeness:         completenessScore(ds),
	}
}

// dataQualityScore samples up to the first 100 events and scores the
// presence of the three required fields, as a 0-100 integer.
func dataQualityScore(ds model.Dataset) int {
	if len(ds) == 0 {
		return 0
	}
	sample := ds
	if len(sample) > 100 {
		sample = sample[:100]
	}
	score := 0.0
	for _, e := range sample {
		present := 0
		if e.DBUsername != "" {
			present++
		}
		if e.ActionName != "" {
			present++
		}
		if e.HasTimestamp() {
			present++
		}
		score += float64(present) / 3
	}
	return int(score/float64(len(sample))*100 + 0.5)
}

// completenessScore measures four fields over the entire dataset, as a
// 0-100 integer.
func completenessScore(ds model.Dataset) int {
	if len(ds) == 0 {
		return 0
	}
	completed := 0
	for _, e := range ds {
		if e.DBUsername != "" {
			completed++
		}
		if e.ActionName != "" {
			completed++
		}
		if e.ObjectName != "" {
			completed++
		}
		if e.HasTimestamp() {
			completed++
		}
	}
	return int(float64(completed)/float64(len(ds)*4)*100 + 0.5)
}

func percentage(count, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(total)*100)
}

// listPreview joins up to five items, noting how many were elided.
func listPreview(items []string) string {
	const max = 5
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + fmt.Sprintf("... (+%d autres)", len(items)-max)
}
