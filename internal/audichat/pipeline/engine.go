// Package pipeline wires the full question path: normalization,
// classification, the two catalogs in order, then the template
// fallback. Every stage boundary is a catch boundary; a question in
// always produces an answer out.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/classify"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/dispatch"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/logger"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/metrics"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/normalize"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/respond"
)

// Engine evaluates questions against a dataset. Build it once at
// process start; both registries are immutable after construction so
// concurrent Answer calls need no locking.
type Engine struct {
	classifier *classify.Classifier
	core       *dispatch.Registry
	extended   *dispatch.Registry
	recorder   metrics.Recorder
}

// nopRecorder keeps the engine usable without a metrics sink.
type nopRecorder struct{}

func (nopRecorder) RecordQuestion(string, string) {}

func (nopRecorder) RecordResponse(string, string, time.Duration, float64) {}

func (nopRecorder) RecordError(string, error) {}

func New(vocab classify.Vocabulary, core, extended *dispatch.Registry, recorder metrics.Recorder) *Engine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Engine{
		classifier: classify.NewClassifier(vocab),
		core:       core,
		extended:   extended,
		recorder:   recorder,
	}
}

// Evaluation carries the answer plus the intermediate results callers
// may want to expose (classification for suggestions, the request id
// for correlation).
type Evaluation struct {
	RequestID      string
	Question       string
	Normalized     string
	Classification classify.Result
	Answer         respond.Answer
	Elapsed        time.Duration
}

// Answer runs one question through the whole pipeline. The session
// identifier feeds the metrics recorder only, never analysis logic.
func (e *Engine) Answer(question, session string, ds model.Dataset) Evaluation {
	start := time.Now()
	id := uuid.NewString()
	log := logger.L().With("request_id", id)

	e.recorder.RecordQuestion(question, session)

	normalized := normalize.Question(question)
	cls := e.classifier.Classify(question, normalized)
	log.Debugw("question classified",
		"intent", cls.Intent.Primary,
		"confidence", cls.Confidence,
		"tier", cls.Tier,
	)

	var answer respond.Answer
	switch out := e.core.Dispatch(normalized, ds); out.Kind {
	case dispatch.Matched:
		answer = respond.FormatDispatch(out.Category, out.Result, cls, ds)
	default:
		if out.Kind == dispatch.Failed {
			log.Warnw("core catalog handler failed", "category", out.Category)
		}
		switch out := e.extended.Dispatch(normalized, ds); out.Kind {
		case dispatch.Matched:
			answer = respond.FormatDispatch(out.Category, out.Result, cls, ds)
		default:
			if out.Kind == dispatch.Failed {
				log.Warnw("complex catalog handler failed", "category", out.Category)
			}
			answer = respond.Generate(cls, ds)
		}
	}

	elapsed := time.Since(start)
	e.recorder.RecordResponse(question, answer.Type, elapsed, answer.Confidence)
	log.Infow("question answered",
		"type", answer.Type,
		"category", answer.Category,
		"rows", len(answer.Data),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return Evaluation{
		RequestID:      id,
		Question:       question,
		Normalized:     normalized,
		Classification: cls,
		Answer:         answer,
		Elapsed:        elapsed,
	}
}
