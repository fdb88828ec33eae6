package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"credit-dashboard/internal/dataset"
	"credit-dashboard/internal/model"
)

// Source labels which prediction path produced a probability.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// ErrNoPredictionSource is returned when the remote attempt failed (or no
// endpoint is configured) and no local pipeline is available either.
var ErrNoPredictionSource = errors.New("no prediction source available")

// PreprocessingError wraps a failure while transforming client features for
// the local classifier. Unlike a remote failure, it has no further fallback.
type PreprocessingError struct {
	cause error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocessing failed: %v", e.cause)
}

func (e *PreprocessingError) Unwrap() error { return e.cause }

// PredictionError wraps a failure inside the local classifier itself.
type PredictionError struct {
	cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("local prediction failed: %v", e.cause)
}

func (e *PredictionError) Unwrap() error { return e.cause }

// MetricsInterface is the observability surface the resolver reports to.
type MetricsInterface interface {
	PredictionsInc()
	RemoteFailureInc()
	RemoteTimeoutInc()
	FallbackUseInc()
	LatencyObserve(seconds float64)
	ScoreObserve(probability float64)
}

// Result is a resolved default probability plus the path that produced it.
type Result struct {
	Probability float64
	Source      Source
}

// Resolver produces a default probability for a client, preferring the remote
// scoring service and falling back to the local pipeline when the remote
// attempt fails for any reason.
type Resolver struct {
	remote   *RemoteClient
	pipeline *model.Pipeline
	metrics  MetricsInterface
}

// NewResolver wires the two prediction sources. Either may be nil; a resolver
// with neither returns ErrNoPredictionSource from every Predict call.
func NewResolver(remote *RemoteClient, pipeline *model.Pipeline, metrics MetricsInterface) *Resolver {
	return &Resolver{remote: remote, pipeline: pipeline, metrics: metrics}
}

// HasLocal reports whether a local pipeline is wired.
func (r *Resolver) HasLocal() bool { return r.pipeline != nil }

// Predict resolves the default probability for one client. The raw row may
// still carry the identifier and label columns; they are stripped before the
// local pipeline sees it.
func (r *Resolver) Predict(ctx context.Context, clientID int64, row map[string]float64) (Result, error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.LatencyObserve(time.Since(start).Seconds())
		}
	}()

	if r.remote != nil {
		outcome := r.remote.score(ctx, clientID)
		if outcome.err == nil {
			r.observe(outcome.probability)
			return Result{Probability: outcome.probability, Source: SourceRemote}, nil
		}
		if r.metrics != nil {
			r.metrics.RemoteFailureInc()
			if outcome.timedOut() {
				r.metrics.RemoteTimeoutInc()
			}
		}
		log.Warn().Err(outcome.err).Int64("clientID", clientID).Msg("remote scoring failed, falling back to local model")
	}

	if r.pipeline == nil {
		return Result{}, ErrNoPredictionSource
	}

	clean := stripReserved(row)
	features, err := r.pipeline.Preprocessor.Transform(clean)
	if err != nil {
		return Result{}, &PreprocessingError{cause: err}
	}
	p, err := r.pipeline.Classifier.DefaultProbability(features)
	if err != nil {
		return Result{}, &PredictionError{cause: err}
	}

	if r.metrics != nil {
		r.metrics.FallbackUseInc()
	}
	r.observe(p)
	return Result{Probability: p, Source: SourceLocal}, nil
}

func (r *Resolver) observe(p float64) {
	if r.metrics == nil {
		return
	}
	r.metrics.PredictionsInc()
	r.metrics.ScoreObserve(p)
}

func stripReserved(row map[string]float64) map[string]float64 {
	clean := make(map[string]float64, len(row))
	for k, v := range row {
		if k == dataset.IDColumn || k == dataset.LabelColumn {
			continue
		}
		clean[k] = v
	}
	return clean
}
