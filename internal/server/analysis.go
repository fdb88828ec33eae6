package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"credit-dashboard/internal/artifact"
	"credit-dashboard/internal/attribution"
	"credit-dashboard/internal/dataset"
	"credit-dashboard/internal/model"
	"credit-dashboard/internal/predict"
	"credit-dashboard/internal/risk"
	"credit-dashboard/internal/storage"
)

// ErrUnknownClient marks an analysis request for an id the dataset does not
// contain.
var ErrUnknownClient = errors.New("unknown client id")

// Analysis is the full decision-support result for one client: the resolved
// probability, the policy outcome, the ranked feature attributions, and the
// client profile shown alongside them.
type Analysis struct {
	ClientID    int64              `json:"clientId"`
	Assessment  risk.Assessment    `json:"assessment"`
	Source      predict.Source     `json:"source"`
	Attribution *attribution.Table `json:"attribution,omitempty"`
	Profile     dataset.Profile    `json:"profile"`
	Timestamp   time.Time          `json:"timestamp"`
}

// analyze runs the full pipeline for one client: resolve a probability,
// classify it, and attach attributions when the local artifacts are usable.
func (s *Server) analyze(ctx context.Context, clientID int64) (*Analysis, error) {
	row, ok := s.table.Client(clientID)
	if !ok {
		return nil, ErrUnknownClient
	}

	bundle, bundleErr := s.artifacts.Bundle()
	if bundleErr != nil {
		log.Debug().Err(bundleErr).Msg("local artifacts unavailable, remote scoring only")
	}
	if bundle != nil && bundle.ExplainerRebuilt && s.metrics != nil {
		s.rebuildOnce.Do(s.metrics.ExplainerRebuilds.Inc)
	}

	var pipeline *model.Pipeline
	if bundle != nil {
		pipeline = bundle.Pipeline
	}
	// A nil *metrics.Metrics must not reach the interface parameter as a
	// typed-nil value.
	var mi predict.MetricsInterface
	if s.metrics != nil {
		mi = s.metrics
	}
	resolver := predict.NewResolver(s.remote, pipeline, mi)

	result, err := resolver.Predict(ctx, clientID, row.Features())
	if err != nil {
		return nil, err
	}

	assessment, err := risk.Classify(result.Probability)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		ClientID:   clientID,
		Assessment: assessment,
		Source:     result.Source,
		Profile:    dataset.BuildProfile(row),
		Timestamp:  time.Now(),
	}

	// A score without its explanation is misleading in this domain, so an
	// attribution failure fails the whole analysis. Running without local
	// artifacts at all is the one modeled degraded mode: remote score only,
	// no attribution section.
	if bundle != nil && bundle.Explainer != nil {
		table, err := s.attribute(bundle, row)
		if err != nil {
			return nil, fmt.Errorf("feature attribution: %w", err)
		}
		a.Attribution = table
		if s.metrics != nil {
			s.metrics.AttributionsTotal.Inc()
		}
	}

	s.persist(a)
	s.publish(a)
	return a, nil
}

func (s *Server) attribute(bundle *artifact.Bundle, row dataset.Row) (*attribution.Table, error) {
	features, err := bundle.Pipeline.Preprocessor.Transform(row.Features())
	if err != nil {
		return nil, err
	}
	contribs, err := bundle.Explainer.Contributions(features)
	if err != nil {
		return nil, err
	}
	table, err := attribution.Format(contribs, bundle.Pipeline.FeatureNames)
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// persist writes the analysis to history storage, best effort.
func (s *Server) persist(a *Analysis) {
	if s.store == nil {
		return
	}
	rec := storage.AnalysisRecord{
		ClientID:    a.ClientID,
		Probability: a.Assessment.Probability,
		Source:      string(a.Source),
		Band:        string(a.Assessment.Band),
		Action:      string(a.Assessment.Action),
		Ts:          a.Timestamp,
	}
	if a.Attribution != nil {
		rec.TopFeatures = a.Attribution.TopFeatures
	}
	if err := s.store.StoreAnalysis(rec); err != nil {
		log.Warn().Err(err).Int64("clientID", a.ClientID).Msg("failed to persist analysis")
	}
}

// publish pushes the analysis event to connected dashboards without blocking
// the request.
func (s *Server) publish(a *Analysis) {
	event := AnalysisEvent{
		ClientID:    a.ClientID,
		Probability: a.Assessment.Probability,
		ScorePct:    a.Assessment.ScorePct,
		Source:      string(a.Source),
		Band:        string(a.Assessment.Band),
		Action:      string(a.Assessment.Action),
		Timestamp:   a.Timestamp,
	}
	select {
	case s.broadcastChannel <- event:
	default:
		// Channel full, skip this update
	}
}
