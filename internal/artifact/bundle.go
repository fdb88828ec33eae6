package artifact

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"credit-dashboard/internal/model"
)

// Bundle is the full set of loaded artifacts a prediction needs. It is built
// once and shared read-only across sessions.
type Bundle struct {
	Pipeline  *model.Pipeline
	Explainer model.Explainer
	// ExplainerRebuilt reports that the explainer came from a rebuild, not
	// the artifact on disk.
	ExplainerRebuilt bool
}

// Cache lazily loads the artifact bundle on first use and keeps it for the
// process lifetime. A load failure is cached too: a broken bundle does not
// get retried per request.
type Cache struct {
	pipelinePath   string
	explainerPath  string
	persistRebuilt bool

	once   sync.Once
	bundle *Bundle
	err    error
}

// NewCache configures lazy loading from the conventional artifact base paths.
func NewCache(pipelinePath, explainerPath string, persistRebuilt bool) *Cache {
	return &Cache{
		pipelinePath:   pipelinePath,
		explainerPath:  explainerPath,
		persistRebuilt: persistRebuilt,
	}
}

// Bundle returns the loaded artifact bundle, loading it on first call.
func (c *Cache) Bundle() (*Bundle, error) {
	c.once.Do(func() {
		c.bundle, c.err = load(c.pipelinePath, c.explainerPath, c.persistRebuilt)
	})
	return c.bundle, c.err
}

func load(pipelinePath, explainerPath string, persistRebuilt bool) (*Bundle, error) {
	var spec model.PipelineSpec
	if err := Load(pipelinePath, &spec); err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}

	pipeline, err := model.BuildPipeline(spec)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	explainer, rebuilt, err := LoadExplainer(explainerPath, spec.Classifier, persistRebuilt)
	if err != nil {
		return nil, fmt.Errorf("load explainer: %w", err)
	}

	log.Info().
		Str("pipeline", pipelinePath).
		Int("features", len(pipeline.FeatureNames)).
		Str("classifier", spec.Classifier.Kind).
		Bool("explainerRebuilt", rebuilt).
		Msg("artifact bundle loaded")

	return &Bundle{Pipeline: pipeline, Explainer: explainer, ExplainerRebuilt: rebuilt}, nil
}
