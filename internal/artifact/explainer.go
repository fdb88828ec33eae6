package artifact

import (
	"github.com/rs/zerolog/log"

	"credit-dashboard/internal/model"
)

// LoadExplainer loads the attribution explainer artifact, rebuilding it from
// the fitted classifier when the artifact is missing or unreadable. Rebuild
// is a deliberate recovery path, not an error case: the explainer is fully
// reproducible from the model, so a stale or version-skewed artifact must
// never take the dashboard down.
//
// When persistRebuilt is set, a rebuilt explainer is written back next to the
// base path. Persistence is best-effort only; a write failure is logged and
// swallowed.
//
// The returned flag reports whether the explainer came from a rebuild rather
// than the artifact.
func LoadExplainer(path string, classifier model.ClassifierSpec, persistRebuilt bool) (model.Explainer, bool, error) {
	var spec model.ExplainerSpec
	if err := Load(path, &spec); err == nil {
		if explainer, buildErr := model.NewLinearExplainer(spec); buildErr == nil {
			return explainer, false, nil
		} else {
			log.Warn().Err(buildErr).Str("path", path).Msg("loaded explainer artifact is inconsistent, rebuilding from classifier")
		}
	} else {
		log.Warn().Err(err).Str("path", path).Msg("explainer artifact unreadable, rebuilding from classifier")
	}

	rebuilt, err := model.RebuildExplainer(classifier)
	if err != nil {
		return nil, false, err
	}

	if persistRebuilt {
		if err := Save(path, rebuilt.Spec()); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to persist rebuilt explainer")
		}
	}

	return rebuilt, true, nil
}
