package analysis

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/probelabs/probe-api/internal/model"
)

// LoadFixtures reads a YAML file mapping tier names to replacement documents.
// It lets operators swap the canned analysis content without a rebuild:
//
//	free:
//	  analysis_type: "Scout Agent - Free Scan"
//	  major_issue: {...}
//	deep:
//	  analysis_type: "Deep Probe - Comprehensive Analysis"
func LoadFixtures(path string) (map[model.ScanTier]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: read fixture file %s", path)
	}

	var raw map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "analysis: parse fixture file %s", path)
	}

	fixtures := make(map[model.ScanTier]map[string]any, len(raw))
	for tier, doc := range raw {
		switch t := model.ScanTier(tier); t {
		case model.TierFree, model.TierDeep:
			fixtures[t] = doc
		default:
			return nil, eris.Errorf("analysis: unknown tier %q in fixture file %s", tier, path)
		}
	}
	return fixtures, nil
}
