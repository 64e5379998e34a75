package editbuf

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Capabilities tells the host which features may trust a generated region.
type Capabilities struct {
	Completion   bool `json:"completion"`
	Format       bool `json:"format"`
	Navigation   bool `json:"navigation"`
	Semantic     bool `json:"semantic"`
	Structure    bool `json:"structure"`
	Verification bool `json:"verification"`
}

// Feature names one capability.
type Feature string

const (
	FeatureCompletion   Feature = "completion"
	FeatureFormat       Feature = "format"
	FeatureNavigation   Feature = "navigation"
	FeatureSemantic     Feature = "semantic"
	FeatureStructure    Feature = "structure"
	FeatureVerification Feature = "verification"
)

var AllFeatures = []Feature{
	FeatureCompletion,
	FeatureFormat,
	FeatureNavigation,
	FeatureSemantic,
	FeatureStructure,
	FeatureVerification,
}

var (
	// Full is used for text copied from the source unchanged.
	Full = Capabilities{
		Completion:   true,
		Format:       true,
		Navigation:   true,
		Semantic:     true,
		Structure:    true,
		Verification: true,
	}

	// None is used for scaffolding the host must not report on.
	None = Capabilities{}

	// Reference is used for synthesized names that should resolve back to
	// the declaration they stand for.
	Reference = Capabilities{
		Navigation: true,
		Semantic:   true,
	}

	// Keyword is used for replaced keywords that still outline and
	// highlight like the original.
	Keyword = Capabilities{
		Semantic:  true,
		Structure: true,
	}
)

func ParseFeature(name string) (Feature, error) {
	for _, f := range AllFeatures {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", errors.Errorf("unknown feature %q", name)
}

// Has reports whether the feature is enabled.
func (c Capabilities) Has(f Feature) bool {
	switch f {
	case FeatureCompletion:
		return c.Completion
	case FeatureFormat:
		return c.Format
	case FeatureNavigation:
		return c.Navigation
	case FeatureSemantic:
		return c.Semantic
	case FeatureStructure:
		return c.Structure
	case FeatureVerification:
		return c.Verification
	}
	return false
}

func (c Capabilities) String() string {
	var on []string
	for _, f := range AllFeatures {
		if c.Has(f) {
			on = append(on, string(f))
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}
