package pipeline

import (
	"fmt"

	"mercator-hq/vesta/pkg/evidence"
)

// Metadata component values.
const (
	MetadataComplete   = 90 // location and timestamp both present
	MetadataIncomplete = 70
)

// Weights are the integer percentages each trust score component carries.
// Integer arithmetic keeps the floored score exact.
type Weights struct {
	Deepfake    int `yaml:"deepfake"`
	Credibility int `yaml:"credibility"`
	Metadata    int `yaml:"metadata"`
}

// DefaultWeights returns 40/40/20.
func DefaultWeights() Weights {
	return Weights{Deepfake: 40, Credibility: 40, Metadata: 20}
}

// Validate checks the weights are non-negative and sum to 100.
func (w Weights) Validate() error {
	if w.Deepfake < 0 || w.Credibility < 0 || w.Metadata < 0 {
		return fmt.Errorf("weights must be non-negative: %+v", w)
	}
	if sum := w.Deepfake + w.Credibility + w.Metadata; sum != 100 {
		return fmt.Errorf("weights must sum to 100, got %d", sum)
	}
	return nil
}

// Components are the trust score inputs. A nil component is absent, either
// because it does not apply to the media kind or because its analyzer failed.
type Components struct {
	Deepfake    *int
	Credibility *int
	Metadata    *int
}

// TrustScore combines the present components, renormalizing the weights of
// the ones present, and floors the result into [0,100]. With no component
// present the score is 0.
func TrustScore(w Weights, c Components) int {
	var sum, total int
	add := func(v *int, weight int) {
		if v == nil {
			return
		}
		sum += evidence.ClampScore(*v) * weight
		total += weight
	}
	add(c.Deepfake, w.Deepfake)
	add(c.Credibility, w.Credibility)
	add(c.Metadata, w.Metadata)

	if total == 0 {
		return 0
	}
	return evidence.ClampScore(sum / total)
}

// ComponentsFor derives the score components from analyzer outputs.
func ComponentsFor(meta *evidence.ExtractedMetadata, deepfake *evidence.DeepfakeAnalysis, content *evidence.ContentAnalysis) Components {
	var c Components
	if deepfake != nil {
		v := 100 - deepfake.Confidence
		c.Deepfake = &v
	}
	if content != nil {
		v := content.CredibilityScore
		c.Credibility = &v
	}
	if meta != nil {
		v := MetadataIncomplete
		if meta.Location != nil && meta.Timestamp != nil {
			v = MetadataComplete
		}
		c.Metadata = &v
	}
	return c
}
