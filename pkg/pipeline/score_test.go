package pipeline

import (
	"testing"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

func intPtr(v int) *int { return &v }

func TestTrustScore(t *testing.T) {
	w := DefaultWeights()

	tests := []struct {
		name string
		c    Components
		want int
	}{
		{"all components", Components{intPtr(15), intPtr(70), intPtr(70)}, 48},
		{"perfect", Components{intPtr(100), intPtr(100), intPtr(90)}, 98},
		{"text only", Components{nil, intPtr(60), intPtr(90)}, 70},
		{"floors", Components{nil, intPtr(62), intPtr(70)}, 64},
		{"metadata only", Components{nil, nil, intPtr(70)}, 70},
		{"deepfake and metadata", Components{intPtr(50), nil, intPtr(90)}, 63},
		{"none present", Components{}, 0},
		{"out of range inputs clamp", Components{intPtr(150), intPtr(-20), nil}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrustScore(w, tt.c); got != tt.want {
				t.Errorf("TrustScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrustScore_AlwaysInRange(t *testing.T) {
	w := DefaultWeights()
	for d := -10; d <= 110; d += 5 {
		for c := -10; c <= 110; c += 5 {
			for _, m := range []int{MetadataIncomplete, MetadataComplete} {
				for mask := 0; mask < 8; mask++ {
					var comp Components
					if mask&1 != 0 {
						comp.Deepfake = intPtr(d)
					}
					if mask&2 != 0 {
						comp.Credibility = intPtr(c)
					}
					if mask&4 != 0 {
						comp.Metadata = intPtr(m)
					}
					if got := TrustScore(w, comp); got < 0 || got > 100 {
						t.Fatalf("TrustScore(%d,%d,%d mask=%d) = %d out of range", d, c, m, mask, got)
					}
				}
			}
		}
	}
}

func TestComponentsFor(t *testing.T) {
	ts := time.Now()
	meta := &evidence.ExtractedMetadata{Timestamp: &ts, Location: &evidence.Location{}}
	deepfake := &evidence.DeepfakeAnalysis{Confidence: 30}
	content := &evidence.ContentAnalysis{CredibilityScore: 55}

	c := ComponentsFor(meta, deepfake, content)
	if *c.Deepfake != 70 || *c.Credibility != 55 || *c.Metadata != MetadataComplete {
		t.Errorf("components = %d/%d/%d", *c.Deepfake, *c.Credibility, *c.Metadata)
	}

	c = ComponentsFor(&evidence.ExtractedMetadata{Timestamp: &ts}, nil, nil)
	if c.Deepfake != nil || c.Credibility != nil {
		t.Error("absent analyzers should yield nil components")
	}
	if *c.Metadata != MetadataIncomplete {
		t.Errorf("metadata = %d, want %d", *c.Metadata, MetadataIncomplete)
	}
}

func TestWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Errorf("default weights invalid: %v", err)
	}
	if err := (Weights{Deepfake: -10, Credibility: 80, Metadata: 30}).Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
	if err := (Weights{Deepfake: 40, Credibility: 40, Metadata: 10}).Validate(); err == nil {
		t.Error("expected error for sum != 100")
	}
}
