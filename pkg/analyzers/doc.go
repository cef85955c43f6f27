// Package analyzers implements the verification analyzers run by the pipeline.
//
// # Analyzer Kinds
//
//   - MetadataExtractor: local; device, resolution, timestamp, location, hash
//   - ManipulationDetector: image and video; confidence 0-100 with risk level
//   - Transcriber: audio and video; text, language, timed segments
//   - ContentAnalyzer: summary, key facts, event tags, urgency, credibility
//
// All four share the generic Analyzer contract:
//
//	Analyze(ctx, input) (result, error)
//
// # Capability
//
// Each analyzer is Configured (backed by an HTTP provider) or Unconfigured
// (deterministic local result). The choice is made once, in the constructor,
// from whether the provider section has an endpoint:
//
//	detector := analyzers.NewManipulationDetector(analyzers.ProviderConfig{
//	    Name:     "forensics",
//	    Endpoint: "https://forensics.example.org/v1",
//	    APIKey:   os.Getenv("FORENSICS_API_KEY"),
//	})
//
// A configured analyzer whose provider fails returns the error. It never falls
// back to mock data; the pipeline records the failure on the report instead.
//
// # Risk Levels
//
// Manipulation confidence maps to risk by threshold: >=80 critical, >=60 high,
// >=30 medium, otherwise low. Confidence above 70 flags the media for review.
package analyzers
