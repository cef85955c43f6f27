// Package pipeline verifies a single evidence item.
//
// Metadata extraction always runs first and is the only fatal step. The
// manipulation detector (image, video) and the transcriber (audio, video) then
// run concurrently; content analysis follows, reading the transcription when it
// has text. Any other analyzer failure is recorded in the report's
// AnalyzerFailures and its score component is dropped.
//
// # Trust Score
//
//	score = floor(sum(component * weight) / sum(weight of present components))
//
// with components deepfake = 100 - confidence, credibility = the content
// analyzer's credibility score, and metadata = 90 when both location and
// timestamp are known, else 70. Default weights are 40/40/20.
//
// A report is flagged when the manipulation detector flagged the media for
// review, otherwise verified.
package pipeline
