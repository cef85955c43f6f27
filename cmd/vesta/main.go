// Vesta is an offline-first evidence capture and verification node.
//
// Captured photos, audio, video and written statements are queued durably on
// the device, run through a verification pipeline when the node is online,
// stored as trust-scored reports and anchored to a proof-of-existence
// journal. Partner organizations can co-sign reports afterwards.
//
// Usage:
//
//	# Queue a capture with its location
//	vesta capture photo.jpg --lat 50.4501 --lon 30.5234 --description "checkpoint"
//
//	# Drain the queue once
//	vesta sync
//
//	# Run the node: scheduled sync, inbox watcher, metrics and health
//	vesta serve --config vesta.yaml
//
//	# Export flagged reports
//	vesta report export --status flagged --format csv -o flagged.csv
package main

func main() {
	Execute()
}
