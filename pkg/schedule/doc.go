// Package schedule runs sync batches on a cron schedule while vesta serve
// is up. Ticks that land while a batch is still draining are skipped.
package schedule
