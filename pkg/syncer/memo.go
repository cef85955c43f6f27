package syncer

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/vesta/pkg/analyzers"
	"mercator-hq/vesta/pkg/evidence"
)

// processMemos transcribes pending and failed voice memos and attaches a
// content summary. Failed memos wait out the same backoff as items and stop
// being retried at MaxRetries. Failures never abort the batch.
func (o *Orchestrator) processMemos(ctx context.Context, result *BatchResult) {
	listCtx, cancel := context.WithTimeout(ctx, o.config.OpTimeout)
	memos, err := o.deps.Queue.ListMemos(listCtx, evidence.MemoPending, evidence.MemoFailed)
	cancel()
	if err != nil {
		o.logger.Error("failed to list voice memos", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("voice memos: %v", err))
		return
	}

	start := o.now()
	for _, memo := range memos {
		if memo.Status == evidence.MemoFailed {
			if reason := o.retryGate(memo.RetryCount, memo.NextAttemptAt, start); reason != "" {
				result.MemosSkipped++
				o.logger.Debug("voice memo skipped", "memo_id", memo.ID, "reason", reason, "retry_count", memo.RetryCount)
				continue
			}
		}

		if ctx.Err() != nil || !o.deps.Connectivity.Online(ctx) {
			o.logger.Warn("connectivity lost, stopping voice memo processing")
			return
		}

		if err := o.processMemo(ctx, memo); err != nil {
			result.MemosFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("memo %s: %v", memo.ID, err))
			retry := memo.RetryCount + 1
			next := o.now().Add(o.config.RetryDelay(retry))
			o.logger.Warn("voice memo processing failed",
				"memo_id", memo.ID,
				"thread_id", memo.ThreadID,
				"retry_count", retry,
				"next_attempt_at", next,
				"error", err,
			)

			failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.OpTimeout)
			if failErr := o.deps.Queue.FailMemo(failCtx, memo.ID, next); failErr != nil {
				o.logger.Error("failed to record memo failure", "memo_id", memo.ID, "error", failErr)
			}
			cancel()
			continue
		}
		result.MemosProcessed++
	}
}

func (o *Orchestrator) processMemo(ctx context.Context, memo *evidence.VoiceMemo) error {
	tctx, cancel := context.WithTimeout(ctx, analyzers.DefaultTimeout)
	transcription, err := o.deps.Transcriber.Analyze(tctx, analyzers.Media{
		Data:     memo.Audio,
		MIMEType: o.config.MemoMIMEType,
		Kind:     evidence.KindAudio,
	})
	cancel()
	if err != nil {
		return evidence.NewAnalyzerUnavailableError(o.deps.Transcriber.Name(), err)
	}

	text := strings.TrimSpace(transcription.Text)
	var enhanced string
	if text != "" {
		cctx, cancel := context.WithTimeout(ctx, analyzers.DefaultTimeout)
		analysis, err := o.deps.Content.Analyze(cctx, analyzers.ContentInput{
			Text:   text,
			Source: analyzers.SourceTranscription,
		})
		cancel()
		if err != nil {
			return evidence.NewAnalyzerUnavailableError(o.deps.Content.Name(), err)
		}
		enhanced = analysis.Summary
	}

	ctx, cancel = context.WithTimeout(ctx, o.config.OpTimeout)
	defer cancel()
	return o.deps.Queue.CompleteMemo(ctx, memo.ID, text, enhanced)
}
