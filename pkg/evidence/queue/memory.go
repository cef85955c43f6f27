package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/vesta/pkg/evidence"
)

const backendMemory = "memory"

var _ evidence.Queue = (*MemoryQueue)(nil)

// MemoryQueue implements evidence.Queue in memory.
// It is intended for tests and dry runs; nothing survives process exit.
type MemoryQueue struct {
	items map[string]*memoryItem
	memos map[string]*memoryMemo
	seq   int64
	mu    sync.Mutex
	now   func() time.Time

	closed bool
}

type memoryItem struct {
	seq  int64
	item evidence.EvidenceItem
}

type memoryMemo struct {
	seq  int64
	memo evidence.VoiceMemo
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		items: make(map[string]*memoryItem),
		memos: make(map[string]*memoryMemo),
		now:   time.Now,
	}
}

// SetClock overrides the time source. Tests use it to control CreatedAt.
func (q *MemoryQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Enqueue stores a new pending item.
func (q *MemoryQueue) Enqueue(ctx context.Context, payload []byte, metadata evidence.ItemMetadata) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", evidence.NewStorageError(backendMemory, "enqueue", errQueueClosed)
	}
	if len(payload) == 0 {
		return "", evidence.ErrEmptyPayload
	}
	if metadata.FileSize == 0 {
		metadata.FileSize = int64(len(payload))
	}

	now := q.now().UTC()
	q.seq++
	id := uuid.New().String()
	q.items[id] = &memoryItem{
		seq: q.seq,
		item: evidence.EvidenceItem{
			ID:        id,
			Payload:   append([]byte(nil), payload...),
			Metadata:  metadata,
			Status:    evidence.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	return id, nil
}

// Get returns a copy of a single item.
func (q *MemoryQueue) Get(ctx context.Context, id string) (*evidence.EvidenceItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.items[id]
	if !ok {
		return nil, evidence.NewNotFoundError("item", id)
	}
	return copyItem(&entry.item), nil
}

// List returns copies of matching items in creation order.
func (q *MemoryQueue) List(ctx context.Context, statuses ...evidence.ItemStatus) ([]*evidence.EvidenceItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*memoryItem, 0, len(q.items))
	for _, entry := range q.items {
		if matchesStatus(entry.item.Status, statuses) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.item.CreatedAt.Equal(b.item.CreatedAt) {
			return a.item.CreatedAt.Before(b.item.CreatedAt)
		}
		return a.seq < b.seq
	})

	items := make([]*evidence.EvidenceItem, len(entries))
	for i, entry := range entries {
		items[i] = copyItem(&entry.item)
	}
	return items, nil
}

// Transition moves an item to a new status.
func (q *MemoryQueue) Transition(ctx context.Context, id string, to evidence.ItemStatus) error {
	if to == evidence.StatusFailed {
		return q.Fail(ctx, id, "", time.Time{})
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.items[id]
	if !ok {
		return evidence.NewNotFoundError("item", id)
	}
	if !evidence.CanTransition(entry.item.Status, to) {
		return evidence.NewInvalidStateError("item", id, string(entry.item.Status), string(to))
	}
	entry.item.Status = to
	entry.item.UpdatedAt = q.now().UTC()
	return nil
}

// Fail moves a syncing item to failed and increments its retry count.
func (q *MemoryQueue) Fail(ctx context.Context, id string, cause string, nextAttempt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.items[id]
	if !ok {
		return evidence.NewNotFoundError("item", id)
	}
	if !evidence.CanTransition(entry.item.Status, evidence.StatusFailed) {
		return evidence.NewInvalidStateError("item", id, string(entry.item.Status), string(evidence.StatusFailed))
	}
	entry.item.Status = evidence.StatusFailed
	entry.item.RetryCount++
	entry.item.LastError = cause
	if nextAttempt.IsZero() {
		entry.item.NextAttemptAt = time.Time{}
	} else {
		entry.item.NextAttemptAt = nextAttempt.UTC()
	}
	entry.item.UpdatedAt = q.now().UTC()
	return nil
}

// Remove deletes a synced item.
func (q *MemoryQueue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.items[id]
	if !ok {
		return evidence.NewNotFoundError("item", id)
	}
	if entry.item.Status != evidence.StatusSynced {
		return evidence.NewInvalidStateError("item", id, string(entry.item.Status), "removed")
	}
	delete(q.items, id)
	return nil
}

// EnqueueMemo stores a new pending voice memo.
func (q *MemoryQueue) EnqueueMemo(ctx context.Context, audio []byte, threadID string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", evidence.NewStorageError(backendMemory, "enqueue_memo", errQueueClosed)
	}

	q.seq++
	id := uuid.New().String()
	q.memos[id] = &memoryMemo{
		seq: q.seq,
		memo: evidence.VoiceMemo{
			ID:        id,
			Audio:     append([]byte(nil), audio...),
			ThreadID:  threadID,
			Status:    evidence.MemoPending,
			Timestamp: q.now().UTC(),
		},
	}
	return id, nil
}

// ListMemos returns copies of matching memos in timestamp order.
func (q *MemoryQueue) ListMemos(ctx context.Context, statuses ...evidence.MemoStatus) ([]*evidence.VoiceMemo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*memoryMemo, 0, len(q.memos))
	for _, entry := range q.memos {
		if len(statuses) == 0 || containsMemoStatus(statuses, entry.memo.Status) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.memo.Timestamp.Equal(b.memo.Timestamp) {
			return a.memo.Timestamp.Before(b.memo.Timestamp)
		}
		return a.seq < b.seq
	})

	memos := make([]*evidence.VoiceMemo, len(entries))
	for i, entry := range entries {
		memo := entry.memo
		memo.Audio = append([]byte(nil), entry.memo.Audio...)
		memos[i] = &memo
	}
	return memos, nil
}

// CompleteMemo stores a memo's transcription and marks it processed.
func (q *MemoryQueue) CompleteMemo(ctx context.Context, id, transcription, enhanced string) error {
	return q.transitionMemo(id, evidence.MemoProcessed, func(m *evidence.VoiceMemo) {
		m.Transcription = transcription
		m.AIEnhanced = enhanced
		m.NextAttemptAt = time.Time{}
	})
}

// FailMemo marks a memo failed and schedules its next attempt.
func (q *MemoryQueue) FailMemo(ctx context.Context, id string, nextAttempt time.Time) error {
	return q.transitionMemo(id, evidence.MemoFailed, func(m *evidence.VoiceMemo) {
		m.Transcription = ""
		m.AIEnhanced = ""
		m.RetryCount++
		m.NextAttemptAt = nextAttempt.UTC()
	})
}

func (q *MemoryQueue) transitionMemo(id string, to evidence.MemoStatus, apply func(*evidence.VoiceMemo)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.memos[id]
	if !ok {
		return evidence.NewNotFoundError("memo", id)
	}
	if !evidence.CanTransitionMemo(entry.memo.Status, to) {
		return evidence.NewInvalidStateError("memo", id, string(entry.memo.Status), string(to))
	}
	entry.memo.Status = to
	apply(&entry.memo)
	return nil
}

// Close marks the queue closed. Further enqueues fail.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

func copyItem(item *evidence.EvidenceItem) *evidence.EvidenceItem {
	c := *item
	c.Payload = append([]byte(nil), item.Payload...)
	if item.Metadata.Location != nil {
		loc := *item.Metadata.Location
		c.Metadata.Location = &loc
	}
	if item.Metadata.Timestamp != nil {
		ts := *item.Metadata.Timestamp
		c.Metadata.Timestamp = &ts
	}
	return &c
}

func matchesStatus(status evidence.ItemStatus, statuses []evidence.ItemStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func containsMemoStatus(statuses []evidence.MemoStatus, status evidence.MemoStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
