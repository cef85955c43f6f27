package evidence

// itemTransitions lists every permitted item status change.
var itemTransitions = map[ItemStatus][]ItemStatus{
	StatusPending: {StatusSyncing},
	StatusSyncing: {StatusSynced, StatusFailed},
	StatusFailed:  {StatusSyncing},
	StatusSynced:  nil,
}

// memoTransitions lists every permitted memo status change.
var memoTransitions = map[MemoStatus][]MemoStatus{
	MemoPending:   {MemoProcessed, MemoFailed},
	MemoFailed:    {MemoProcessed, MemoFailed},
	MemoProcessed: nil,
}

// CanTransition reports whether an item may move from one status to another.
func CanTransition(from, to ItemStatus) bool {
	for _, allowed := range itemTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionMemo reports whether a memo may move from one status to another.
func CanTransitionMemo(from, to MemoStatus) bool {
	for _, allowed := range memoTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	_, ok := itemTransitions[s]
	return ok
}

// Terminal reports whether no further transition is permitted from s.
func (s ItemStatus) Terminal() bool {
	return s == StatusSynced
}

// ClampScore bounds a trust score to [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
