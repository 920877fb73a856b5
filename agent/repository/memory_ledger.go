package repository

import (
	"context"
	"sync"
	"time"

	"github.com/AzielCF/az-postr/pkg/timeutils"
)

// MemoryReplyLedger tracks per-sender reply counts for the current day.
// Counts reset implicitly when the day key changes.
type MemoryReplyLedger struct {
	mu     sync.Mutex
	day    string
	counts map[string]int
	now    func() time.Time
}

func NewMemoryReplyLedger() *MemoryReplyLedger {
	return &MemoryReplyLedger{
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// Take attempts to consume one reply slot for the sender. It returns false
// when the sender already reached the daily cap.
func (l *MemoryReplyLedger) Take(ctx context.Context, senderID string, cap int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := timeutils.DayKey(l.now(), time.UTC)
	if day != l.day {
		l.day = day
		l.counts = make(map[string]int)
	}

	if l.counts[senderID] >= cap {
		return false, nil
	}
	l.counts[senderID]++
	return true, nil
}
