package repository

import (
	"context"
	"time"

	"github.com/AzielCF/az-postr/infrastructure/valkey"
	"github.com/AzielCF/az-postr/pkg/timeutils"
)

// ValkeyReplyLedger implements domain.ReplyLedger backed by Valkey.
// Each sender gets a per-day counter that expires on its own, so restarts
// do not reset reply quotas the way the in-memory ledger does.
type ValkeyReplyLedger struct {
	client *valkey.Client
	now    func() time.Time
}

func NewValkeyReplyLedger(client *valkey.Client) *ValkeyReplyLedger {
	return &ValkeyReplyLedger{
		client: client,
		now:    time.Now,
	}
}

func (l *ValkeyReplyLedger) key(senderID string) string {
	day := timeutils.DayKey(l.now(), time.UTC)
	return l.client.Key("replies", day, senderID)
}

// Take increments the sender's counter and rolls the increment back when the
// cap was already reached. INCR is atomic, so concurrent takers cannot both
// land under the cap.
func (l *ValkeyReplyLedger) Take(ctx context.Context, senderID string, cap int) (bool, error) {
	key := l.key(senderID)
	inner := l.client.Inner()

	count, err := inner.Do(ctx, inner.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return false, err
	}

	if count == 1 {
		// First reply of the day sets the expiry past the day boundary.
		expireCmd := inner.B().Expire().Key(key).Seconds(int64((26 * time.Hour).Seconds())).Build()
		if err := inner.Do(ctx, expireCmd).Error(); err != nil {
			return false, err
		}
	}

	if count > int64(cap) {
		decrCmd := inner.B().Decr().Key(key).Build()
		if err := inner.Do(ctx, decrCmd).Error(); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
