package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-postr/agent/domain/common"
)

func TestRecorder_StopBeforeStartReturns(t *testing.T) {
	rec := NewRecorder(nil)

	// Queued events are dropped, not persisted, when no writer runs.
	rec.Record(context.Background(), common.NoteEvent("p1", "test", time.Now()))

	done := make(chan struct{})
	go func() {
		rec.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started recorder did not return")
	}
}

func TestRecorder_StopIsIdempotent(t *testing.T) {
	rec := NewRecorder(nil)
	rec.Stop()
	rec.Stop()
}
