package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionModifiedSinceSync(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	tests := []struct {
		name string
		txn  Transaction
		want bool
	}{
		{"never synced", Transaction{Synced: false, UpdatedAt: t2}, false},
		{"synced without timestamp", Transaction{Synced: true, UpdatedAt: t2}, false},
		{"clean", Transaction{Synced: true, SyncedAt: &t1, UpdatedAt: t1}, false},
		{"edited after sync", Transaction{Synced: true, SyncedAt: &t1, UpdatedAt: t2}, true},
		{"synced after edit", Transaction{Synced: true, SyncedAt: &t2, UpdatedAt: t1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txn.ModifiedSinceSync())
		})
	}
}
