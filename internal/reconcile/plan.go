package reconcile

import (
	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/remote"
)

// Plan is what one push has to carry to bring the remote in line with the
// local store.
type Plan struct {
	Create []models.Transaction
	Update []models.Transaction
	Delete []int64
}

// NewPlan partitions local transactions by their sync cursor and picks out
// remote records that no longer exist locally.
//
//   - never pushed (Synced == false)              -> Create
//   - pushed, then edited (updatedAt > SyncedAt)  -> Update
//   - pushed and unchanged                         -> neither
//
// The remote only answers for ids it was asked about, so Delete is limited to
// whatever extra ids it chooses to return.
func NewPlan(local []models.Transaction, existing []remote.Transaction) Plan {
	plan := Plan{
		Create: []models.Transaction{},
		Update: []models.Transaction{},
		Delete: []int64{},
	}

	localIDs := make(map[int64]struct{}, len(local))
	for _, txn := range local {
		localIDs[txn.ID] = struct{}{}

		switch {
		case !txn.Synced:
			plan.Create = append(plan.Create, txn)
		case txn.ModifiedSinceSync():
			plan.Update = append(plan.Update, txn)
		}
	}

	seen := make(map[int64]struct{}, len(existing))
	for _, r := range existing {
		if _, ok := localIDs[r.ID]; ok {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		plan.Delete = append(plan.Delete, r.ID)
	}

	return plan
}

// Pushed returns the transactions the push creates or updates, in that order.
func (p Plan) Pushed() []models.Transaction {
	out := make([]models.Transaction, 0, len(p.Create)+len(p.Update))
	out = append(out, p.Create...)
	return append(out, p.Update...)
}

func ids(txns []models.Transaction) []int64 {
	out := make([]int64, len(txns))
	for i, txn := range txns {
		out[i] = txn.ID
	}
	return out
}
