package models

// SyncResult is what a reconciliation run reports back to its caller.
// Success is false exactly when Error is set.
type SyncResult struct {
	Success bool   `json:"success"`
	Synced  int    `json:"synced,omitempty"`
	Deleted int    `json:"deleted,omitempty"`
	Error   string `json:"error,omitempty"`
}
