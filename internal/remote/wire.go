// Package remote holds the wire format of the remote sync endpoint and a
// client for it.
package remote

import "time"

const (
	TypeGet  = "get"
	TypeSync = "sync"
)

// Transaction is a ledger entry as it travels to and is stored by the remote
// side. Money and serial fields are plain int64 so they survive any JSON
// decoder that reads numbers as IEEE doubles.
type Transaction struct {
	ID            int64         `json:"id" bson:"_id"`
	UserID        int64         `json:"userID" bson:"userID"`
	ZoneName      string        `json:"ZoneName" bson:"ZoneName"`
	KhdaName      string        `json:"KhdaName" bson:"KhdaName"`
	Date          time.Time     `json:"date" bson:"date"`
	GrossIncome   int64         `json:"KulAmdan" bson:"KulAmdan"`
	GrossExpenses int64         `json:"KulAkhrajat" bson:"KulAkhrajat"`
	NetIncome     int64         `json:"SaafiAmdan" bson:"SaafiAmdan"`
	Levy          int64         `json:"Exercise" bson:"Exercise"`
	Balance       int64         `json:"KulMaizan" bson:"KulMaizan"`
	Synced        bool          `json:"Synced" bson:"Synced"`
	SyncedAt      *time.Time    `json:"SyncedAt" bson:"SyncedAt"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
	Trollies      []Trolley     `json:"trollies" bson:"trollies"`
	Expenses      []ExpenseLine `json:"akhrajat" bson:"akhrajat"`
}

type Trolley struct {
	ID            int64 `json:"id" bson:"id"`
	TransactionID int64 `json:"transactionId" bson:"transactionId"`
	StartingNum   int64 `json:"StartingNum" bson:"StartingNum"`
	EndingNum     int64 `json:"EndingNum" bson:"EndingNum"`
	Total         int   `json:"total" bson:"total"`
}

type ExpenseLine struct {
	ID            int64  `json:"id" bson:"id"`
	TransactionID int64  `json:"transactionId" bson:"transactionId"`
	Description   string `json:"description" bson:"description"`
	Amount        int64  `json:"amount" bson:"amount"`
}

// GetRequest asks which of LocalIDs the remote already holds.
type GetRequest struct {
	Type     string  `json:"type"`
	LocalIDs []int64 `json:"localIds"`
}

// SyncRequest carries one push. All three sets are always present, possibly empty.
type SyncRequest struct {
	Type   string        `json:"type"`
	Create []Transaction `json:"create"`
	Update []Transaction `json:"update"`
	Delete []int64       `json:"delete"`
}

// Request is the union the endpoint decodes before dispatching on Type.
type Request struct {
	Type     string        `json:"type"`
	LocalIDs []int64       `json:"localIds"`
	Create   []Transaction `json:"create"`
	Update   []Transaction `json:"update"`
	Delete   []int64       `json:"delete"`
}

type SyncResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewGetRequest(localIDs []int64) GetRequest {
	if localIDs == nil {
		localIDs = []int64{}
	}
	return GetRequest{Type: TypeGet, LocalIDs: localIDs}
}

func NewSyncRequest(create, update []Transaction, del []int64) SyncRequest {
	if create == nil {
		create = []Transaction{}
	}
	if update == nil {
		update = []Transaction{}
	}
	if del == nil {
		del = []int64{}
	}
	return SyncRequest{Type: TypeSync, Create: create, Update: update, Delete: del}
}
