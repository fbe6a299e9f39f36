package models

import "time"

// Category is a snapshot of the user's category at the time a record was written.
type Category struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	HexColor string `bson:"hexColor,omitempty" json:"hexColor,omitempty"`
	Sign     string `bson:"sign,omitempty" json:"sign,omitempty"` // "+" or "-"
	Type     string `bson:"type,omitempty" json:"type,omitempty"` // Spent, Earned, Borrowed, Lent
}

// People is a snapshot of the counterparty attached to a record.
type People struct {
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Contact  int64  `bson:"contact,omitempty" json:"contact,omitempty"`
	Relation string `bson:"relation,omitempty" json:"relation,omitempty"`
}

// Transaction is one entry of the user's transactions array.
type Transaction struct {
	ID                     string    `bson:"_id" json:"id"`
	Amount                 float64   `bson:"amount" json:"amount"`
	Note                   string    `bson:"note" json:"note"`
	Status                 string    `bson:"status,omitempty" json:"status,omitempty"`
	Category               Category  `bson:"category" json:"category"`
	People                 *People   `bson:"people,omitempty" json:"people,omitempty"`
	Image                  string    `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt              time.Time `bson:"createdAt" json:"createdAt"`
	PushedIntoTransactions bool      `bson:"pushedIntoTransactions,omitempty" json:"pushedIntoTransactions,omitempty"`
	// ReferenceID points back at the recurrence that produced this entry. It is only
	// used to detect duplicates, never for ownership.
	ReferenceID string `bson:"reference_id,omitempty" json:"referenceId,omitempty"`
}

// TrashedTransaction is a transaction moved out of the active set.
type TrashedTransaction struct {
	Transaction `bson:",inline"`
	DeletedAt   time.Time `bson:"deletedAt" json:"deletedAt"`
}

// NotificationTypeRecurring marks notifications produced by the recurrence job.
const NotificationTypeRecurring = "Recurring"

// Notification is the side-effect record written alongside a materialized transaction.
type Notification struct {
	ID          string      `bson:"_id" json:"id"`
	Header      string      `bson:"header" json:"header"`
	Type        string      `bson:"type" json:"type"`
	Read        bool        `bson:"read" json:"read"`
	Transaction Transaction `bson:"transaction" json:"transaction"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
}
