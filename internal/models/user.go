package models

// Settings is the subset of user preferences the background jobs read.
type Settings struct {
	// AutoCleanTrash is nil for users created before the setting existed; those
	// users are treated as opted in.
	AutoCleanTrash *bool `bson:"autoCleanTrash,omitempty" json:"autoCleanTrash,omitempty"`
}

// AutoCleanEnabled reports whether old trash should be purged for this user.
func (s Settings) AutoCleanEnabled() bool {
	if s.AutoCleanTrash == nil {
		return true
	}
	return *s.AutoCleanTrash
}

// User is the aggregate persisted as one document. It is the unit of persistence
// and concurrency control for everything the background jobs touch.
type User struct {
	UserID        string               `bson:"userId" json:"userId"`
	Name          string               `bson:"name,omitempty" json:"name,omitempty"`
	Transactions  []Transaction        `bson:"transactions" json:"transactions"`
	Trash         []TrashedTransaction `bson:"trash" json:"trash"`
	Notifications []Notification       `bson:"notifications" json:"notifications"`
	Recurrences   []Recurrence         `bson:"recuringTransactions" json:"recurringTransactions"`
	Settings      Settings             `bson:"settings" json:"settings"`
}
