package models

import "time"

// Interval is the recurrence period tag. Values match the stored strings.
type Interval string

const (
	IntervalDaily   Interval = "Everyday"
	IntervalWeekly  Interval = "Every week"
	IntervalMonthly Interval = "Every month"
	IntervalYearly  Interval = "Every year"
)

// Schedule holds the interval-specific fields. Which fields matter depends on the
// interval: Weekly uses Weekday, Monthly uses Day, Yearly uses Month and Day.
type Schedule struct {
	Weekday string `bson:"weekday,omitempty" json:"weekday,omitempty"`
	Day     int    `bson:"day,omitempty" json:"day,omitempty"`
	Month   int    `bson:"month,omitempty" json:"month,omitempty"`
}

// Recurrence is a recurring-transaction definition stored inside the user document.
type Recurrence struct {
	ID       string   `bson:"_id" json:"id"`
	Interval Interval `bson:"interval" json:"interval"`
	Schedule Schedule `bson:"schedule" json:"schedule"`

	Amount   float64  `bson:"amount" json:"amount"`
	Note     string   `bson:"note" json:"note"`
	Category Category `bson:"category" json:"category"`
	People   *People  `bson:"people,omitempty" json:"people,omitempty"`
	Image    string   `bson:"image,omitempty" json:"image,omitempty"`

	Count        int        `bson:"count" json:"count"`
	PushedCount  int        `bson:"pushedCount" json:"pushedCount"`
	LastPushedAt *time.Time `bson:"lastPushedAt,omitempty" json:"lastPushedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Remaining returns how many occurrences may still materialize.
func (r Recurrence) Remaining() int {
	if r.PushedCount >= r.Count {
		return 0
	}
	return r.Count - r.PushedCount
}
