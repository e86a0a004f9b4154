package models

import "time"

// ActivityRecord is one row appended by the administrative insert action.
// Both columns are assigned by the store.
type ActivityRecord struct {
	ID uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TS time.Time `gorm:"column:ts;type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"ts"`
}

func (ActivityRecord) TableName() string {
	return "tests"
}
