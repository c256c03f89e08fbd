package models

import (
	"time"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	Name         string    `json:"name" gorm:"type:text"`
	Designation  string    `json:"designation" gorm:"type:text"`
	Office       string    `json:"office" gorm:"type:text"`
	Email        string    `json:"email" gorm:"type:text;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	CDate        time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
