package models

import (
	"time"

	"gorm.io/datatypes"
)

// Association is the stored shape of one approval-chain entry.
// ApprovalStatus is null while pending.
type Association struct {
	UserID         string `json:"user_id"`
	ApprovalStatus *bool  `json:"approval_status"`
	Priority       int    `json:"priority"`
}

type Document struct {
	ID           string                           `json:"id" gorm:"primaryKey;type:text"`
	Filename     string                           `json:"filename" gorm:"type:text;not null"`
	FilePath     string                           `json:"filePath" gorm:"type:text;not null;uniqueIndex"`
	Checksum     string                           `json:"checksum" gorm:"type:text"`
	Size         int64                            `json:"size"`
	Associations datatypes.JSONSlice[Association] `json:"associations" gorm:"type:jsonb;not null;default:'[]'"`
	Version      int64                            `json:"version" gorm:"not null;default:0"`
	UploadTime   time.Time                        `json:"uploadTime" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}
