package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventAssociationCreated EventType = "association.created"
	EventStatusChanged      EventType = "association.status_changed"
	EventAssociationRemoved EventType = "association.removed"
	EventDocumentUploaded   EventType = "document.uploaded"
	EventDocumentDeleted    EventType = "document.deleted"
)

// WorkflowEvent is published whenever a document's approval chain changes.
type WorkflowEvent struct {
	Type           EventType       `json:"type"`
	DocumentID     string          `json:"document_id"`
	UserID         string          `json:"user_id,omitempty"`
	ApprovalStatus *ApprovalStatus `json:"approval_status,omitempty"`
	Priority       int             `json:"priority,omitempty"`
	Time           time.Time       `json:"time"`
}

func DocumentChannel(documentID string) string {
	return fmt.Sprintf("dms:document:%s", documentID)
}

func UserChannel(userID string) string {
	return fmt.Sprintf("dms:user:%s", userID)
}
