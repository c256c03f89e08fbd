package domain

import "time"

// Association links one user to one document with a priority and an approval state.
type Association struct {
	UserID         string         `json:"user_id"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Priority       int            `json:"priority"`
}

// Document is the metadata record of an uploaded file.
type Document struct {
	ID           string        `json:"_id"`
	Filename     string        `json:"filename"`
	BlobRef      string        `json:"file_path"`
	Checksum     string        `json:"checksum"`
	Size         int64         `json:"size"`
	UploadTime   time.Time     `json:"upload_time"`
	Associations []Association `json:"associated_users"`
	Version      int64         `json:"version"`
}

// Association returns the first association held by userID.
func (d Document) Association(userID string) (Association, bool) {
	for _, a := range d.Associations {
		if a.UserID == userID {
			return a, true
		}
	}
	return Association{}, false
}

// NextPriority is one past the highest priority on the document.
func (d Document) NextPriority() int {
	max := 0
	for _, a := range d.Associations {
		if a.Priority > max {
			max = a.Priority
		}
	}
	return max + 1
}

// VisibleTo reports whether userID may act on the document now.
//
// The first in line (priority 1) always may. Anyone else waits until every
// association with a strictly lower priority is Approved. Equal priorities do
// not block each other.
func (d Document) VisibleTo(userID string) (Association, bool) {
	own, ok := d.Association(userID)
	if !ok {
		return Association{}, false
	}
	if own.Priority == 1 {
		return own, true
	}
	for _, a := range d.Associations {
		if a.UserID == userID || a.Priority >= own.Priority {
			continue
		}
		if !a.ApprovalStatus.IsApproved() {
			return own, false
		}
	}
	return own, true
}

// WithStatus returns a copy of the list with every association of userID set to status.
func WithStatus(list []Association, userID string, status ApprovalStatus) []Association {
	out := make([]Association, len(list))
	copy(out, list)
	for i := range out {
		if out[i].UserID == userID {
			out[i].ApprovalStatus = status
		}
	}
	return out
}

// WithoutUser returns a copy of the list with the first association of userID removed.
// The second return value is false when there was nothing to remove.
func WithoutUser(list []Association, userID string) ([]Association, bool) {
	for i, a := range list {
		if a.UserID != userID {
			continue
		}
		out := make([]Association, 0, len(list)-1)
		out = append(out, list[:i]...)
		out = append(out, list[i+1:]...)
		return out, true
	}
	out := make([]Association, len(list))
	copy(out, list)
	return out, false
}

// AssociatedUser is one row of a document's approval chain.
type AssociatedUser struct {
	User           User           `json:"user"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Priority       int            `json:"priority"`
}

// VisibleDocument is a document the user can act on.
type VisibleDocument struct {
	DocumentID     string         `json:"document_id"`
	Filename       string         `json:"filename"`
	BlobRef        string         `json:"file_path"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Priority       int            `json:"priority"`
}
