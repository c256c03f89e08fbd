package usecase

import (
	"context"
	"io"

	"github.com/totegamma/dms/internal/domain"
)

// DocumentRepository defines storage operations for documents and their association lists.
type DocumentRepository interface {
	Create(ctx context.Context, doc domain.Document) error
	Get(ctx context.Context, id string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	GetByBlobRef(ctx context.Context, ref string) (domain.Document, error)
	// DeleteByBlobRef removes the document stored under ref and returns its id.
	DeleteByBlobRef(ctx context.Context, ref string) (string, error)
	AppendAssociation(ctx context.Context, documentID string, association domain.Association) error
	// ReplaceAssociations overwrites the whole list if the stored version still equals version.
	ReplaceAssociations(ctx context.Context, documentID string, version int64, associations []domain.Association) error
	FindByAssociatedUser(ctx context.Context, userID string) ([]domain.Document, error)
}

// UserRepository defines persistence/lookup for users.
type UserRepository interface {
	Get(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	CreateMany(ctx context.Context, users []domain.User) error
}

// BlobStore keeps the uploaded file contents.
type BlobStore interface {
	Ref(name string) string
	Store(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) (bool, error)
}

// EventPublisher fans workflow events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event domain.WorkflowEvent) error
}
