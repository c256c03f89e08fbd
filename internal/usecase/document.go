package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/dms/internal/domain"
)

type DocumentUsecase struct {
	repo   DocumentRepository
	blobs  BlobStore
	events EventPublisher
}

func NewDocumentUsecase(repo DocumentRepository, blobs BlobStore, events EventPublisher) *DocumentUsecase {
	return &DocumentUsecase{
		repo:   repo,
		blobs:  blobs,
		events: events,
	}
}

// Upload stores the file content and creates its metadata record.
// A filename already held by another document is a conflict; the existing
// blob is left untouched.
func (uc *DocumentUsecase) Upload(ctx context.Context, filename string, data []byte) (domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Document.Usecase.Upload")
	defer span.End()

	name, err := cleanFilename(filename)
	if err != nil {
		return domain.Document{}, err
	}
	span.SetAttributes(attribute.String("filename", name), attribute.Int("size", len(data)))

	existing, err := uc.repo.GetByBlobRef(ctx, uc.blobs.Ref(name))
	if err == nil {
		return domain.Document{}, fmt.Errorf("%s is already stored as document %s: %w", name, existing.ID, domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		return domain.Document{}, err
	}

	ref, err := uc.blobs.Store(ctx, name, data)
	if err != nil {
		span.RecordError(err)
		return domain.Document{}, err
	}

	doc := domain.Document{
		ID:           uuid.NewString(),
		Filename:     name,
		BlobRef:      ref,
		Checksum:     fmt.Sprintf("%016x", xxh3.Hash(data)),
		Size:         int64(len(data)),
		UploadTime:   time.Now().UTC(),
		Associations: []domain.Association{},
	}
	err = uc.repo.Create(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return domain.Document{}, err
	}

	uc.publish(ctx, domain.WorkflowEvent{Type: domain.EventDocumentUploaded, DocumentID: doc.ID})

	return doc, nil
}

func (uc *DocumentUsecase) List(ctx context.Context) ([]domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Document.Usecase.List")
	defer span.End()

	return uc.repo.List(ctx)
}

// Download opens the blob of a document. The caller closes the reader.
func (uc *DocumentUsecase) Download(ctx context.Context, documentID string) (domain.Document, io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "Document.Usecase.Download")
	defer span.End()

	doc, err := uc.repo.Get(ctx, documentID)
	if err != nil {
		span.RecordError(err)
		return domain.Document{}, nil, err
	}

	reader, err := uc.blobs.Open(ctx, doc.BlobRef)
	if err != nil {
		span.RecordError(err)
		return domain.Document{}, nil, err
	}

	return doc, reader, nil
}

// Delete removes the blob named filename and then its metadata record.
// It reports false when no such blob exists. The two deletions are not atomic.
func (uc *DocumentUsecase) Delete(ctx context.Context, filename string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Document.Usecase.Delete")
	defer span.End()

	name, err := cleanFilename(filename)
	if err != nil {
		return false, err
	}

	ref := uc.blobs.Ref(name)
	deleted, err := uc.blobs.Delete(ctx, ref)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if !deleted {
		return false, nil
	}

	documentID, err := uc.repo.DeleteByBlobRef(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "blob deleted but metadata record remains",
			slog.String("ref", ref),
			slog.String("error", err.Error()),
			slog.String("module", "document"),
		)
		return true, err
	}

	uc.publish(ctx, domain.WorkflowEvent{Type: domain.EventDocumentDeleted, DocumentID: documentID})

	return true, nil
}

func (uc *DocumentUsecase) publish(ctx context.Context, event domain.WorkflowEvent) {
	if uc.events == nil {
		return
	}
	event.Time = time.Now().UTC()
	err := uc.events.Publish(ctx, domain.DocumentChannel(event.DocumentID), event)
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to publish document event",
			slog.String("error", err.Error()),
			slog.String("module", "document"),
		)
	}
}

func cleanFilename(filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", domain.ErrInvalidFilename
	}
	return name, nil
}
