package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/dms/internal/domain"
)

var tracer = otel.Tracer("usecase")

const defaultMaxConflictRetries = 3

type WorkflowOptions struct {
	// RejectDuplicates makes Associate fail for a user already on the document.
	RejectDuplicates bool
	// MaxConflictRetries bounds the read-modify-write retries on a version conflict.
	MaxConflictRetries int
}

type WorkflowUsecase struct {
	docs   DocumentRepository
	users  UserRepository
	events EventPublisher
	opts   WorkflowOptions
}

func NewWorkflowUsecase(docs DocumentRepository, users UserRepository, events EventPublisher, opts WorkflowOptions) *WorkflowUsecase {
	if opts.MaxConflictRetries <= 0 {
		opts.MaxConflictRetries = defaultMaxConflictRetries
	}
	return &WorkflowUsecase{
		docs:   docs,
		users:  users,
		events: events,
		opts:   opts,
	}
}

// Associate appends userID to the document's approval chain as Pending.
// A priority of 0 places the user after everyone already on the chain.
func (uc *WorkflowUsecase) Associate(ctx context.Context, documentID, userID string, priority int) (string, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Usecase.Associate")
	defer span.End()
	span.SetAttributes(attribute.String("document", documentID), attribute.String("user", userID))

	doc, err := uc.lookup(ctx, documentID, userID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if _, exists := doc.Association(userID); exists {
		if uc.opts.RejectDuplicates {
			return "", domain.ErrAlreadyAssociated
		}
		slog.WarnContext(
			ctx, "user associated twice with document",
			slog.String("document", documentID),
			slog.String("user", userID),
			slog.String("module", "workflow"),
		)
	}

	if priority == 0 {
		priority = doc.NextPriority()
	}

	association := domain.Association{
		UserID:         userID,
		ApprovalStatus: domain.Pending,
		Priority:       priority,
	}
	err = uc.docs.AppendAssociation(ctx, documentID, association)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	status := domain.Pending
	uc.publish(ctx, domain.WorkflowEvent{
		Type:           domain.EventAssociationCreated,
		DocumentID:     documentID,
		UserID:         userID,
		ApprovalStatus: &status,
		Priority:       priority,
	})

	return fmt.Sprintf("Associated document %s with user %s", documentID, userID), nil
}

// SetStatus records userID's decision on the document. Setting the status of
// a user who is not on the chain succeeds without changing anything.
func (uc *WorkflowUsecase) SetStatus(ctx context.Context, documentID, userID string, status domain.ApprovalStatus) (string, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Usecase.SetStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("document", documentID),
		attribute.String("user", userID),
		attribute.String("status", status.String()),
	)

	err := uc.update(ctx, documentID, userID, func(list []domain.Association) []domain.Association {
		return domain.WithStatus(list, userID, status)
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	uc.publish(ctx, domain.WorkflowEvent{
		Type:           domain.EventStatusChanged,
		DocumentID:     documentID,
		UserID:         userID,
		ApprovalStatus: &status,
	})

	switch status {
	case domain.Approved:
		return fmt.Sprintf("Approved document %s for user %s", documentID, userID), nil
	case domain.Rejected:
		return fmt.Sprintf("Rejected document %s for user %s", documentID, userID), nil
	default:
		return fmt.Sprintf("Reset approval of document %s for user %s", documentID, userID), nil
	}
}

// Disassociate removes the first association of userID. Removing a user who
// is not on the chain succeeds and leaves the list as it was.
func (uc *WorkflowUsecase) Disassociate(ctx context.Context, documentID, userID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Usecase.Disassociate")
	defer span.End()
	span.SetAttributes(attribute.String("document", documentID), attribute.String("user", userID))

	var removed bool
	err := uc.update(ctx, documentID, userID, func(list []domain.Association) []domain.Association {
		var out []domain.Association
		out, removed = domain.WithoutUser(list, userID)
		return out
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if removed {
		uc.publish(ctx, domain.WorkflowEvent{
			Type:       domain.EventAssociationRemoved,
			DocumentID: documentID,
			UserID:     userID,
		})
	}

	return fmt.Sprintf("Disassociated document %s from user %s", documentID, userID), nil
}

// ListAssociatedUsers resolves the document's chain in stored order.
// Associations pointing at users that no longer exist are skipped.
func (uc *WorkflowUsecase) ListAssociatedUsers(ctx context.Context, documentID string) ([]domain.AssociatedUser, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Usecase.ListAssociatedUsers")
	defer span.End()

	doc, err := uc.docs.Get(ctx, documentID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := make([]domain.AssociatedUser, 0, len(doc.Associations))
	for _, a := range doc.Associations {
		user, err := uc.users.Get(ctx, a.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result = append(result, domain.AssociatedUser{
			User:           user,
			ApprovalStatus: a.ApprovalStatus,
			Priority:       a.Priority,
		})
	}

	return result, nil
}

// ResolveVisibleDocuments lists the documents userID can act on right now.
func (uc *WorkflowUsecase) ResolveVisibleDocuments(ctx context.Context, userID string) ([]domain.VisibleDocument, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Usecase.ResolveVisibleDocuments")
	defer span.End()
	span.SetAttributes(attribute.String("user", userID))

	if _, err := uc.users.Get(ctx, userID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	docs, err := uc.docs.FindByAssociatedUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := make([]domain.VisibleDocument, 0, len(docs))
	for _, doc := range docs {
		own, visible := doc.VisibleTo(userID)
		if !visible {
			continue
		}
		result = append(result, domain.VisibleDocument{
			DocumentID:     doc.ID,
			Filename:       doc.Filename,
			BlobRef:        doc.BlobRef,
			ApprovalStatus: own.ApprovalStatus,
			Priority:       own.Priority,
		})
	}

	return result, nil
}

func (uc *WorkflowUsecase) lookup(ctx context.Context, documentID, userID string) (domain.Document, error) {
	doc, err := uc.docs.Get(ctx, documentID)
	if err != nil {
		return domain.Document{}, err
	}
	if _, err := uc.users.Get(ctx, userID); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// update runs a read-modify-write of the association list, retrying while
// another writer bumps the version in between.
func (uc *WorkflowUsecase) update(ctx context.Context, documentID, userID string, mutate func([]domain.Association) []domain.Association) error {
	doc, err := uc.lookup(ctx, documentID, userID)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		err = uc.docs.ReplaceAssociations(ctx, documentID, doc.Version, mutate(doc.Associations))
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= uc.opts.MaxConflictRetries {
			return err
		}

		slog.DebugContext(
			ctx, "association list changed underneath, retrying",
			slog.String("document", documentID),
			slog.Int("attempt", attempt+1),
			slog.String("module", "workflow"),
		)

		doc, err = uc.docs.Get(ctx, documentID)
		if err != nil {
			return err
		}
	}
}

func (uc *WorkflowUsecase) publish(ctx context.Context, event domain.WorkflowEvent) {
	if uc.events == nil {
		return
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	channels := []string{domain.DocumentChannel(event.DocumentID)}
	if event.UserID != "" {
		channels = append(channels, domain.UserChannel(event.UserID))
	}
	for _, channel := range channels {
		if err := uc.events.Publish(ctx, channel, event); err != nil {
			slog.ErrorContext(
				ctx, "failed to publish workflow event",
				slog.String("channel", channel),
				slog.String("error", err.Error()),
				slog.String("module", "workflow"),
			)
		}
	}
}
