// Package memory holds in-process implementations of the storage ports,
// used by tests and by the `memory` store kind.
package memory

import (
	"context"
	"sync"

	"github.com/totegamma/dms/internal/domain"
)

// DocumentRepository keeps documents in a map. Returned values are copies.
type DocumentRepository struct {
	docs  map[string]domain.Document
	order []string
	mux   sync.RWMutex
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: map[string]domain.Document{}}
}

func (r *DocumentRepository) Create(_ context.Context, doc domain.Document) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	if _, ok := r.docs[doc.ID]; !ok {
		r.order = append(r.order, doc.ID)
	}
	r.docs[doc.ID] = clone(doc)
	return nil
}

func (r *DocumentRepository) Get(_ context.Context, id string) (domain.Document, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return domain.Document{}, domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	return clone(doc), nil
}

func (r *DocumentRepository) List(_ context.Context) ([]domain.Document, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	out := make([]domain.Document, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.docs[id]))
	}
	return out, nil
}

func (r *DocumentRepository) GetByBlobRef(_ context.Context, ref string) (domain.Document, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	for _, id := range r.order {
		if r.docs[id].BlobRef == ref {
			return clone(r.docs[id]), nil
		}
	}
	return domain.Document{}, domain.NotFoundError{Resource: domain.ResourceDocument}
}

func (r *DocumentRepository) DeleteByBlobRef(_ context.Context, ref string) (string, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	for i, id := range r.order {
		if r.docs[id].BlobRef != ref {
			continue
		}
		delete(r.docs, id)
		r.order = append(r.order[:i], r.order[i+1:]...)
		return id, nil
	}
	return "", domain.NotFoundError{Resource: domain.ResourceDocument}
}

func (r *DocumentRepository) AppendAssociation(_ context.Context, documentID string, association domain.Association) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	doc, ok := r.docs[documentID]
	if !ok {
		return domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	doc = clone(doc)
	doc.Associations = append(doc.Associations, association)
	doc.Version++
	r.docs[documentID] = doc
	return nil
}

func (r *DocumentRepository) ReplaceAssociations(_ context.Context, documentID string, version int64, associations []domain.Association) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	doc, ok := r.docs[documentID]
	if !ok {
		return domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	if doc.Version != version {
		return domain.ErrConflict
	}
	doc.Associations = append([]domain.Association{}, associations...)
	doc.Version++
	r.docs[documentID] = doc
	return nil
}

func (r *DocumentRepository) FindByAssociatedUser(_ context.Context, userID string) ([]domain.Document, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	var out []domain.Document
	for _, id := range r.order {
		doc := r.docs[id]
		if _, ok := doc.Association(userID); ok {
			out = append(out, clone(doc))
		}
	}
	return out, nil
}

func clone(doc domain.Document) domain.Document {
	doc.Associations = append([]domain.Association{}, doc.Associations...)
	return doc
}
