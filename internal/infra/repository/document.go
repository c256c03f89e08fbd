package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/infra/database/models"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc domain.Document) error {
	record := documentToModel(doc)
	err := r.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		return errors.Wrap(err, "failed to create document")
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (domain.Document, error) {
	var record models.Document
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Document{}, domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	if err != nil {
		return domain.Document{}, errors.Wrap(err, "failed to get document")
	}
	return documentFromModel(record), nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]domain.Document, error) {
	var records []models.Document
	err := r.db.WithContext(ctx).
		Order("upload_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	return documentsFromModels(records), nil
}

func (r *DocumentRepository) GetByBlobRef(ctx context.Context, ref string) (domain.Document, error) {
	var record models.Document
	err := r.db.WithContext(ctx).
		Where("file_path = ?", ref).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Document{}, domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	if err != nil {
		return domain.Document{}, errors.Wrap(err, "failed to get document by blob")
	}
	return documentFromModel(record), nil
}

func (r *DocumentRepository) DeleteByBlobRef(ctx context.Context, ref string) (string, error) {
	var id string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.Document
		err := tx.Where("file_path = ?", ref).Take(&record).Error
		if err != nil {
			return err
		}
		id = record.ID
		return tx.Delete(&models.Document{}, "id = ?", record.ID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to delete document")
	}
	return id, nil
}

// AppendAssociation pushes onto the stored array in a single statement.
func (r *DocumentRepository) AppendAssociation(ctx context.Context, documentID string, association domain.Association) error {
	entry, err := json.Marshal([]models.Association{associationToModel(association)})
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", documentID).
		Updates(map[string]any{
			"associations": gorm.Expr("associations || ?::jsonb", string(entry)),
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to append association")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	return nil
}

func (r *DocumentRepository) ReplaceAssociations(ctx context.Context, documentID string, version int64, associations []domain.Association) error {
	list := make(datatypes.JSONSlice[models.Association], 0, len(associations))
	for _, a := range associations {
		list = append(list, associationToModel(a))
	}

	result := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND version = ?", documentID, version).
		Updates(map[string]any{
			"associations": list,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to replace associations")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", documentID).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "failed to check document")
	}
	if count == 0 {
		return domain.NotFoundError{Resource: domain.ResourceDocument}
	}
	return domain.ErrConflict
}

func (r *DocumentRepository) FindByAssociatedUser(ctx context.Context, userID string) ([]domain.Document, error) {
	filter, err := json.Marshal([]map[string]string{{"user_id": userID}})
	if err != nil {
		return nil, err
	}

	var records []models.Document
	err = r.db.WithContext(ctx).
		Where("associations @> ?::jsonb", string(filter)).
		Order("upload_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find associated documents")
	}
	return documentsFromModels(records), nil
}

func associationToModel(a domain.Association) models.Association {
	return models.Association{
		UserID:         a.UserID,
		ApprovalStatus: a.ApprovalStatus.Bool(),
		Priority:       a.Priority,
	}
}

func documentToModel(doc domain.Document) models.Document {
	list := make(datatypes.JSONSlice[models.Association], 0, len(doc.Associations))
	for _, a := range doc.Associations {
		list = append(list, associationToModel(a))
	}
	return models.Document{
		ID:           doc.ID,
		Filename:     doc.Filename,
		FilePath:     doc.BlobRef,
		Checksum:     doc.Checksum,
		Size:         doc.Size,
		Associations: list,
		Version:      doc.Version,
		UploadTime:   doc.UploadTime,
	}
}

func documentFromModel(record models.Document) domain.Document {
	associations := make([]domain.Association, 0, len(record.Associations))
	for _, a := range record.Associations {
		associations = append(associations, domain.Association{
			UserID:         a.UserID,
			ApprovalStatus: domain.ApprovalStatusFromBool(a.ApprovalStatus),
			Priority:       a.Priority,
		})
	}
	return domain.Document{
		ID:           record.ID,
		Filename:     record.Filename,
		BlobRef:      record.FilePath,
		Checksum:     record.Checksum,
		Size:         record.Size,
		UploadTime:   record.UploadTime,
		Associations: associations,
		Version:      record.Version,
	}
}

func documentsFromModels(records []models.Document) []domain.Document {
	docs := make([]domain.Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, documentFromModel(record))
	}
	return docs
}
