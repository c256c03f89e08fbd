package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/infra/database"
)

// Set DMS_TEST_POSTGRES_DSN to run these against a disposable database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DMS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DMS_TEST_POSTGRES_DSN not set")
	}
	db, err := database.NewPostgres(dsn)
	require.NoError(t, err)
	require.NoError(t, database.MigratePostgres(db))
	return db
}

func newTestDocument(t *testing.T, repo *DocumentRepository) domain.Document {
	t.Helper()
	id := uuid.NewString()
	doc := domain.Document{
		ID:           id,
		Filename:     id + ".txt",
		BlobRef:      "mem://localhost/test/" + id + ".txt",
		UploadTime:   time.Now().UTC(),
		Associations: []domain.Association{},
	}
	require.NoError(t, repo.Create(context.Background(), doc))
	return doc
}

func TestDocumentRepositoryAssociations(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestDB(t))
	doc := newTestDocument(t, repo)

	first, second := uuid.NewString(), uuid.NewString()
	require.NoError(t, repo.AppendAssociation(ctx, doc.ID, domain.Association{UserID: first, Priority: 1}))
	require.NoError(t, repo.AppendAssociation(ctx, doc.ID, domain.Association{UserID: second, Priority: 2}))

	stored, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Associations, 2)
	assert.Equal(t, first, stored.Associations[0].UserID)
	assert.Equal(t, domain.Pending, stored.Associations[0].ApprovalStatus)
	assert.Equal(t, int64(2), stored.Version)

	found, err := repo.FindByAssociatedUser(ctx, second)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, doc.ID, found[0].ID)

	updated := domain.WithStatus(stored.Associations, first, domain.Approved)
	require.NoError(t, repo.ReplaceAssociations(ctx, doc.ID, stored.Version, updated))

	err = repo.ReplaceAssociations(ctx, doc.ID, stored.Version, updated)
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = repo.ReplaceAssociations(ctx, uuid.NewString(), 0, updated)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err = repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Approved, stored.Associations[0].ApprovalStatus)
	assert.Equal(t, int64(3), stored.Version)

	err = repo.AppendAssociation(ctx, uuid.NewString(), domain.Association{UserID: first, Priority: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentRepositoryBlobRef(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestDB(t))
	doc := newTestDocument(t, repo)

	got, err := repo.GetByBlobRef(ctx, doc.BlobRef)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	id, err := repo.DeleteByBlobRef(ctx, doc.BlobRef)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, id)

	_, err = repo.GetByBlobRef(ctx, doc.BlobRef)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.DeleteByBlobRef(ctx, doc.BlobRef)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepositoryKeepsCreationDate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	cdate := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         "asha",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		CDate:        cdate,
	}
	require.NoError(t, repo.CreateMany(ctx, []domain.User{user}))

	stored, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cdate.Equal(stored.CDate), "stored %v", stored.CDate)

	err = repo.CreateMany(ctx, []domain.User{{ID: uuid.NewString(), Email: user.Email, PasswordHash: "x"}})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
