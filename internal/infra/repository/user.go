package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.take(ctx, "email = ?", email)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var records []models.User
	err := r.db.WithContext(ctx).
		Order("c_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	users := make([]domain.User, 0, len(records))
	for _, record := range records {
		users = append(users, userFromModel(record))
	}
	return users, nil
}

// CreateMany inserts all users in one transaction.
func (r *UserRepository) CreateMany(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}

	records := make([]models.User, 0, len(users))
	for _, u := range users {
		records = append(records, models.User{
			ID:           u.ID,
			Name:         u.Name,
			Designation:  u.Designation,
			Office:       u.Office,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			CDate:        u.CDate,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(domain.ErrConflict, "email already registered")
	}
	if err != nil {
		return errors.Wrap(err, "failed to create users")
	}
	return nil
}

func (r *UserRepository) take(ctx context.Context, query string, arg any) (domain.User, error) {
	var record models.User
	err := r.db.WithContext(ctx).
		Where(query, arg).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.NotFoundError{Resource: domain.ResourceUser}
	}
	if err != nil {
		return domain.User{}, errors.Wrap(err, "failed to get user")
	}
	return userFromModel(record), nil
}

func userFromModel(record models.User) domain.User {
	return domain.User{
		ID:           record.ID,
		Name:         record.Name,
		Designation:  record.Designation,
		Office:       record.Office,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CDate:        record.CDate,
	}
}
