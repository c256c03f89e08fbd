package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/dms/internal/domain"
)

type UserUsecase struct {
	repo     UserRepository
	hashCost int
}

func NewUserUsecase(repo UserRepository) *UserUsecase {
	return &UserUsecase{
		repo:     repo,
		hashCost: bcrypt.DefaultCost,
	}
}

// Import creates every user in one batch.
func (uc *UserUsecase) Import(ctx context.Context, input []domain.NewUser) ([]domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Usecase.Import")
	defer span.End()

	users := make([]domain.User, 0, len(input))
	now := time.Now().UTC()
	for _, in := range input {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.hashCost)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		users = append(users, domain.User{
			ID:           uuid.NewString(),
			Name:         in.Name,
			Designation:  in.Designation,
			Office:       in.Office,
			Email:        normalizeEmail(in.Email),
			PasswordHash: string(hash),
			CDate:        now,
		})
	}

	if err := uc.repo.CreateMany(ctx, users); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return users, nil
}

func (uc *UserUsecase) List(ctx context.Context) ([]domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Usecase.List")
	defer span.End()

	return uc.repo.List(ctx)
}

func (uc *UserUsecase) Get(ctx context.Context, id string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Usecase.Get")
	defer span.End()

	return uc.repo.Get(ctx, id)
}

// Login checks an email/password pair. Unknown email and wrong password
// are indistinguishable to the caller.
func (uc *UserUsecase) Login(ctx context.Context, email, password string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "User.Usecase.Login")
	defer span.End()

	user, err := uc.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
