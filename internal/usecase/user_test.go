package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/infra/memory"
)

func newUserUsecase() *UserUsecase {
	uc := NewUserUsecase(memory.NewUserRepository())
	uc.hashCost = bcrypt.MinCost
	return uc
}

func TestUserImportAndLogin(t *testing.T) {
	ctx := context.Background()
	uc := newUserUsecase()

	users, err := uc.Import(ctx, []domain.NewUser{
		{Name: "Asha", Designation: "Registrar", Office: "HQ", Email: "Asha@Example.com ", Password: "s3cret"},
		{Name: "Ravi", Designation: "Clerk", Office: "HQ", Email: "ravi@example.com", Password: "hunter2"},
	})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.NotEqual(t, users[0].ID, users[1].ID)
	assert.NotEqual(t, "s3cret", users[0].PasswordHash)

	user, err := uc.Login(ctx, "asha@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, user.ID)

	_, err = uc.Login(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	listed, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	got, err := uc.Get(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.Name)
}

func TestUserImportDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	uc := newUserUsecase()

	_, err := uc.Import(ctx, []domain.NewUser{{Name: "A", Email: "a@example.com", Password: "x"}})
	require.NoError(t, err)

	_, err = uc.Import(ctx, []domain.NewUser{{Name: "A2", Email: "A@example.com", Password: "y"}})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
