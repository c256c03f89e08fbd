package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/infra/cache"
	"github.com/totegamma/dms/internal/infra/memory"
)

type countingUserRepo struct {
	*memory.UserRepository
	gets int
}

func (r *countingUserRepo) Get(ctx context.Context, id string) (domain.User, error) {
	r.gets++
	return r.UserRepository.Get(ctx, id)
}

func TestCachedUserRepositoryGet(t *testing.T) {
	ctx := context.Background()
	inner := &countingUserRepo{UserRepository: memory.NewUserRepository()}
	require.NoError(t, inner.CreateMany(ctx, []domain.User{{ID: "u1", Name: "Asha", Email: "asha@example.com", PasswordHash: "h"}}))

	repo := NewCachedUserRepository(inner, cache.NewLocal(time.Minute))

	for i := 0; i < 3; i++ {
		user, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Asha", user.Name)
	}
	assert.Equal(t, 1, inner.gets)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byEmail, err := repo.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h", byEmail.PasswordHash)
}
