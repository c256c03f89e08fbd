package repository

import (
	"context"
	"log/slog"

	"github.com/totegamma/dms/internal/domain"
	"github.com/totegamma/dms/internal/infra/cache"
	"github.com/totegamma/dms/internal/usecase"
)

// CachedUserRepository serves Get from a cache in front of another repository.
// Users are immutable after import, so entries are never invalidated.
// Email lookups always hit the backing repository since they carry the credential.
type CachedUserRepository struct {
	usecase.UserRepository
	cache cache.Cache
}

func NewCachedUserRepository(inner usecase.UserRepository, c cache.Cache) *CachedUserRepository {
	return &CachedUserRepository{UserRepository: inner, cache: c}
}

func (r *CachedUserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	key := "dms:user:" + id

	var user domain.User
	found, err := r.cache.Get(key, &user)
	if err != nil {
		slog.DebugContext(
			ctx, "user cache read failed",
			slog.String("error", err.Error()),
			slog.String("module", "repository"),
		)
	}
	if found {
		return user, nil
	}

	user, err = r.UserRepository.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if err := r.cache.Set(key, user); err != nil {
		slog.DebugContext(
			ctx, "user cache write failed",
			slog.String("error", err.Error()),
			slog.String("module", "repository"),
		)
	}
	return user, nil
}
