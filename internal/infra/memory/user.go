package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/totegamma/dms/internal/domain"
)

type UserRepository struct {
	users   map[string]domain.User
	byEmail map[string]string
	order   []string
	mux     sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   map[string]domain.User{},
		byEmail: map[string]string{},
	}
}

func (r *UserRepository) Get(_ context.Context, id string) (domain.User, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.NotFoundError{Resource: domain.ResourceUser}
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.NotFoundError{Resource: domain.ResourceUser}
	}
	return r.users[id], nil
}

func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	out := make([]domain.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out, nil
}

// CreateMany inserts all users or none of them.
func (r *UserRepository) CreateMany(_ context.Context, users []domain.User) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	seen := map[string]bool{}
	for _, u := range users {
		if _, taken := r.byEmail[u.Email]; taken || seen[u.Email] {
			return errors.Wrapf(domain.ErrConflict, "email %s already registered", u.Email)
		}
		seen[u.Email] = true
	}

	for _, u := range users {
		r.users[u.ID] = u
		r.byEmail[u.Email] = u.ID
		r.order = append(r.order, u.ID)
	}
	return nil
}

// Delete drops a user. There is no endpoint for it; tests use it to leave
// associations dangling.
func (r *UserRepository) Delete(_ context.Context, id string) {
	r.mux.Lock()
	defer r.mux.Unlock()

	user, ok := r.users[id]
	if !ok {
		return
	}
	delete(r.users, id)
	delete(r.byEmail, user.Email)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
