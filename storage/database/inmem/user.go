package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, usr := range repo.query() {
		if excluded[usr.ID] {
			continue
		}
		if (username != "" && usr.Username == username) || usr.Email == email {
			return user.ErrUserExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		switch {
		case filter.Username != "" && usr.Username == filter.Username:
			return usr, nil
		case filter.Email != "" && usr.Email == filter.Email:
			return usr, nil
		case filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail):
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, _ []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()
	if filter == nil || filter.IsEmpty() {
		return users, nil
	}

	filtered := make([]user.User, 0, len(users))
	for _, u := range users {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !(strings.Contains(strings.ToLower(u.Name), search) ||
				strings.Contains(strings.ToLower(u.Username), search) ||
				strings.Contains(strings.ToLower(u.Email), search)) {
				continue
			}
		}
		if len(filter.Roles) > 0 {
			var match bool
			for _, r := range filter.Roles {
				if u.RoleStartsWith(r) {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom.UTC()) {
			continue
		}
		if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo.UTC()) {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	// only save set fields
	if usr.Roles != nil {
		origUsr.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if !usr.UpdatedAt.IsZero() {
		origUsr.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}
	return *origUsr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr, &usr.IsActive)
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
