package inmemdb

import (
	"context"

	"github.com/trezcool/studiousvault/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

// conflicts must be called with the table lock held.
func (t *userTable) conflicts(usr user.User) bool {
	for _, row := range t.rows {
		if row.ID == usr.ID {
			return true
		}
		switch usr.Role {
		case user.RoleStudent:
			if row.RegNumber != "" && row.RegNumber == usr.RegNumber {
				return true
			}
		case user.RoleAdmin:
			if row.Name == usr.Name {
				return true
			}
		}
	}
	return false
}

func (repo *userRepository) find(match func(u *user.User) bool) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, row := range repo.db.rows {
		if match(row) {
			return *row, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) CheckUniqueness(_ context.Context, usr user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if repo.db.conflicts(usr) {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.conflicts(usr) {
		return user.User{}, user.ErrUserExists
	}
	repo.db.rows = append(repo.db.rows, &usr)
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0, len(repo.db.rows))
	for _, row := range repo.db.rows {
		users = append(users, *row)
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	return repo.find(func(u *user.User) bool { return u.ID == id })
}

func (repo *userRepository) GetStudentByRegNumber(_ context.Context, regNumber string) (user.User, error) {
	return repo.find(func(u *user.User) bool { return u.IsStudent() && u.RegNumber == regNumber })
}

func (repo *userRepository) GetAdminByName(_ context.Context, name string) (user.User, error) {
	return repo.find(func(u *user.User) bool { return u.IsAdmin() && u.Name == name })
}
