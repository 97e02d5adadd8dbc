package dummydb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = primitive.NewObjectID()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id primitive.ObjectID) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUserByID(_ context.Context, id primitive.ObjectID) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}
