package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/smartseats/core/user"
)

type userRepository struct {
	coll *mongo.Collection
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection("users")}
}

// trapNoDocsErr maps mongo "no documents" err to user.ErrNotFound
func (repo userRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	count, err := repo.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (user.User, error) {
	var usr user.User
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&usr); err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "getting user by id")
	}
	return usr, nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	if err := repo.coll.FindOne(ctx, bson.M{"email": email}).Decode(&usr); err != nil {
		return user.User{}, repo.trapNoDocsErr(err, "getting user by email")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": usr.ID}, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUserByID(ctx context.Context, id primitive.ObjectID) error {
	if _, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}
