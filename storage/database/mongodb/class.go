package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/student"
)

type classRepository struct {
	coll *mongo.Collection
}

var (
	_ class.Repository        = (*classRepository)(nil) // interface compliance check
	_ student.ClassMembership = (*classRepository)(nil)
)

func NewClassRepository(db *mongo.Database) *classRepository {
	return &classRepository{coll: db.Collection("classes")}
}

func (repo classRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return class.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = primitive.NewObjectID()
	if cls.Students == nil {
		cls.Students = []primitive.ObjectID{}
	}
	if cls.Tests == nil {
		cls.Tests = []class.Test{}
	}
	if _, err := repo.coll.InsertOne(ctx, cls); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo classRepository) GetClassByID(ctx context.Context, id primitive.ObjectID) (class.Class, error) {
	var cls class.Class
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cls); err != nil {
		return class.Class{}, repo.trapNoDocsErr(err, "getting class by id")
	}
	return cls, nil
}

func (repo classRepository) QueryClassesByUserID(ctx context.Context, userID primitive.ObjectID) ([]class.Class, error) {
	cur, err := repo.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]class.Class, 0)
	if err = cur.All(ctx, &classes); err != nil {
		return nil, errors.Wrap(err, "decoding classes")
	}
	return classes, nil
}

// AddStudentsToClass appends the given ids to the membership set, skipping
// those already present.
func (repo classRepository) AddStudentsToClass(ctx context.Context, classID primitive.ObjectID, studentIDs []primitive.ObjectID) error {
	res, err := repo.coll.UpdateOne(
		ctx,
		bson.M{"_id": classID},
		bson.M{"$addToSet": bson.M{"students": bson.M{"$each": studentIDs}}},
	)
	if err != nil {
		return errors.Wrap(err, "adding students to class")
	}
	if res.MatchedCount == 0 {
		return class.ErrNotFound
	}
	return nil
}

func (repo classRepository) RemoveStudentFromClass(ctx context.Context, classID, studentID primitive.ObjectID) error {
	res, err := repo.coll.UpdateOne(
		ctx,
		bson.M{"_id": classID},
		bson.M{"$pull": bson.M{"students": studentID}},
	)
	if err != nil {
		return errors.Wrap(err, "removing student from class")
	}
	if res.MatchedCount == 0 {
		return class.ErrNotFound
	}
	return nil
}

func (repo classRepository) UpdateClassInfo(ctx context.Context, id primitive.ObjectID, uc class.UpdateClass) (class.Class, error) {
	set := bson.M{}
	if uc.Name != nil {
		set["name"] = *uc.Name
	}
	if uc.Description != nil {
		set["description"] = *uc.Description
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var cls class.Class
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&cls); err != nil {
		return class.Class{}, repo.trapNoDocsErr(err, "updating class")
	}
	return cls, nil
}

func (repo classRepository) DeleteClassByID(ctx context.Context, id primitive.ObjectID) error {
	if _, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return nil
}

func (repo classRepository) AddTest(ctx context.Context, classID primitive.ObjectID, t class.Test) error {
	res, err := repo.coll.UpdateOne(
		ctx,
		bson.M{"_id": classID},
		bson.M{"$push": bson.M{"tests": t}},
	)
	if err != nil {
		return errors.Wrap(err, "adding test to class")
	}
	if res.MatchedCount == 0 {
		return class.ErrNotFound
	}
	return nil
}

// UpsertTestScore writes a single score, replacing a previous score by the
// same student on the same test. Two targeted updates keep this atomic
// without a transaction: the first only matches when a result for the student
// already exists, the second only matches when none does. A concurrent insert
// between the two fails the second match and triggers a retry.
func (repo classRepository) UpsertTestScore(ctx context.Context, classID, testID primitive.ObjectID, r class.Result) error {
	for attempts := 0; attempts < 3; attempts++ {
		// update in place when the student already has a result
		res, err := repo.coll.UpdateOne(
			ctx,
			bson.M{
				"_id":   classID,
				"tests": bson.M{"$elemMatch": bson.M{"_id": testID, "results.studentId": r.StudentID}},
			},
			bson.M{"$set": bson.M{"tests.$[t].results.$[r].score": r.Score}},
			options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
				bson.M{"t._id": testID},
				bson.M{"r.studentId": r.StudentID},
			}}),
		)
		if err != nil {
			return errors.Wrap(err, "updating test score")
		}
		if res.MatchedCount > 0 {
			return nil
		}

		// no result for the student yet, push one
		res, err = repo.coll.UpdateOne(
			ctx,
			bson.M{
				"_id":   classID,
				"tests": bson.M{"$elemMatch": bson.M{"_id": testID, "results.studentId": bson.M{"$ne": r.StudentID}}},
			},
			bson.M{"$push": bson.M{"tests.$.results": r}},
		)
		if err != nil {
			return errors.Wrap(err, "inserting test score")
		}
		if res.MatchedCount > 0 {
			return nil
		}

		// neither matched: the test is gone, or a concurrent writer inserted
		// the student's result between the two updates
		exists, err := repo.testExists(ctx, classID, testID)
		if err != nil {
			return err
		}
		if !exists {
			return class.ErrTestNotFound
		}
	}
	return errors.New("upserting test score: too many contention retries")
}

func (repo classRepository) testExists(ctx context.Context, classID, testID primitive.ObjectID) (bool, error) {
	count, err := repo.coll.CountDocuments(ctx, bson.M{"_id": classID, "tests._id": testID})
	if err != nil {
		return false, errors.Wrap(err, "checking test existence")
	}
	return count > 0, nil
}

func (repo classRepository) RemoveTest(ctx context.Context, classID, testID primitive.ObjectID) (class.Class, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var cls class.Class
	err := repo.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": classID},
		bson.M{"$pull": bson.M{"tests": bson.M{"_id": testID}}},
		opts,
	).Decode(&cls)
	if err != nil {
		return class.Class{}, repo.trapNoDocsErr(err, "removing test from class")
	}
	return cls, nil
}

func (repo classRepository) PullStudentFromClasses(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	res, err := repo.coll.UpdateMany(
		ctx,
		bson.M{"students": studentID},
		bson.M{"$pull": bson.M{"students": studentID}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "pulling student from classes")
	}
	return res.ModifiedCount, nil
}
