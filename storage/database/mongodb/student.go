package mongorepos

import (
	"context"
	"regexp"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/student"
)

type studentRepository struct {
	coll *mongo.Collection
}

var (
	_ student.Repository     = (*studentRepository)(nil) // interface compliance check
	_ class.StudentDirectory = (*studentRepository)(nil)
)

func NewStudentRepository(db *mongo.Database) *studentRepository {
	return &studentRepository{coll: db.Collection("students")}
}

func (repo studentRepository) trapNoDocsErr(err error, msg string) error {
	if err == mongo.ErrNoDocuments {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CheckNameUniqueness(ctx context.Context, name, yeargroup string) error {
	count, err := repo.coll.CountDocuments(ctx, bson.M{"name": name, "yeargroup": yeargroup})
	if err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	if count > 0 {
		return student.ErrStudentExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, std); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id primitive.ObjectID) (student.Student, error) {
	var std student.Student
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&std); err != nil {
		return student.Student{}, repo.trapNoDocsErr(err, "getting student by id")
	}
	return std, nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	cur, err := repo.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0)
	if err = cur.All(ctx, &students); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	return students, nil
}

func (repo studentRepository) SearchStudentsByName(ctx context.Context, q string) ([]student.Student, error) {
	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}}
	cur, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "searching students")
	}
	students := make([]student.Student, 0)
	if err = cur.All(ctx, &students); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, id primitive.ObjectID, us student.UpdateStudent) (student.Student, error) {
	set := bson.M{}
	if us.Name != nil {
		set["name"] = *us.Name
	}
	if us.Notes != nil {
		set["notes"] = *us.Notes
	}
	if us.Yeargroup != nil {
		set["yeargroup"] = *us.Yeargroup
	}
	if us.Attendance != nil {
		set["attendance"] = *us.Attendance
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var std student.Student
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&std); err != nil {
		return student.Student{}, repo.trapNoDocsErr(err, "updating student")
	}
	return std, nil
}

func (repo studentRepository) DeleteStudentByID(ctx context.Context, id primitive.ObjectID) error {
	if _, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return nil
}

func (repo studentRepository) FilterExistingStudentIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := repo.coll.Find(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "filtering student ids")
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding student ids")
	}
	existing := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		existing = append(existing, doc.ID)
	}
	return existing, nil
}

func (repo studentRepository) GetStudentNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	cur, err := repo.coll.Find(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "name": 1}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting student names")
	}
	var docs []struct {
		ID   primitive.ObjectID `bson:"_id"`
		Name string             `bson:"name"`
	}
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding student names")
	}
	names := make(map[primitive.ObjectID]string, len(docs))
	for _, doc := range docs {
		names[doc.ID] = doc.Name
	}
	return names, nil
}

func (repo studentRepository) ClearStudentClassRefs(ctx context.Context, classID primitive.ObjectID) (int64, error) {
	res, err := repo.coll.UpdateMany(
		ctx,
		bson.M{"classId": classID},
		bson.M{"$unset": bson.M{"classId": ""}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "clearing student class refs")
	}
	return res.ModifiedCount, nil
}
