package class_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/student"
	dummydb "github.com/trezcool/smartseats/storage/database/dummy"
	testutil "github.com/trezcool/smartseats/tests"
)

func setup(t *testing.T) (class.Service, class.Repository, student.Repository) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	clsRepo := dummydb.NewClassRepository(db)
	stdRepo := dummydb.NewStudentRepository(db)
	svc := class.NewService(clsRepo, stdRepo, testutil.Logger{})
	return svc, clsRepo, stdRepo
}

func strPtr(s string) *string { return &s }

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)

	t.Run("invalid user id", func(t *testing.T) {
		_, err := svc.Create(ctx, class.NewClass{Name: "Maths", UserID: "nope"})
		assert.ErrorIs(t, err, core.ErrInvalidID)
	})

	t.Run("starts with empty members and tests", func(t *testing.T) {
		cls, err := svc.Create(ctx, class.NewClass{Name: "Maths", UserID: primitive.NewObjectID().Hex()})
		require.NoError(t, err)
		assert.NotNil(t, cls.Students)
		assert.Empty(t, cls.Students)
		assert.NotNil(t, cls.Tests)
		assert.Empty(t, cls.Tests)
	})
}

func TestServiceAddStudents(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, stdRepo := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "History", primitive.NewObjectID())
	alice := testutil.CreateStudent(t, stdRepo, "Alice", "Year 9", 100)
	bob := testutil.CreateStudent(t, stdRepo, "Bob", "Year 9", 100)

	t.Run("unknown class", func(t *testing.T) {
		_, _, err := svc.AddStudents(ctx, class.AddStudents{
			ClassID:    primitive.NewObjectID().Hex(),
			StudentIDs: []string{alice.ID.Hex()},
		})
		assert.ErrorIs(t, err, class.ErrNotFound)
	})

	t.Run("malformed and unknown ids are dropped", func(t *testing.T) {
		added, info, err := svc.AddStudents(ctx, class.AddStudents{
			ClassID:    cls.ID.Hex(),
			StudentIDs: []string{"garbage", primitive.NewObjectID().Hex(), alice.ID.Hex()},
		})
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{alice.ID}, added)
		require.Len(t, info.Students, 1)
		assert.Equal(t, "Alice", info.Students[0].Name)
	})

	t.Run("no duplicate membership", func(t *testing.T) {
		added, info, err := svc.AddStudents(ctx, class.AddStudents{
			ClassID:    cls.ID.Hex(),
			StudentIDs: []string{alice.ID.Hex(), bob.ID.Hex()},
		})
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{bob.ID}, added, "only the new member is added")
		assert.Len(t, info.Students, 2)
	})

	t.Run("re-adding only members is a no-op", func(t *testing.T) {
		_, _, err := svc.AddStudents(ctx, class.AddStudents{
			ClassID:    cls.ID.Hex(),
			StudentIDs: []string{alice.ID.Hex(), bob.ID.Hex()},
		})
		var noOpErr *core.NoOpError
		require.ErrorAs(t, err, &noOpErr)
	})
}

func TestServiceQuery(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, _ := setup(t)

	userID := primitive.NewObjectID()
	testutil.CreateClass(t, clsRepo, "Maths", userID)
	testutil.CreateClass(t, clsRepo, "Biology", userID)
	testutil.CreateClass(t, clsRepo, "Other Teacher's", primitive.NewObjectID())

	t.Run("missing userId", func(t *testing.T) {
		_, err := svc.Query(ctx, "")
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("filters by owner", func(t *testing.T) {
		infos, err := svc.Query(ctx, userID.Hex())
		require.NoError(t, err)
		assert.Len(t, infos, 2)
	})

	t.Run("no classes yields empty slice", func(t *testing.T) {
		infos, err := svc.Query(ctx, primitive.NewObjectID().Hex())
		require.NoError(t, err)
		assert.NotNil(t, infos)
		assert.Empty(t, infos)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, _ := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "Geography", primitive.NewObjectID())

	t.Run("empty update is rejected", func(t *testing.T) {
		_, err := svc.Update(ctx, cls.ID.Hex(), class.UpdateClass{})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("partial update", func(t *testing.T) {
		info, err := svc.Update(ctx, cls.ID.Hex(), class.UpdateClass{Description: strPtr("maps and rocks")})
		require.NoError(t, err)
		assert.Equal(t, "Geography", info.Name)
		assert.Equal(t, "maps and rocks", info.Description)
	})
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, stdRepo := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "Doomed Class", primitive.NewObjectID())
	std, err := stdRepo.CreateStudent(ctx, student.Student{
		Name:       "Member",
		Yeargroup:  "Year 9",
		Attendance: 100,
		ClassID:    &cls.ID,
	})
	require.NoError(t, err)
	require.NoError(t, clsRepo.AddStudentsToClass(ctx, cls.ID, []primitive.ObjectID{std.ID}))

	t.Run("unknown class", func(t *testing.T) {
		err := svc.Delete(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, class.ErrNotFound)
	})

	t.Run("delete clears back-references", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, cls.ID.Hex()))

		_, err := svc.GetByID(ctx, cls.ID.Hex())
		assert.ErrorIs(t, err, class.ErrNotFound)

		got, err := stdRepo.GetStudentByID(ctx, std.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ClassID)
	})
}

func TestServiceCreateTest(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, stdRepo := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "Maths", primitive.NewObjectID())
	alice := testutil.CreateStudent(t, stdRepo, "Alice", "Year 9", 100)

	t.Run("date defaults to now", func(t *testing.T) {
		before := time.Now().UTC()
		tst, err := svc.CreateTest(ctx, class.NewTest{
			ClassID:  cls.ID.Hex(),
			TestName: "Algebra Quiz",
			Subject:  "Maths",
		})
		require.NoError(t, err)
		assert.False(t, tst.ID.IsZero())
		assert.False(t, tst.Date.Before(before))
	})

	t.Run("duplicate name in same class conflicts", func(t *testing.T) {
		_, err := svc.CreateTest(ctx, class.NewTest{
			ClassID:  cls.ID.Hex(),
			TestName: "Algebra Quiz",
			Subject:  "Maths",
		})
		var cErr *core.ConflictError
		require.ErrorAs(t, err, &cErr)
	})

	t.Run("same name in another class is fine", func(t *testing.T) {
		other := testutil.CreateClass(t, clsRepo, "Other", primitive.NewObjectID())
		_, err := svc.CreateTest(ctx, class.NewTest{
			ClassID:  other.ID.Hex(),
			TestName: "Algebra Quiz",
			Subject:  "Maths",
		})
		assert.NoError(t, err)
	})

	t.Run("initial scores are deduplicated", func(t *testing.T) {
		tst, err := svc.CreateTest(ctx, class.NewTest{
			ClassID:  cls.ID.Hex(),
			TestName: "Geometry Quiz",
			Subject:  "Maths",
			Scores: []class.ScoreEntry{
				{StudentID: alice.ID.Hex(), Score: 50},
				{StudentID: "garbage", Score: 60},
				{StudentID: alice.ID.Hex(), Score: 70},
			},
		})
		require.NoError(t, err)
		require.Len(t, tst.Results, 1)
		assert.Equal(t, alice.ID, tst.Results[0].StudentID)
		assert.Equal(t, float64(70), tst.Results[0].Score, "last write wins")
	})
}

func TestServiceUpsertScores(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, stdRepo := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "Maths", primitive.NewObjectID())
	alice := testutil.CreateStudent(t, stdRepo, "Alice", "Year 9", 100)
	bob := testutil.CreateStudent(t, stdRepo, "Bob", "Year 9", 100)

	tst, err := svc.CreateTest(ctx, class.NewTest{
		ClassID:  cls.ID.Hex(),
		TestName: "Midterm",
		Subject:  "Maths",
		Scores:   []class.ScoreEntry{{StudentID: alice.ID.Hex(), Score: 55}},
	})
	require.NoError(t, err)

	t.Run("unknown test", func(t *testing.T) {
		_, err := svc.UpsertScores(ctx, class.UpdateScores{
			ClassID: cls.ID.Hex(),
			TestID:  primitive.NewObjectID().Hex(),
			Scores:  []class.ScoreEntry{{StudentID: alice.ID.Hex(), Score: 60}},
		})
		assert.ErrorIs(t, err, class.ErrTestNotFound)
	})

	t.Run("upsert replaces and appends", func(t *testing.T) {
		got, err := svc.UpsertScores(ctx, class.UpdateScores{
			ClassID: cls.ID.Hex(),
			TestID:  tst.ID.Hex(),
			Scores: []class.ScoreEntry{
				{StudentID: alice.ID.Hex(), Score: 80}, // replaces 55
				{StudentID: bob.ID.Hex(), Score: 65},   // appended
			},
		})
		require.NoError(t, err)
		require.Len(t, got.Results, 2, "one Result per student")

		scores := make(map[primitive.ObjectID]float64, len(got.Results))
		for _, r := range got.Results {
			scores[r.StudentID] = r.Score
		}
		assert.Equal(t, float64(80), scores[alice.ID])
		assert.Equal(t, float64(65), scores[bob.ID])
	})

	t.Run("untouched students keep their results", func(t *testing.T) {
		got, err := svc.UpsertScores(ctx, class.UpdateScores{
			ClassID: cls.ID.Hex(),
			TestID:  tst.ID.Hex(),
			Scores:  []class.ScoreEntry{{StudentID: bob.ID.Hex(), Score: 70}},
		})
		require.NoError(t, err)
		require.Len(t, got.Results, 2)
	})
}

func TestServiceDeleteTest(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, _ := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "Maths", primitive.NewObjectID())
	tst, err := svc.CreateTest(ctx, class.NewTest{ClassID: cls.ID.Hex(), TestName: "Final", Subject: "Maths"})
	require.NoError(t, err)

	t.Run("removes the test", func(t *testing.T) {
		info, err := svc.DeleteTest(ctx, cls.ID.Hex(), tst.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, info.Tests)
	})

	t.Run("idempotent", func(t *testing.T) {
		info, err := svc.DeleteTest(ctx, cls.ID.Hex(), tst.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, info.Tests)
	})
}

func TestServiceRemoveStudent(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, stdRepo := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "Maths", primitive.NewObjectID())
	alice := testutil.CreateStudent(t, stdRepo, "Alice", "Year 9", 100)
	require.NoError(t, clsRepo.AddStudentsToClass(ctx, cls.ID, []primitive.ObjectID{alice.ID}))

	t.Run("removes membership", func(t *testing.T) {
		require.NoError(t, svc.RemoveStudent(ctx, cls.ID.Hex(), alice.ID.Hex()))
		got, err := clsRepo.GetClassByID(ctx, cls.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Students)
	})

	t.Run("absent member is a no-op", func(t *testing.T) {
		assert.NoError(t, svc.RemoveStudent(ctx, cls.ID.Hex(), alice.ID.Hex()))
	})
}

func TestServiceResolveDropsDanglingIDs(t *testing.T) {
	ctx := context.Background()
	svc, clsRepo, stdRepo := setup(t)

	cls := testutil.CreateClass(t, clsRepo, "Maths", primitive.NewObjectID())
	alice := testutil.CreateStudent(t, stdRepo, "Alice", "Year 9", 100)
	dangling := primitive.NewObjectID()
	require.NoError(t, clsRepo.AddStudentsToClass(ctx, cls.ID, []primitive.ObjectID{alice.ID, dangling}))

	info, err := svc.GetByID(ctx, cls.ID.Hex())
	require.NoError(t, err)
	require.Len(t, info.Students, 1, "unresolvable member ids are dropped from reads")
	assert.Equal(t, alice.ID, info.Students[0].ID)
}
