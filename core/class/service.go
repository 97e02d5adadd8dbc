package class

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core"
)

var (
	// errors
	ErrNotFound      = errors.New("class not found")
	ErrTestNotFound  = errors.New("test not found")
	ErrTestExists    = errors.New("test name must be unique within the class")
	ErrNoNewStudents = errors.New("no new valid students to add")

	errNoFields      = errors.New("no fields provided for update")
	errUserIDMissing = errors.New("userId is required")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClassByID(ctx context.Context, id primitive.ObjectID) (Class, error)
		QueryClassesByUserID(ctx context.Context, userID primitive.ObjectID) ([]Class, error)
		// AddStudentsToClass appends ids to the membership list, skipping ids
		// already present (set semantics).
		AddStudentsToClass(ctx context.Context, classID primitive.ObjectID, studentIDs []primitive.ObjectID) error
		// RemoveStudentFromClass pulls the id from the membership list; absence
		// is a no-op.
		RemoveStudentFromClass(ctx context.Context, classID, studentID primitive.ObjectID) error
		// UpdateClassInfo applies the non-nil fields of uc only.
		UpdateClassInfo(ctx context.Context, id primitive.ObjectID, uc UpdateClass) (Class, error)
		DeleteClassByID(ctx context.Context, id primitive.ObjectID) error
		AddTest(ctx context.Context, classID primitive.ObjectID, t Test) error
		// UpsertTestScore overwrites the student's Result within the test if
		// one exists, and appends a new Result otherwise.
		UpsertTestScore(ctx context.Context, classID, testID primitive.ObjectID, r Result) error
		// RemoveTest pulls the test from the class; an unknown test id is a
		// no-op. Returns the post-update Class.
		RemoveTest(ctx context.Context, classID, testID primitive.ObjectID) (Class, error)
	}

	// StudentDirectory is the student-side half of the relationship
	// reconciler: membership writes validate against it and class deletion
	// clears back-references through it.
	StudentDirectory interface {
		// FilterExistingStudentIDs returns the subset of ids that resolve to
		// stored Students, in input order.
		FilterExistingStudentIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
		// GetStudentNames resolves ids to display names; unresolved ids are
		// simply absent from the result.
		GetStudentNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
		// ClearStudentClassRefs unsets classId on every Student pointing at
		// the class and returns the number of students modified.
		ClearStudentClassRefs(ctx context.Context, classID primitive.ObjectID) (int64, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewClass) (Class, error)
		// AddStudents filters the requested ids down to Students that exist
		// and are not already members, then appends them. Returns the ids
		// actually added and the updated class.
		AddStudents(ctx context.Context, as AddStudents) ([]primitive.ObjectID, Info, error)
		Query(ctx context.Context, userID string) ([]Info, error)
		GetByID(ctx context.Context, id string) (Info, error)
		Update(ctx context.Context, id string, uc UpdateClass) (Info, error)
		// Delete removes the Class and clears the classId back-reference on
		// every Student that pointed to it.
		Delete(ctx context.Context, id string) error
		CreateTest(ctx context.Context, nt NewTest) (Test, error)
		UpsertScores(ctx context.Context, us UpdateScores) (Test, error)
		DeleteTest(ctx context.Context, classID, testID string) (Info, error)
		RemoveStudent(ctx context.Context, classID, studentID string) error
	}

	service struct {
		repo     Repository
		students StudentDirectory
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students StudentDirectory, logger core.Logger) Service {
	return &service{
		repo:     repo,
		students: students,
		logger:   logger,
	}
}

func (svc *service) Create(ctx context.Context, nc NewClass) (Class, error) {
	userID, err := primitive.ObjectIDFromHex(nc.UserID)
	if err != nil {
		return Class{}, core.ErrInvalidID
	}
	cls := Class{
		Name:        nc.Name,
		UserID:      userID,
		Description: nc.Description,
		Students:    []primitive.ObjectID{},
		Tests:       []Test{},
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *service) AddStudents(ctx context.Context, as AddStudents) ([]primitive.ObjectID, Info, error) {
	classID, err := primitive.ObjectIDFromHex(as.ClassID)
	if err != nil {
		return nil, Info{}, core.ErrInvalidID
	}
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return nil, Info{}, err
	}

	// malformed and unknown ids are silently dropped; only genuinely new,
	// existing students make it through
	requested := parseObjectIDs(as.StudentIDs)
	valid, err := svc.students.FilterExistingStudentIDs(ctx, requested)
	if err != nil {
		return nil, Info{}, err
	}
	members := make(map[primitive.ObjectID]bool, len(cls.Students))
	for _, id := range cls.Students {
		members[id] = true
	}
	newIDs := make([]primitive.ObjectID, 0, len(valid))
	for _, id := range valid {
		if !members[id] {
			members[id] = true
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return nil, Info{}, core.NewNoOpError(ErrNoNewStudents)
	}

	if err = svc.repo.AddStudentsToClass(ctx, classID, newIDs); err != nil {
		return nil, Info{}, err
	}
	cls, err = svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return nil, Info{}, err
	}
	info, err := svc.resolve(ctx, cls)
	return newIDs, info, err
}

func (svc *service) Query(ctx context.Context, userID string) ([]Info, error) {
	if userID == "" {
		return nil, core.NewValidationError(errUserIDMissing, core.FieldError{
			Field: "userId",
			Error: errUserIDMissing.Error(),
		})
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, core.ErrInvalidID
	}
	classes, err := svc.repo.QueryClassesByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(classes))
	for _, cls := range classes {
		info, err := svc.resolve(ctx, cls)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Info, error) {
	classID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Info{}, core.ErrInvalidID
	}
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return Info{}, err
	}
	return svc.resolve(ctx, cls)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateClass) (Info, error) {
	classID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Info{}, core.ErrInvalidID
	}
	if uc.IsEmpty() {
		return Info{}, core.NewValidationError(errNoFields)
	}
	cls, err := svc.repo.UpdateClassInfo(ctx, classID, uc)
	if err != nil {
		return Info{}, err
	}
	return svc.resolve(ctx, cls)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	classID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.ErrInvalidID
	}
	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		return err
	}
	if err := svc.repo.DeleteClassByID(ctx, classID); err != nil {
		return err
	}

	// best-effort back-reference cleanup; the delete stands even if this fails
	if _, err := svc.students.ClearStudentClassRefs(ctx, classID); err != nil {
		svc.logger.Error(fmt.Sprintf("clearing class refs for class %s: %v", id, err), err)
	}
	return nil
}

func (svc *service) CreateTest(ctx context.Context, nt NewTest) (Test, error) {
	classID, err := primitive.ObjectIDFromHex(nt.ClassID)
	if err != nil {
		return Test{}, core.ErrInvalidID
	}
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return Test{}, err
	}
	if cls.hasTestName(nt.TestName) {
		return Test{}, core.NewConflictError(ErrTestExists, "test_name")
	}

	date := time.Now().UTC()
	if nt.Date != nil {
		date = *nt.Date
	}
	t := Test{
		ID:       primitive.NewObjectID(),
		TestName: nt.TestName,
		Subject:  nt.Subject,
		Date:     date,
		Results:  seedResults(nt.Scores),
	}
	if err = svc.repo.AddTest(ctx, classID, t); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (svc *service) UpsertScores(ctx context.Context, us UpdateScores) (Test, error) {
	classID, err := primitive.ObjectIDFromHex(us.ClassID)
	if err != nil {
		return Test{}, core.ErrInvalidID
	}
	testID, err := primitive.ObjectIDFromHex(us.TestID)
	if err != nil {
		return Test{}, core.ErrInvalidID
	}
	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return Test{}, err
	}
	if _, ok := cls.testByID(testID); !ok {
		return Test{}, ErrTestNotFound
	}

	// per-item upsert: untouched students keep their existing Results
	for _, entry := range us.Scores {
		sid, err := primitive.ObjectIDFromHex(entry.StudentID)
		if err != nil {
			continue
		}
		r := Result{StudentID: sid, Score: entry.Score}
		if err = svc.repo.UpsertTestScore(ctx, classID, testID, r); err != nil {
			return Test{}, err
		}
	}

	cls, err = svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return Test{}, err
	}
	t, ok := cls.testByID(testID)
	if !ok {
		return Test{}, ErrTestNotFound
	}
	return t, nil
}

func (svc *service) DeleteTest(ctx context.Context, classID, testID string) (Info, error) {
	cid, err := primitive.ObjectIDFromHex(classID)
	if err != nil {
		return Info{}, core.ErrInvalidID
	}
	tid, err := primitive.ObjectIDFromHex(testID)
	if err != nil {
		return Info{}, core.ErrInvalidID
	}
	cls, err := svc.repo.RemoveTest(ctx, cid, tid)
	if err != nil {
		return Info{}, err
	}
	return svc.resolve(ctx, cls)
}

func (svc *service) RemoveStudent(ctx context.Context, classID, studentID string) error {
	cid, err := primitive.ObjectIDFromHex(classID)
	if err != nil {
		return core.ErrInvalidID
	}
	sid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return core.ErrInvalidID
	}
	if _, err := svc.repo.GetClassByID(ctx, cid); err != nil {
		return err
	}
	return svc.repo.RemoveStudentFromClass(ctx, cid, sid)
}

// resolve turns a Class into an Info, resolving membership ids to names.
// Dangling ids (eg. after a partial cleanup) are treated as absent.
func (svc *service) resolve(ctx context.Context, cls Class) (Info, error) {
	names, err := svc.students.GetStudentNames(ctx, cls.Students)
	if err != nil {
		return Info{}, err
	}
	refs := make([]StudentRef, 0, len(cls.Students))
	for _, id := range cls.Students {
		if name, ok := names[id]; ok {
			refs = append(refs, StudentRef{ID: id, Name: name})
		}
	}
	tests := cls.Tests
	if tests == nil {
		tests = []Test{}
	}
	return Info{
		ID:          cls.ID,
		Name:        cls.Name,
		UserID:      cls.UserID,
		Description: cls.Description,
		Students:    refs,
		Tests:       tests,
	}, nil
}

func parseObjectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

// seedResults applies upsert semantics to the initial scores so a Test never
// starts with two Results for the same student.
func seedResults(scores []ScoreEntry) []Result {
	results := make([]Result, 0, len(scores))
	for _, entry := range scores {
		sid, err := primitive.ObjectIDFromHex(entry.StudentID)
		if err != nil {
			continue
		}
		replaced := false
		for i := range results {
			if results[i].StudentID == sid {
				results[i].Score = entry.Score
				replaced = true
				break
			}
		}
		if !replaced {
			results = append(results, Result{StudentID: sid, Score: entry.Score})
		}
	}
	return results
}
