package student

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrStudentExists = errors.New("a student with the same name and year group already exists")

	errAttendanceRange = errors.New("attendance must be between 0 and 100")
)

type (
	Repository interface {
		// CheckNameUniqueness reports ErrStudentExists if a Student with the
		// same (name, yeargroup) pair exists.
		CheckNameUniqueness(ctx context.Context, name, yeargroup string) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id primitive.ObjectID) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		// SearchStudentsByName does a case-insensitive substring match on name.
		// The query string is matched literally.
		SearchStudentsByName(ctx context.Context, q string) ([]Student, error)
		// UpdateStudent applies the non-nil fields of us only.
		UpdateStudent(ctx context.Context, id primitive.ObjectID, us UpdateStudent) (Student, error)
		DeleteStudentByID(ctx context.Context, id primitive.ObjectID) error
	}

	// ClassMembership is the class-side half of the relationship reconciler:
	// it keeps Class.students lists consistent when a Student goes away.
	ClassMembership interface {
		// PullStudentFromClasses removes the student id from every class
		// membership list containing it and returns the number of classes
		// modified.
		PullStudentFromClasses(ctx context.Context, studentID primitive.ObjectID) (int64, error)
	}

	Service interface {
		Add(ctx context.Context, ns NewStudent) (Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
		Search(ctx context.Context, q string) ([]Student, error)
		Update(ctx context.Context, id string, us UpdateStudent) (Student, error)
		// Delete removes the Student and pulls its id from every Class that
		// referenced it, returning the number of classes modified.
		Delete(ctx context.Context, id string) (int64, error)
	}

	service struct {
		repo    Repository
		classes ClassMembership
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, classes ClassMembership, logger core.Logger) Service {
	return &service{
		repo:    repo,
		classes: classes,
		logger:  logger,
	}
}

func (svc *service) Add(ctx context.Context, ns NewStudent) (Student, error) {
	attendance := float64(defaultAttendance)
	if ns.Attendance != nil {
		if err := checkAttendance(*ns.Attendance); err != nil {
			return Student{}, err
		}
		attendance = *ns.Attendance
	}

	if err := svc.repo.CheckNameUniqueness(ctx, ns.Name, ns.Yeargroup); err != nil {
		if err == ErrStudentExists {
			return Student{}, core.NewConflictError(err, "name")
		}
		return Student{}, err
	}

	std := Student{
		Name:       ns.Name,
		Attendance: attendance,
		Notes:      ns.Notes,
		Yeargroup:  ns.Yeargroup,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Student{}, core.ErrInvalidID
	}
	return svc.repo.GetStudentByID(ctx, oid)
}

func (svc *service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *service) Search(ctx context.Context, q string) ([]Student, error) {
	q = core.CleanString(q)
	if q == "" {
		return []Student{}, nil
	}
	return svc.repo.SearchStudentsByName(ctx, q)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Student{}, core.ErrInvalidID
	}
	if us.Attendance != nil {
		if err := checkAttendance(*us.Attendance); err != nil {
			return Student{}, err
		}
	}
	if us.IsEmpty() {
		return svc.repo.GetStudentByID(ctx, oid)
	}
	return svc.repo.UpdateStudent(ctx, oid, us)
}

func (svc *service) Delete(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, core.ErrInvalidID
	}
	if _, err := svc.repo.GetStudentByID(ctx, oid); err != nil {
		return 0, err
	}
	if err := svc.repo.DeleteStudentByID(ctx, oid); err != nil {
		return 0, err
	}

	// best-effort membership cleanup; the delete stands even if this fails
	modified, err := svc.classes.PullStudentFromClasses(ctx, oid)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("pulling student %s from classes: %v", id, err), err)
		return 0, nil
	}
	return modified, nil
}

func checkAttendance(attendance float64) error {
	if attendance < 0 || attendance > 100 {
		return core.NewValidationError(errAttendanceRange, core.FieldError{
			Field: "attendance",
			Error: errAttendanceRange.Error(),
		})
	}
	return nil
}
