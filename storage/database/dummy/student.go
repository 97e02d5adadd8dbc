package dummydb

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/student"
)

type studentRepository struct {
	db *studentTable
}

var (
	_ student.Repository     = (*studentRepository)(nil) // interface compliance check
	_ class.StudentDirectory = (*studentRepository)(nil)
)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students
}

func (repo *studentRepository) CheckNameUniqueness(_ context.Context, name, yeargroup string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.db.table {
		if std.Name == name && std.Yeargroup == yeargroup {
			return student.ErrStudentExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	std.ID = primitive.NewObjectID()
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id primitive.ObjectID) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) SearchStudentsByName(_ context.Context, q string) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	q = strings.ToLower(q)
	matches := make([]student.Student, 0)
	for _, std := range repo.query() {
		if strings.Contains(strings.ToLower(std.Name), q) {
			matches = append(matches, std)
		}
	}
	return matches, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, id primitive.ObjectID, us student.UpdateStudent) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	std, ok := repo.db.table[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if us.Name != nil {
		std.Name = *us.Name
	}
	if us.Notes != nil {
		std.Notes = *us.Notes
	}
	if us.Yeargroup != nil {
		std.Yeargroup = *us.Yeargroup
	}
	if us.Attendance != nil {
		std.Attendance = *us.Attendance
	}
	return *std, nil
}

func (repo *studentRepository) DeleteStudentByID(_ context.Context, id primitive.ObjectID) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}

func (repo *studentRepository) FilterExistingStudentIDs(_ context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	existing := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (repo *studentRepository) GetStudentNames(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	names := make(map[primitive.ObjectID]string, len(ids))
	for _, id := range ids {
		if std, ok := repo.db.table[id]; ok {
			names[id] = std.Name
		}
	}
	return names, nil
}

func (repo *studentRepository) ClearStudentClassRefs(_ context.Context, classID primitive.ObjectID) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cleared int64
	for _, std := range repo.db.table {
		if std.ClassID != nil && *std.ClassID == classID {
			std.ClassID = nil
			cleared++
		}
	}
	return cleared, nil
}
