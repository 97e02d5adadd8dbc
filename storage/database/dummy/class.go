package dummydb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/student"
)

type classRepository struct {
	db *classTable
}

var (
	_ class.Repository        = (*classRepository)(nil) // interface compliance check
	_ student.ClassMembership = (*classRepository)(nil)
)

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db.class}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls.ID = primitive.NewObjectID()
	if cls.Students == nil {
		cls.Students = []primitive.ObjectID{}
	}
	if cls.Tests == nil {
		cls.Tests = []class.Test{}
	}
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClassByID(_ context.Context, id primitive.ObjectID) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryClassesByUserID(_ context.Context, userID primitive.ObjectID) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]class.Class, 0)
	for _, cls := range repo.db.table {
		if cls.UserID == userID {
			classes = append(classes, *cls)
		}
	}
	return classes, nil
}

func (repo *classRepository) AddStudentsToClass(_ context.Context, classID primitive.ObjectID, studentIDs []primitive.ObjectID) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return class.ErrNotFound
	}
	members := make(map[primitive.ObjectID]struct{}, len(cls.Students))
	for _, id := range cls.Students {
		members[id] = struct{}{}
	}
	for _, id := range studentIDs {
		if _, isMember := members[id]; !isMember {
			cls.Students = append(cls.Students, id)
			members[id] = struct{}{}
		}
	}
	return nil
}

func (repo *classRepository) RemoveStudentFromClass(_ context.Context, classID, studentID primitive.ObjectID) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return class.ErrNotFound
	}
	for i, id := range cls.Students {
		if id == studentID {
			cls.Students = append(cls.Students[:i], cls.Students[i+1:]...)
			break
		}
	}
	return nil
}

func (repo *classRepository) UpdateClassInfo(_ context.Context, id primitive.ObjectID, uc class.UpdateClass) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[id]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	if uc.Name != nil {
		cls.Name = *uc.Name
	}
	if uc.Description != nil {
		cls.Description = *uc.Description
	}
	return *cls, nil
}

func (repo *classRepository) DeleteClassByID(_ context.Context, id primitive.ObjectID) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}

func (repo *classRepository) AddTest(_ context.Context, classID primitive.ObjectID, t class.Test) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return class.ErrNotFound
	}
	cls.Tests = append(cls.Tests, t)
	return nil
}

func (repo *classRepository) UpsertTestScore(_ context.Context, classID, testID primitive.ObjectID, r class.Result) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return class.ErrTestNotFound
	}
	for ti := range cls.Tests {
		if cls.Tests[ti].ID != testID {
			continue
		}
		for ri := range cls.Tests[ti].Results {
			if cls.Tests[ti].Results[ri].StudentID == r.StudentID {
				cls.Tests[ti].Results[ri].Score = r.Score
				return nil
			}
		}
		cls.Tests[ti].Results = append(cls.Tests[ti].Results, r)
		return nil
	}
	return class.ErrTestNotFound
}

func (repo *classRepository) RemoveTest(_ context.Context, classID, testID primitive.ObjectID) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cls, ok := repo.db.table[classID]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	for i, t := range cls.Tests {
		if t.ID == testID {
			cls.Tests = append(cls.Tests[:i], cls.Tests[i+1:]...)
			break
		}
	}
	return *cls, nil
}

func (repo *classRepository) PullStudentFromClasses(_ context.Context, studentID primitive.ObjectID) (int64, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var pulled int64
	for _, cls := range repo.db.table {
		for i, id := range cls.Students {
			if id == studentID {
				cls.Students = append(cls.Students[:i], cls.Students[i+1:]...)
				pulled++
				break
			}
		}
	}
	return pulled, nil
}
