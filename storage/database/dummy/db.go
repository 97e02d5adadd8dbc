package dummydb

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core/class"
	"github.com/trezcool/smartseats/core/student"
	"github.com/trezcool/smartseats/core/user"
)

type (
	DB struct {
		user    *userTable
		student *studentTable
		class   *classTable
	}

	userTable struct {
		sync.RWMutex
		table map[primitive.ObjectID]*user.User
	}

	studentTable struct {
		sync.RWMutex
		table map[primitive.ObjectID]*student.Student
	}

	classTable struct {
		sync.RWMutex
		table map[primitive.ObjectID]*class.Class
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[primitive.ObjectID]*user.User)},
		student: &studentTable{table: make(map[primitive.ObjectID]*student.Student)},
		class:   &classTable{table: make(map[primitive.ObjectID]*class.Class)},
	}
	return db, nil
}

// Reset drops all data. Test helper.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[primitive.ObjectID]*user.User)
	db.user.Unlock()

	db.student.Lock()
	db.student.table = make(map[primitive.ObjectID]*student.Student)
	db.student.Unlock()

	db.class.Lock()
	db.class.table = make(map[primitive.ObjectID]*class.Class)
	db.class.Unlock()
}
