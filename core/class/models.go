package class

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core"
)

type (
	// Result records one student's score on a Test. At most one Result exists
	// per student within a Test.
	Result struct {
		StudentID primitive.ObjectID `json:"student_id" bson:"studentId"`
		Score     float64            `json:"score" bson:"score"`
	}

	// Test is embedded in its owning Class and has no independent lifecycle.
	Test struct {
		ID       primitive.ObjectID `json:"id" bson:"_id"`
		TestName string             `json:"test_name" bson:"testName"`
		Subject  string             `json:"subject" bson:"subject"`
		Date     time.Time          `json:"date" bson:"date"`
		Results  []Result           `json:"results" bson:"results"`
	}

	Class struct {
		ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
		Name        string               `json:"name" bson:"name"`
		UserID      primitive.ObjectID   `json:"user_id" bson:"userId"`
		Description string               `json:"description,omitempty" bson:"description,omitempty"`
		Students    []primitive.ObjectID `json:"students" bson:"students"` // ordered, no duplicates
		Tests       []Test               `json:"tests" bson:"tests"`
	}

	// StudentRef is a membership entry resolved to a display name.
	StudentRef struct {
		ID   primitive.ObjectID `json:"id"`
		Name string             `json:"name"`
	}

	// Info is a Class with its membership list resolved to names.
	// Identifiers that no longer resolve are dropped.
	Info struct {
		ID          primitive.ObjectID `json:"id"`
		Name        string             `json:"name"`
		UserID      primitive.ObjectID `json:"user_id"`
		Description string             `json:"description,omitempty"`
		Students    []StudentRef       `json:"students"`
		Tests       []Test             `json:"tests"`
	}
)

func (c Class) testByID(id primitive.ObjectID) (Test, bool) {
	for _, t := range c.Tests {
		if t.ID == id {
			return t, true
		}
	}
	return Test{}, false
}

func (c Class) hasTestName(name string) bool {
	for _, t := range c.Tests {
		if t.TestName == name { // exact, case-sensitive
			return true
		}
	}
	return false
}

// Payloads

type NewClass struct {
	Name        string `json:"name" validate:"required"`
	UserID      string `json:"user_id" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

type AddStudents struct {
	ClassID    string   `json:"class_id" validate:"required"`
	StudentIDs []string `json:"student_ids" validate:"required"`
}

func (as *AddStudents) Validate(validate *validator.Validate) error {
	return validate.Struct(as)
}

// UpdateClass defines what information may be provided to modify an existing
// Class. Nil fields are left untouched; a pointer to the zero value clears
// the field.
type UpdateClass struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (uc *UpdateClass) IsEmpty() bool {
	return uc.Name == nil && uc.Description == nil
}

type ScoreEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Score     float64 `json:"score" validate:"min=0,max=100"`
}

type NewTest struct {
	ClassID  string       `json:"class_id" validate:"required"`
	TestName string       `json:"test_name" validate:"required"`
	Subject  string       `json:"subject" validate:"required"`
	Date     *time.Time   `json:"date"`
	Scores   []ScoreEntry `json:"scores" validate:"omitempty,dive"`
}

func (nt *NewTest) Validate(validate *validator.Validate) error {
	nt.TestName = core.CleanString(nt.TestName)
	nt.Subject = core.CleanString(nt.Subject)
	return validate.Struct(nt)
}

type UpdateScores struct {
	ClassID string       `json:"class_id" validate:"required"`
	TestID  string       `json:"test_id" validate:"required"`
	Scores  []ScoreEntry `json:"scores" validate:"required,dive"`
}

func (us *UpdateScores) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}
