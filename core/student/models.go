package student

import (
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core"
)

const defaultAttendance = 100

type Student struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name       string              `json:"name" bson:"name"`
	ClassID    *primitive.ObjectID `json:"class_id,omitempty" bson:"classId,omitempty"` // weak back-reference; nil when unassigned
	Attendance float64             `json:"attendance" bson:"attendance"`
	Notes      string              `json:"notes,omitempty" bson:"notes,omitempty"`
	Yeargroup  string              `json:"yeargroup" bson:"yeargroup"`
}

// NewStudent contains information needed to create a new Student.
// Attendance defaults to 100 when omitted.
type NewStudent struct {
	Name       string   `json:"name" validate:"required"`
	Attendance *float64 `json:"attendance"`
	Notes      string   `json:"notes"`
	Yeargroup  string   `json:"yeargroup" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Yeargroup = core.CleanString(ns.Yeargroup)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing
// Student. Nil fields are left untouched; a pointer to the zero value clears
// the field.
type UpdateStudent struct {
	Name       *string  `json:"name"`
	Notes      *string  `json:"notes"`
	Yeargroup  *string  `json:"yeargroup"`
	Attendance *float64 `json:"attendance"`
}

func (us *UpdateStudent) IsEmpty() bool {
	return us.Name == nil && us.Notes == nil && us.Yeargroup == nil && us.Attendance == nil
}
