package slides

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/smartseats/core"
)

// StringList unmarshals from either a JSON array of strings or a single
// string, as clients send objectives both ways.
type StringList []string

func (sl *StringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*sl = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*sl = StringList{one}
	return nil
}

// Request describes the presentation to draft.
type Request struct {
	Topic      string     `json:"topic" validate:"required"`
	YearLevel  string     `json:"yearLevel" validate:"required"`
	Objectives StringList `json:"objectives" validate:"required,min=1"`
	Course     string     `json:"course" validate:"required"`
}

func (r *Request) Validate(validate *validator.Validate) error {
	r.Topic = core.CleanString(r.Topic)
	r.YearLevel = core.CleanString(r.YearLevel)
	r.Course = core.CleanString(r.Course)
	return validate.Struct(r)
}

// Slide is one entry of the generator's JSON response.
type Slide struct {
	SlideTitle  string   `json:"slideTitle"`
	SlidePoints []string `json:"slidePoints"`
}

// Presentation is a rendered deck ready for download.
type Presentation struct {
	Filename string
	Content  []byte
}

// Deck layout model. Coordinates and sizes are in inches on a 10x7.5" slide;
// the renderer owns the file format.
type (
	TextBox struct {
		Text     string
		X, Y     float64
		W, H     float64
		FontSize int // points
		Bold     bool
		Bullet   bool
		Align    string // "l" (default) or "ctr"
		Color    string // RRGGBB
		Font     string
	}

	DeckSlide struct {
		Boxes []TextBox
	}

	Deck struct {
		Slides []DeckSlide
	}
)
