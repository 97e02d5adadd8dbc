package slides

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/smartseats/core"
)

type fakeGen struct {
	response string
	err      error
	prompt   string
}

func (g *fakeGen) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.response, g.err
}

type fakeRenderer struct {
	deck Deck
}

func (r *fakeRenderer) Render(deck Deck) ([]byte, error) {
	r.deck = deck
	return []byte("PK"), nil
}

func TestServiceGenerate(t *testing.T) {
	req := Request{
		Topic:      "Photosynthesis",
		YearLevel:  "Year 8",
		Objectives: StringList{"Explain light reactions", "Describe chlorophyll"},
		Course:     "Biology",
	}

	t.Run("valid response", func(t *testing.T) {
		gen := &fakeGen{response: `[
			{"slideTitle": "Photosynthesis", "slidePoints": []},
			{"slideTitle": "Light Reactions", "slidePoints": ["Light is absorbed by chlorophyll", "Energy is converted"]}
		]`}
		renderer := &fakeRenderer{}
		svc := NewService(gen, renderer)

		pres, err := svc.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Photosynthesis.pptx", pres.Filename)
		assert.NotEmpty(t, pres.Content)
		assert.Contains(t, gen.prompt, "Photosynthesis")
		assert.Contains(t, gen.prompt, "Explain light reactions; Describe chlorophyll")
		require.Len(t, renderer.deck.Slides, 2)
	})

	t.Run("fenced response", func(t *testing.T) {
		gen := &fakeGen{response: "```json\n[{\"slideTitle\": \"Intro\", \"slidePoints\": [\"A point\"]}]\n```"}
		svc := NewService(gen, &fakeRenderer{})

		_, err := svc.Generate(context.Background(), req)
		assert.NoError(t, err)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		gen := &fakeGen{response: "I cannot generate that presentation."}
		svc := NewService(gen, &fakeRenderer{})

		_, err := svc.Generate(context.Background(), req)
		var upErr *core.UpstreamError
		assert.ErrorAs(t, err, &upErr)
	})
}

func TestBuildDeckLayout(t *testing.T) {
	longPoint := ""
	for i := 0; i < 30; i++ {
		longPoint += "lengthy bullet text "
	}
	sls := []Slide{
		{SlideTitle: "My Topic", SlidePoints: nil},
		{SlideTitle: "Details", SlidePoints: []string{longPoint, longPoint, longPoint, longPoint}},
	}

	deck := buildDeck("My Topic", "History", sls)
	require.GreaterOrEqual(t, len(deck.Slides), 3, "overflow should spill onto a continued slide")

	// title slide carries topic and course, no bullets
	first := deck.Slides[0]
	require.Len(t, first.Boxes, 3)
	assert.Equal(t, "My Topic", first.Boxes[0].Text)
	assert.Equal(t, "Course: History", first.Boxes[1].Text)

	// continued slide repeats the title
	assert.Equal(t, "Details (Continued)", deck.Slides[2].Boxes[0].Text)

	// every slide ends with the footer
	for _, s := range deck.Slides {
		last := s.Boxes[len(s.Boxes)-1]
		assert.Equal(t, "Generated by SmartSeats", last.Text)
	}
}

func TestStringListUnmarshal(t *testing.T) {
	var l StringList
	require.NoError(t, l.UnmarshalJSON([]byte(`["a", "b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	var single StringList
	require.NoError(t, single.UnmarshalJSON([]byte(`"just one"`)))
	assert.Equal(t, StringList{"just one"}, single)
}
