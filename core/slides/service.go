package slides

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/smartseats/core"
)

// layout constants, inches
const (
	maxY            = 6.0 // max vertical space for content
	lineHeight      = 0.3 // height of a single line of text
	maxCharsPerLine = 60  // estimated characters per line for wrapping
	footerText      = "Generated by SmartSeats"
)

type (
	// TextGenerator is any service that can complete a free-form prompt.
	TextGenerator interface {
		GenerateText(ctx context.Context, prompt string) (string, error)
	}

	// DeckRenderer encodes a laid-out Deck into a presentation file.
	DeckRenderer interface {
		Render(deck Deck) ([]byte, error)
	}

	Service interface {
		Generate(ctx context.Context, req Request) (Presentation, error)
	}

	service struct {
		gen      TextGenerator
		renderer DeckRenderer
	}
)

var _ Service = (*service)(nil)

func NewService(gen TextGenerator, renderer DeckRenderer) Service {
	return &service{
		gen:      gen,
		renderer: renderer,
	}
}

func (svc *service) Generate(ctx context.Context, req Request) (Presentation, error) {
	raw, err := svc.gen.GenerateText(ctx, buildPrompt(req))
	if err != nil {
		return Presentation{}, err
	}

	sls, err := parseSlides(raw)
	if err != nil {
		return Presentation{}, core.NewUpstreamError("the AI response was not valid JSON", err)
	}

	content, err := svc.renderer.Render(buildDeck(req.Topic, req.Course, sls))
	if err != nil {
		return Presentation{}, errors.Wrap(err, "rendering deck")
	}
	return Presentation{
		Filename: req.Topic + ".pptx",
		Content:  content,
	}, nil
}

// parseSlides extracts the JSON slides array from the model output,
// tolerating surrounding prose or a markdown code fence.
func parseSlides(raw string) ([]Slide, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array found in response")
	}
	var sls []Slide
	if err := json.Unmarshal([]byte(raw[start:end+1]), &sls); err != nil {
		return nil, err
	}
	return sls, nil
}

// buildDeck lays the generated slides out: a title slide first, then one
// content slide per entry, spilling onto "(Continued)" slides when the
// estimated text height overflows the content area.
func buildDeck(topic, course string, sls []Slide) Deck {
	deck := Deck{Slides: make([]DeckSlide, 0, len(sls))}

	for i, s := range sls {
		slide := DeckSlide{}

		title := s.SlideTitle
		if title == "" {
			title = fmt.Sprintf("Slide %d", i+1)
		}
		titleHeight := estimateHeight(title)

		if i == 0 {
			// title slide
			slide.Boxes = append(slide.Boxes,
				TextBox{Text: topic, X: 1, Y: 1.5, W: 8, H: titleHeight, FontSize: 36, Bold: true, Align: "ctr"},
				TextBox{Text: "Course: " + course, X: 1, Y: 3, W: 8, H: 0.8, FontSize: 24, Align: "ctr"},
			)
			deck.Slides = append(deck.Slides, withFooter(slide))
			continue
		}

		slide.Boxes = append(slide.Boxes, TextBox{
			Text: title, X: 0.5, Y: 0.4, W: 8, H: titleHeight, FontSize: 28, Bold: true,
		})
		currentY := 0.5 + titleHeight + 0.2

		for _, point := range s.SlidePoints {
			textHeight := estimateHeight(point)

			if currentY+textHeight > maxY {
				deck.Slides = append(deck.Slides, withFooter(slide))
				slide = DeckSlide{Boxes: []TextBox{{
					Text: title + " (Continued)", X: 0.5, Y: 0.4, W: 8, H: titleHeight, FontSize: 28, Bold: true,
				}}}
				currentY = 0.5 + titleHeight + 0.2
			}

			slide.Boxes = append(slide.Boxes, TextBox{
				Text: point, X: 0.5, Y: currentY, W: 8, H: textHeight,
				FontSize: 18, Bullet: true, Color: "000000", Font: "Arial",
			})
			currentY += textHeight + 0.25
		}

		deck.Slides = append(deck.Slides, withFooter(slide))
	}

	return deck
}

// estimateHeight guesses the rendered height of wrapped text.
func estimateHeight(text string) float64 {
	lines := math.Ceil(float64(len(text)) / maxCharsPerLine)
	if lines < 1 {
		lines = 1
	}
	return lines * lineHeight
}

func withFooter(slide DeckSlide) DeckSlide {
	slide.Boxes = append(slide.Boxes, TextBox{
		Text: footerText, X: 0, Y: 7, W: 10, H: 0.5, FontSize: 10, Color: "666666", Align: "ctr",
	})
	return slide
}
