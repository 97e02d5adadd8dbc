package slides

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are an AI that generates a thorough, detailed PowerPoint presentation in JSON format.
The presentation must be suitable for a %s class following the %s curriculum.

Topic: %s
Learning Objectives: %s

Return a slides array in valid JSON, like this:
[
    {
        "slideTitle": "Title of Slide",
        "slidePoints": ["Point 1", "Point 2", ...]
    },
    ...
]

Each slide must be detailed, relevant, and clearly organized. Keep bullet points concise but thorough enough for a teacher to use in class.`

func buildPrompt(req Request) string {
	return fmt.Sprintf(promptTemplate, req.YearLevel, req.Course, req.Topic, strings.Join(req.Objectives, "; "))
}
