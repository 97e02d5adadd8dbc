package openaisvc

import (
	"context"

	gogpt "github.com/sashabaranov/go-openai"

	"github.com/trezcool/smartseats/core"
	"github.com/trezcool/smartseats/core/slides"
)

type textService struct {
	client      *gogpt.Client
	model       string
	temperature float64
}

var _ slides.TextGenerator = (*textService)(nil)

func NewTextService(conf *core.Config) *textService {
	return &textService{
		client:      gogpt.NewClient(conf.OpenAI.APIKey),
		model:       conf.OpenAI.Model,
		temperature: conf.OpenAI.Temperature,
	}
}

func (svc textService) GenerateText(ctx context.Context, prompt string) (string, error) {
	res, err := svc.client.CreateChatCompletion(ctx, gogpt.ChatCompletionRequest{
		Model:       svc.model,
		Temperature: float32(svc.temperature),
		Messages: []gogpt.ChatCompletionMessage{
			{Role: gogpt.ChatMessageRoleSystem, Content: prompt},
		},
	})
	if err != nil {
		return "", core.NewUpstreamError("the AI service is unavailable", err)
	}
	if len(res.Choices) == 0 {
		return "", core.NewUpstreamError("the AI service returned no choices", nil)
	}
	return res.Choices[0].Message.Content, nil
}
