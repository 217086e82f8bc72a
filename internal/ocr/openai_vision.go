package ocr

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"visaocr/internal/logger"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

const transcribePrompt = `Transcribe every piece of visible text in this screenshot.
Write one text line per output line, in reading order from top to bottom.
Do not summarise, translate, correct or comment. Output only the transcribed text.`

// OpenAIEngine transcribes screenshots with a vision-capable chat model.
type OpenAIEngine struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIEngine creates an engine from an API key and optional model/base URL.
func NewOpenAIEngine(cfg Config) (*OpenAIEngine, error) {
	const op = "NewOpenAIEngine"

	if cfg.OpenAIAPIKey == "" {
		return nil, WrapOCRError(op, ErrMissingCredentials, "OPENAI_API_KEY is required")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	return NewOpenAIEngineWithClient(openai.NewClientWithConfig(clientCfg), cfg.OpenAIModel), nil
}

// NewOpenAIEngineWithClient wraps an existing client.
func NewOpenAIEngineWithClient(client *openai.Client, model string) *OpenAIEngine {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIEngine{
		client: client,
		model:  model,
		log:    logger.WithComponent("ocr.openai"),
	}
}

// Name implements Engine.
func (o *OpenAIEngine) Name() string { return EngineOpenAI }

// Recognize implements Engine.
func (o *OpenAIEngine) Recognize(ctx context.Context, png []byte) (*Result, error) {
	const op = "OpenAIEngine.Recognize"
	start := time.Now()

	if err := checkImage(op, png); err != nil {
		return nil, err
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		MaxTokens:   2000,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: transcribePrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, callError(op, ctx, err, "OpenAI")
	}
	if len(resp.Choices) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no response choices from OpenAI")
	}

	text := resp.Choices[0].Message.Content
	o.log.Debug().
		Str("model", o.model).
		Int("chars", len(text)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("OpenAI transcription finished")

	return newResult(EngineOpenAI, text, 0, start), nil
}

// Close is a no-op; the HTTP client needs no teardown.
func (o *OpenAIEngine) Close() error { return nil }
