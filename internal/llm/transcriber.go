package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

// DefaultTranscriptionModel is the Whisper model used for voice notes.
const DefaultTranscriptionModel = openai.Whisper1

type audioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Transcriber turns voice notes into text with the OpenAI audio API.
type Transcriber struct {
	api     audioClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewTranscriber builds a transcriber against the public OpenAI endpoint.
func NewTranscriber(apiKey string, logger *logging.Logger) *Transcriber {
	return newTranscriber(openai.NewClient(apiKey), logger)
}

func newTranscriber(api audioClient, logger *logging.Logger) *Transcriber {
	if api == nil {
		panic("llm: audio client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Transcriber{api: api, model: DefaultTranscriptionModel, timeout: 2 * time.Minute, logger: logger}
}

// Transcribe uploads audio under filename and returns the recognised text.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.transcribe")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.api.CreateTranscription(callCtx, openai.AudioRequest{
		Model:    t.model,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		classified := classify("transcribe", err)
		span.RecordError(classified)
		return "", classified
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		err := &UpstreamError{Op: "transcribe", Message: "empty transcription", Err: errors.New("empty text")}
		span.RecordError(err)
		return "", err
	}
	t.logger.Debug("voice note transcribed", "chars", len(text))
	return text, nil
}
