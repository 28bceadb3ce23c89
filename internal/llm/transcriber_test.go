package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

type stubAudio struct {
	text string
	err  error
	req  openai.AudioRequest
	body string
}

func (s *stubAudio) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	s.req = req
	data, _ := io.ReadAll(req.Reader)
	s.body = string(data)
	return openai.AudioResponse{Text: s.text}, s.err
}

func TestTranscribe(t *testing.T) {
	stub := &stubAudio{text: " book a table for two "}
	tr := newTranscriber(stub, logging.Discard())

	text, err := tr.Transcribe(context.Background(), strings.NewReader("OggS..."), "voice.ogg")
	require.NoError(t, err)
	assert.Equal(t, "book a table for two", text)
	assert.Equal(t, openai.Whisper1, stub.req.Model)
	assert.Equal(t, "voice.ogg", stub.req.FilePath)
	assert.Equal(t, "OggS...", stub.body)
}

func TestTranscribeErrors(t *testing.T) {
	tr := newTranscriber(&stubAudio{text: ""}, logging.Discard())
	_, err := tr.Transcribe(context.Background(), strings.NewReader("x"), "a.ogg")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))

	tr = newTranscriber(&stubAudio{err: &openai.APIError{HTTPStatusCode: 400, Message: "bad audio"}}, logging.Discard())
	_, err = tr.Transcribe(context.Background(), strings.NewReader("x"), "a.ogg")
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 400, upstream.StatusCode)
}
