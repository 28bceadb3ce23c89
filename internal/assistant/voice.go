package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/aria-bots/internal/conversation"
	"github.com/wolfman30/aria-bots/internal/i18n"
	"github.com/wolfman30/aria-bots/internal/users"
	"github.com/wolfman30/aria-bots/internal/worker"
)

// handleVoice transcribes a voice note, acknowledges it right away, and answers it
// later through the REST sender once the model replies.
func (s *Service) handleVoice(ctx context.Context, user *users.User, msg conversation.CanonicalMessage) string {
	text, err := s.transcribe(ctx, msg)
	if err != nil {
		s.Logger.Warn("voice transcription failed", "sender", msg.SenderID, "error", err)
		return s.Translator.T(user.Language, i18n.KeyVoiceFailed)
	}

	if s.Dispatcher == nil || s.Sender == nil {
		reply, err := s.respond(ctx, user, text)
		if err != nil {
			s.Logger.Error("voice reply failed", "sender", msg.SenderID, "error", err)
			return s.Translator.T(user.Language, i18n.KeyError)
		}
		return reply
	}

	detached := *user
	task := worker.Task{
		Name: "voice_reply",
		Key:  msg.SenderID,
		Run: func(taskCtx context.Context) error {
			reply, err := s.respond(taskCtx, &detached, text)
			if err != nil {
				return err
			}
			err = s.Sender.Send(taskCtx, msg.SenderID, reply)
			s.Metrics.ObserveOutbound(pipeline, err)
			return err
		},
	}
	if err := s.Dispatcher.Submit(task); err != nil {
		s.Logger.Error("failed to schedule voice reply", "sender", msg.SenderID, "error", err)
		return s.Translator.T(user.Language, i18n.KeyError)
	}
	return s.Translator.T(user.Language, i18n.KeyVoiceHeard, text)
}

func (s *Service) transcribe(ctx context.Context, msg conversation.CanonicalMessage) (string, error) {
	if s.Transcriber == nil || s.Media == nil {
		return "", errors.New("assistant: voice transcription not configured")
	}
	body, contentType, err := s.Media.DownloadMedia(ctx, msg.MediaRef)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if contentType == "" {
		contentType = msg.MediaType
	}
	text, err := s.Transcriber.Transcribe(ctx, body, "voice"+audioExtension(contentType))
	if err != nil {
		return "", fmt.Errorf("assistant: transcribe: %w", err)
	}
	return text, nil
}

func audioExtension(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch contentType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/webm":
		return ".webm"
	default:
		return ".ogg"
	}
}
