package messaging

import (
	"strings"
	"time"

	"github.com/wolfman30/aria-bots/internal/conversation"
)

// Normalize converts a Twilio webhook into the pipeline's canonical message. A
// message with media is a voice note when the first attachment is audio, an image
// when it is an image, and generic media otherwise.
func Normalize(req *TwilioWebhookRequest, receivedAt time.Time) conversation.CanonicalMessage {
	msg := conversation.CanonicalMessage{
		SenderID:   req.From,
		To:         req.To,
		Text:       req.Body,
		Kind:       conversation.KindText,
		ReceivedAt: receivedAt,
	}
	if req.NumMedia == "" || req.NumMedia == "0" {
		return msg
	}

	switch {
	case strings.HasPrefix(req.MediaContentType0, "audio"):
		msg.Kind = conversation.KindVoice
	case strings.HasPrefix(req.MediaContentType0, "image"):
		msg.Kind = conversation.KindImage
	default:
		msg.Kind = conversation.KindMedia
	}
	msg.MediaRef = req.MediaURL0
	msg.MediaType = req.MediaContentType0
	return msg
}
