package messaging

import (
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/aria-bots/internal/conversation"
)

func TestNormalize(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]struct {
		req      TwilioWebhookRequest
		wantKind conversation.Kind
		wantRef  string
	}{
		"text":        {req: TwilioWebhookRequest{From: "whatsapp:+1", Body: "hi", NumMedia: "0"}, wantKind: conversation.KindText},
		"no media":    {req: TwilioWebhookRequest{From: "whatsapp:+1", Body: "hi"}, wantKind: conversation.KindText},
		"voice note":  {req: TwilioWebhookRequest{From: "whatsapp:+1", NumMedia: "1", MediaURL0: "https://m/1", MediaContentType0: "audio/ogg"}, wantKind: conversation.KindVoice, wantRef: "https://m/1"},
		"image":       {req: TwilioWebhookRequest{From: "whatsapp:+1", NumMedia: "1", MediaURL0: "https://m/2", MediaContentType0: "image/jpeg"}, wantKind: conversation.KindImage, wantRef: "https://m/2"},
		"other media": {req: TwilioWebhookRequest{From: "whatsapp:+1", NumMedia: "1", MediaURL0: "https://m/3", MediaContentType0: "application/pdf"}, wantKind: conversation.KindMedia, wantRef: "https://m/3"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			msg := Normalize(&tc.req, at)
			if msg.Kind != tc.wantKind {
				t.Fatalf("kind = %q, want %q", msg.Kind, tc.wantKind)
			}
			if msg.MediaRef != tc.wantRef {
				t.Fatalf("media ref = %q, want %q", msg.MediaRef, tc.wantRef)
			}
			if msg.SenderID != tc.req.From || !msg.ReceivedAt.Equal(at) {
				t.Fatalf("unexpected message %+v", msg)
			}
		})
	}
}

func TestMessageTwiML(t *testing.T) {
	doc, err := MessageTwiML("Hello <friend>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := string(doc)
	if !strings.HasPrefix(got, "<?xml") {
		t.Fatalf("missing xml header: %q", got)
	}
	if !strings.HasSuffix(got, "<Response><Message>Hello &lt;friend&gt;</Message></Response>") {
		t.Fatalf("unexpected twiml %q", got)
	}

	empty, err := MessageTwiML("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(string(empty), "<Response></Response>") {
		t.Fatalf("unexpected empty twiml %q", string(empty))
	}
}

func TestWhatsAppAddress(t *testing.T) {
	if got := WhatsAppAddress("+15550001"); got != "whatsapp:+15550001" {
		t.Fatalf("unexpected address %q", got)
	}
	if got := WhatsAppAddress("whatsapp:+15550001"); got != "whatsapp:+15550001" {
		t.Fatalf("prefix should not be doubled, got %q", got)
	}
	if got := WhatsAppAddress(""); got != "" {
		t.Fatalf("expected empty address, got %q", got)
	}
	if got := PhoneNumber("whatsapp:+15550001"); got != "+15550001" {
		t.Fatalf("unexpected phone %q", got)
	}
}
