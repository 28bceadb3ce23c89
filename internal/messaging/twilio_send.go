package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/aria-bots/pkg/logging"
)

var twilioSendTracer = otel.Tracer("aria.internal.messaging.twilio_send")

const defaultTwilioAPIBase = "https://api.twilio.com"

// maxMediaBytes caps voice note downloads.
const maxMediaBytes = 25 << 20

// TwilioSender posts WhatsApp messages using Twilio's REST API. It is used for replies
// that are produced after the webhook request has already been answered.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	apiBase    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSender builds a sender that sends from the given WhatsApp number.
func NewTwilioSender(accountSID, authToken, fromNumber string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       WhatsAppAddress(fromNumber),
		apiBase:    defaultTwilioAPIBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send delivers body to the WhatsApp address to. It makes a single attempt.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if s.accountSID == "" || s.authToken == "" {
		return errors.New("messaging: twilio credentials missing")
	}
	if to == "" {
		return errors.New("messaging: to required")
	}
	if s.from == "" {
		return errors.New("messaging: from required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("aria.to", to))

	payload := url.Values{}
	payload.Set("To", WhatsAppAddress(to))
	payload.Set("From", s.from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.apiBase, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("messaging: build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("messaging: twilio request: %w", err)
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("messaging: twilio send failed: %s", formatTwilioError(resp.StatusCode, respBody))
		span.RecordError(err)
		return err
	}
	s.logger.Info("twilio whatsapp message sent", "to", to)
	return nil
}

// DownloadMedia fetches a Twilio media URL using the account credentials. The
// caller closes the returned body.
func (s *TwilioSender) DownloadMedia(ctx context.Context, mediaURL string) (io.ReadCloser, string, error) {
	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.media")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("messaging: build media request: %w", err)
	}
	if s.accountSID != "" {
		req.SetBasicAuth(s.accountSID, s.authToken)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, "", fmt.Errorf("messaging: media request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("messaging: media download returned status %d", resp.StatusCode)
		span.RecordError(err)
		return nil, "", err
	}
	return limitedReadCloser{Reader: io.LimitReader(resp.Body, maxMediaBytes), Closer: resp.Body}, resp.Header.Get("Content-Type"), nil
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
