package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modutalk/talkgate/domain/entities"
	"github.com/modutalk/talkgate/domain/repositories"
)

const defaultRequestTimeout = 10 * time.Second

// APIError represents an error reported by the backend, either through the
// response envelope or as a transport-level failure.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend api error %s (status %d): %s", e.Code, e.Status, e.Message)
}

// apiEnvelope is the backend's uniform response wrapper. A non-2xx HTTP
// status is always an error regardless of the envelope content.
type apiEnvelope struct {
	Result string          `json:"result"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"error"`
}

type createSessionRequest struct {
	ParentTalkID   string `json:"parentTalkId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type appendItemRequest struct {
	SessionID       int64                    `json:"sessionId"`
	SessionItemID   string                   `json:"sessionItemId"`
	SessionItemRole entities.SessionItemRole `json:"sessionItemRole"`
	ContentText     string                   `json:"contentText"`
	ContentType     entities.ContentType     `json:"contentType"`
	IdempotencyKey  string                   `json:"idempotencyKey"`
}

type talkStatusRequest struct {
	TalkID         string `json:"talkId"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// Client talks to the backend's talk session REST API on behalf of one
// authenticated user. It performs no retries; every call carries a fresh
// idempotency key so that transport-level retries upstream of this client
// do not double-apply.
type Client struct {
	baseURL    string
	jwtToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.TalkBackend = (*Client)(nil)

// NewClient creates a backend client scoped to the caller's JWT.
func NewClient(baseURL string, jwtToken string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		jwtToken: jwtToken,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		logger: logger,
	}
}

// CreateSession creates a new talk session under parentTalkID.
func (c *Client) CreateSession(ctx context.Context, parentTalkID string) (*entities.TalkSessionInfo, error) {
	body := createSessionRequest{
		ParentTalkID:   parentTalkID,
		IdempotencyKey: uuid.NewString(),
	}

	var info entities.TalkSessionInfo
	if err := c.post(ctx, "/talk/session", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AppendItem appends one conversation turn to the session's log.
func (c *Client) AppendItem(ctx context.Context, sessionID int64, item entities.SessionItem) error {
	body := appendItemRequest{
		SessionID:       sessionID,
		SessionItemID:   item.ID,
		SessionItemRole: item.Role,
		ContentText:     item.ContentText,
		ContentType:     item.ContentType,
		IdempotencyKey:  uuid.NewString(),
	}
	return c.post(ctx, fmt.Sprintf("/talk/session/%d/item", sessionID), body, nil)
}

// CancelTalk marks the parent talk as cancelled.
func (c *Client) CancelTalk(ctx context.Context, parentTalkID string) error {
	body := talkStatusRequest{
		TalkID:         parentTalkID,
		IdempotencyKey: uuid.NewString(),
	}
	return c.post(ctx, "/talk/cancel", body, nil)
}

// CompleteTalk marks the parent talk as completed.
func (c *Client) CompleteTalk(ctx context.Context, parentTalkID string) error {
	body := talkStatusRequest{
		TalkID:         parentTalkID,
		IdempotencyKey: uuid.NewString(),
	}
	return c.post(ctx, "/talk/complete", body, nil)
}

// post issues one JSON POST and decodes the response envelope into out.
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.jwtToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Error("Backend returned malformed JSON",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &APIError{Code: "E_PARSE", Message: "malformed JSON response", Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if envelope.Error != nil {
			message = envelope.Error.Message
		}
		c.logger.Error("Backend returned HTTP error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message))
		return &APIError{Code: "E_HTTP", Message: message, Status: resp.StatusCode}
	}

	if envelope.Result != "SUCCESS" {
		if envelope.Error == nil {
			return &APIError{Code: "E_UNKNOWN", Message: "error result without error body", Status: resp.StatusCode}
		}
		return &APIError{
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Status:  resp.StatusCode,
		}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode backend response data: %w", err)
		}
	}
	return nil
}
