package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/speakfluent/speakfluent/internal/audio"
	"github.com/speakfluent/speakfluent/internal/client/models"
	"github.com/speakfluent/speakfluent/internal/common"
)

// Wire DTOs. Field names follow the backend contract.
type (
	credentialsRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	userResponse struct {
		ID        string    `json:"id"`
		Username  string    `json:"username"`
		CreatedAt time.Time `json:"created_at"`
	}

	conversationCreateRequest struct {
		Title    string `json:"title"`
		Scenario string `json:"scenario"`
		Level    string `json:"level"`
	}

	messageResponse struct {
		ID            string    `json:"id"`
		Role          string    `json:"role"`
		Content       string    `json:"content"`
		Pronunciation string    `json:"pronunciation,omitempty"`
		Feedback      string    `json:"feedback,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}

	conversationResponse struct {
		ID        string            `json:"id"`
		Title     string            `json:"title"`
		Scenario  string            `json:"scenario"`
		Level     string            `json:"level"`
		CreatedAt time.Time         `json:"created_at"`
		Messages  []messageResponse `json:"messages,omitempty"`
	}

	chatResponse struct {
		Reply         string `json:"reply"`
		Pronunciation string `json:"pronunciation,omitempty"`
		Feedback      string `json:"feedback,omitempty"`
	}
)

// HTTPClient talks JSON/multipart to the backend over plain HTTP.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for baseURL (e.g. "http://127.0.0.1:8000").
// timeout bounds every request end to end.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/ping", "", nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	return statusErr(resp)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	body, err := jsonBody(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost, "/token", "", body, "application/json")
	if err != nil {
		return "", err
	}
	defer drain(resp)
	if err := statusErr(resp); err != nil {
		return "", err
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: malformed token response: %v", common.ErrRemoteUnavailable, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", common.ErrRemoteUnavailable)
	}
	return tr.AccessToken, nil
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) (*models.User, error) {
	body, err := jsonBody(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/register", "", body, "application/json")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := statusErr(resp); err != nil {
		return nil, err
	}

	var ur userResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("%w: malformed register response: %v", common.ErrRemoteUnavailable, err)
	}
	return &models.User{ID: ur.ID, Username: ur.Username, CreatedAt: ur.CreatedAt}, nil
}

func (c *HTTPClient) ListConversations(ctx context.Context, token string) ([]models.Conversation, error) {
	resp, err := c.do(ctx, http.MethodGet, "/conversations", token, nil, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := statusErr(resp); err != nil {
		return nil, err
	}

	var list []conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: malformed conversation list: %v", common.ErrRemoteUnavailable, err)
	}

	result := make([]models.Conversation, 0, len(list))
	for _, cr := range list {
		result = append(result, cr.toModel())
	}
	return result, nil
}

func (c *HTTPClient) CreateConversation(ctx context.Context, token, title, scenario, level string) (*models.Conversation, error) {
	body, err := jsonBody(conversationCreateRequest{Title: title, Scenario: scenario, Level: level})
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/conversations", token, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := statusErr(resp); err != nil {
		return nil, err
	}

	var cr conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("%w: malformed conversation response: %v", common.ErrRemoteUnavailable, err)
	}
	conv := cr.toModel()
	return &conv, nil
}

func (c *HTTPClient) DeleteConversation(ctx context.Context, token, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/conversations/"+id, token, nil, "")
	if err != nil {
		return err
	}
	defer drain(resp)
	return statusErr(resp)
}

func (c *HTTPClient) History(ctx context.Context, token, id string) ([]models.Message, error) {
	resp, err := c.do(ctx, http.MethodGet, "/conversations/"+id, token, nil, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := statusErr(resp); err != nil {
		return nil, err
	}

	var cr conversationResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("%w: malformed conversation response: %v", common.ErrRemoteUnavailable, err)
	}
	conv := cr.toModel()
	return conv.Messages, nil
}

func (c *HTTPClient) SendAudio(ctx context.Context, token, conversationID string, payload *audio.Payload, scenario string) (*models.ChatReply, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("building multipart request: %w", err)
	}
	if _, err := fw.Write(payload.Data); err != nil {
		return nil, fmt.Errorf("building multipart request: %w", err)
	}
	if err := mw.WriteField("scenario", scenario); err != nil {
		return nil, fmt.Errorf("building multipart request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building multipart request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/conversations/"+conversationID+"/chat", token, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	if err := statusErr(resp); err != nil {
		return nil, err
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: malformed chat response: %v", common.ErrRemoteUnavailable, err)
	}
	return &models.ChatReply{
		Reply:         chat.Reply,
		Pronunciation: chat.Pronunciation,
		Feedback:      chat.Feedback,
	}, nil
}

// do issues one request. Transport-level failures (dial, timeout, context
// deadline) come back as common.ErrRemoteUnavailable so the caller can fall
// back without string matching.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	return resp, nil
}

// statusErr maps non-2xx responses onto the shared error taxonomy.
func statusErr(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", common.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", common.ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: status %d", common.ErrValidation, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", common.ErrRemoteUnavailable, resp.StatusCode)
	}
}

func (cr conversationResponse) toModel() models.Conversation {
	conv := models.Conversation{
		ID:        cr.ID,
		Title:     cr.Title,
		Scenario:  cr.Scenario,
		Level:     cr.Level,
		CreatedAt: cr.CreatedAt,
	}
	for _, m := range cr.Messages {
		kind := models.MessageUser
		if m.Role == "assistant" {
			kind = models.MessageAssistant
		}
		conv.Messages = append(conv.Messages, models.Message{
			ID:            m.ID,
			Kind:          kind,
			Text:          m.Content,
			Pronunciation: m.Pronunciation,
			Feedback:      m.Feedback,
			Timestamp:     m.CreatedAt,
		})
	}
	return conv
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return bytes.NewReader(data), nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
