package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/speakfluent/speakfluent/internal/audio"
	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/logging"
	"github.com/speakfluent/speakfluent/internal/server/config"
	"github.com/speakfluent/speakfluent/internal/server/models"
	"github.com/speakfluent/speakfluent/internal/server/services"
)

type memUserRepo struct {
	users map[string]*models.User
}

func (r *memUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, ok := r.users[u.Username]; ok {
		return nil, common.ErrAlreadyExists
	}
	u.ID = fmt.Sprintf("u%d", len(r.users)+1)
	u.CreatedAt = time.Now()
	r.users[u.Username] = u
	return u, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

type memConvRepo struct {
	convs    map[string]*models.Conversation
	messages map[string][]models.Message
	nextID   int
}

func (r *memConvRepo) Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	r.nextID++
	c.ID = fmt.Sprintf("c%d", r.nextID)
	c.CreatedAt = time.Now()
	r.convs[c.ID] = c
	return c, nil
}

func (r *memConvRepo) GetAllByOwner(ctx context.Context, ownerID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range r.convs {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memConvRepo) GetByID(ctx context.Context, id, ownerID string) (*models.Conversation, error) {
	c, ok := r.convs[id]
	if !ok || c.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return c, nil
}

func (r *memConvRepo) DeleteByID(ctx context.Context, id, ownerID string) error {
	c, ok := r.convs[id]
	if !ok || c.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(r.convs, id)
	delete(r.messages, id)
	return nil
}

func (r *memConvRepo) AddTurn(ctx context.Context, userMsg, tutorMsg *models.Message) error {
	for _, m := range []*models.Message{userMsg, tutorMsg} {
		m.ID = fmt.Sprintf("m%d", len(r.messages[m.ConversationID])+1)
		m.CreatedAt = time.Now()
		r.messages[m.ConversationID] = append(r.messages[m.ConversationID], *m)
	}
	return nil
}

func (r *memConvRepo) MessagesByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	return r.messages[conversationID], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	logger := logging.NewTextLogger(io.Discard, slog.LevelError)

	us := services.NewUserService(&memUserRepo{users: map[string]*models.User{}}, cfg)
	cs := services.NewConversationService(
		&memConvRepo{convs: map[string]*models.Conversation{}, messages: map[string][]models.Message{}},
		nil, logger)

	srv := NewServer(us, cs, []byte(cfg.SecretKey), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func registerAndLogin(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	resp := postJSON(t, ts.URL+"/register", credentialsRequest{Username: username, Password: "password1"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/token", credentialsRequest{Username: username, Password: "password1"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var tr tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	require.NotEmpty(t, tr.AccessToken)
	return tr.AccessToken
}

func TestRegisterLoginFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")
	require.NotEmpty(t, token)

	// Duplicate registration conflicts.
	resp := postJSON(t, ts.URL+"/register", credentialsRequest{Username: "alice", Password: "password1"}, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password is unauthorized.
	resp = postJSON(t, ts.URL+"/token", credentialsRequest{Username: "alice", Password: "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestConversations_RequireAuth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/conversations")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestConversationCRUDAndChat(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	// Create.
	resp := postJSON(t, ts.URL+"/conversations",
		conversationCreateRequest{Title: "Practice", Scenario: "free_talk", Level: "adaptive"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var conv conversationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
	resp.Body.Close()
	require.NotEmpty(t, conv.ID)

	// Chat.
	clip, err := audio.Encode([]float32{0.1, -0.2, 0.3}, audio.DefaultFormat)
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "recording.wav")
	require.NoError(t, err)
	_, err = fw.Write(clip.Data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("scenario", "free_talk"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/conversations/"+conv.ID+"/chat", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var chat chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chat))
	resp.Body.Close()
	require.NotEmpty(t, chat.Reply)

	// History holds the user turn and the tutor turn.
	req, err = http.NewRequest(http.MethodGet, ts.URL+"/conversations/"+conv.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var full conversationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&full))
	resp.Body.Close()
	require.Len(t, full.Messages, 2)
	require.Equal(t, "user", full.Messages[0].Role)
	require.Equal(t, "assistant", full.Messages[1].Role)
	require.Equal(t, chat.Reply, full.Messages[1].Content)

	// Delete.
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/conversations/"+conv.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Deleting again is a 404.
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/conversations/"+conv.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOwnershipIsolationOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := registerAndLogin(t, ts, "alice")
	bobToken := registerAndLogin(t, ts, "bob")

	resp := postJSON(t, ts.URL+"/conversations",
		conversationCreateRequest{Title: "Alice only", Scenario: "travel", Level: "beginner"}, aliceToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var conv conversationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
	resp.Body.Close()

	// Bob cannot see or delete Alice's conversation.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/conversations/"+conv.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	got, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, got.StatusCode)
	got.Body.Close()

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/conversations", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	got, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var list []conversationResponse
	require.NoError(t, json.NewDecoder(got.Body).Decode(&list))
	got.Body.Close()
	require.Empty(t, list)
}

func TestChatRejectsMalformedClip(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp := postJSON(t, ts.URL+"/conversations",
		conversationCreateRequest{Title: "Practice", Scenario: "free_talk", Level: "adaptive"}, token)
	var conv conversationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
	resp.Body.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "recording.wav")
	require.NoError(t, err)
	_, err = fw.Write([]byte("definitely not wav"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/conversations/"+conv.ID+"/chat", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
