// Package httpapi exposes the server's REST surface: registration, token
// login, conversation CRUD, and the multipart chat endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/speakfluent/speakfluent/internal/common"
	"github.com/speakfluent/speakfluent/internal/logging"
	"github.com/speakfluent/speakfluent/internal/server/models"
)

// maxClipBytes bounds one uploaded audio clip (10 MiB).
const maxClipBytes = 10 << 20

// userService is the authentication surface the handlers need.
type userService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Resolve(ctx context.Context, username string) (*models.User, error)
}

// conversationService is the conversation surface the handlers need.
type conversationService interface {
	List(ctx context.Context, ownerID string) ([]models.Conversation, error)
	Create(ctx context.Context, ownerID, title, scenario, level string) (*models.Conversation, error)
	Get(ctx context.Context, id, ownerID string) (*models.Conversation, []models.Message, error)
	Delete(ctx context.Context, id, ownerID string) error
	Chat(ctx context.Context, conversationID, ownerID, username string, clip []byte) (*models.ChatResult, error)
}

type Server struct {
	users         userService
	conversations conversationService
	secretKey     []byte
	logger        logging.Logger
}

func NewServer(us userService, cs conversationService, secretKey []byte, logger logging.Logger) *Server {
	return &Server{users: us, conversations: cs, secretKey: secretKey, logger: logger}
}

// Handler builds the route table. Conversation routes sit behind bearer auth.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /token", s.handleToken)

	mux.Handle("GET /conversations", s.withAuth(s.handleList))
	mux.Handle("POST /conversations", s.withAuth(s.handleCreate))
	mux.Handle("GET /conversations/{id}", s.withAuth(s.handleGet))
	mux.Handle("DELETE /conversations/{id}", s.withAuth(s.handleDelete))
	mux.Handle("POST /conversations/{id}/chat", s.withAuth(s.handleChat))

	return s.withLogging(mux)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	u, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, u *models.User) {
	list, err := s.conversations.List(r.Context(), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]conversationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toConversationResponse(&list[i], nil))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, u *models.User) {
	var req conversationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	conv, err := s.conversations.Create(r.Context(), u.ID, req.Title, req.Scenario, req.Level)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toConversationResponse(conv, nil))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, u *models.User) {
	conv, msgs, err := s.conversations.Get(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toConversationResponse(conv, msgs))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, u *models.User) {
	if err := s.conversations.Delete(r.Context(), r.PathValue("id"), u.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, u *models.User) {
	if err := r.ParseMultipartForm(maxClipBytes); err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}
	defer file.Close()

	clip, err := io.ReadAll(io.LimitReader(file, maxClipBytes))
	if err != nil {
		s.writeError(w, r, common.ErrValidation)
		return
	}

	result, err := s.conversations.Chat(r.Context(), r.PathValue("id"), u.ID, u.Username, clip)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chatResponse{
		Reply:         result.Reply,
		Pronunciation: result.Pronunciation,
		Feedback:      result.Feedback,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "writing response", "error", err)
	}
}

// writeError maps the shared error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
