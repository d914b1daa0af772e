package httpapi

import (
	"time"

	"github.com/speakfluent/speakfluent/internal/server/models"
)

// Wire DTOs. Field names are the backend contract; the client mirrors them.
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

	errorResponse struct {
		Error string `json:"error"`
	}
)

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

func toConversationResponse(c *models.Conversation, msgs []models.Message) conversationResponse {
	resp := conversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		Scenario:  c.Scenario,
		Level:     c.Level,
		CreatedAt: c.CreatedAt,
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageResponse{
			ID:            m.ID,
			Role:          string(m.Kind),
			Content:       m.Text,
			Pronunciation: m.Pronunciation,
			Feedback:      m.Feedback,
			CreatedAt:     m.CreatedAt,
		})
	}
	return resp
}
