package services

import (
	"math/rand"

	"github.com/speakfluent/speakfluent/internal/client/models"
)

// Message texts used by the capture/delivery pipeline. The placeholder pair
// marks the user's spoken turn; the backend does not return a transcript, so
// the placeholder settles on a generic voice-message marker.
const (
	PendingUserText = "[processing audio...]"
	VoiceUserText   = "[voice message]"

	// DeliveryFailedText replaces the assistant turn when delivery of an
	// encoded clip fails; the user's turn is kept, never discarded.
	DeliveryFailedText = "Sorry, there was a problem communicating with the server. Please check your connection and try again."
)

// OfflineReplies is the fixed candidate set used for simulated assistant
// replies when the session is offline. Selection is uniform random; the set
// itself is part of the documented behavior, the wording is not.
var OfflineReplies = []string{
	"That's a great question! Let me think about how to respond in English.",
	"I understand what you're saying. Here's my response in English.",
	"Interesting point! Let me continue our conversation in English.",
	"I appreciate your input. Here's what I think about that topic.",
	"That's a good practice sentence. Let me help you continue the conversation.",
}

const (
	offlinePronunciation = "Your pronunciation was clear, but try to stress the important words more."
	offlineFeedback      = "Good job! Remember to use complete sentences for better practice."
)

func simulatedReply() *models.ChatReply {
	return &models.ChatReply{
		Reply:         OfflineReplies[rand.Intn(len(OfflineReplies))],
		Pronunciation: offlinePronunciation,
		Feedback:      offlineFeedback,
	}
}
