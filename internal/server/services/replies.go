package services

import "math/rand"

// The tutor has no speech model wired in; replies come from a fixed candidate
// set so the conversation flow can be exercised end to end. Selection is
// uniform random.
var tutorReplies = []string{
	"That's a great question! Let me think about how to respond in English.",
	"I understand what you're saying. Here's my response in English.",
	"Interesting point! Let me continue our conversation in English.",
	"I appreciate your input. Here's what I think about that topic.",
	"That's a good practice sentence. Let me help you continue the conversation.",
}

var pronunciationHints = []string{
	"Your pronunciation was clear, but try to stress the important words more.",
	"Good rhythm overall. Watch the vowel length in longer words.",
	"Nice clarity. Try linking words together for a more natural flow.",
}

var feedbackHints = []string{
	"Good job! Remember to use complete sentences for better practice.",
	"Well done. Try adding one more detail to each answer.",
	"Keep it up! Varying your sentence openings will sound more natural.",
}

func pickReply() (reply, pronunciation, feedback string) {
	return tutorReplies[rand.Intn(len(tutorReplies))],
		pronunciationHints[rand.Intn(len(pronunciationHints))],
		feedbackHints[rand.Intn(len(feedbackHints))]
}
