package models

// Scenario describes one practice setting the user can pick.
type Scenario struct {
	ID      string
	Name    string
	Level   string
	Welcome string
}

// Scenarios is the built-in practice catalog. The welcome text is appended
// as the first assistant message of every new conversation.
var Scenarios = map[string]Scenario{
	"daily_life": {
		ID:      "daily_life",
		Name:    "Daily Life",
		Level:   "beginner",
		Welcome: "Hello! I'm here to practice daily English conversations with you. We can talk about shopping, food, transportation, or anything else from daily life. What would you like to discuss?",
	},
	"workplace": {
		ID:      "workplace",
		Name:    "Workplace",
		Level:   "intermediate",
		Welcome: "Hello! I'll be your professional colleague for this business English practice. We can discuss meetings, projects, or any workplace topics. How can I assist you today?",
	},
	"academic": {
		ID:      "academic",
		Name:    "Academic",
		Level:   "intermediate",
		Welcome: "Welcome to our academic English session! I'm here to help you practice educational discussions. We can talk about studies, research, or any academic topics you're interested in.",
	},
	"travel": {
		ID:      "travel",
		Name:    "Travel",
		Level:   "beginner",
		Welcome: "Hi there! I'll be your travel companion for this English practice. We can discuss hotels, attractions, directions, or any travel-related topics. Where shall we go today?",
	},
	"social": {
		ID:      "social",
		Name:    "Social",
		Level:   "intermediate",
		Welcome: "Hey! Great to see you at this social gathering. Let's practice some casual English conversation. We can chat about hobbies, events, or anything that interests you!",
	},
	"free_talk": {
		ID:      "free_talk",
		Name:    "Free Talk",
		Level:   "adaptive",
		Welcome: "Hello! I'm your adaptive English tutor. I'll adjust to your level and help you improve through natural conversation. What would you like to talk about today?",
	},
}

// DefaultScenario is used when the caller does not pick one.
const DefaultScenario = "free_talk"

// ScenarioByID resolves id, falling back to the default scenario.
func ScenarioByID(id string) Scenario {
	if s, ok := Scenarios[id]; ok {
		return s
	}
	return Scenarios[DefaultScenario]
}
