package memory

import (
	"encoding/json"
	"fmt"
)

// Render flattens an event into a single embeddable sentence. Known kinds
// get a fixed template; anything else falls back to kind plus compact
// JSON so no event is ever unsearchable.
func Render(kind string, data map[string]any) string {
	switch kind {
	case "app_usage":
		if app, ok := data["app"]; ok {
			return fmt.Sprintf("App launch: %v (duration: %v seconds)", app, data["duration"])
		}
	case "notification":
		if src, ok := data["source"]; ok {
			return fmt.Sprintf("Notification from %v: %v", src, data["subject"])
		}
	case "minigame_complete":
		if game, ok := data["game"]; ok {
			return fmt.Sprintf("Completed minigame: %v (score: %v)", game, data["score"])
		}
	case "user_interaction":
		if action, ok := data["action"]; ok {
			return fmt.Sprintf("User interaction: %v", action)
		}
	case "avatar_mood_change":
		if mood, ok := data["mood"]; ok {
			return fmt.Sprintf("Avatar mood changed to %v", mood)
		}
	case "captured_text":
		if text, ok := data["text"].(string); ok && text != "" {
			return text
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return kind
	}
	return fmt.Sprintf("%s: %s", kind, b)
}
