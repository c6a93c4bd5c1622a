package mapping

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed event_to_action.json
var embeddedEventToAction []byte

//go:embed action_to_activity.json
var embeddedActionToActivity []byte

// actionVersion is one time-bounded event-to-action mapping window
type actionVersion struct {
	window
	rules map[string]string // event kind -> action kind
}

// activityVersion is one time-bounded action-to-activity mapping window
type activityVersion struct {
	window
	rules map[string]activityRule // action kind -> activity rule
}

func loadActionVersions(data []byte) ([]actionVersion, error) {
	var raw []rawVersion[string]
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("mapping: parse event_to_action.json: %w", err)
	}
	out := make([]actionVersion, 0, len(raw))
	for _, rv := range raw {
		out = append(out, actionVersion{window: toWindow(rv), rules: rv.Rules})
	}
	return out, nil
}

func loadActivityVersions(data []byte) ([]activityVersion, error) {
	var raw []rawVersion[activityRule]
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("mapping: parse action_to_activity.json: %w", err)
	}
	out := make([]activityVersion, 0, len(raw))
	for _, rv := range raw {
		out = append(out, activityVersion{window: toWindow(rv), rules: rv.Rules})
	}
	return out, nil
}

func toWindow[T any](rv rawVersion[T]) window {
	w := window{validFrom: rv.ValidFrom}
	if rv.ValidUntil != nil {
		w.validUntil = *rv.ValidUntil
	}
	return w
}
