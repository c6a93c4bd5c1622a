package ghevents

import (
	"encoding/json"
	"time"
)

// User is a partial GitHub user or organization document
// Type is "User", "Organization", or "Bot" and drives the orchestrator's
// account-type short circuit (spec.md §4.2/§4.6)
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Actor is the event-embedded subset of a user document
type Actor struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// Repo is the event-embedded subset of a repository document
type Repo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Event is a single entry from the public events timeline
// Payload keeps the event's raw payload object so the Activity Mapper (and
// any future consumer) can read fields this struct does not promote, without
// the Event Source needing to know about them
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Actor     Actor           `json:"actor"`
	Repo      Repo            `json:"repo"`
	Org       *Actor          `json:"org,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}
