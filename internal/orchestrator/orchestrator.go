// Package orchestrator drives the per-contributor classification loop: an
// account-type short circuit, cumulative event accumulation, mapping,
// feature extraction and classification, with early stopping on confidence
package orchestrator

import (
	"context"
	"iter"

	"github.com/ryansgi/rabbit/internal/core/classifier"
	"github.com/ryansgi/rabbit/internal/core/features"
	"github.com/ryansgi/rabbit/internal/core/ghevents"
	"github.com/ryansgi/rabbit/internal/core/mapping"
	"github.com/ryansgi/rabbit/internal/platform/logger"
)

// UserType is the final classification assigned to one contributor
type UserType string

const (
	Bot          UserType = "Bot"
	Human        UserType = "Human"
	Organization UserType = "Organization"
	Unknown      UserType = "Unknown"
	Invalid      UserType = "Invalid"
)

// ContributorResult is the per-login outcome of the classification loop.
// Confidence is meaningful only when HasConfidence is true; the Python
// source's "-" sentinel becomes HasConfidence == false. Features is the
// feature row that produced the result, present only when a classifier
// call actually happened (HasFeatures)
type ContributorResult struct {
	Contributor   string
	UserType      UserType
	Confidence    float64
	HasConfidence bool
	Features      features.Row
	HasFeatures   bool
}

// Config controls pagination and early stopping. Start from DefaultConfig
// and override individual fields; MinEvents and MaxQueries fall back to
// their defaults when non-positive, but MinConfidence is never defaulted,
// only clamped to [0, 1] (so 0 early-stops on the very first tentative
// result). With the default MinConfidence of 1.0 only a perfectly confident
// result stops early, so pagination usually runs until a short page or
// MaxQueries
type Config struct {
	MinEvents     int
	MinConfidence float64
	MaxQueries    int
	NoWait        bool
}

// DefaultConfig returns the defaults named in spec.md §4.6
func DefaultConfig() Config {
	return Config{MinEvents: 5, MinConfidence: 1.0, MaxQueries: 3}
}

// normalize applies the CLI collaborator's upper guards (min_events <= 300,
// max_queries <= 3) and falls back to defaults for non-positive pagination
// parameters, which have no sensible zero value
func (c Config) normalize() Config {
	switch {
	case c.MinEvents <= 0:
		c.MinEvents = 5
	case c.MinEvents > 300:
		c.MinEvents = 300
	}
	switch {
	case c.MaxQueries <= 0:
		c.MaxQueries = 3
	case c.MaxQueries > 3:
		c.MaxQueries = 3
	}
	if c.MinConfidence < 0 {
		c.MinConfidence = 0
	} else if c.MinConfidence > 1 {
		c.MinConfidence = 1
	}
	return c
}

// Orchestrator wires the Event Source, Activity Mapper and Classifier
// together. One instance is built per run and its Predictor is reused for
// every contributor
type Orchestrator struct {
	client    *ghevents.Client
	mapper    *mapping.Mapper
	predictor classifier.Predictor
	cfg       Config
}

// New builds an Orchestrator. predictor must already have a model loaded
func New(client *ghevents.Client, mapper *mapping.Mapper, predictor classifier.Predictor, cfg Config) *Orchestrator {
	return &Orchestrator{client: client, mapper: mapper, predictor: predictor, cfg: cfg.normalize()}
}

func (o *Orchestrator) fetchOpts() ghevents.FetchOptions {
	return ghevents.FetchOptions{NoWait: o.cfg.NoWait}
}

// Run returns a lazy, pull-based sequence of one ContributorResult per
// login. A propagated error terminates the sequence immediately after being
// yielded; NotFoundError and per-login pagination/classification results do
// not terminate it, since spec.md §4.6 absorbs NotFoundError into an
// Invalid result and treats everything else as a per-login outcome
func (o *Orchestrator) Run(ctx context.Context, logins []string) iter.Seq2[ContributorResult, error] {
	return func(yield func(ContributorResult, error) bool) {
		for _, login := range logins {
			if err := ctx.Err(); err != nil {
				yield(ContributorResult{}, err)
				return
			}
			result, err := o.classifyOne(ctx, login)
			if err != nil {
				yield(ContributorResult{}, err)
				return
			}
			if !yield(result, nil) {
				return
			}
		}
	}
}

// classifyOne runs the full per-login state machine described in spec.md
// §4.6. A non-nil error means a RabbitErrors-class failure other than
// NotFoundError, which the caller must propagate and stop on. ctx is
// tagged with login as its request-scoped field so every log line the
// orchestrator emits through logger.C while classifying this contributor
// carries it; the Event Source and Mapper log through their own named
// loggers, which do not
func (o *Orchestrator) classifyOne(ctx context.Context, login string) (ContributorResult, error) {
	ctx = logger.WithRequest(ctx, login, "")
	log := logger.C(ctx)

	user, err := o.client.UserByLogin(ctx, login, o.fetchOpts())
	if err != nil {
		if ghevents.IsNotFound(err) {
			log.Debug().Msg("orchestrator: account not found, classifying as Invalid")
			return ContributorResult{Contributor: login, UserType: Invalid}, nil
		}
		return ContributorResult{}, err
	}

	switch accountType(user) {
	case "Organization":
		log.Debug().Msg("orchestrator: account type Organization, skipping event fetch")
		return ContributorResult{Contributor: login, UserType: Organization, Confidence: 1.0, HasConfidence: true}, nil
	case "Bot":
		log.Debug().Msg("orchestrator: account type Bot, skipping event fetch")
		return ContributorResult{Contributor: login, UserType: Bot, Confidence: 1.0, HasConfidence: true}, nil
	}

	return o.classifyFromEvents(ctx, login)
}

// accountType returns the upstream account type, defaulting to "Unknown"
// when the field is absent, per spec.md §4.2's query_user_type contract
func accountType(u ghevents.User) string {
	if u.Type == "" {
		return "Unknown"
	}
	return u.Type
}

// classifyFromEvents implements spec.md §4.6 steps 2-3: accumulate events
// until min_events is met, map and classify after every sufficient batch,
// and stop early the moment a tentative result meets min_confidence
func (o *Orchestrator) classifyFromEvents(ctx context.Context, login string) (ContributorResult, error) {
	log := logger.C(ctx)
	var cumulative []ghevents.Event
	var tentative *ContributorResult

	for batch, err := range o.client.Events(ctx, login, o.cfg.MaxQueries, o.fetchOpts()) {
		if err != nil {
			if ghevents.IsNotFound(err) {
				return ContributorResult{Contributor: login, UserType: Invalid}, nil
			}
			return ContributorResult{}, err
		}

		cumulative = append(cumulative, batch...)
		if len(cumulative) < o.cfg.MinEvents {
			continue
		}

		activities := o.mapper.Map(cumulative)
		if len(activities) == 0 {
			continue
		}

		row, err := features.Extract(login, activities)
		if err != nil {
			return ContributorResult{}, err
		}
		res, err := o.predictor.Predict(row)
		if err != nil {
			return ContributorResult{}, err
		}

		result := ContributorResult{
			Contributor:   login,
			UserType:      UserType(res.Label),
			Confidence:    res.Confidence,
			HasConfidence: true,
			Features:      row,
			HasFeatures:   true,
		}
		tentative = &result
		if res.Confidence >= o.cfg.MinConfidence {
			log.Debug().Str("user_type", string(result.UserType)).Float64("confidence", result.Confidence).
				Msg("orchestrator: confidence threshold met, stopping early")
			return result, nil
		}
	}

	if len(cumulative) < o.cfg.MinEvents {
		log.Debug().Int("events", len(cumulative)).Msg("orchestrator: min_events never reached, classifying as Unknown")
		return ContributorResult{Contributor: login, UserType: Unknown}, nil
	}
	if tentative != nil {
		return *tentative, nil
	}
	return ContributorResult{Contributor: login, UserType: Unknown}, nil
}
