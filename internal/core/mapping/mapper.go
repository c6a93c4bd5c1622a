package mapping

import (
	"sort"
	"strings"
	"time"

	"github.com/ryansgi/rabbit/internal/core/ghevents"
	"github.com/ryansgi/rabbit/internal/platform/logger"
)

// Mapper applies the two-stage event-to-action-to-activity transformation.
// It is deterministic and pure: identical inputs always produce identical
// outputs. Load it once and reuse it for every contributor
type Mapper struct {
	actionVersions   []actionVersion
	activityVersions []activityVersion
	log              logger.Logger
}

// Load builds a Mapper from the embedded event_to_action.json and
// action_to_activity.json resources
func Load() (*Mapper, error) {
	av, err := loadActionVersions(embeddedEventToAction)
	if err != nil {
		return nil, err
	}
	tv, err := loadActivityVersions(embeddedActionToActivity)
	if err != nil {
		return nil, err
	}
	return newMapper(av, tv), nil
}

func newMapper(av []actionVersion, tv []activityVersion) *Mapper {
	sort.Slice(av, func(i, j int) bool { return av[i].validFrom.Before(av[j].validFrom) })
	sort.Slice(tv, func(i, j int) bool { return tv[i].validFrom.Before(tv[j].validFrom) })
	return &Mapper{actionVersions: av, activityVersions: tv, log: *logger.Named("mapping")}
}

// selectVersion returns the index of the newest version whose window covers
// t, or false if no version covers it. Versions are pre-sorted ascending by
// validFrom, so the last covering entry is the newest
func selectVersion[T interface{ covers(t time.Time) bool }](versions []T, t time.Time) (int, bool) {
	idx := -1
	for i, v := range versions {
		if v.covers(t) {
			idx = i
		}
	}
	return idx, idx >= 0
}

// Map transforms raw events into activities. Events are first grouped by
// the event-to-action window covering their timestamp, each group is mapped
// independently (actions, then folded into activities), and the resulting
// activity runs are concatenated in window order, preserving overall
// temporal order. Events whose timestamp falls outside every known window,
// or whose kind has no rule in the selected window, are dropped rather than
// raised as an error. Kinds with no rule are counted per kind and logged once
// at debug level; events outside every window are dropped without a count
func (m *Mapper) Map(events []ghevents.Event) []Activity {
	type bucket struct {
		win    window
		events []ghevents.Event
	}
	buckets := make([]*bucket, 0, len(m.actionVersions))
	for _, e := range events {
		idx, ok := selectVersion(m.actionVersions, e.CreatedAt)
		if !ok {
			continue
		}
		v := m.actionVersions[idx]
		var b *bucket
		for _, existing := range buckets {
			if existing.win == v.window {
				b = existing
				break
			}
		}
		if b == nil {
			b = &bucket{win: v.window}
			buckets = append(buckets, b)
		}
		b.events = append(b.events, e)
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].win.validFrom.Before(buckets[j].win.validFrom) })

	unmapped := map[string]int{}
	var all []Activity
	for _, b := range buckets {
		sort.Slice(b.events, func(i, j int) bool { return b.events[i].CreatedAt.Before(b.events[j].CreatedAt) })

		avIdx, ok := selectVersion(m.actionVersions, b.win.validFrom)
		if !ok {
			continue
		}
		actions := mapActions(b.events, m.actionVersions[avIdx].rules, unmapped)

		tvIdx, ok := selectVersion(m.activityVersions, b.win.validFrom)
		if !ok {
			continue
		}
		all = append(all, foldActivities(actions, m.activityVersions[tvIdx].rules)...)
	}

	if len(unmapped) > 0 {
		kinds := make([]string, 0, len(unmapped))
		for k := range unmapped {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		m.log.Debug().Strs("kinds", kinds).Interface("counts", unmapped).
			Msg("Warning: Unused actions")
	}

	return all
}

// mapActions is Stage 1: lookup keyed by event kind; unknown kinds are
// dropped silently but counted in unmapped for the diagnostic warning
func mapActions(events []ghevents.Event, rules map[string]string, unmapped map[string]int) []Action {
	actions := make([]Action, 0, len(events))
	for _, e := range events {
		kind, ok := rules[e.Type]
		if !ok {
			unmapped[e.Type]++
			continue
		}
		repoName := e.Repo.Name
		actor := e.Actor.Login
		actions = append(actions, Action{
			Kind:      kind,
			StartDate: e.CreatedAt,
			Actor:     actor,
			RepoID:    e.Repo.ID,
			RepoName:  repoName,
		})
	}
	return actions
}

// foldActivities is Stage 2: collapses consecutive actions of the same kind
// and repository into a single activity when the rule marks them
// collapsible; unrelated actions pass through as their own activity
func foldActivities(actions []Action, rules map[string]activityRule) []Activity {
	activities := make([]Activity, 0, len(actions))
	var run *Activity
	var runKind string
	var runRepo int64

	flush := func() {
		if run != nil {
			activities = append(activities, *run)
			run = nil
		}
	}

	for _, a := range actions {
		rule, ok := rules[a.Kind]
		if !ok {
			flush()
			continue
		}
		if rule.Collapse && run != nil && runKind == a.Kind && runRepo == a.RepoID {
			continue // extend the existing run; first action's StartDate is kept
		}
		flush()
		run = &Activity{
			Kind:      rule.Activity,
			StartDate: a.StartDate,
			Actor:     a.Actor,
			RepoID:    a.RepoID,
			RepoName:  a.RepoName,
		}
		runKind = a.Kind
		runRepo = a.RepoID
	}
	flush()
	return activities
}

// Owner returns the substring of a "owner/name" repository name before the
// first slash, or "unknown" if the name has no slash
func Owner(repoName string) string {
	if i := strings.IndexByte(repoName, '/'); i >= 0 {
		return repoName[:i]
	}
	return "unknown"
}
