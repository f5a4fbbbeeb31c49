package gamelog

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"garagewatch/internal/model"
)

// TimestampLayout is the fixed timestamp format at the head of every
// extractable log line.
const TimestampLayout = "2006.01.02-15.04.05"

const tsPattern = `(\d{4}\.\d{2}\.\d{2}-\d{2}\.\d{2}\.\d{2})`

// One grammar per event kind. Unmatched lines are unrelated log content and
// are skipped without complaint.
var (
	claimRe = regexp.MustCompile(`^` + tsPattern +
		`: \w+ \(entity id: (\d+)\) ownership claimed\. Owner: (\d+) \(([^,)]*), (.+)\)\s*$`)
	destroyedRe = regexp.MustCompile(`^` + tsPattern +
		`: \w+ \(entity id: (\d+)\) has been destroyed\.\s*$`)
	disappearedRe = regexp.MustCompile(`^` + tsPattern +
		`: \w+ \(entity id: (\d+)\) disappeared\.\s*$`)
	expiredRe = regexp.MustCompile(`^` + tsPattern +
		`: \w+ \(entity id: (\d+)\) expired due to inactivity\.\s*$`)
)

// Extract pattern-matches decoded log text into typed events, in line
// order. Line order is not guaranteed to equal timestamp order; consumers
// must not assume monotonicity.
func Extract(text string) []model.Event {
	var events []model.Event

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if m := claimRe.FindStringSubmatch(line); m != nil {
			ev, ok := newEvent(model.EventOwnershipClaimed, m[1], m[2])
			if !ok {
				continue
			}
			ev.ClaimantID = m[3]
			ev.ClaimantName = strings.TrimSpace(m[5])
			events = append(events, ev)
			continue
		}
		if m := destroyedRe.FindStringSubmatch(line); m != nil {
			if ev, ok := newEvent(model.EventDestroyed, m[1], m[2]); ok {
				events = append(events, ev)
			}
			continue
		}
		if m := disappearedRe.FindStringSubmatch(line); m != nil {
			if ev, ok := newEvent(model.EventDisappeared, m[1], m[2]); ok {
				events = append(events, ev)
			}
			continue
		}
		if m := expiredRe.FindStringSubmatch(line); m != nil {
			if ev, ok := newEvent(model.EventInactivityExpired, m[1], m[2]); ok {
				events = append(events, ev)
			}
		}
	}

	return events
}

// newEvent builds an event from matched timestamp and entity id strings. A
// line that matched a grammar but fails to destructure is dropped with a
// log entry, never fatal.
func newEvent(kind model.EventKind, rawTS, rawID string) (model.Event, bool) {
	ts, err := time.Parse(TimestampLayout, rawTS)
	if err != nil {
		log.Printf("[Extractor] Dropping %s line with bad timestamp %q: %v", kind, rawTS, err)
		return model.Event{}, false
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		log.Printf("[Extractor] Dropping %s line with bad entity id %q: %v", kind, rawID, err)
		return model.Event{}, false
	}

	return model.Event{
		Kind:         kind,
		Timestamp:    ts,
		RawTimestamp: rawTS,
		EntityID:     id,
	}, true
}
