package coordinator

import (
	"context"
	"maps"
	"slices"

	"github.com/m-mizutani/huddle/pkg/model"
	"github.com/m-mizutani/huddle/pkg/utils/logging"
)

const traceTextLimit = 200

func (c *Coordinator) record(ctx context.Context, action string, payload map[string]any) {
	entry := model.TraceEntry{
		Timestamp: c.now(),
		Actor:     actorName,
		Action:    action,
		Payload:   payload,
	}
	c.trace = append(c.trace, entry)

	logging.From(ctx).Info("trace",
		"session_id", c.sessionID,
		"actor", entry.Actor,
		"action", entry.Action,
		"payload", displayPayload(entry.Payload),
	)
}

func (c *Coordinator) snapshotTrace() []model.TraceEntry {
	return slices.Clone(c.trace)
}

// displayPayload shortens a long "text" field for the log line. The stored
// payload is left untouched.
func displayPayload(payload map[string]any) map[string]any {
	text, ok := payload["text"].(string)
	if !ok {
		return payload
	}
	short, cut := truncate(text, traceTextLimit)
	if !cut {
		return payload
	}

	view := maps.Clone(payload)
	view["text"] = short + "..."
	return view
}

func truncate(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

func headRunes(s string, n int) string {
	head, _ := truncate(s, n)
	return head
}
