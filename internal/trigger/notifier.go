package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tesserdb/tesser/pkg/types"
)

// Event is a committed mutation to announce to the triggers monitoring a
// container.
type Event struct {
	Container string
	Kind      types.TriggerEvent
	Columns   []types.ColumnInfo
	Row       types.Row
}

// Notifier delivers trigger notifications. Delivery is best effort and
// at most once: a single attempt per trigger, no retry, and no ordering
// guarantee across events. Failures are logged and swallowed.
type Notifier struct {
	client *http.Client
	logger *log.Logger
}

// NewNotifier creates a notifier whose HTTP attempts time out after the
// given duration.
func NewNotifier(timeout time.Duration) *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: timeout},
		logger: log.New(log.Writer(), "[trigger] ", log.LstdFlags),
	}
}

// Notify fans an event out to every trigger monitoring its operation kind.
// Monitored-column filters select which row fields appear in the payload;
// a trigger with no column filter delivers the full row.
func (n *Notifier) Notify(ctx context.Context, triggers []types.TriggerInfo, ev Event) {
	for _, trig := range triggers {
		if !trig.Monitors(ev.Kind) {
			continue
		}
		switch trig.Type {
		case types.TriggerREST:
			n.post(ctx, trig, ev)
		case types.TriggerMQ:
			// The embedded engine ships no message broker client.
			n.logger.Printf("skipping MQ trigger %s on %s: no broker configured",
				trig.Name, ev.Container)
		}
	}
}

func (n *Notifier) post(ctx context.Context, trig types.TriggerInfo, ev Event) {
	body, err := json.Marshal(payload(trig, ev))
	if err != nil {
		n.logger.Printf("trigger %s on %s: encode failed: %v", trig.Name, ev.Container, err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, trig.URI, bytes.NewReader(body))
	if err != nil {
		n.logger.Printf("trigger %s on %s: bad request: %v", trig.Name, ev.Container, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Printf("trigger %s on %s: delivery failed: %v", trig.Name, ev.Container, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Printf("trigger %s on %s: destination returned %d",
			trig.Name, ev.Container, resp.StatusCode)
	}
}

// payload builds the notification body. Timestamps are carried as epoch
// milliseconds; blob, geometry and array fields are reduced to empty
// strings.
func payload(trig types.TriggerInfo, ev Event) map[string]interface{} {
	row := make(map[string]interface{})
	for i, col := range ev.Columns {
		if i >= len(ev.Row) {
			break
		}
		if len(trig.Columns) > 0 && !monitorsColumn(trig, col.Name) {
			continue
		}
		row[col.Name] = fieldValue(ev.Row[i])
	}
	return map[string]interface{}{
		"container": ev.Container,
		"event":     ev.Kind.String(),
		"row":       row,
	}
}

// monitorsColumn matches the filter the way monitored columns are
// validated and rebound: case-insensitively.
func monitorsColumn(trig types.TriggerInfo, name string) bool {
	for _, c := range trig.Columns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func fieldValue(v types.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	t := v.Type()
	switch {
	case t == types.Timestamp:
		return v.AsTime().UnixMilli()
	case t == types.Blob || t == types.Geometry || t.IsArray():
		return ""
	case t == types.String:
		return v.AsString()
	case t == types.Bool:
		return v.AsBool()
	case t == types.Float || t == types.Double:
		return v.AsFloat()
	default:
		return v.AsInt()
	}
}
