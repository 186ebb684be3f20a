package types

// TriggerType identifies the delivery mechanism of a trigger.
type TriggerType int

const (
	// TriggerREST delivers notifications as HTTP POST requests with a
	// JSON payload.
	TriggerREST TriggerType = iota

	// TriggerMQ delivers notifications as messages to a message-queue
	// destination.
	TriggerMQ
)

// String returns the canonical name of the trigger type.
func (t TriggerType) String() string {
	switch t {
	case TriggerREST:
		return "REST"
	case TriggerMQ:
		return "MQ"
	default:
		return "UNKNOWN"
	}
}

// TriggerEvent identifies a monitored row operation kind.
type TriggerEvent int

const (
	// TriggerEventPut fires on row creation and update.
	TriggerEventPut TriggerEvent = iota

	// TriggerEventDelete fires on row removal.
	TriggerEventDelete
)

// String returns the operation name used in notification payloads.
func (e TriggerEvent) String() string {
	switch e {
	case TriggerEventPut:
		return "put"
	case TriggerEventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// TriggerInfo describes a server-side notification rule: on a matching row
// operation the server emits, best-effort and non-transactionally, a
// payload naming the container, the operation, and selected column values.
type TriggerInfo struct {
	// Name identifies the trigger, unique case-insensitively within the
	// container regardless of type or conditions
	Name string

	// Type selects REST or message-queue delivery
	Type TriggerType

	// URI is the notification destination, method://host[:port][/path].
	// REST triggers accept only the http method.
	URI string

	// Events is the set of monitored operation kinds; at least one must
	// be set
	Events []TriggerEvent

	// Columns names the columns whose values are included in the
	// notification payload. Columns that stop resolving after a layout
	// change are pruned from this list; the trigger itself is retained.
	Columns []string

	// DestinationType is the message-queue destination kind, "queue" or
	// "topic". Required for MQ triggers.
	DestinationType string

	// DestinationName is the message-queue destination name. Required
	// for MQ triggers.
	DestinationName string
}

// Clone returns a deep copy of the trigger information.
func (t TriggerInfo) Clone() TriggerInfo {
	cp := t
	if t.Events != nil {
		cp.Events = make([]TriggerEvent, len(t.Events))
		copy(cp.Events, t.Events)
	}
	if t.Columns != nil {
		cp.Columns = make([]string, len(t.Columns))
		copy(cp.Columns, t.Columns)
	}
	return cp
}

// Monitors reports whether the trigger monitors the given event kind.
func (t TriggerInfo) Monitors(event TriggerEvent) bool {
	for _, e := range t.Events {
		if e == event {
			return true
		}
	}
	return false
}
