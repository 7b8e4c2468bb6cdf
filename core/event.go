package core

// Event is a ledger-emitted notification produced as a side effect of a
// successful Operation. It is opaque to the kernel except for its filtering
// fields: every subscribed agent receives every event of a successful
// operation, in execution order, and decides relevance by Emitter and Tags.
// After emission an Event should be treated as immutable.
type Event struct {
	Emitter string   `json:"emitter"`           // Logical source within the engine (e.g. a contract, an account)
	Tags    []string `json:"tags,omitempty"`    // Classification labels for filtering
	Payload []byte   `json:"payload,omitempty"` // Engine-specific encoded body
}

// HasTag reports whether the event carries the given tag.
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FilterEvents returns the subset of events matching any of the given tags.
// With no tags it returns the input unchanged.
func FilterEvents(events []Event, tags ...string) []Event {
	if len(tags) == 0 {
		return events
	}
	var filtered []Event
	for _, ev := range events {
		for _, tag := range tags {
			if ev.HasTag(tag) {
				filtered = append(filtered, ev)
				break
			}
		}
	}
	return filtered
}
