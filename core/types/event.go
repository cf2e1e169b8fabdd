package types

import "strings"

// Event is a typed event emitted by a module during a call. Type is
// namespaced by the emitting module, as in "auction.resulted".
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Module returns the namespace of the event type. A type without a
// namespace is its own module.
func (e *Event) Module() string {
	if e == nil {
		return ""
	}
	module, _, _ := strings.Cut(e.Type, ".")
	return module
}
