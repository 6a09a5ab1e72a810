// Package relay carries diagram updates between peers over WebSocket:
// a broadcast hub and HTTP server that persists the shared document,
// and a client that publishes local state and applies remote toggles.
package relay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// legacyIDPrefix is accepted in front of component ids in inbound toggle
// messages; older simulators sent "data-id=comp-sim1".
const legacyIDPrefix = "data-id="

// Toggle is the state update exchanged between peers.
type Toggle struct {
	ID   string `json:"id"`
	IsOn bool   `json:"isOn"`
}

// Encode returns the wire form of t.
func (t Toggle) Encode() []byte {
	data, _ := json.Marshal(t)
	return data
}

// DecodeToggle parses a toggle message. ok is false for messages that are
// valid JSON but not toggles, such as full diagram documents.
func DecodeToggle(data []byte) (t Toggle, ok bool, err error) {
	var raw struct {
		ID   *string `json:"id"`
		IsOn *bool   `json:"isOn"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Toggle{}, false, fmt.Errorf("decode message: %w", err)
	}
	if raw.ID == nil || raw.IsOn == nil {
		return Toggle{}, false, nil
	}
	return Toggle{ID: strings.TrimPrefix(*raw.ID, legacyIDPrefix), IsOn: *raw.IsOn}, true, nil
}

// skipOps are model notifications that are not published: remote toggles
// came from the relay in the first place, and cancel/abort only restore
// state that was never published.
var skipOps = map[string]bool{
	"remote-toggle": true,
	"cancel":        true,
	"abort":         true,
}

// Publishable reports whether a change with op should be sent to peers.
func Publishable(op string) bool {
	return !skipOps[op]
}

// EncodeState returns the wire form of a full diagram.
func EncodeState(s *diagram.State) ([]byte, error) {
	return json.Marshal(s)
}
