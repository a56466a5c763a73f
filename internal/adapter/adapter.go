// Package adapter transforms IntentPackets into formats consumable by
// downstream systems. This package provides the protocol and a few
// general-purpose implementations; integration-specific adapters (LLM
// prompt injection, game engine bridges) live outside this module.
package adapter

import "github.com/serhatskywalker/talkytalk/internal/packet"

// Adapter transforms an IntentPacket into a target representation T.
type Adapter[T any] interface {
	// Name returns a unique adapter name, used for logging and metrics
	// labeling.
	Name() string
	Transform(p *packet.IntentPacket) (T, error)
}

// BatchTransform transforms every packet with adapter a, stopping at the
// first error.
func BatchTransform[T any](a Adapter[T], packets []*packet.IntentPacket) ([]T, error) {
	out := make([]T, 0, len(packets))
	for _, p := range packets {
		v, err := a.Transform(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DictAdapter converts an IntentPacket to its canonical map[string]any
// representation, suitable for JSON serialization.
type DictAdapter struct{}

// NewDictAdapter constructs a DictAdapter.
func NewDictAdapter() *DictAdapter { return &DictAdapter{} }

// Name returns "dict".
func (DictAdapter) Name() string { return "dict" }

// Transform delegates to IntentPacket.ToDict.
func (DictAdapter) Transform(p *packet.IntentPacket) (map[string]any, error) {
	return p.ToDict(), nil
}

// CallbackFunc is invoked once per transformed packet.
type CallbackFunc func(*packet.IntentPacket)

// CallbackAdapter invokes a callback for each packet instead of producing
// a transformed value, useful for event-driven downstream integrations.
type CallbackAdapter struct {
	callback CallbackFunc
}

// NewCallbackAdapter constructs a CallbackAdapter invoking fn for every
// transformed packet.
func NewCallbackAdapter(fn CallbackFunc) *CallbackAdapter {
	return &CallbackAdapter{callback: fn}
}

// Name returns "callback".
func (CallbackAdapter) Name() string { return "callback" }

// Transform invokes the callback and returns struct{}{}.
func (c *CallbackAdapter) Transform(p *packet.IntentPacket) (struct{}, error) {
	if c.callback != nil {
		c.callback(p)
	}
	return struct{}{}, nil
}
