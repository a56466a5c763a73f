package adapter

import (
	"errors"
	"testing"

	"github.com/serhatskywalker/talkytalk/internal/packet"
)

func TestDictAdapterTransformsToCanonicalMap(t *testing.T) {
	a := NewDictAdapter()
	p := &packet.IntentPacket{Intent: packet.IntentQuery, Confidence: 0.7}
	got, err := a.Transform(p)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got["intent"] != "query" {
		t.Errorf("intent = %v, want query", got["intent"])
	}
}

func TestBatchTransformStopsAtFirstError(t *testing.T) {
	failing := &failingAdapter{}

	packets := []*packet.IntentPacket{{}, {}, {}}
	_, err := BatchTransform[struct{}](failing, packets)
	if err == nil {
		t.Fatal("expected BatchTransform to propagate the adapter error")
	}
	if failing.calls != 2 {
		t.Errorf("calls made = %d, want 2 (one success, then the failing call)", failing.calls)
	}
}

type failingAdapter struct {
	calls int
}

func (f *failingAdapter) Name() string { return "failing" }
func (f *failingAdapter) Transform(p *packet.IntentPacket) (struct{}, error) {
	f.calls++
	if f.calls == 2 {
		return struct{}{}, errors.New("boom")
	}
	return struct{}{}, nil
}

func TestCallbackAdapterInvokesCallback(t *testing.T) {
	var got *packet.IntentPacket
	a := NewCallbackAdapter(func(p *packet.IntentPacket) { got = p })
	p := &packet.IntentPacket{Intent: packet.IntentCommand}
	if _, err := a.Transform(p); err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got != p {
		t.Error("expected callback to receive the transformed packet")
	}
}
