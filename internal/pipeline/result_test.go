package pipeline

import "testing"

func TestValueGettersMatchKind(t *testing.T) {
	n := Number(3.5)
	if got := n.Float(0); got != 3.5 {
		t.Errorf("Float() = %v, want 3.5", got)
	}
	if got := n.Int(0); got != 3 {
		t.Errorf("Int() = %v, want 3", got)
	}

	b := Bool(true)
	if got := b.AsBool(false); !got {
		t.Error("AsBool() = false, want true")
	}

	s := String("hello")
	if got := s.AsString(""); got != "hello" {
		t.Errorf("AsString() = %v, want hello", got)
	}
}

func TestValueGettersReturnDefaultOnKindMismatch(t *testing.T) {
	n := Number(1)
	if got := n.AsBool(true); got != true {
		t.Errorf("AsBool() on Number = %v, want default true", got)
	}
	if got := n.AsString("def"); got != "def" {
		t.Errorf("AsString() on Number = %v, want default", got)
	}

	b := Bool(true)
	if got := b.Float(-1); got != -1 {
		t.Errorf("Float() on Bool = %v, want default -1", got)
	}
}

func TestValueRaw(t *testing.T) {
	if Number(2).Raw() != 2.0 {
		t.Error("Raw() on Number mismatch")
	}
	if Bool(true).Raw() != true {
		t.Error("Raw() on Bool mismatch")
	}
	if String("x").Raw() != "x" {
		t.Error("Raw() on String mismatch")
	}
}

func TestAnalysisResultGettersOnNilData(t *testing.T) {
	r := AnalysisResult{}
	if got := r.GetFloat("missing", 9); got != 9 {
		t.Errorf("GetFloat() on nil Data = %v, want 9", got)
	}
	if got := r.GetInt("missing", 9); got != 9 {
		t.Errorf("GetInt() on nil Data = %v, want 9", got)
	}
	if got := r.GetBool("missing", true); got != true {
		t.Errorf("GetBool() on nil Data = %v, want true", got)
	}
	if got := r.GetString("missing", "def"); got != "def" {
		t.Errorf("GetString() on nil Data = %v, want def", got)
	}
}

func TestAnalysisResultGettersFromData(t *testing.T) {
	r := AnalysisResult{Data: map[string]Value{
		"energy":  Number(0.8),
		"active":  Bool(true),
		"label":   String("speech"),
	}}
	if got := r.GetFloat("energy", 0); got != 0.8 {
		t.Errorf("GetFloat(energy) = %v, want 0.8", got)
	}
	if got := r.GetBool("active", false); !got {
		t.Error("GetBool(active) = false, want true")
	}
	if got := r.GetString("label", ""); got != "speech" {
		t.Errorf("GetString(label) = %v, want speech", got)
	}
	if got := r.GetFloat("nope", 42); got != 42 {
		t.Errorf("GetFloat(nope) = %v, want default 42", got)
	}
}

func TestAnalysisResultRawData(t *testing.T) {
	r := AnalysisResult{Data: map[string]Value{"x": Number(1.5)}}
	raw := r.rawData()
	if raw["x"] != 1.5 {
		t.Errorf("rawData()[x] = %v, want 1.5", raw["x"])
	}
}
