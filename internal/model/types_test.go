package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestBiasDecodeBareScalar(t *testing.T) {
	var b Bias
	if err := json.Unmarshal([]byte(`0.25`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Value != 0.25 || b.Wrapped {
		t.Fatalf("unexpected bias: %+v", b)
	}
}

func TestBiasDecodeWrapped(t *testing.T) {
	var b Bias
	if err := json.Unmarshal([]byte(`{"value": -1.5}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Value != -1.5 || !b.Wrapped {
		t.Fatalf("unexpected bias: %+v", b)
	}
}

func TestBiasEncodePreservesForm(t *testing.T) {
	bare, err := json.Marshal(Bias{Value: 2})
	if err != nil {
		t.Fatalf("marshal bare: %v", err)
	}
	if string(bare) != "2" {
		t.Fatalf("bare bias should stay a number: %s", bare)
	}

	wrapped, err := json.Marshal(Bias{Value: 2, Wrapped: true})
	if err != nil {
		t.Fatalf("marshal wrapped: %v", err)
	}
	if string(wrapped) != `{"value":2}` {
		t.Fatalf("wrapped bias should stay an object: %s", wrapped)
	}
}

func TestBiasDecodeRejectsGarbage(t *testing.T) {
	var b Bias
	if err := json.Unmarshal([]byte(`"not a bias"`), &b); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestBothEncodingsNormalizeToSameValue(t *testing.T) {
	var bare, wrapped Bias
	if err := json.Unmarshal([]byte(`0.7`), &bare); err != nil {
		t.Fatalf("bare: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"value":0.7}`), &wrapped); err != nil {
		t.Fatalf("wrapped: %v", err)
	}
	if math.Abs(bare.Value-wrapped.Value) > 1e-12 {
		t.Fatalf("encodings diverge: %f vs %f", bare.Value, wrapped.Value)
	}
}
