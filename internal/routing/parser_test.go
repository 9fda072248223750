package routing

import (
	"errors"
	"testing"
)

func TestExtractDecision_CleanObject(t *testing.T) {
	d, err := ExtractDecision(`{"sector":"TECHNICAL","intention":"slow_connection","confidence":0.92,"parameters":{"symptom":"internet lenta"}}`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Sector != SectorTechnical {
		t.Fatalf("expected TECHNICAL, got %q", d.Sector)
	}
	if d.Confidence != 0.92 {
		t.Fatalf("expected confidence 0.92, got %v", d.Confidence)
	}
	if d.Parameters["symptom"] != "internet lenta" {
		t.Fatalf("expected extracted parameter, got %+v", d.Parameters)
	}
}

func TestExtractDecision_SurroundingProse(t *testing.T) {
	text := "Sure! Based on the message, here is my classification:\n" +
		`{"sector": "billing", "intention": "second_invoice_copy", "confidence": 0.85}` +
		"\nLet me know if you need anything else."
	d, err := ExtractDecision(text)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Sector != SectorBilling {
		t.Fatalf("expected BILLING (case-insensitive), got %q", d.Sector)
	}
}

func TestExtractDecision_SkipsMalformedSpanBeforeRealObject(t *testing.T) {
	text := `{not json} then {"sector":"SALES","intention":"upgrade","confidence":0.7}`
	d, err := ExtractDecision(text)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Sector != SectorSales {
		t.Fatalf("expected SALES, got %q", d.Sector)
	}
}

func TestExtractDecision_NoObject(t *testing.T) {
	_, err := ExtractDecision("I could not decide which sector fits, sorry.")
	if !errors.Is(err, ErrNoDecision) {
		t.Fatalf("expected ErrNoDecision, got %v", err)
	}
}

func TestExtractDecision_InvalidSector(t *testing.T) {
	_, err := ExtractDecision(`{"sector":"MARKETING","intention":"x","confidence":0.9}`)
	if !errors.Is(err, ErrNoDecision) {
		t.Fatalf("expected ErrNoDecision for out-of-taxonomy sector, got %v", err)
	}
}

func TestExtractDecision_ClampsConfidence(t *testing.T) {
	d, err := ExtractDecision(`{"sector":"INTAKE","intention":"greeting","confidence":1.7}`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Confidence != 1 {
		t.Fatalf("expected clamp to 1, got %v", d.Confidence)
	}

	d, err = ExtractDecision(`{"sector":"INTAKE","intention":"greeting","confidence":-0.2}`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Confidence != 0 {
		t.Fatalf("expected clamp to 0, got %v", d.Confidence)
	}
}

func TestExtractDecision_BracesInsideStrings(t *testing.T) {
	d, err := ExtractDecision(`{"sector":"TECHNICAL","intention":"router_issue","confidence":0.8,"parameters":{"symptom":"led {red}"}}`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Parameters["symptom"] != "led {red}" {
		t.Fatalf("expected braces preserved inside string, got %+v", d.Parameters)
	}
}

func TestExtractDecision_EmptyIntentionDefaults(t *testing.T) {
	d, err := ExtractDecision(`{"sector":"INTAKE","confidence":0.4}`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if d.Intention != "unspecified" {
		t.Fatalf("expected default intention, got %q", d.Intention)
	}
}
