package server

import (
	"testing"

	"github.com/alexschlessinger/saintsal/agent"
)

func TestValidatorTurnRequest(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"valid", `{"message":"hi","context":{"a":1},"requestedCapabilities":["x"]}`, ""},
		{"extra fields allowed", `{"message":"hi","unknown":true}`, ""},
		{"missing message", `{}`, "message"},
		{"empty message", `{"message":""}`, "message"},
		{"context must be object", `{"message":"hi","context":[1]}`, "context"},
		{"capabilities must be strings", `{"message":"hi","requestedCapabilities":[1]}`, "requestedCapabilities"},
		{"null context", `{"message":"hi","context":null}`, ""},
		{"null capabilities", `{"message":"hi","requestedCapabilities":null}`, ""},
		{"null session", `{"message":"hi","sessionId":null,"userId":null}`, ""},
		{"null message", `{"message":null}`, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.Validate([]byte(tt.body), &agent.TurnRequest{})
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("unexpected violations: %v", errs)
				}
				return
			}
			if !touches(errs, tt.wantField) {
				t.Errorf("violations %v do not mention %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidatorCapabilitiesPatch(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"valid", `{"capabilities":[{"name":"a","enabled":false}]}`, ""},
		{"null optional item fields", `{"capabilities":[{"name":"a","description":null,"enabled":null,"parameters":null}]}`, ""},
		{"null list", `{"capabilities":null}`, "capabilities"},
		{"missing name", `{"capabilities":[{"enabled":true}]}`, "capabilities.0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.Validate([]byte(tt.body), &capabilitiesPatch{})
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("unexpected violations: %v", errs)
				}
				return
			}
			if !touches(errs, tt.wantField) {
				t.Errorf("violations %v do not mention %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidatorRejectsInvalidJSON(t *testing.T) {
	v := NewValidator()
	if _, err := v.Validate([]byte(`{`), &agent.TurnRequest{}); err == nil {
		t.Errorf("expected an error for malformed JSON")
	}
}

func TestValidatorCachesSchemas(t *testing.T) {
	v := NewValidator()
	v.Validate([]byte(`{"message":"a"}`), &agent.TurnRequest{})
	v.Validate([]byte(`{"message":"b"}`), &agent.TurnRequest{})
	v.Validate([]byte(`{"capabilities":[]}`), &capabilitiesPatch{})

	if len(v.schemas) != 2 {
		t.Errorf("compiled %d schemas, want 2", len(v.schemas))
	}
}
