package generation

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractPayloadPlain(t *testing.T) {
	payload, err := ExtractPayload(`{"id": "verdigris-court", "title": "The Verdigris Court"}`)
	if err != nil {
		t.Fatalf("ExtractPayload failed: %v", err)
	}
	if payload["id"] != "verdigris-court" {
		t.Errorf("id = %v", payload["id"])
	}
}

func TestExtractPayloadWithSurroundingText(t *testing.T) {
	response := "Here is the universe you asked for:\n\n```json\n" +
		`{"id": "verdigris-court", "genres": ["noir"]}` +
		"\n```\n\nLet me know if you'd like changes."

	payload, err := ExtractPayload(response)
	if err != nil {
		t.Fatalf("ExtractPayload failed: %v", err)
	}
	if payload["id"] != "verdigris-court" {
		t.Errorf("id = %v", payload["id"])
	}
}

func TestExtractPayloadNoObject(t *testing.T) {
	_, err := ExtractPayload("I could not produce the requested entity.")
	if err == nil {
		t.Fatal("expected error for response without JSON")
	}
	if !strings.Contains(err.Error(), "no JSON object") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExtractPayloadInvalidJSON(t *testing.T) {
	_, err := ExtractPayload(`{"id": "broken`)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestExtractPayloadEmptyObject(t *testing.T) {
	_, err := ExtractPayload(`{}`)
	if err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestGenerationErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &GenerationError{Op: "call", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("GenerationError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "call") {
		t.Errorf("message should name the operation: %q", err.Error())
	}
}
