package ai

import (
	"context"
	"testing"
)

func TestTranslationSchema(t *testing.T) {
	schema, err := translationSchema()
	if err != nil {
		t.Fatalf("translationSchema: %v", err)
	}
	if schema["additionalProperties"] != false {
		t.Errorf("strict mode needs additionalProperties=false, got %v", schema["additionalProperties"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %T", schema["properties"])
	}
	for _, name := range []string{"translated_text", "source_language", "target_language", "contains_job_terms"} {
		if _, ok := props[name]; !ok {
			t.Errorf("missing property %s", name)
		}
	}
	required, _ := schema["required"].([]any)
	if len(required) != len(props) {
		t.Errorf("every property must be required, got %v", required)
	}
}

func TestTranslate_EmptyText(t *testing.T) {
	tr := NewTranslator("sk-test", "")
	if tr.model != "gpt-4o-mini" {
		t.Errorf("expected default model, got %s", tr.model)
	}
	if _, err := tr.Translate(context.Background(), "   ", "es"); err == nil {
		t.Error("expected error for blank text")
	}
}
