package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/emberfx/emberfx/pkg/eternal"
	"github.com/emberfx/emberfx/pkg/eternal/mock"
)

func TestGenerateWithEffect_SubmitsJob(t *testing.T) {
	api := &mock.Client{
		SubmitEffectResult: &eternal.Receipt{RequestID: "abc123", Status: eternal.StatePending},
	}
	r := newTestRegistry(t, api)

	res, err := r.generateWithEffect(context.Background(),
		json.RawMessage(`{"effect_id":"cartoonify","images":["https://x/in.png"]}`))
	if err != nil {
		t.Fatalf("generateWithEffect: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "abc123") {
		t.Errorf("result missing request_id: %s", resultText(t, res))
	}

	if len(api.SubmitEffectCalls) != 1 {
		t.Fatalf("SubmitEffectJob calls = %d, want 1", len(api.SubmitEffectCalls))
	}
	call := api.SubmitEffectCalls[0]
	if call.EffectID != "cartoonify" {
		t.Errorf("effect_id = %q, want cartoonify", call.EffectID)
	}
	if len(call.Images) != 1 || call.Images[0] != "https://x/in.png" {
		t.Errorf("images = %v", call.Images)
	}
}

func TestGenerateWithEffect_RequiresEffectID(t *testing.T) {
	api := &mock.Client{}
	r := newTestRegistry(t, api)

	res, err := r.generateWithEffect(context.Background(), json.RawMessage(`{"effect_id":""}`))
	if err != nil {
		t.Fatalf("generateWithEffect: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError for empty effect_id")
	}
	if api.Calls() != 0 {
		t.Errorf("upstream calls = %d, want 0", api.Calls())
	}
}

func TestGenerateWithEffect_SurfacesUpstreamError(t *testing.T) {
	api := &mock.Client{SubmitEffectErr: errors.New("quota exceeded")}
	r := newTestRegistry(t, api)

	res, err := r.generateWithEffect(context.Background(), json.RawMessage(`{"effect_id":"x"}`))
	if err != nil {
		t.Fatalf("generateWithEffect: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError when upstream fails")
	}
	if !strings.Contains(resultText(t, res), "quota exceeded") {
		t.Errorf("error text does not mention cause: %s", resultText(t, res))
	}
}

func TestGenerateCustomAdvanced_SubmitsJob(t *testing.T) {
	api := &mock.Client{
		SubmitCustomResult: &eternal.Receipt{RequestID: "vid-7", Status: eternal.StatePending},
	}
	r := newTestRegistry(t, api)

	res, err := r.generateCustomAdvanced(context.Background(),
		json.RawMessage(`{"prompt":"a fox in neon rain","type":"video"}`))
	if err != nil {
		t.Fatalf("generateCustomAdvanced: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "vid-7") {
		t.Errorf("result missing request_id: %s", resultText(t, res))
	}

	call := api.SubmitCustomCalls[0]
	if call.Prompt != "a fox in neon rain" || call.Type != eternal.EffectVideo {
		t.Errorf("forwarded (%q, %q)", call.Prompt, call.Type)
	}
}

func TestGenerateCustomAdvanced_Validation(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"empty prompt", `{"prompt":"","type":"image"}`},
		{"missing prompt", `{"type":"image"}`},
		{"missing type", `{"prompt":"hi"}`},
		{"bad type", `{"prompt":"hi","type":"audio"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mock.Client{}
			r := newTestRegistry(t, api)

			res, err := r.generateCustomAdvanced(context.Background(), json.RawMessage(tt.args))
			if err != nil {
				t.Fatalf("generateCustomAdvanced: %v", err)
			}
			if !res.IsError {
				t.Fatal("expected IsError")
			}
			if api.Calls() != 0 {
				t.Errorf("upstream calls = %d, want 0", api.Calls())
			}
		})
	}
}
