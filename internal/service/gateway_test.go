package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitormoschetta/go-voice-coach/internal/persona"
	"github.com/vitormoschetta/go-voice-coach/internal/service"
)

func newGateway(llm *fakeLLM, p persona.Persona) *service.LLMGateway {
	cfg := service.GatewayConfig{
		ModelName: "gemini-test",
		Persona:   p,
		Timeout:   time.Second,
		Logger:    zerolog.Nop(),
	}
	if llm != nil {
		cfg.LLM = llm
	}
	return service.NewLLMGateway(cfg)
}

func TestLLMGateway_CrisisNeverReachesModel(t *testing.T) {
	messages := []string{
		"I want to kill myself",
		"  thinking about SUICIDE again ",
		"how do I stop wanting to harm myself",
		"I just want to end my life",
		"self-harm",
	}

	for _, name := range persona.Names() {
		p, err := persona.Builtin(name)
		if err != nil {
			t.Fatalf("persona %s: %v", name, err)
		}
		llm := &fakeLLM{reply: "model text"}
		gw := newGateway(llm, p)

		for _, msg := range messages {
			if got := gw.Respond(context.Background(), msg); got != service.CrisisResponse {
				t.Errorf("persona %s, %q: got %q, want crisis response", name, msg, got)
			}
		}
		if llm.callCount() != 0 {
			t.Errorf("persona %s: model called %d times for crisis input", name, llm.callCount())
		}
	}
}

func TestLLMGateway_EmptyInput(t *testing.T) {
	llm := &fakeLLM{reply: "unused"}
	gw := newGateway(llm, persona.Persona{Name: "test", Instruction: "be nice"})

	for _, msg := range []string{"", "   ", "\n\t"} {
		if got := gw.Respond(context.Background(), msg); got != service.EmptyInputReply {
			t.Errorf("Respond(%q): got %q", msg, got)
		}
	}
	if llm.callCount() != 0 {
		t.Errorf("model called %d times for empty input", llm.callCount())
	}
}

func TestLLMGateway_ReturnsModelText(t *testing.T) {
	llm := &fakeLLM{reply: "4"}
	gw := newGateway(llm, persona.Persona{Name: "test", Instruction: "answer briefly"})

	got := gw.Respond(context.Background(), "  What is 2+2?  ")
	if got != "4" {
		t.Fatalf("Respond: got %q, want 4", got)
	}

	if len(llm.requests) != 1 {
		t.Fatalf("requests: got %d, want 1", len(llm.requests))
	}
	req := llm.requests[0]
	if req.Model != "gemini-test" {
		t.Errorf("Model: got %s", req.Model)
	}
	if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "What is 2+2?" {
		t.Errorf("user content not sent as its own trimmed segment: %+v", req.Contents)
	}
	if req.Config == nil || req.Config.SystemInstruction == nil {
		t.Fatal("system instruction missing")
	}
	if got := req.Config.SystemInstruction.Parts[0].Text; got != "answer briefly" {
		t.Errorf("system instruction: got %q", got)
	}
}

func TestLLMGateway_FailureReturnsApology(t *testing.T) {
	llm := &fakeLLM{err: errEngineDown}
	gw := newGateway(llm, persona.Persona{Name: "test", Instruction: "x"})

	if got := gw.Respond(context.Background(), "hello"); got != service.ApologyReply {
		t.Errorf("Respond: got %q, want apology", got)
	}
}

func TestLLMGateway_BlankModelReplyReturnsApology(t *testing.T) {
	llm := &fakeLLM{reply: "  "}
	gw := newGateway(llm, persona.Persona{Name: "test", Instruction: "x"})

	if got := gw.Respond(context.Background(), "hello"); got != service.ApologyReply {
		t.Errorf("Respond: got %q, want apology", got)
	}
}

func TestLLMGateway_UnavailableModel(t *testing.T) {
	gw := newGateway(nil, persona.Persona{Name: "test", Instruction: "x"})

	if gw.Available() {
		t.Error("Available: got true for nil model")
	}
	if got := gw.Respond(context.Background(), "hello"); got != service.ApologyReply {
		t.Errorf("Respond: got %q, want apology", got)
	}
	if got := gw.Respond(context.Background(), "I want to kill myself"); got != service.CrisisResponse {
		t.Errorf("crisis with unavailable model: got %q", got)
	}
}
