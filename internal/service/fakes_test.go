package service_test

import (
	"context"
	"errors"
	"iter"
	"os"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	requests []*model.LLMRequest
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func (f *fakeLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	reply, err := f.reply, f.err
	f.mu.Unlock()

	return func(yield func(*model.LLMResponse, error) bool) {
		if err != nil {
			yield(nil, err)
			return
		}
		yield(&model.LLMResponse{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: reply}},
			},
		}, nil)
	}
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecognizer struct {
	text     string
	err      error
	paths    []string
	contents [][]byte
}

func (f *fakeRecognizer) Name() string { return "fake-stt" }

func (f *fakeRecognizer) Recognize(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	f.contents = append(f.contents, data)
	return f.text, f.err
}

type fakeSpeaker struct {
	err   error
	calls int
	texts []string
	langs []string
}

func (f *fakeSpeaker) Name() string { return "fake-tts" }

func (f *fakeSpeaker) Speak(_ context.Context, text, lang string) ([]byte, error) {
	f.calls++
	f.texts = append(f.texts, text)
	f.langs = append(f.langs, lang)
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("ID3"), []byte(text)...), nil
}

var errEngineDown = errors.New("engine down")
