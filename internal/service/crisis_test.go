package service_test

import (
	"testing"

	"github.com/vitormoschetta/go-voice-coach/internal/service"
)

func TestCrisisFilter_Classify(t *testing.T) {
	filter := service.NewCrisisFilter()

	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{name: "suicide", message: "I keep thinking about suicide", want: true},
		{name: "uppercase", message: "I WANT TO KILL MYSELF", want: true},
		{name: "end my life", message: "sometimes I want to End My Life", want: true},
		{name: "self-harm", message: "thoughts of self-harm", want: true},
		{name: "harm myself", message: "I might harm myself tonight", want: true},
		{name: "inside a word", message: "antisuicidevest", want: true},
		{name: "accepted false positive", message: "signing up for a self-harm prevention class", want: true},
		{name: "plain question", message: "What is 2+2?", want: false},
		{name: "procrastination", message: "I keep killing time instead of studying", want: false},
		{name: "empty", message: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Classify(tt.message)
			if got.Intercepted != tt.want {
				t.Fatalf("Intercepted: got %t, want %t", got.Intercepted, tt.want)
			}
			if tt.want && got.Response != service.CrisisResponse {
				t.Errorf("Response: got %q, want crisis response", got.Response)
			}
			if !tt.want && got != service.Clear {
				t.Errorf("verdict: got %+v, want Clear", got)
			}
		})
	}
}

func TestCrisisResponse_MentionsHelpline(t *testing.T) {
	want := "It sounds like you're going through a very difficult time. Please know that help is available immediately. You can reach the ICall Helpline at 9152987821, or contact your college's on-campus emergency services."
	if service.CrisisResponse != want {
		t.Errorf("CrisisResponse changed: %q", service.CrisisResponse)
	}
}
