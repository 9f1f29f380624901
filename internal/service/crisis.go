package service

import "strings"

// CrisisResponse é a resposta fixa para mensagens com indícios de autolesão.
// Nunca passa pelo modelo.
const CrisisResponse = "It sounds like you're going through a very difficult time. " +
	"Please know that help is available immediately. " +
	"You can reach the ICall Helpline at 9152987821, " +
	"or contact your college's on-campus emergency services."

// Busca por substring, sem tokenizar: "self-harm prevention class" também casa.
var crisisKeywords = []string{
	"suicide",
	"end my life",
	"kill myself",
	"self-harm",
	"harm myself",
}

// Verdict é o resultado da classificação de uma mensagem.
type Verdict struct {
	Intercepted bool
	Response    string
}

// Clear indica que a mensagem pode seguir para o modelo.
var Clear = Verdict{}

// CrisisFilter detecta linguagem de crise antes de qualquer chamada externa.
type CrisisFilter struct{}

func NewCrisisFilter() *CrisisFilter {
	return &CrisisFilter{}
}

// Classify verifica message sem alterá-la.
func (f *CrisisFilter) Classify(message string) Verdict {
	lower := strings.ToLower(message)
	for _, k := range crisisKeywords {
		if strings.Contains(lower, k) {
			return Verdict{Intercepted: true, Response: CrisisResponse}
		}
	}
	return Clear
}
