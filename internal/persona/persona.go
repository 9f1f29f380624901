// Package persona guarda as instruções de sistema usadas pelo LLMGateway.
// A persona só define o tom; a interceptação de crise acontece antes dela.
package persona

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed prompts/*.txt
var prompts embed.FS

// Default é usada quando a persona configurada não pode ser carregada.
const Default = "assistant"

// Persona é uma instrução de sistema com nome.
type Persona struct {
	Name        string
	Instruction string
}

// Names lista as personas embutidas em ordem alfabética.
func Names() []string {
	entries, err := prompts.ReadDir("prompts")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(names)
	return names
}

// Builtin devolve a persona embutida com o nome informado.
func Builtin(name string) (Persona, error) {
	data, err := prompts.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return Persona{}, fmt.Errorf("unknown persona %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return Persona{Name: name, Instruction: strings.TrimSpace(string(data))}, nil
}

// Load resolve a persona do gateway. Um arquivo informado tem precedência
// sobre o nome embutido.
func Load(name, file string) (Persona, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return Persona{}, fmt.Errorf("reading persona file: %w", err)
		}
		instruction := strings.TrimSpace(string(data))
		if instruction == "" {
			return Persona{}, fmt.Errorf("persona file %s is empty", file)
		}
		return Persona{Name: name, Instruction: instruction}, nil
	}
	return Builtin(name)
}
