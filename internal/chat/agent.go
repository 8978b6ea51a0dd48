package chat

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/mithrel/classkit/internal/util"
)

var (
	//go:embed prompts/preview.md
	previewPrompt string
	//go:embed prompts/preview_welcome.md
	previewWelcome string
	//go:embed prompts/qa.md
	qaPrompt string
	//go:embed prompts/qa_welcome.md
	qaWelcome string
)

var ErrUnknownAgent = errors.New("unknown agent")

// Agent is a fixed system prompt plus the greeting shown before the first turn.
type Agent struct {
	Name         string
	Title        string
	SystemPrompt string
	Welcome      string
}

var builtin = map[string]Agent{
	"preview": {
		Name:         "preview",
		Title:        "课前预习智能体",
		SystemPrompt: previewPrompt,
		Welcome:      previewWelcome,
	},
	"qa": {
		Name:         "qa",
		Title:        "课堂答疑智能体",
		SystemPrompt: qaPrompt,
		Welcome:      qaWelcome,
	},
}

// Lookup returns the built-in agent with the given name.
func Lookup(name string) (Agent, error) {
	a, ok := builtin[name]
	if !ok {
		return Agent{}, fmt.Errorf("%w %q", ErrUnknownAgent, name)
	}
	return a, nil
}

// Names lists the built-in agents in sorted order.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Suggest returns agent names close to a mistyped one, best match first.
func Suggest(name string) []string {
	if name == "" {
		return nil
	}
	return util.ScoreCompletions(name, Names(), 3)
}
