package chat

import "fmt"

// Model is a symbolic selector for one of the chat models the upstream
// endpoint accepts. The zero value is invalid; use one of the enumerated
// constants or [ParseModel].
type Model int

const (
	// ModelGPT4o selects the gpt-4o model.
	ModelGPT4o Model = iota + 1
	// ModelGPT4oMini selects the gpt-4o-mini model.
	ModelGPT4oMini
	// ModelGPT4oLatest selects the chatgpt-4o-latest model.
	ModelGPT4oLatest
)

// modelNames maps each selector to the provider-side model string. Built once
// at init and never mutated, so concurrent reads are safe.
var modelNames = map[Model]string{
	ModelGPT4o:       "gpt-4o",
	ModelGPT4oMini:   "gpt-4o-mini",
	ModelGPT4oLatest: "chatgpt-4o-latest",
}

// Resolve returns the provider-specific model string for the selector.
// Selectors outside the enumerated set fail with a validation error rather
// than silently defaulting.
func (m Model) Resolve() (string, error) {
	name, ok := modelNames[m]
	if !ok {
		return "", NewGenericError(fmt.Sprintf("unknown model selector %d", int(m)), nil)
	}
	return name, nil
}

// String returns the provider model string, or a placeholder for selectors
// outside the registry. Use Resolve when the error matters.
func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// ParseModel maps a provider model string (as accepted by config files and CLI
// flags) back to its selector. Unknown names fail with a validation error.
func ParseModel(name string) (Model, error) {
	for model, modelName := range modelNames {
		if modelName == name {
			return model, nil
		}
	}
	return 0, NewGenericError(fmt.Sprintf("unknown model %q", name), nil)
}

// Models returns every enumerated selector, in declaration order. Useful for
// CLI help output and validation messages.
func Models() []Model {
	return []Model{ModelGPT4o, ModelGPT4oMini, ModelGPT4oLatest}
}
