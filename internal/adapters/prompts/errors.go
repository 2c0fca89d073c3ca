package prompts

import "errors"

var (
	// ErrPromptNotFound is returned when no prompt has the requested id.
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrDuplicatePrompt is returned when adding a prompt whose id exists.
	ErrDuplicatePrompt = errors.New("prompt already exists")

	// ErrInvalidPrompt is returned for prompts without a usable drawing.
	ErrInvalidPrompt = errors.New("invalid prompt")

	// ErrLoad wraps failures reading a prompt file.
	ErrLoad = errors.New("load prompts")
)
