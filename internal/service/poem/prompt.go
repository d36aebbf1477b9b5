package poem

import "strings"

// DefaultSystemPrompt is used when POEM_SYSTEM_PROMPT is not configured.
const DefaultSystemPrompt = "You are {poet}. Write a short poem based on the user's description of their day."

// UnknownPoet is the sentinel attribution when the roster is empty.
const UnknownPoet = "Unknown Poet"

const poetPlaceholder = "{poet}"

// RenderSystemPrompt substitutes the poet name into the template. A blank
// template falls back to the default; a template without the placeholder is
// used verbatim rather than failing.
func RenderSystemPrompt(template, poetName string) string {
	tpl := strings.TrimSpace(template)
	if tpl == "" {
		tpl = DefaultSystemPrompt
	}
	return strings.ReplaceAll(tpl, poetPlaceholder, poetName)
}
