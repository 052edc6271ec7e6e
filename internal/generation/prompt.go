package generation

import (
	"fmt"
	"strings"
)

const (
	defaultCount = 3
	defaultLevel = "senior"
)

const formatHint = `

Format every question exactly like this and separate questions with a blank line:
**<short title>**
<question text>
A) <option>
B) <option>
C) <option>
D) <option>
Correct answer: <letter>) <option>`

// BuildPrompt asks for count single-choice questions about skills at level.
func BuildPrompt(count int, skills []string, level string) string {
	if count <= 0 {
		count = defaultCount
	}
	level = strings.TrimSpace(level)
	if level == "" {
		level = defaultLevel
	}
	return fmt.Sprintf("Generate %d QCMs about %q lists %s level", count, strings.Join(skills, ", "), level) + formatHint
}
