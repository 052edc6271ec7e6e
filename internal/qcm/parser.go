// Package qcm converts generated multiple-choice text into assessment questions.
//
// The expected layout is one question card per paragraph:
//
//	**Goroutines**
//	Which keyword starts a goroutine?
//	A) go
//	B) async
//	C) spawn
//	D) thread
//	Correct answer: A) go
//
// Cards are separated by one or more blank lines. Malformed cards degrade to
// emptier questions or are skipped; parsing never fails.
package qcm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
)

// Letters are the option labels in emission order.
var Letters = [...]string{"A", "B", "C", "D"}

const correctPrefix = "Correct answer:"

var (
	blockSep      = regexp.MustCompile(`\n{2,}`)
	titlePattern  = regexp.MustCompile(`\*\*(.*?)\*\*`)
	optionPattern = regexp.MustCompile(`^([A-D])\)\s+(.*)$`)
	correctMarker = regexp.MustCompile(`(?i)Correct answer:\s+([A-D])\)`)
)

// Report summarizes a parse for diagnostics.
type Report struct {
	Blocks  int `json:"blocks"`
	Emitted int `json:"emitted"`
	Dropped int `json:"dropped"`
}

// Parse returns the questions found in text.
func Parse(text string) []assessment.Question {
	questions, _ := ParseWithReport(text)
	return questions
}

// ParseWithReport returns the questions found in text together with block
// counts. A block without question text is dropped and counted.
func ParseWithReport(text string) ([]assessment.Question, Report) {
	var report Report
	questions := make([]assessment.Question, 0)

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return questions, report
	}

	for _, block := range blockSep.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		report.Blocks++

		q, ok := parseBlock(block, len(questions)+1)
		if !ok {
			report.Dropped++
			continue
		}
		questions = append(questions, q)
	}
	report.Emitted = len(questions)
	return questions, report
}

func parseBlock(block string, next int) (assessment.Question, bool) {
	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	title := "QCM " + strconv.Itoa(next)
	if m := titlePattern.FindStringSubmatch(lines[0]); m != nil {
		title = m[1]
	}

	prompt := ""
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "**") || strings.HasPrefix(line, correctPrefix) {
			continue
		}
		prompt = line
		break
	}
	if prompt == "" {
		return assessment.Question{}, false
	}

	byLetter := make(map[string]string, len(Letters))
	for _, line := range lines {
		if m := optionPattern.FindStringSubmatch(line); m != nil {
			byLetter[m[1]] = m[2]
		}
	}
	options := make([]string, len(Letters))
	for i, l := range Letters {
		options[i] = byLetter[l]
	}

	q := assessment.Question{
		ID:      strconv.Itoa(next),
		Title:   title,
		Prompt:  prompt,
		Kind:    assessment.KindSingleChoice,
		Options: options,
		Points:  1,
	}
	if m := correctMarker.FindStringSubmatch(block); m != nil {
		idx := strings.Index("ABCD", strings.ToUpper(m[1]))
		q.CorrectIndex = &idx
		q.CorrectAnswers = []string{options[idx]}
	}
	return q, true
}
