package assessment

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Answer is a candidate response. The concrete type determines the question
// kind it may be recorded against.
type Answer interface {
	Kind() Kind
	isAnswer()
}

// SingleAnswer is the selected option of a single-choice question.
type SingleAnswer string

// MultipleAnswer is the set of selected options of a multiple-choice question.
// Order is irrelevant; duplicates are collapsed by NewMultipleAnswer.
type MultipleAnswer []string

// TextAnswer is the free-text response.
type TextAnswer string

func (SingleAnswer) Kind() Kind   { return KindSingleChoice }
func (MultipleAnswer) Kind() Kind { return KindMultipleChoice }
func (TextAnswer) Kind() Kind     { return KindFreeText }

func (SingleAnswer) isAnswer()   {}
func (MultipleAnswer) isAnswer() {}
func (TextAnswer) isAnswer()     {}

// NewMultipleAnswer builds a de-duplicated, sorted selection.
func NewMultipleAnswer(values ...string) MultipleAnswer {
	seen := make(map[string]struct{}, len(values))
	out := make(MultipleAnswer, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the selection includes v.
func (m MultipleAnswer) Contains(v string) bool {
	for _, s := range m {
		if s == v {
			return true
		}
	}
	return false
}

// AnswerRecord pairs a question id with the recorded answer.
type AnswerRecord struct {
	QuestionID string
	Value      Answer
}

type answerRecordJSON struct {
	QuestionID string          `json:"question_id"`
	Kind       Kind            `json:"kind"`
	Value      json.RawMessage `json:"value"`
}

// MarshalJSON encodes the record with an explicit kind tag.
func (r AnswerRecord) MarshalJSON() ([]byte, error) {
	if r.Value == nil {
		return nil, fmt.Errorf("answer record %q has no value", r.QuestionID)
	}
	var (
		raw []byte
		err error
	)
	switch v := r.Value.(type) {
	case SingleAnswer:
		raw, err = json.Marshal(string(v))
	case MultipleAnswer:
		raw, err = json.Marshal([]string(v))
	case TextAnswer:
		raw, err = json.Marshal(string(v))
	default:
		return nil, fmt.Errorf("unsupported answer type %T", r.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerRecordJSON{QuestionID: r.QuestionID, Kind: r.Value.Kind(), Value: raw})
}

// UnmarshalJSON decodes a kind-tagged record.
func (r *AnswerRecord) UnmarshalJSON(data []byte) error {
	var wire answerRecordJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	value, err := DecodeAnswer(wire.Kind, wire.Value)
	if err != nil {
		return fmt.Errorf("answer for %q: %w", wire.QuestionID, err)
	}
	r.QuestionID = wire.QuestionID
	r.Value = value
	return nil
}

// DecodeAnswer interprets a raw JSON value for the given kind. A string is
// expected for single-choice and free-text, an array of strings for
// multiple-choice. Any other shape yields a MalformedAnswerError.
func DecodeAnswer(kind Kind, raw json.RawMessage) (Answer, error) {
	switch kind {
	case KindSingleChoice, KindFreeText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &MalformedAnswerError{Expected: kind, Reason: "value must be a string"}
		}
		if kind == KindSingleChoice {
			return SingleAnswer(s), nil
		}
		return TextAnswer(s), nil
	case KindMultipleChoice:
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, &MalformedAnswerError{Expected: kind, Reason: "value must be an array of strings"}
		}
		return NewMultipleAnswer(list...), nil
	default:
		return nil, fmt.Errorf("unknown question kind %q", kind)
	}
}
