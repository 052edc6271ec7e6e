package assessment

import "fmt"

// Validate checks the model invariants of a managed test: unique question ids,
// options present for choice kinds and absent for free text, and every correct
// answer drawn from the options.
func Validate(t Test) error {
	var errs ValidationErrors
	seen := make(map[string]struct{}, len(t.Questions))
	for i, q := range t.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if _, dup := seen[q.ID]; dup {
			errs = append(errs, ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate id %q", q.ID)})
		}
		seen[q.ID] = struct{}{}

		if q.Points < 0 {
			errs = append(errs, ValidationError{Field: field + ".points", Message: "must be >= 0"})
		}

		switch q.Kind {
		case KindSingleChoice, KindMultipleChoice:
			if len(q.Options) == 0 {
				errs = append(errs, ValidationError{Field: field + ".options", Message: "required for choice questions"})
			}
			if q.Kind == KindSingleChoice && len(q.CorrectAnswers) != 1 {
				errs = append(errs, ValidationError{Field: field + ".correct_answers", Message: "single-choice needs exactly one correct answer"})
			}
			if q.Kind == KindMultipleChoice && len(q.CorrectAnswers) == 0 {
				errs = append(errs, ValidationError{Field: field + ".correct_answers", Message: "multiple-choice needs at least one correct answer"})
			}
			for _, c := range q.CorrectAnswers {
				if !contains(q.Options, c) {
					errs = append(errs, ValidationError{Field: field + ".correct_answers", Message: fmt.Sprintf("%q is not an option", c)})
				}
			}
		case KindFreeText:
			if len(q.Options) > 0 {
				errs = append(errs, ValidationError{Field: field + ".options", Message: "must be empty for free-text"})
			}
			if len(q.CorrectAnswers) != 1 {
				errs = append(errs, ValidationError{Field: field + ".correct_answers", Message: "free-text needs exactly one reference answer"})
			}
		default:
			errs = append(errs, ValidationError{Field: field + ".kind", Message: fmt.Sprintf("unknown kind %q", q.Kind)})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
