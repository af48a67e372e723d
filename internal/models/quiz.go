package models

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

// Quiz attaches a scored question to an element with a quiz
// interaction. At most three incorrect answers are kept.
type Quiz struct {
	QuestionType       QuestionType `json:"questionType"`
	QuestionText       string       `json:"questionText"`
	CorrectAnswer      string       `json:"correctAnswer"`
	IncorrectAnswers   []string     `json:"incorrectAnswers,omitempty"`
	CorrectFeedback    string       `json:"correctFeedback,omitempty"`
	IncorrectFeedback  string       `json:"incorrectFeedback,omitempty"`
	Points             int          `json:"points"`
	Attempts           int          `json:"attempts"`
	RequiredToContinue bool         `json:"requiredToContinue"`
	RetryAllowed       bool         `json:"retryAllowed"`
}

func (q *Quiz) Clone() *Quiz {
	cp := *q
	cp.IncorrectAnswers = append([]string(nil), q.IncorrectAnswers...)
	return &cp
}
