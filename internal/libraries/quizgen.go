package libraries

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"slideforge-backend/internal/models"
)

const quizSystemPrompt = `You write quiz questions for interactive training slides.
Given the text content of one slide, produce a single multiple-choice question
that checks whether the learner understood the slide. Respond with JSON only:
{"questionText": "...", "correctAnswer": "...", "incorrectAnswers": ["...", "...", "..."],
"correctFeedback": "...", "incorrectFeedback": "..."}`

// QuizSuggester asks an OpenAI-compatible model for a quiz question
// grounded in a slide's text. Suggestions are never persisted here;
// the client applies one through its edit session if it wants it.
type QuizSuggester struct {
	llm llms.Model
}

type QuizSuggesterConfig struct {
	Model   string // e.g. "gpt-4.1"
	BaseURL string // optional: for Groq or other OpenAI-compatible APIs
	APIKey  string // if not set, it’ll fall back to env
}

func NewQuizSuggester(cfg QuizSuggesterConfig) (*QuizSuggester, error) {
	if cfg.Model == "" {
		cfg.Model = os.Getenv("QUIZGEN_MODEL")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1"
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create quiz suggester client: %w", err)
	}

	return &QuizSuggester{llm: llm}, nil
}

// SuggestQuiz builds a multiple-choice quiz from the slide's visible
// text. Points and attempts get editable defaults.
func (q *QuizSuggester) SuggestQuiz(ctx context.Context, slideTitle string, texts []string) (*models.Quiz, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("slide has no text content to build a quiz from")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Slide title: %s\n\nSlide text:\n", slideTitle)
	for _, t := range texts {
		fmt.Fprintf(&sb, "- %s\n", t)
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, quizSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, sb.String()),
	}
	resp, err := q.llm.GenerateContent(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("quiz suggestion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from LLM")
	}

	return parseQuizReply(resp.Choices[0].Content)
}

func parseQuizReply(reply string) (*models.Quiz, error) {
	// models like to wrap JSON in code fences
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var parsed struct {
		QuestionText      string   `json:"questionText"`
		CorrectAnswer     string   `json:"correctAnswer"`
		IncorrectAnswers  []string `json:"incorrectAnswers"`
		CorrectFeedback   string   `json:"correctFeedback"`
		IncorrectFeedback string   `json:"incorrectFeedback"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		return nil, fmt.Errorf("parse quiz reply: %w", err)
	}
	if parsed.QuestionText == "" || parsed.CorrectAnswer == "" {
		return nil, fmt.Errorf("quiz reply missing question or answer")
	}
	if len(parsed.IncorrectAnswers) > 3 {
		parsed.IncorrectAnswers = parsed.IncorrectAnswers[:3]
	}

	return &models.Quiz{
		QuestionType:      models.QuestionMultipleChoice,
		QuestionText:      parsed.QuestionText,
		CorrectAnswer:     parsed.CorrectAnswer,
		IncorrectAnswers:  parsed.IncorrectAnswers,
		CorrectFeedback:   parsed.CorrectFeedback,
		IncorrectFeedback: parsed.IncorrectFeedback,
		Points:            10,
		Attempts:          2,
		RetryAllowed:      true,
	}, nil
}
