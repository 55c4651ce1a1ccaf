package domain

import (
	"encoding/json"
	"time"
)

// Question is one multiplication prompt with its multiple-choice options.
// Options are shuffled once at creation; their order is part of the question.
type Question struct {
	OperandA int   `json:"a"`
	OperandB int   `json:"b"`
	Answer   int   `json:"-"` // revealed through RoundSnapshot.CorrectAnswer once resolved
	Options  []int `json:"options"`
}

// RoundConfig is fixed for the lifetime of a round.
type RoundConfig struct {
	Tables        []int `json:"tables" validate:"required,min=1"`
	QuestionCount int   `json:"questionCount" validate:"gt=0"`
	TimerSeconds  int   `json:"timerSeconds" validate:"gt=0"`
}

// OutcomeKind tags how the current question was resolved.
type OutcomeKind int

const (
	Unresolved OutcomeKind = iota
	Correct
	Incorrect
	TimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case TimedOut:
		return "timeout"
	default:
		return "unresolved"
	}
}

// Outcome is the resolution of a single question.
type Outcome struct {
	Kind     OutcomeKind
	Selected int // only meaningful for Correct and Incorrect
}

// AnsweredWith builds the outcome of an explicit answer.
func AnsweredWith(option, correct int) Outcome {
	if option == correct {
		return Outcome{Kind: Correct, Selected: option}
	}
	return Outcome{Kind: Incorrect, Selected: option}
}

// Timeout is the outcome of a question whose timer ran out.
func Timeout() Outcome {
	return Outcome{Kind: TimedOut}
}

// Resolved reports whether the question is settled.
func (o Outcome) Resolved() bool {
	return o.Kind != Unresolved
}

// Answer returns the option the player picked; false for unresolved and timed-out questions.
func (o Outcome) Answer() (int, bool) {
	switch o.Kind {
	case Correct, Incorrect:
		return o.Selected, true
	default:
		return 0, false
	}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind     string `json:"kind"`
		Selected *int   `json:"selected,omitempty"`
	}{Kind: o.Kind.String()}
	if selected, ok := o.Answer(); ok {
		out.Selected = &selected
	}
	return json.Marshal(out)
}

// RoundStatus is the coarse state the presentation layer branches on.
type RoundStatus string

const (
	StatusPending   RoundStatus = "pending"
	StatusResolved  RoundStatus = "resolved"
	StatusFinished  RoundStatus = "finished"
	StatusAbandoned RoundStatus = "abandoned"
)

// Encouragement is the results-screen banner for a score tier.
type Encouragement struct {
	Message    string `json:"message"`
	Emoji      string `json:"emoji"`
	SubMessage string `json:"subMessage"`
}

// Result is reported once a round finishes.
type Result struct {
	Score         int           `json:"score"`
	Total         int           `json:"total"`
	Percent       int           `json:"percent"`
	Encouragement Encouragement `json:"encouragement"`
}

// RoundSnapshot is a read-only view of a round at one instant.
type RoundSnapshot struct {
	RoundID       string      `json:"roundId,omitempty"`
	Index         int         `json:"index"`
	Total         int         `json:"total"`
	Question      Question    `json:"question"`
	Score         int         `json:"score"`
	Attempted     int         `json:"attempted"`
	TimeLeft      int         `json:"timeLeft"`
	TimerSeconds  int         `json:"timerSeconds"`
	Outcome       Outcome     `json:"outcome"`
	Status        RoundStatus `json:"status"`
	CorrectAnswer *int        `json:"correctAnswer,omitempty"`
	Result        *Result     `json:"result,omitempty"`
}

// Mode separates account namespaces; the same username may exist in both.
type Mode string

const (
	ModeHome   Mode = "home"
	ModeSchool Mode = "school"
)

// Credentials is the sign-in form.
type Credentials struct {
	Username string `validate:"min=2,max=64"`
	Password string `validate:"min=3,max=72"`
	Mode     Mode   `validate:"oneof=home school"`
}

// Account is a stored player login.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Mode         Mode      `json:"mode"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is an authenticated player.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignInResult summarizes a sign-in attempt.
type SignInResult struct {
	Success bool    `json:"success"`
	IsNew   bool    `json:"isNew"`
	Error   string  `json:"error,omitempty"`
	Session Session `json:"-"`
}
