package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"times-table-circuit/internal/domain"
	"times-table-circuit/internal/game"
)

// AccountStore abstracts where player logins live (in-memory, Redis, Postgres).
// Usernames are matched case-insensitively within a mode.
type AccountStore interface {
	FindAccount(ctx context.Context, mode domain.Mode, username string) (domain.Account, error)
	CreateAccount(ctx context.Context, account domain.Account) error
}

// SessionStore keeps signed-in sessions by token.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, token string) (domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// RoundRepository tracks rounds in progress on this instance.
type RoundRepository interface {
	Put(id string, round *game.Round)
	Get(id string) (*game.Round, bool)
	Delete(id string) (*game.Round, bool)
}

// QuestionGenerator builds the question sequence of a round.
type QuestionGenerator interface {
	Generate(tables []int, count int) ([]domain.Question, error)
}

const wrongPasswordMessage = "Wrong password! Try again ⚡"

// ServiceOption customizes a GameService.
type ServiceOption func(*GameService)

// WithClock drives round timers from clock.
func WithClock(clock clockwork.Clock) ServiceOption {
	return func(s *GameService) { s.clock = clock }
}

// WithAutoAdvanceDelay sets how long a correct answer is shown before moving on.
func WithAutoAdvanceDelay(d time.Duration) ServiceOption {
	return func(s *GameService) {
		if d > 0 {
			s.autoAdvance = d
		}
	}
}

// WithPasswordCost sets the bcrypt cost for new accounts.
func WithPasswordCost(cost int) ServiceOption {
	return func(s *GameService) {
		if cost > 0 {
			s.passwordCost = cost
		}
	}
}

// GameService contains the sign-in and round use cases.
type GameService struct {
	accounts     AccountStore
	sessions     SessionStore
	rounds       RoundRepository
	generator    QuestionGenerator
	clock        clockwork.Clock
	autoAdvance  time.Duration
	passwordCost int
}

func NewGameService(accounts AccountStore, sessions SessionStore, rounds RoundRepository, generator QuestionGenerator, opts ...ServiceOption) *GameService {
	s := &GameService{
		accounts:     accounts,
		sessions:     sessions,
		rounds:       rounds,
		generator:    generator,
		clock:        clockwork.NewRealClock(),
		autoAdvance:  game.DefaultAutoAdvanceDelay,
		passwordCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignIn logs a player in, creating the account on first use.
func (s *GameService) SignIn(ctx context.Context, username, password string, mode domain.Mode) (domain.SignInResult, error) {
	creds := domain.Credentials{Username: strings.TrimSpace(username), Password: password, Mode: mode}
	if err := creds.Validate(); err != nil {
		return domain.SignInResult{Error: err.Error()}, err
	}

	account, isNew, err := s.findOrCreate(ctx, creds)
	if err != nil {
		if errors.Is(err, domain.ErrWrongPassword) {
			return domain.SignInResult{Error: wrongPasswordMessage}, err
		}
		return domain.SignInResult{Error: "Something went wrong!"}, err
	}

	session := domain.Session{
		Token:     uuid.NewString(),
		Username:  account.Username,
		Mode:      account.Mode,
		CreatedAt: s.clock.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.SignInResult{Error: "Something went wrong!"}, fmt.Errorf("create session: %w", err)
	}

	log.Info().Str("username", account.Username).Str("mode", string(account.Mode)).Bool("new_account", isNew).Msg("signed in")
	return domain.SignInResult{Success: true, IsNew: isNew, Session: session}, nil
}

func (s *GameService) findOrCreate(ctx context.Context, creds domain.Credentials) (domain.Account, bool, error) {
	// Two attempts: a concurrent sign-in may create the account between our lookup and insert.
	for attempt := 0; attempt < 2; attempt++ {
		account, err := s.accounts.FindAccount(ctx, creds.Mode, creds.Username)
		switch {
		case err == nil:
			if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)) != nil {
				return domain.Account{}, false, domain.ErrWrongPassword
			}
			return account, false, nil
		case !errors.Is(err, domain.ErrAccountNotFound):
			return domain.Account{}, false, fmt.Errorf("find account: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.passwordCost)
		if err != nil {
			return domain.Account{}, false, fmt.Errorf("hash password: %w", err)
		}
		account = domain.Account{
			Username:     creds.Username,
			PasswordHash: string(hash),
			Mode:         creds.Mode,
			CreatedAt:    s.clock.Now(),
		}
		err = s.accounts.CreateAccount(ctx, account)
		if err == nil {
			return account, true, nil
		}
		if !errors.Is(err, domain.ErrAccountExists) {
			return domain.Account{}, false, fmt.Errorf("create account: %w", err)
		}
	}
	return domain.Account{}, false, domain.ErrAccountExists
}

// GetSession resolves a session token.
func (s *GameService) GetSession(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.sessions.Get(ctx, token)
}

// SignOut drops a session. Unknown tokens are ignored.
func (s *GameService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// StartRound generates questions and starts a round for a signed-in player.
func (s *GameService) StartRound(ctx context.Context, token string, cfg domain.RoundConfig) (*game.Round, error) {
	session, err := s.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	questions, err := s.generator.Generate(cfg.Tables, cfg.QuestionCount)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	round, err := game.NewRound(cfg, questions,
		game.WithID(id),
		game.WithClock(s.clock),
		game.WithAutoAdvanceDelay(s.autoAdvance),
		game.WithOnFinish(func(res domain.Result) {
			log.Info().Str("round_id", id).Str("username", session.Username).Int("score", res.Score).Int("total", res.Total).Msg("result")
		}),
	)
	if err != nil {
		return nil, err
	}
	s.rounds.Put(id, round)

	log.Info().
		Str("round_id", id).
		Str("username", session.Username).
		Ints("tables", cfg.Tables).
		Int("questions", cfg.QuestionCount).
		Int("timer_seconds", cfg.TimerSeconds).
		Msg("round started")
	return round, nil
}

// SubmitAnswer answers the current question of a round.
func (s *GameService) SubmitAnswer(_ context.Context, roundID string, option int) (domain.RoundSnapshot, error) {
	round, ok := s.rounds.Get(roundID)
	if !ok {
		return domain.RoundSnapshot{}, domain.ErrRoundNotFound
	}
	round.SubmitAnswer(option)
	return round.Snapshot(), nil
}

// Advance moves a round past its resolved question.
func (s *GameService) Advance(_ context.Context, roundID string) (domain.RoundSnapshot, error) {
	round, ok := s.rounds.Get(roundID)
	if !ok {
		return domain.RoundSnapshot{}, domain.ErrRoundNotFound
	}
	round.Advance()
	return round.Snapshot(), nil
}

// Snapshot returns the current state of a round.
func (s *GameService) Snapshot(_ context.Context, roundID string) (domain.RoundSnapshot, error) {
	round, ok := s.rounds.Get(roundID)
	if !ok {
		return domain.RoundSnapshot{}, domain.ErrRoundNotFound
	}
	return round.Snapshot(), nil
}

// Subscribe returns a channel of round snapshots.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, roundID string) (<-chan domain.RoundSnapshot, func(), error) {
	round, ok := s.rounds.Get(roundID)
	if !ok {
		return nil, nil, domain.ErrRoundNotFound
	}
	ch, cancel := round.Subscribe()
	return ch, cancel, nil
}

// Abandon tears a round down and forgets it.
func (s *GameService) Abandon(_ context.Context, roundID string) {
	round, ok := s.rounds.Delete(roundID)
	if !ok {
		return
	}
	round.Close()
}
