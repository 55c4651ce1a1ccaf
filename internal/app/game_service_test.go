package app_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"times-table-circuit/internal/app"
	"times-table-circuit/internal/domain"
	"times-table-circuit/internal/game"
	"times-table-circuit/internal/infra/memory"
)

func TestSignInCreatesThenRecognisesAccount(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	first, err := service.SignIn(ctx, "  Caleb ", "volts", domain.ModeHome)
	if err != nil {
		t.Fatalf("first sign in: %v", err)
	}
	if !first.Success || !first.IsNew {
		t.Fatalf("expected new account, got %+v", first)
	}
	if first.Session.Username != "Caleb" || first.Session.Token == "" {
		t.Fatalf("unexpected session %+v", first.Session)
	}

	again, err := service.SignIn(ctx, "caleb", "volts", domain.ModeHome)
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if !again.Success || again.IsNew {
		t.Fatalf("expected returning account, got %+v", again)
	}
	if again.Session.Username != "Caleb" {
		t.Fatalf("expected stored username casing, got %q", again.Session.Username)
	}

	other, err := service.SignIn(ctx, "caleb", "different", domain.ModeSchool)
	if err != nil || !other.IsNew {
		t.Fatalf("expected separate school account, got %+v err=%v", other, err)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	if _, err := service.SignIn(ctx, "Ada", "amps", domain.ModeSchool); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	res, err := service.SignIn(ctx, "ada", "ohms", domain.ModeSchool)
	if !errors.Is(err, domain.ErrWrongPassword) {
		t.Fatalf("expected wrong password, got %v", err)
	}
	if res.Success || res.Error == "" {
		t.Fatalf("expected failure with message, got %+v", res)
	}
}

func TestSignInValidatesCredentials(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	cases := []struct {
		username, password string
		mode               domain.Mode
	}{
		{" a ", "secret", domain.ModeHome},
		{"Ada", "no", domain.ModeHome},
		{"Ada", "secret", domain.Mode("office")},
		{"Ada", strings.Repeat("é", 40), domain.ModeHome},
	}
	for _, tc := range cases {
		_, err := service.SignIn(ctx, tc.username, tc.password, tc.mode)
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials for %+v, got %v", tc, err)
		}
	}
}

func TestSignInAcceptsMultibytePasswordAtByteLimit(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	password := strings.Repeat("é", domain.MaxPasswordBytes/2)
	res, err := service.SignIn(ctx, "Zoë", password, domain.ModeHome)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !res.Success || !res.IsNew {
		t.Fatalf("expected new account, got %+v", res)
	}
	if _, err := service.SignIn(ctx, "zoë", password, domain.ModeHome); err != nil {
		t.Fatalf("second sign in: %v", err)
	}
}

func TestSignInHandlesConcurrentAccountCreation(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("volts"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	accounts := &racingAccountStore{
		AccountStore: memory.NewAccountStore(),
		winner:       domain.Account{Username: "Caleb", PasswordHash: string(hash), Mode: domain.ModeHome},
	}
	service := app.NewGameService(accounts, memory.NewSessionStore(), memory.NewRoundStore(),
		game.NewGenerator(rand.New(rand.NewSource(1))), app.WithPasswordCost(bcrypt.MinCost))

	res, err := service.SignIn(ctx, "caleb", "volts", domain.ModeHome)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !res.Success || res.IsNew {
		t.Fatalf("expected to sign into the concurrently created account, got %+v", res)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	res, err := service.SignIn(ctx, "Ada", "amps", domain.ModeHome)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if _, err := service.GetSession(ctx, res.Session.Token); err != nil {
		t.Fatalf("get session: %v", err)
	}
	if err := service.SignOut(ctx, res.Session.Token); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := service.GetSession(ctx, res.Session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
	if _, err := service.GetSession(ctx, ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected empty token rejected, got %v", err)
	}
}

func TestStartRoundRequiresSession(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	_, err := service.StartRound(ctx, "nope", domain.RoundConfig{Tables: []int{2}, QuestionCount: 5, TimerSeconds: 8})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
}

func TestStartRoundRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()
	token := signIn(t, service)

	_, err := service.StartRound(ctx, token, domain.RoundConfig{Tables: nil, QuestionCount: 5, TimerSeconds: 8})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRoundPlaysThroughService(t *testing.T) {
	ctx := context.Background()
	service, rounds, clock := newTestService()
	token := signIn(t, service)

	round, err := service.StartRound(ctx, token, domain.RoundConfig{Tables: []int{3}, QuestionCount: 2, TimerSeconds: 8})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	id := round.ID()

	updates, cancel, err := service.Subscribe(ctx, id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-updates // initial snapshot

	first, err := service.Snapshot(ctx, id)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap, err := service.SubmitAnswer(ctx, id, first.Question.Answer)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if snap.Outcome.Kind != domain.Correct || snap.Score != 1 {
		t.Fatalf("expected correct answer, got %+v", snap)
	}

	clock.Advance(game.DefaultAutoAdvanceDelay)
	waitFor(t, updates, func(s domain.RoundSnapshot) bool { return s.Index == 1 })

	if _, err := service.SubmitAnswer(ctx, id, 99); err != nil {
		t.Fatalf("answer: %v", err)
	}
	snap, err = service.Advance(ctx, id)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if snap.Status != domain.StatusFinished || snap.Result == nil {
		t.Fatalf("expected finished round, got %+v", snap)
	}
	if snap.Result.Score != 1 || snap.Result.Total != 2 {
		t.Fatalf("expected 1/2, got %+v", snap.Result)
	}

	service.Abandon(ctx, id)
	if rounds.Len() != 0 {
		t.Fatalf("expected round removed")
	}
	if _, err := service.Snapshot(ctx, id); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected round gone, got %v", err)
	}
}

func TestUnknownRoundOperations(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	if _, err := service.SubmitAnswer(ctx, "missing", 1); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected round error, got %v", err)
	}
	if _, err := service.Advance(ctx, "missing"); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected round error, got %v", err)
	}
	if _, _, err := service.Subscribe(ctx, "missing"); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected round error, got %v", err)
	}
	service.Abandon(ctx, "missing")
}

func newTestService() (*app.GameService, *memory.RoundStore, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	rounds := memory.NewRoundStore()
	service := app.NewGameService(
		memory.NewAccountStore(),
		memory.NewSessionStore(),
		rounds,
		game.NewGenerator(rand.New(rand.NewSource(1))),
		app.WithClock(clock),
		app.WithPasswordCost(bcrypt.MinCost),
	)
	return service, rounds, clock
}

func signIn(t *testing.T, service *app.GameService) string {
	t.Helper()
	res, err := service.SignIn(context.Background(), "Player", "sparky", domain.ModeHome)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return res.Session.Token
}

func waitFor(t *testing.T, updates <-chan domain.RoundSnapshot, match func(domain.RoundSnapshot) bool) domain.RoundSnapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				t.Fatalf("updates closed")
			}
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for round update")
		}
	}
}

// racingAccountStore reports "not found" once, then behaves as if another
// sign-in created the account in between.
type racingAccountStore struct {
	*memory.AccountStore
	winner domain.Account
	raced  bool
}

func (s *racingAccountStore) CreateAccount(ctx context.Context, account domain.Account) error {
	if !s.raced {
		s.raced = true
		if err := s.AccountStore.CreateAccount(ctx, s.winner); err != nil {
			return err
		}
	}
	return s.AccountStore.CreateAccount(ctx, account)
}
