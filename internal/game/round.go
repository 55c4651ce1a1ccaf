package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"times-table-circuit/internal/domain"
)

const (
	// DefaultAutoAdvanceDelay is how long a correct answer stays on screen.
	DefaultAutoAdvanceDelay = 1500 * time.Millisecond

	tickInterval = time.Second
)

// RoundOption customizes a Round.
type RoundOption func(*Round)

// WithClock drives ticks and the auto-advance from clock.
func WithClock(clock clockwork.Clock) RoundOption {
	return func(r *Round) { r.clock = clock }
}

// WithAutoAdvanceDelay overrides DefaultAutoAdvanceDelay.
func WithAutoAdvanceDelay(d time.Duration) RoundOption {
	return func(r *Round) { r.autoAdvance = d }
}

// WithID tags snapshots and log lines with id.
func WithID(id string) RoundOption {
	return func(r *Round) { r.id = id }
}

// WithOnFinish registers fn to receive the result once the round finishes.
// fn runs outside the round lock and may call back into the round.
func WithOnFinish(fn func(domain.Result)) RoundOption {
	return func(r *Round) { r.onFinish = fn }
}

// Round is the state machine for one play-through.
//
// Every mutation, whether it comes from the caller, the tick task or the
// auto-advance task, is serialized on mu, and a question is resolved at most
// once: the first of an answer or a timeout wins, later ones are no-ops.
type Round struct {
	id          string
	cfg         domain.RoundConfig
	questions   []domain.Question
	clock       clockwork.Clock
	autoAdvance time.Duration
	onFinish    func(domain.Result)

	mu       sync.Mutex
	index    int
	score    int
	timeLeft int
	outcome  domain.Outcome
	// phase identifies the current Pending period; scheduled tasks carry the
	// phase they were created for and are ignored once it moves on.
	phase       uint64
	finished    bool
	closed      bool
	result      domain.Result
	stopTick    chan struct{}
	stopAdvance chan struct{}
	subscribers map[chan domain.RoundSnapshot]struct{}
	done        chan struct{}
}

// NewRound starts a round over questions; the first question is Pending and its timer running.
func NewRound(cfg domain.RoundConfig, questions []domain.Question, opts ...RoundOption) (*Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(questions) != cfg.QuestionCount {
		return nil, fmt.Errorf("%w: got %d questions for a round of %d", domain.ErrInvalidConfig, len(questions), cfg.QuestionCount)
	}

	r := &Round{
		cfg:         cfg,
		questions:   questions,
		clock:       clockwork.NewRealClock(),
		autoAdvance: DefaultAutoAdvanceDelay,
		subscribers: make(map[chan domain.RoundSnapshot]struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.mu.Lock()
	r.beginQuestionLocked()
	r.mu.Unlock()
	return r, nil
}

// ID returns the id given with WithID.
func (r *Round) ID() string {
	return r.id
}

// SubmitAnswer resolves the current question with option.
// It reports false, changing nothing, when the question is already resolved
// or the round is over.
func (r *Round) SubmitAnswer(option int) (domain.Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.pendingLocked() {
		return r.outcome, false
	}

	q := r.questions[r.index]
	outcome := domain.AnsweredWith(option, q.Answer)
	if outcome.Kind == domain.Correct {
		r.score++
	}
	r.resolveLocked(outcome)
	if outcome.Kind == domain.Correct {
		r.scheduleAdvanceLocked()
	}
	return outcome, true
}

// OnTick counts down one second on the pending question and times it out at zero.
// It reports false when nothing changed.
func (r *Round) OnTick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pendingLocked() {
		return false
	}
	r.tickLocked()
	return true
}

// Advance moves past a resolved question, finishing the round after the last one.
// It reports false, changing nothing, while the question is still pending or the round is over.
func (r *Round) Advance() bool {
	r.mu.Lock()
	if r.closed || r.finished || !r.outcome.Resolved() {
		r.mu.Unlock()
		return false
	}
	finished := r.advanceLocked()
	r.mu.Unlock()

	if finished {
		r.notifyFinish()
	}
	return true
}

// Close tears the round down: both scheduled tasks are cancelled and
// subscriber channels closed. Safe to call more than once.
func (r *Round) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.stopTickLocked()
	r.stopAdvanceLocked()
	if !r.finished {
		log.Debug().Str("round_id", r.id).Int("index", r.index).Int("score", r.score).Msg("round abandoned")
	}
	for ch := range r.subscribers {
		delete(r.subscribers, ch)
		close(ch)
	}
	r.closeDoneLocked()
}

// Done is closed when the round finishes or is closed.
func (r *Round) Done() <-chan struct{} {
	return r.done
}

// Result returns the final score; false until the round has finished.
func (r *Round) Result() (domain.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.finished
}

// Snapshot returns the current state.
func (r *Round) Snapshot() domain.RoundSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change,
// starting with the current one. Slow readers only miss intermediate states.
// The caller must invoke the returned cancel function to avoid leaks.
func (r *Round) Subscribe() (<-chan domain.RoundSnapshot, func()) {
	ch := make(chan domain.RoundSnapshot, 8)

	r.mu.Lock()
	ch <- r.snapshotLocked()
	if r.closed {
		close(ch)
		r.mu.Unlock()
		return ch, func() {}
	}
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

func (r *Round) pendingLocked() bool {
	return !r.closed && !r.finished && !r.outcome.Resolved()
}

func (r *Round) beginQuestionLocked() {
	r.phase++
	r.outcome = domain.Outcome{}
	r.timeLeft = r.cfg.TimerSeconds

	stop := make(chan struct{})
	r.stopTick = stop
	go r.runTicker(r.phase, r.clock.NewTicker(tickInterval), stop)
}

func (r *Round) runTicker(phase uint64, ticker clockwork.Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.Chan():
			if !r.tickPhase(phase) {
				return
			}
		case <-stop:
			return
		}
	}
}

// tickPhase reports whether the ticker for phase should keep running.
func (r *Round) tickPhase(phase uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != phase || !r.pendingLocked() {
		return false
	}
	return r.tickLocked()
}

// tickLocked reports whether the question is still pending afterwards.
func (r *Round) tickLocked() bool {
	r.timeLeft--
	if r.timeLeft <= 0 {
		r.timeLeft = 0
		r.resolveLocked(domain.Timeout())
		return false
	}
	r.broadcastLocked()
	return true
}

func (r *Round) resolveLocked(outcome domain.Outcome) {
	r.outcome = outcome
	r.stopTickLocked()
	log.Debug().
		Str("round_id", r.id).
		Int("index", r.index).
		Stringer("outcome", outcome.Kind).
		Int("score", r.score).
		Msg("question resolved")
	r.broadcastLocked()
}

func (r *Round) scheduleAdvanceLocked() {
	r.stopAdvanceLocked()
	stop := make(chan struct{})
	r.stopAdvance = stop
	timer := r.clock.NewTimer(r.autoAdvance)
	phase := r.phase

	go func() {
		select {
		case <-timer.Chan():
			r.advancePhase(phase)
		case <-stop:
			timer.Stop()
		}
	}()
}

func (r *Round) advancePhase(phase uint64) {
	r.mu.Lock()
	if r.phase != phase || r.closed || r.finished || !r.outcome.Resolved() {
		r.mu.Unlock()
		return
	}
	r.stopAdvance = nil
	finished := r.advanceLocked()
	r.mu.Unlock()

	if finished {
		r.notifyFinish()
	}
}

// advanceLocked reports whether the round just finished.
func (r *Round) advanceLocked() bool {
	r.stopAdvanceLocked()
	if r.index+1 >= len(r.questions) {
		r.finished = true
		r.result = NewResult(r.score, len(r.questions))
		log.Info().Str("round_id", r.id).Int("score", r.score).Int("total", len(r.questions)).Msg("round finished")
		r.broadcastLocked()
		r.closeDoneLocked()
		return true
	}
	r.index++
	r.beginQuestionLocked()
	r.broadcastLocked()
	return false
}

func (r *Round) notifyFinish() {
	if r.onFinish == nil {
		return
	}
	r.mu.Lock()
	result := r.result
	r.mu.Unlock()
	r.onFinish(result)
}

func (r *Round) stopTickLocked() {
	if r.stopTick != nil {
		close(r.stopTick)
		r.stopTick = nil
	}
}

func (r *Round) stopAdvanceLocked() {
	if r.stopAdvance != nil {
		close(r.stopAdvance)
		r.stopAdvance = nil
	}
}

func (r *Round) closeDoneLocked() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

func (r *Round) broadcastLocked() {
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest snapshot so a slow reader still sees the latest state.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (r *Round) snapshotLocked() domain.RoundSnapshot {
	q := r.questions[r.index]
	snap := domain.RoundSnapshot{
		RoundID:      r.id,
		Index:        r.index,
		Total:        len(r.questions),
		Question:     q,
		Score:        r.score,
		Attempted:    r.index,
		TimeLeft:     r.timeLeft,
		TimerSeconds: r.cfg.TimerSeconds,
		Outcome:      r.outcome,
		Status:       domain.StatusPending,
	}
	if r.outcome.Resolved() {
		answer := q.Answer
		snap.CorrectAnswer = &answer
		snap.Attempted++
		snap.Status = domain.StatusResolved
	}
	switch {
	case r.finished:
		result := r.result
		snap.Result = &result
		snap.Status = domain.StatusFinished
	case r.closed:
		snap.Status = domain.StatusAbandoned
	}
	return snap
}
