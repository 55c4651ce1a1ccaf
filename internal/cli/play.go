package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"times-table-circuit/internal/domain"
	"times-table-circuit/internal/game"
)

var errInputClosed = errors.New("input closed before the round finished")

// NewPlayCmd runs a single round in the terminal.
func NewPlayCmd() *cobra.Command {
	cfg := domain.RoundConfig{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a round in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			questions, err := game.NewGenerator(nil).Generate(cfg.Tables, cfg.QuestionCount)
			if err != nil {
				return err
			}
			round, err := game.NewRound(cfg, questions)
			if err != nil {
				return err
			}
			defer round.Close()

			_, err = playRound(ctx, round, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().IntSliceVar(&cfg.Tables, "tables", []int{2, 3, 4, 5}, "times tables to practise")
	cmd.Flags().IntVar(&cfg.QuestionCount, "count", 10, "number of questions")
	cmd.Flags().IntVar(&cfg.TimerSeconds, "timer", 8, "seconds per question")
	return cmd
}

// playRound drives round from line input: a number picks an option, and
// an empty line moves past a resolved question.
func playRound(ctx context.Context, round *game.Round, in io.Reader, out io.Writer) (domain.Result, error) {
	updates, cancel := round.Subscribe()
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-round.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	shownQuestion, shownOutcome, warned := -1, -1, -1
	for {
		select {
		case <-ctx.Done():
			round.Close()
			return domain.Result{}, ctx.Err()

		case snap, ok := <-updates:
			if !ok {
				return domain.Result{}, errors.New("round abandoned")
			}
			switch snap.Status {
			case domain.StatusPending:
				if snap.Index != shownQuestion {
					shownQuestion = snap.Index
					printQuestion(out, snap)
				}
				if snap.TimeLeft <= 3 && snap.TimeLeft > 0 && snap.TimeLeft != warned {
					warned = snap.TimeLeft
					fmt.Fprintf(out, "  ⏱ %d...\n", snap.TimeLeft)
				}
			case domain.StatusResolved:
				if snap.Index != shownOutcome {
					shownOutcome = snap.Index
					printOutcome(out, snap)
				}
			case domain.StatusFinished:
				printResult(out, *snap.Result)
				return *snap.Result, nil
			}

		case line, ok := <-lines:
			if !ok {
				if res, done := round.Result(); done {
					printResult(out, res)
					return res, nil
				}
				round.Close()
				return domain.Result{}, errInputClosed
			}
			handleLine(out, round, line)
		}
	}
}

func handleLine(out io.Writer, round *game.Round, line string) {
	snap := round.Snapshot()
	switch snap.Status {
	case domain.StatusPending:
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(snap.Question.Options) {
			fmt.Fprintf(out, "  Pick a number from 1 to %d\n", len(snap.Question.Options))
			return
		}
		round.SubmitAnswer(snap.Question.Options[n-1])
	case domain.StatusResolved:
		round.Advance()
	}
}

func printQuestion(out io.Writer, snap domain.RoundSnapshot) {
	fmt.Fprintf(out, "\nQuestion %d/%d (%ds)\n  %d × %d = ?\n", snap.Index+1, snap.Total, snap.TimerSeconds, snap.Question.OperandA, snap.Question.OperandB)
	for i, option := range snap.Question.Options {
		fmt.Fprintf(out, "  [%d] %d", i+1, option)
	}
	fmt.Fprintln(out)
}

func printOutcome(out io.Writer, snap domain.RoundSnapshot) {
	q := snap.Question
	answer := 0
	if snap.CorrectAnswer != nil {
		answer = *snap.CorrectAnswer
	}
	switch snap.Outcome.Kind {
	case domain.Correct:
		fmt.Fprintf(out, "  ⚡ Correct! Score %d/%d\n", snap.Score, snap.Attempted)
	case domain.Incorrect:
		fmt.Fprintf(out, "  ✗ Not quite: %d × %d = %d. Press enter to continue.\n", q.OperandA, q.OperandB, answer)
	case domain.TimedOut:
		fmt.Fprintf(out, "  ⏱ Time's up! %d × %d = %d. Press enter to continue.\n", q.OperandA, q.OperandB, answer)
	}
}

func printResult(out io.Writer, res domain.Result) {
	fmt.Fprintf(out, "\n%s %s\n%s\nScore: %d/%d (%d%%)\n",
		res.Encouragement.Emoji, res.Encouragement.Message, res.Encouragement.SubMessage,
		res.Score, res.Total, res.Percent)
}
