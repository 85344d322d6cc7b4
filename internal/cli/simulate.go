package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"quiz-challenge-service/internal/app"
	"quiz-challenge-service/internal/challenge"
	"quiz-challenge-service/internal/config"
	"quiz-challenge-service/internal/domain"
	"quiz-challenge-service/internal/infra/memory"
)

type simulateOptions struct {
	quizID      string
	mode        string
	accuracy    float64
	timeoutRate float64
	maxRestarts int
	seed        int64
}

// NewSimulateCmd plays challenges headless against a scripted human.
func NewSimulateCmd(configPath *string) *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a challenge from the sample catalogue with a scripted human",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.quizID, "quiz", "solana-fundamentals", "quiz id from the sample catalogue")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "race, turns or solo (defaults to config)")
	cmd.Flags().Float64Var(&opts.accuracy, "accuracy", 0.7, "probability the scripted human answers correctly")
	cmd.Flags().Float64Var(&opts.timeoutRate, "timeout-rate", 0.1, "probability the scripted human lets a question time out")
	cmd.Flags().IntVar(&opts.maxRestarts, "max-restarts", 5, "give up after this many restarts")
	cmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed for the scripted human")
	return cmd
}

func runSimulation(ctx context.Context, out io.Writer, cfg config.Config, opts simulateOptions) error {
	settings, err := challengeSettings(cfg)
	if err != nil {
		return err
	}
	minFee := cfg.Vault.MinEntryFee
	if minFee <= 0 || minFee > settings.EntryFee {
		minFee = settings.EntryFee
	}

	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Hour)
	quiz, err := quizzes.GetQuiz(ctx, opts.quizID)
	if err != nil {
		return fmt.Errorf("simulate %s: %w", opts.quizID, err)
	}
	vault := memory.NewVault(10*settings.EntryFee, minFee, time.Hour)
	service := app.NewChallengeService(memory.NewChallengeStore(), quizzes, vault, vault, settings)
	human := rand.New(rand.NewSource(opts.seed))

	const userID = "simulator"
	view, err := service.Start(ctx, domain.StartRequest{UserID: userID, QuizID: quiz.ID, Mode: domain.Mode(opts.mode)})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "challenge %s: %q, %d questions, %s mode, entry %d lamports\n",
		view.ID, quiz.Title, len(quiz.Questions), view.State.Mode, view.Entry.Amount)

	for view.State.Phase != domain.PhaseCompleted || !domain.RewardEligible(view.State) {
		if view.State.Phase == domain.PhaseCompleted {
			if view.Restarts >= opts.maxRestarts {
				break
			}
			fmt.Fprintf(out, "run earned nothing (human %d - opponent %d), restarting\n", view.State.HumanScore, view.State.OpponentScore)
			if view, err = service.Restart(ctx, view.ID, userID); err != nil {
				return err
			}
			continue
		}
		if view.Restarts > opts.maxRestarts {
			break
		}
		if view, err = playRound(ctx, out, service, view, quiz, human, opts); err != nil {
			return err
		}
	}

	final := view.State
	if final.Phase == domain.PhaseCompleted {
		fmt.Fprintf(out, "finished: %s, human %d - opponent %d after %d restarts\n", final.Result, final.HumanScore, final.OpponentScore, view.Restarts)
	} else {
		fmt.Fprintf(out, "gave up after %d restarts\n", view.Restarts)
	}
	if domain.RewardEligible(final) {
		reward, err := service.Claim(ctx, view.ID, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "claimed %d lamports (bonus %d)\n", reward.Amount, reward.Bonus)
		return nil
	}
	if err := service.Abandon(ctx, view.ID, userID); err != nil && !errors.Is(err, domain.ErrChallengeNotFound) {
		return err
	}
	fmt.Fprintln(out, "entry forfeited")
	return nil
}

// playRound lets the scripted human answer (or stall on) the current question
// and ticks until the challenge is waiting for the human again.
func playRound(ctx context.Context, out io.Writer, service *app.ChallengeService, view domain.ChallengeView, quiz domain.Quiz, human *rand.Rand, opts simulateOptions) (domain.ChallengeView, error) {
	idx := view.State.CurrentIndex
	q := quiz.Questions[idx]

	if view.State.Mode != domain.ModeSolo && human.Float64() < opts.timeoutRate {
		remaining := view.State.HumanTimeRemaining
		for i := 0; i < remaining; i++ {
			next, ev, err := service.Tick(ctx, view.ID)
			if err != nil {
				return view, err
			}
			view = next
			if ev.Kind == challenge.EventTimeout {
				fmt.Fprintf(out, "q%d: human timed out, opponent picked %q, progress lost\n", idx+1, q.Options[ev.OpponentOption])
				break
			}
		}
		return view, nil
	}

	choice := q.CorrectIndex
	if human.Float64() >= opts.accuracy {
		choice = (q.CorrectIndex + 1 + human.Intn(len(q.Options)-1)) % len(q.Options)
	}
	result, next, err := service.Answer(ctx, view.ID, view.UserID, choice)
	if err != nil {
		return view, err
	}
	view = next
	fmt.Fprintf(out, "q%d: human picked %q (correct=%t)\n", idx+1, q.Options[choice], result.Outcome.HumanCorrect)

	for view.State.Phase == domain.PhaseOpponentThinking || view.State.Phase == domain.PhaseRevealingOpponentAnswer {
		next, ev, err := service.Tick(ctx, view.ID)
		if err != nil {
			return view, err
		}
		view = next
		if ev.Kind == challenge.EventOpponentAnswered {
			fmt.Fprintf(out, "q%d: opponent picked %q\n", idx+1, q.Options[ev.OpponentOption])
		}
	}
	return view, nil
}
