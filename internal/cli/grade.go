package cli

import (
	"context"
	"log"

	"exam-grading-service/internal/app"
	"exam-grading-service/internal/config"
	"github.com/spf13/cobra"
)

// NewGradeCmd builds the one-shot grading subcommand: grade every
// ungraded attempt and rebuild the affected leaderboards, then exit.
func NewGradeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "grade",
		Short: "Run a single grading pass and rebuild affected leaderboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGradeOnce(cmd.Context(), *configPath)
		},
	}
}

func runGradeOnce(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	grader := app.NewGrader(deps.grade)
	builder := app.NewRankingBuilder(deps.ranking, deps.cache)
	worker := app.NewWorker(nil, grader, builder, 0)

	if err := worker.RunOnce(ctx); err != nil {
		return err
	}
	log.Printf("grading pass complete")
	return nil
}
