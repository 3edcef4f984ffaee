package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"exam-grading-service/internal/app"
	"exam-grading-service/internal/config"
	"github.com/spf13/cobra"
)

// NewRankCmd builds the subcommand administrators use to force a
// leaderboard rebuild for one exam.
func NewRankCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rank <exam-id>",
		Short: "Rebuild the leaderboard of one exam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			examID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || examID <= 0 {
				return fmt.Errorf("invalid exam id %q", args[0])
			}
			return runRank(cmd.Context(), *configPath, examID)
		},
	}
}

func runRank(ctx context.Context, configPath string, examID int64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	builder := app.NewRankingBuilder(deps.ranking, deps.cache)
	if err := builder.Rebuild(ctx, examID); err != nil {
		return err
	}
	log.Printf("leaderboard rebuilt for exam %d", examID)
	return nil
}
