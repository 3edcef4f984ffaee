package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam-grading-service/internal/app"
	"exam-grading-service/internal/config"
	"exam-grading-service/internal/infra/memory"
	pgstore "exam-grading-service/internal/infra/postgres"
	redisinfra "exam-grading-service/internal/infra/redis"
	transport "exam-grading-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// NewWorkerCmd builds the CLI subcommand that runs the grading worker
// and the trigger/read API.
func NewWorkerCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the grading/ranking worker and trigger API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), *configPath, *port)
		},
	}
}

// pipelineDeps bundles the store/queue/cache implementations selected
// from config. Without Postgres the worker runs on a seeded in-memory
// store; without Redis it runs on an in-process queue and cache.
type pipelineDeps struct {
	grade   app.GradeStore
	ranking app.RankingStore
	reads   app.ReadStore
	queue   app.TaskQueue
	cache   app.LeaderboardCache
	pool    *pgxpool.Pool
}

func (d *pipelineDeps) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

func buildDeps(ctx context.Context, cfg config.Config) (*pipelineDeps, error) {
	deps := &pipelineDeps{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		deps.pool = pool
		store := pgstore.NewStore(pool)
		deps.grade, deps.ranking, deps.reads = store, store, store
	} else {
		store := memory.NewStore()
		seedSampleExam(store)
		deps.grade, deps.ranking, deps.reads = store, store, store
	}

	leaderboardTTL := config.Duration(cfg.Leaderboard.TTL, 10*time.Minute)
	if redisClient != nil {
		deps.queue = redisinfra.NewQueue(redisClient, 5*time.Second)
		deps.cache = redisinfra.NewLeaderboardCache(redisClient, leaderboardTTL)
	} else {
		deps.queue = memory.NewQueue(64)
		deps.cache = memory.NewLeaderboardCache()
	}
	return deps, nil
}

func runWorker(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8081"
	}

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	grader := app.NewGrader(deps.grade)
	builder := app.NewRankingBuilder(deps.ranking, deps.cache)
	interval := config.Duration(cfg.Grading.Interval, time.Minute)
	worker := app.NewWorker(deps.queue, grader, builder, interval)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(workerCtx); err != nil {
			log.Printf("worker stopped with error: %v", err)
		}
	}()

	handler := transport.NewHandler(deps.queue, deps.reads, deps.cache)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting grading service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down grading service...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down grading service...")
	}

	stopWorker()
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedSampleExam provides demo data for the no-database mode: one exam,
// two weighted questions, two ungraded attempts ready for a pass.
func seedSampleExam(store *memory.Store) {
	const examID, alice, bob = 1, 1, 2

	q1 := store.AddQuestion("What is 2 + 2?", decimal.NewFromInt(3))
	q1Right := store.AddAnswer(q1, "4", true)
	q1Wrong := store.AddAnswer(q1, "5", false)

	q2 := store.AddQuestion("Capital of Brazil?", decimal.NewFromInt(2))
	q2Right := store.AddAnswer(q2, "Brasília", true)
	store.AddAnswer(q2, "Rio de Janeiro", false)

	t1 := store.AddAttempt(alice, examID)
	store.AddParticipantAnswer(t1, q1, q1Right)
	store.AddParticipantAnswer(t1, q2, q2Right)

	t2 := store.AddAttempt(bob, examID)
	store.AddParticipantAnswer(t2, q1, q1Wrong)
	store.AddParticipantAnswer(t2, q2, q2Right)
}
