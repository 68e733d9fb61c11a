package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-training-service/internal/app"
	"quiz-training-service/internal/config"
	"quiz-training-service/internal/domain"
	"quiz-training-service/internal/infra/memory"
	pgstore "quiz-training-service/internal/infra/postgres"
	redisstore "quiz-training-service/internal/infra/redis"
	transport "quiz-training-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the training server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
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
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		progress    app.ProgressStore
		questions   app.QuestionStore
		leaderboard app.LeaderboardStore
		users       app.UserStore
		courses     app.CourseStore
	)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		progress = pgstore.NewProgressStore(db)
		questions = pgstore.NewQuestionStore(pool)
		leaderboard = pgstore.NewLeaderboardStore(db)
		users = pgstore.NewUserStore(db)
		courses = pgstore.NewCourseStore(db)
	} else {
		progress = memory.NewProgressStore()
		questions = memory.NewQuestionStore(sampleQuestions())
		leaderboard = memory.NewLeaderboardStore()
		identities := memory.NewIdentityStore()
		seedIdentities(identities)
		users = identities
		courses = identities.Courses()
	}

	if redisClient != nil {
		statsTTL := config.TTLDuration(cfg.Training.StatsTTL, 10*time.Minute)
		questions = redisstore.NewQuestionCache(questions, redisClient, statsTTL)
	}

	scorer := app.NewLeaderboardScorer(leaderboard, users, courses)
	training := app.NewTrainingService(progress, questions, scorer)
	handler := transport.NewHandler(training, scorer, questions)

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
		log.Printf("starting training service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal training pool for running without a
// database.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:       "q1",
			CourseID: "course-1",
			Prompt:   "What is 2 + 2?",
			Options: []domain.Option{
				{ID: "o1", Text: "3", Correct: false},
				{ID: "o2", Text: "4", Correct: true},
				{ID: "o3", Text: "5", Correct: false},
			},
			Points:           1,
			PracticeEligible: true,
		},
		{
			ID:       "q2",
			CourseID: "course-1",
			Prompt:   "What is 7 * 6?",
			Options: []domain.Option{
				{ID: "o1", Text: "42", Correct: true},
				{ID: "o2", Text: "48", Correct: false},
			},
			Points:           1,
			PracticeEligible: true,
		},
	}
}

func seedIdentities(identities *memory.IdentityStore) {
	identities.AddCourse(domain.Course{ID: "course-1", Title: "Demo course"})
	identities.AddUser(domain.User{ID: "u1", DisplayName: "Alice"})
	identities.AddUser(domain.User{ID: "u2", DisplayName: "Bob"})
}
