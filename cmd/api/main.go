package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/family-budget/internal/api/handlers"
	"github.com/dvloznov/family-budget/internal/api/middleware"
	"github.com/dvloznov/family-budget/internal/cache"
	"github.com/dvloznov/family-budget/internal/config"
	"github.com/dvloznov/family-budget/internal/jobs"
	"github.com/dvloznov/family-budget/internal/jobs/inmemory"
	"github.com/dvloznov/family-budget/internal/logger"
	"github.com/dvloznov/family-budget/internal/parser"
	"github.com/dvloznov/family-budget/internal/storage/postgres"
)

// sessionCleanupInterval is how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := logger.New()

	ctx := context.Background()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	store := postgres.NewStorage(pool)

	dataCache, err := cache.New(cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache")
	}
	defer dataCache.Close()

	completer, err := parser.NewGeminiCompleter(ctx, parser.WithModel(cfg.GeminiModel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	smartParser := parser.New(completer, parser.WithLogger(log))

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkerCount(cfg.WorkerCount))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// The background handler runs the same parse as the synchronous endpoint
	// and stores the result on the job. A parse-level failure still completes
	// the job; only infrastructure faults fail it.
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		parseJob, ok := job.(*jobs.ParseInputJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", parseJob.JobID).
			Str("user_id", parseJob.UserID).
			Msg("Processing parse job")

		result := smartParser.ParseInput(ctx, parseJob.Text, parseJob.KnownCategories)
		parseJob.Result = &result

		if result.Failed() {
			log.Info().
				Str("job_id", parseJob.JobID).
				Str("error", result.Err.Message).
				Msg("Parse job completed with parse error")
		}
		return nil
	}

	go func() {
		log.Info().Msg("Starting parse workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Parse workers stopped with error")
		}
	}()

	// Expired sessions are cheap to keep but pile up; purge hourly.
	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if err := store.CleanupExpiredSessions(workerCtx); err != nil {
					log.Error().Err(err).Msg("Session cleanup failed")
				}
			}
		}
	}()

	// Initialize handlers
	parseHandler := handlers.NewParseHandler(smartParser, store, dataCache, jobQueue, log)
	budgetHandler := handlers.NewBudgetHandler(store, dataCache, log)
	categoriesHandler := handlers.NewCategoriesHandler(store, dataCache, log)
	transactionsHandler := handlers.NewTransactionsHandler(store, dataCache, log)
	profilesHandler := handlers.NewProfilesHandler(store, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Smart input endpoints
	mux.HandleFunc("/api/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			parseHandler.Parse(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/parse/async", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			parseHandler.ParseAsync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Budget endpoint
	mux.HandleFunc("/api/budget", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			budgetHandler.GetBudget(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Categories endpoints
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			categoriesHandler.ListCategories(w, r)
		case http.MethodPost:
			categoriesHandler.CreateCategory(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories/command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			categoriesHandler.ApplyCommand(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/categories/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Category ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			categoriesHandler.UpdateCategory(w, r, id)
		case http.MethodDelete:
			categoriesHandler.DeleteCategory(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/recent", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.RecentTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, id)
		case http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Profiles endpoints
	mux.HandleFunc("/api/profiles", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			profilesHandler.ListProfiles(w, r)
		case http.MethodPost:
			profilesHandler.CreateProfile(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/profiles/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/profiles/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Profile ID is required")
			return
		}
		if r.Method == http.MethodPut {
			profilesHandler.UpdateProfile(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Sessions endpoints
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			profilesHandler.CreateSession(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
		if token == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Session token is required")
			return
		}
		switch r.Method {
		case http.MethodGet:
			profilesHandler.GetSession(w, r, token)
		case http.MethodDelete:
			profilesHandler.DeleteSession(w, r, token)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.ServerPort).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
