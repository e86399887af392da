// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_5_flash_rounds/internal/config"
	"go_5_flash_rounds/internal/handlers"
	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/repository"
	"go_5_flash_rounds/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	// .envがあれば読み込む (ローカル開発用。無ければ無視)
	_ = godotenv.Load()

	log.Println("Config Loading...")
	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		// 開発時は色付きのテキストログ
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// スキーマのマイグレーション
	if err := db.AutoMigrate(
		&model.Dictionary{},
		&model.Word{},
		&model.Attempt{},
		&model.Round{},
		&model.RoundItem{},
	); err != nil {
		slog.Error("Error migrating database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Dependency Injection
	dictRepo := repository.NewGormDictionaryRepository()
	wordRepo := repository.NewGormWordRepository()
	attemptRepo := repository.NewGormAttemptRepository()
	roundRepo := repository.NewGormRoundRepository()

	dictService := service.NewDictionaryService(db, dictRepo, wordRepo)
	wordService := service.NewWordService(db, dictRepo, wordRepo, attemptRepo)
	attemptService := service.NewAttemptService(db, wordRepo, attemptRepo)
	roundService := service.NewRoundService(db, roundRepo, attemptRepo)

	dictHandler := handlers.NewDictionaryHandler(dictService, logger)
	wordHandler := handlers.NewWordHandler(wordService, logger)
	attemptHandler := handlers.NewAttemptHandler(attemptService, logger)
	roundHandler := handlers.NewRoundHandler(roundService, logger)

	// 4. Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// 所有者解決ミドルウェア。認証を無効にしている環境では
			// セッションIDのみで解決する開発用の実装に切り替える。
			if config.Cfg.Auth.Enabled {
				slog.Info("Applying production owner middleware")
				r.Use(middleware.OwnerAuthMiddleware(&config.Cfg))
			} else {
				slog.Warn("Auth disabled, applying dev owner middleware")
				r.Use(middleware.DevOwnerMiddleware)
			}

			// Dictionary routes
			r.Route("/dictionaries", func(r chi.Router) {
				r.Post("/", dictHandler.PostDictionary)
				r.Get("/", dictHandler.GetDictionaries)
				r.Get("/{dictionary_id}", dictHandler.GetDictionary)
				r.Patch("/{dictionary_id}", dictHandler.PatchDictionary)
				r.Delete("/{dictionary_id}", dictHandler.DeleteDictionary)
			})

			// Word routes
			r.Route("/words", func(r chi.Router) {
				r.Post("/", wordHandler.PostWord)
				r.Get("/", wordHandler.GetWords)
				r.Post("/reset-stats", wordHandler.ResetStats)
				r.Delete("/{word_id}", wordHandler.DeleteWord)
			})

			// Attempt routes (フリー練習)
			r.Post("/attempts", attemptHandler.PostAttempt)

			// Round routes
			r.Route("/rounds", func(r chi.Router) {
				r.Post("/", roundHandler.PostRound)
				r.Get("/{round_id}", roundHandler.GetRound)
				r.Post("/{round_id}/attempts", roundHandler.PostRoundAttempt)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sqlDB, err := db.DB()
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
