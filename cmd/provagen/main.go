package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/provalab/provagen/internal/genai"
	"github.com/provalab/provagen/internal/handler"
	appI18n "github.com/provalab/provagen/internal/i18n"
	"github.com/provalab/provagen/internal/model"
	"github.com/provalab/provagen/internal/session"
	"github.com/provalab/provagen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "provagen",
		Short: "AI-assisted exam authoring and delivery server",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `provagen --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "provagen.db", "SQLite database path")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty = api.openai.com)")
	f.String("llm-key", "", "API key for the generation provider")
	f.String("llm-model", "gpt-4o-mini", "Generation model name")
	f.Duration("llm-timeout", 120*time.Second, "Deadline for a single generation call")
	f.StringP("lang", "l", "pt", "Prompt and message language (en, pt)")
	f.Duration("exam-duration", 50*time.Minute, "Time allowed per exam session")
	f.String("cors-origin", "http://localhost:3000", "Allowed browser origin")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set PROVAGEN_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an exam's results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "provagen.db", "SQLite database path")
	f.String("exam-id", "", "Exam identifier (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("exam-id")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PROVAGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("provagen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/provagen")
	v.AddConfigPath("/etc/provagen")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default accounts if no users exist.
	if err := seedUsers(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Create generation client.
	gen, err := genai.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		lang,
	)
	if err != nil {
		return fmt.Errorf("create generation client: %w", err)
	}
	if err := gen.Ping(context.Background()); err != nil {
		return fmt.Errorf("generation health check: %w", err)
	}
	slog.Info("generation endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	cfg := model.Config{
		ExamDuration:  v.GetDuration("exam-duration"),
		LLMTimeout:    v.GetDuration("llm-timeout"),
		Lang:          lang,
		SecureCookies: v.GetBool("secure-cookies"),
		CORSOrigin:    v.GetString("cors-origin"),
	}

	// The session clock persists timed-out attempts itself.
	sessions := session.NewManager(cfg.ExamDuration, func(s *session.Session, res model.Result) {
		if _, err := db.SaveAttempt(model.AttemptRecord{
			ExamID:    s.Exam.ID,
			StudentID: s.StudentID,
			Score:     res.Score,
			Total:     res.Total,
			Answers:   s.Answers,
			StartedAt: s.StartedAt,
		}); err != nil {
			slog.Error("save expired attempt failed", "exam_id", s.Exam.ID, "error", err)
		}
	})
	defer sessions.Close()

	h := handler.New(db, gen, sessions, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"exam_duration", cfg.ExamDuration,
		"cors_origin", cfg.CORSOrigin,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportExamResults(v.GetString("exam-id"))
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func seedUsers(db *store.Store, adminPassword string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if adminPassword == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or PROVAGEN_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	accounts := []model.User{
		{Username: "admin", DisplayName: "Administrator", Role: model.UserRoleAdmin},
		{Username: "professor", DisplayName: "Prof. Ricardo Almeida", Role: model.UserRoleProfessor},
		{Username: "aluno", DisplayName: "Aluno Exemplo", Role: model.UserRoleStudent},
	}
	for _, u := range accounts {
		u.PasswordHash = string(hash)
		u.Active = true
		if _, err := db.CreateUser(u); err != nil {
			return fmt.Errorf("create user %s: %w", u.Username, err)
		}
	}

	slog.Info("seeded default accounts", "count", len(accounts))
	return nil
}
