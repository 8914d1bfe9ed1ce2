package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/medrank/tracker/internal/handler"
	appI18n "github.com/medrank/tracker/internal/i18n"
	"github.com/medrank/tracker/internal/llm"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/store"
	"github.com/medrank/tracker/internal/tracker"
)

func main() {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "medrank",
		Short: "NEET PG / INI CET grand test score tracker",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), scoreboardCmd(), listCmd(), importCmd(), analyzeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `medrank --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// storageFlags registers the flags every command needs to reach the tests.
func storageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "medrank.db", "SQLite database path")
	f.String("storage-driver", "sqlite", "Storage backend (sqlite, redis)")
	f.String("redis-addr", "localhost:6379", "Redis address when --storage-driver=redis")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func llmFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-provider", llm.ProviderGemini, "AI provider (gemini, openai)")
	f.String("llm-url", "", "API base URL (empty for the provider default)")
	f.String("llm-key", "", "API key (or set API_KEY, GEMINI_API_KEY, OPENAI_API_KEY)")
	f.String("llm-model", "", "Model name (empty for the provider default)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP dashboard",
		RunE:  runServe,
	}
	storageFlags(cmd)
	llmFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default UI language (en, hi)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /medrank)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
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

	v.SetEnvPrefix("MEDRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("medrank")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/medrank")
	v.AddConfigPath("/etc/medrank")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// apiKey returns the configured key, falling back to the usual provider
// environment variables.
func apiKey(v *viper.Viper) string {
	if key := v.GetString("llm-key"); key != "" {
		return key
	}
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

func openStore(ctx context.Context, v *viper.Viper) (store.Blob, error) {
	b, err := store.Open(ctx, store.Config{
		Driver:        v.GetString("storage-driver"),
		Path:          v.GetString("db"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return b, nil
}

// newController opens storage, loads the persisted tests and attaches an
// analyzer. Commands that never analyze pass withLLM=false. The returned
// cleanup closes everything that was opened.
func newController(ctx context.Context, v *viper.Viper, withLLM bool) (*tracker.Controller, func(), error) {
	blob, err := openStore(ctx, v)
	if err != nil {
		return nil, nil, err
	}
	closers := []io.Closer{blob}
	cleanup := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				slog.Warn("close failed", "error", err)
			}
		}
	}

	var summarizer llm.Summarizer
	if withLLM {
		summarizer, err = llm.New(ctx, llm.Config{
			Provider: v.GetString("llm-provider"),
			BaseURL:  v.GetString("llm-url"),
			APIKey:   apiKey(v),
			Model:    v.GetString("llm-model"),
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create LLM client: %w", err)
		}
		if c, ok := summarizer.(io.Closer); ok {
			closers = append(closers, c)
		}
	}

	ctrl := tracker.New(blob, llm.NewRequester(summarizer))
	if err := ctrl.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return ctrl, cleanup, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	ctrl, cleanup, err := newController(ctx, v, true)
	if err != nil {
		return err
	}
	defer cleanup()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.AppConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Lang:          lang,
	}
	h := handler.New(ctrl, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(basePath, cfg.SecureCookies))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"storage", v.GetString("storage-driver"),
		"llm_provider", v.GetString("llm-provider"),
		"lang", lang,
		"base_path", basePath,
		"tests", ctrl.Count(),
	)
	return http.ListenAndServe(addr, r)
}
