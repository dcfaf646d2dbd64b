package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/example/serverless-task-api/config"
	"github.com/example/serverless-task-api/middleware/servicelog"
	"github.com/example/serverless-task-api/modules/api"
	"github.com/example/serverless-task-api/modules/identity"
	"github.com/example/serverless-task-api/modules/task"
	"github.com/example/serverless-task-api/storage"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var version = "dev"

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "task-api",
	Short: "User-scoped task management API",
	Long: `task-api serves a small task-management API: users register and log in
through an identity provider, then create, list, update and delete their own
tasks. Every task operation is scoped to the authenticated caller.

Configuration is read from the environment; the flags below override it.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("task-api %s\n", version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Int("port", 3000, "HTTP listen port")
	flags.String("store-driver", storage.DriverSQLite, "task store backend: sqlite, postgres or dynamodb")
	flags.String("identity-provider", identity.ProviderLocal, "identity provider: local or cognito")
	flags.String("authorizer-shape", api.ShapeJWT, "authorizer context shape: jwt or claims")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	v := cfg.Viper()
	for key, flag := range map[string]string{
		config.KeyHTTPPort:         "port",
		config.KeyStoreDriver:      "store-driver",
		config.KeyIdentityProvider: "identity-provider",
		config.KeyAuthorizerShape:  "authorizer-shape",
		config.KeyLogLevel:         "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func serve(ctx context.Context) error {
	log.Println("=== Serverless Task API ===")

	level := parseLevel(cfg.String(config.KeyLogLevel))
	monoLevel := mono.LogLevelInfo
	if level >= slog.LevelError {
		monoLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(monoLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	serviceLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// One lazily opened store is shared by the task and identity modules.
	store := storage.NewLazy(func(ctx context.Context) (storage.Backend, error) {
		return storage.Open(ctx, cfg)
	})

	// Middleware first, then independent modules, then the front door.
	app.Register(servicelog.New(servicelog.WithLogger(serviceLogger)))
	app.Register(identity.NewModule(cfg, store))
	app.Register(task.NewModule(store))
	app.Register(api.NewModule(cfg))

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
	return nil
}

// parseLevel reads a slog level name, defaulting to info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("  Store driver:      %s", cfg.String(config.KeyStoreDriver))
	log.Printf("  Identity provider: %s", cfg.String(config.KeyIdentityProvider))
	log.Printf("  Authorizer shape:  %s", cfg.String(config.KeyAuthorizerShape))
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.Int(config.KeyHTTPPort))
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /register         - Sign up, confirm and store the user profile")
	log.Println("  POST   /login            - Authenticate and get tokens")
	log.Println("  GET    /health           - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /tasks            - List your tasks")
	log.Println("  POST   /tasks            - Create a task")
	log.Println("  PUT    /tasks/:taskId    - Update a task")
	log.Println("  DELETE /tasks/:taskId    - Delete a task")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
