package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/localrivet/restlauncher/internal/config"
	"github.com/localrivet/restlauncher/internal/launcher"
	"github.com/localrivet/restlauncher/internal/metrics"
	"github.com/localrivet/restlauncher/internal/secrets"
	"github.com/localrivet/restlauncher/pkg/dsn"
)

var (
	version = "0.1.0"
	cfgFile string
	logger  *slog.Logger
	cfg     *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "restlauncher",
		Short: "Entrypoint that generates a REST API from an existing database",
		Long: "restlauncher builds a connection URI from the deployment environment\n" +
			"and starts the external API generator with it. Invoked bare it launches\n" +
			"immediately, which is what a container entrypoint wants.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "engines" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger = newLogger(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return launch(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(uriCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(enginesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Log.Format == "text" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel(),
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build the connection URI and start the API generator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return launch(cmd.Context())
		},
	}
}

func launch(ctx context.Context) error {
	uri, err := buildURI(ctx)
	if err != nil {
		return err
	}

	argv := launcher.Argv(cfg.Tool, uri, cfg.Args)

	logger.Info("launching api generator",
		"tool", cfg.Tool,
		"uri", dsn.Redact(uri),
		"args", cfg.Args,
		"supervise", cfg.Supervise,
	)

	if cfg.Supervise {
		return superviseChild(ctx, argv)
	}

	// Exec never returns on success; from here on the process is the tool.
	return launcher.Exec(argv)
}

// buildURI resolves credential references and formats the connection URI.
// This is the only place the launcher touches the database parameters, and
// it is pure string work: no connection is ever attempted.
func buildURI(ctx context.Context) (string, error) {
	resolver := secrets.NewResolver()
	p := cfg.Params()

	var err error
	if p.Username, err = resolver.Resolve(ctx, p.Username); err != nil {
		return "", fmt.Errorf("failed to resolve username: %w", err)
	}
	if p.Password, err = resolver.Resolve(ctx, p.Password); err != nil {
		return "", fmt.Errorf("failed to resolve password: %w", err)
	}

	return dsn.Build(p), nil
}

func superviseChild(ctx context.Context, argv []string) error {
	m := metrics.New("restlauncher")
	m.SetBuildInfo(version)

	state := &childState{}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(state))

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Monitoring.HealthPort),
		Handler: mux,
	}

	go func() {
		logger.Info("health server starting", "port", cfg.Monitoring.HealthPort)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Monitoring.MetricsPort),
		Handler: metrics.Handler(),
	}

	go func() {
		logger.Info("metrics server starting", "port", cfg.Monitoring.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	code, err := launcher.Supervise(ctx, logger, argv, func(pid int) {
		state.recordStart(pid)
		m.RecordChildStart(pid)
	})
	if err != nil {
		return err
	}

	state.recordExit(code)
	m.RecordChildExit(code)
	logger.Info("api generator exited", "code", code)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	healthServer.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)

	os.Exit(code)
	return nil
}

func uriCmd() *cobra.Command {
	var redact bool

	cmd := &cobra.Command{
		Use:   "uri",
		Short: "Print the constructed connection URI without launching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := buildURI(cmd.Context())
			if err != nil {
				return err
			}

			if redact {
				uri = dsn.Redact(uri)
			}

			fmt.Println(uri)
			return nil
		},
	}

	cmd.Flags().BoolVar(&redact, "redact", false, "mask the password segment")

	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report the resolved launch configuration",
		Long: "check prints what a launch would do: where the tool binary lives,\n" +
			"which database parameters are unset, and the redacted URI. Empty\n" +
			"parameters are warnings only — the launch contract passes them\n" +
			"through untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := exec.LookPath(cfg.Tool)
			if err != nil {
				fmt.Printf("Tool: %s NOT FOUND in PATH\n", cfg.Tool)
				return fmt.Errorf("failed to locate %s: %w", cfg.Tool, err)
			}
			fmt.Printf("Tool: %s\n", path)

			params := map[string]string{
				"DB_TYPE":   cfg.Database.Type,
				"DB_DRIVER": cfg.Database.Driver,
				"USERNAME":  cfg.Database.Username,
				"PASSWORD":  cfg.Database.Password,
				"DB_HOST":   cfg.Database.Host,
				"DB_PORT":   cfg.Database.Port,
				"DATABASE":  cfg.Database.Name,
			}
			for _, name := range []string{"DB_TYPE", "DB_DRIVER", "USERNAME", "PASSWORD", "DB_HOST", "DB_PORT", "DATABASE"} {
				if params[name] == "" {
					fmt.Printf("Warning: %s is empty\n", name)
				} else if secrets.IsReference(params[name]) {
					fmt.Printf("%s: secret reference\n", name)
				}
			}

			if e, ok := dsn.Lookup(cfg.Database.Type); ok {
				fmt.Printf("Engine: %s (common drivers: %s", e.Tag, strings.Join(e.Drivers, ", "))
				if e.DefaultPort != "" {
					fmt.Printf(", conventional port %s", e.DefaultPort)
				}
				fmt.Println(")")
			} else if cfg.Database.Type != "" {
				fmt.Printf("Engine: %s (not a well-known tag; passed through as-is)\n", cfg.Database.Type)
			}

			uri, err := buildURI(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("URI: %s\n", dsn.Redact(uri))

			if cfg.Args != "" {
				fmt.Printf("Args: %v\n", launcher.SplitArgs(cfg.Args))
			}

			return nil
		},
	}
}

func enginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List well-known database engine families",
		Run: func(cmd *cobra.Command, args []string) {
			table := tablewriter.NewWriter(os.Stdout)
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"DB_TYPE", "Drivers", "Port", "Notes"})

			for _, e := range dsn.Engines() {
				table.Append([]string{
					e.Tag,
					strings.Join(e.Drivers, ", "),
					e.DefaultPort,
					e.Notes,
				})
			}

			table.Render()
		},
	}
}

type childState struct {
	mu       sync.Mutex
	pid      int
	started  time.Time
	exited   bool
	exitCode int
}

func (s *childState) recordStart(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid = pid
	s.started = time.Now()
}

func (s *childState) recordExit(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exited = true
	s.exitCode = code
}

func healthHandler(state *childState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		pid, started, exited, exitCode := state.pid, state.started, state.exited, state.exitCode
		state.mu.Unlock()

		status := "starting"
		switch {
		case exited:
			status = "exited"
			w.WriteHeader(http.StatusServiceUnavailable)
		case pid != 0:
			status = "running"
		}

		fmt.Fprintf(w, "status: %s\n", status)
		if pid != 0 {
			fmt.Fprintf(w, "pid: %d\n", pid)
			fmt.Fprintf(w, "started: %s\n", started.Format(time.RFC3339))
		}
		if exited {
			fmt.Fprintf(w, "exit_code: %d\n", exitCode)
		}
	}
}
