package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytwatch/internal/formatter"
	"github.com/desertthunder/ytwatch/internal/repositories"
	"github.com/desertthunder/ytwatch/internal/services"
	"github.com/desertthunder/ytwatch/internal/shared"
	"github.com/desertthunder/ytwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The store and source are opened lazily from the configuration unless injected.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.Source
	store      *repositories.Store
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *formatter.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.Source
	Store      *repositories.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    formatter.DefaultPalette,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, collectionsCommand, checkCommand, resolveCommand, exportCommand, authCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration named by --config, applies environment overrides
// and sets the log level. A missing file keeps the defaults.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	r.config.ApplyEnv(os.Getenv)
	return ctx, nil
}

// after closes the database opened by a command.
func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		err := r.db.Close()
		r.db, r.store = nil, nil
		return err
	}
	return nil
}

// openStore returns the injected store or opens the configured database and migrates it.
func (r *Runner) openStore() (*repositories.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	cfg := r.config.Database
	busy := shared.ParseDurationOrDefault(cfg.BusyTimeout, shared.DefaultBusyTimeout)
	db, err := shared.OpenDatabase(cfg.Path, busy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}
	shared.ConfigureDatabase(db, cfg.Path, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	r.db, r.store = db, repositories.NewStore(db)
	return r.store, nil
}

// openSource returns the injected source or builds the configured provider.
func (r *Runner) openSource() (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}

	yt := r.config.YouTube
	timeout := shared.ParseDurationOrDefault(yt.RequestTimeout, 15*time.Second)

	switch strings.ToLower(yt.Provider) {
	case "feed":
		r.source = services.NewFeedService(yt.FeedURL, r.httpClient, yt.RequestsPerSecond, timeout, r.logger)
	default:
		if yt.APIKey == "" && !yt.OAuth.Enabled() {
			return nil, fmt.Errorf("%w: set youtube.api_key, %s or youtube.oauth", shared.ErrMissingCredentials, shared.EnvYouTubeAPIKey)
		}
		r.source = services.NewYouTubeService(services.YouTubeOptions{
			BaseURL:           yt.BaseURL,
			APIKey:            yt.APIKey,
			OAuth:             yt.OAuth,
			HTTPClient:        r.httpClient,
			RequestTimeout:    timeout,
			RequestsPerSecond: yt.RequestsPerSecond,
			MaxResults:        yt.MaxResults,
			Logger:            r.logger,
		})
	}
	return r.source, nil
}

// newChecker wires the poll pipeline over the store, the source and sender.
func (r *Runner) newChecker(store *repositories.Store, source services.Source, sender tasks.Sender) *tasks.Checker {
	return tasks.NewChecker(tasks.CheckerOptions{
		Source:      source,
		Snapshots:   store.Items,
		Collections: store.Collections,
		Notifier:    tasks.NewNotifier(store.Notifications, sender, r.logger),
		MaxResults:  r.config.YouTube.MaxResults,
		Logger:      r.logger,
	})
}

// schedulerOptions maps the [scheduler] section onto [tasks.SchedulerOptions].
func (r *Runner) schedulerOptions() tasks.SchedulerOptions {
	cfg := r.config.Scheduler

	// an explicit "0s" pause disables spacing; an empty one keeps the default
	pause := shared.ParseDurationOrDefault(cfg.Pause, tasks.DefaultPause)
	if d, err := shared.ParseDurationField("scheduler.pause", cfg.Pause); err == nil && d == 0 && strings.TrimSpace(cfg.Pause) != "" {
		pause = -1
	}

	return tasks.SchedulerOptions{
		Cadence:          cfg.Cadence,
		InitialDelay:     shared.ParseDurationOrDefault(cfg.InitialDelay, tasks.DefaultInitialDelay),
		Pause:            pause,
		RespectIntervals: cfg.RespectIntervals,
		Logger:           r.logger,
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
