package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/repositories"
	"github.com/desertthunder/raff/internal/services"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/desertthunder/raff/internal/tasks"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

// bookLookup resolves a book snapshot from its key.
type bookLookup interface {
	BookByKey(ctx context.Context, key string) (*models.Book, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Injected dependencies are kept; anything missing is built from the config in [Runner.Before].
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	catalog   services.Catalog
	assistant services.Assistant
	archive   tasks.Downloader

	storage   repositories.Storage
	db        *sql.DB
	favorites *repositories.FavoritesStore
	reviews   *repositories.ReviewStore
	downloads *repositories.DownloadCounter
	prefs     *repositories.Preferences
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Assistant  services.Assistant
	Archive    tasks.Downloader
	Storage    repositories.Storage
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
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
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		catalog:    opts.Catalog,
		assistant:  opts.Assistant,
		archive:    opts.Archive,
		storage:    opts.Storage,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "raff",
		Usage:   "Discover, read and collect books from Open Library",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, detailsCommand, subjectCommand, coverCommand, homeCommand, infoCommand, summaryCommand,
		favoritesCommand, reviewsCommand, downloadsCommand, themeCommand, setupCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config, applies the log level and builds any service that was not injected.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") || r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if r.config == nil {
		r.config = shared.DefaultConfig()
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	if level != "" {
		if err := shared.ApplyLogLevel(r.logger, level); err != nil {
			return ctx, err
		}
	}

	if cmd.Bool("no-color") || r.output != os.Stdout || !isTTY() {
		color.NoColor = true
	}

	r.initServices()
	return ctx, nil
}

// After closes the database, if one was opened.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

func (r *Runner) initServices() {
	cfg := r.config
	if r.catalog == nil {
		r.catalog = services.NewOpenLibrary(services.OpenLibraryOpts{
			BaseURL:           cfg.Catalog.BaseURL,
			CoversURL:         cfg.Catalog.CoversURL,
			UserAgent:         cfg.Catalog.UserAgent,
			HTTPClient:        r.httpClient,
			Retrier:           services.NewRetrier(cfg.Catalog.MaxAttempts, cfg.Catalog.BaseDelay(), r.logger),
			RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
			Logger:            r.logger,
		})
	}
	if r.assistant == nil {
		r.assistant = services.NewGemini(services.GeminiOpts{
			BaseURL:     cfg.Generative.BaseURL,
			Model:       cfg.Generative.Model,
			APIKey:      cfg.Generative.ResolveAPIKey(),
			AccessToken: cfg.Generative.AccessToken,
			HTTPClient:  r.httpClient,
			Logger:      r.logger,
		})
	}
	if r.archive == nil {
		r.archive = services.NewArchive("", r.httpClient, r.logger)
	}
}

// openStores builds the local stores on first use.
//
// A database that cannot be opened falls back to in-memory storage, so
// commands keep working for the current process.
func (r *Runner) openStores() {
	if r.favorites != nil {
		return
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	if r.storage == nil {
		db, err := shared.OpenStore(r.config.Database)
		if err != nil {
			r.logger.Warn("failed to open database, using in-memory storage", "path", r.config.Database.Path, "error", err)
			r.storage = repositories.NewMemoryStorage()
		} else {
			r.db = db
			r.storage = repositories.NewSQLiteStorage(db)
		}
	}

	enc, err := repositories.ParseKeyEncoding(r.config.Reviews.KeyEncoding)
	if err != nil {
		r.logger.Warn("invalid review key encoding, using hashed", "value", r.config.Reviews.KeyEncoding)
		enc = repositories.HashedKeys
	}

	r.favorites = repositories.NewFavoritesStore(r.storage, r.logger)
	r.reviews = repositories.NewReviewStore(r.storage, enc, r.logger)
	r.downloads = repositories.NewDownloadCounter(r.storage, r.logger)
	r.prefs = repositories.NewPreferences(r.storage, r.logger)
}

// resolveBook looks a book up by key through the catalog.
func (r *Runner) resolveBook(ctx context.Context, key string) (models.Book, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Book{}, fmt.Errorf("%w: book key", shared.ErrMissingArgument)
	}
	lookup, ok := r.catalog.(bookLookup)
	if !ok {
		return models.Book{}, fmt.Errorf("%w: catalog cannot look up books by key", shared.ErrServiceUnavailable)
	}
	book, err := lookup.BookByKey(ctx, key)
	if err != nil {
		return models.Book{}, err
	}
	return *book, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

// writeOK prints a line prefixed with a green check mark.
func (r *Runner) writeOK(format string, args ...any) {
	r.writePlain("%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// writeFail prints a line prefixed with a red cross.
func (r *Runner) writeFail(format string, args ...any) {
	r.writePlain("%s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
