package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/repositories"
	"github.com/desertthunder/spotifsc/internal/services"
	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/desertthunder/spotifsc/internal/state"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	source     services.TrackSource
	checker    services.CredentialChecker
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Source or Checker is built from Config.
type RunnerOpts struct {
	Config     *shared.Config
	Source     services.TrackSource
	Checker    services.CredentialChecker
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
	if opts.Source == nil {
		opts.Source = services.NewAudioDBServiceFromConfig(opts.Config.AudioDB, opts.Logger)
	}
	if opts.Checker == nil {
		if allow, err := services.NewAllowListFromConfig(opts.Config.Auth); err != nil {
			opts.Logger.Warn("login disabled: invalid allow-list", "error", err)
		} else {
			opts.Checker = allow
		}
	}

	return &Runner{
		config:     opts.Config,
		source:     opts.Source,
		checker:    opts.Checker,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, tracksCommand, playlistsCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openDurable opens the configured database and returns the durable tier on top of it.
func (r *Runner) openDurable() (*repositories.DurableStore, *sql.DB, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repositories.NewSQLiteDurableStore(db, shared.WithLogger(r.logger, "tier", "durable")), db, nil
}

// passwordPolicy is the login policy from the [auth] config section.
func (r *Runner) passwordPolicy() *shared.PasswordPolicy {
	p := shared.PasswordPolicyFor(r.config.Auth.PasswordRule, r.config.Auth.PasswordMinLength)
	return &p
}

// newStore builds a store over durable with a process-lifetime ephemeral tier.
func (r *Runner) newStore(durable state.PlaylistRepository) *state.Store {
	return state.NewStore(state.StoreOpts{
		Durable:   durable,
		Ephemeral: repositories.NewEphemeralStore(repositories.NewMemoryKV(), r.logger),
		Source:    r.source,
		Checker:   r.checker,
		Policy:    r.passwordPolicy(),
		Logger:    r.logger,
	})
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
