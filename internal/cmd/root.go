package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/go-hr-session/apierr"
	"github.com/jrsteele09/go-hr-session/auth"
	"github.com/jrsteele09/go-hr-session/httpclient"
	"github.com/jrsteele09/go-hr-session/internal/config"
	"github.com/jrsteele09/go-hr-session/sessions"
	"github.com/jrsteele09/go-hr-session/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app is the composition root: it owns the one Manager every command uses.
type app struct {
	cfg          config.Config
	out          io.Writer
	manager      *sessions.Manager
	closeStorage func() error
}

// NewRootCommand builds the hrsession command tree. Output goes to out.
func NewRootCommand(cfg config.Config, out io.Writer) *cobra.Command {
	a := &app{cfg: cfg, out: out}

	rootCmd := &cobra.Command{
		Use:   "hrsession",
		Short: "Sign in to the HR console API and inspect the session",
		Long: `hrsession manages the HR console session from the command line.

The session survives between invocations: tokens and the signed-in user are
kept in the storage backend chosen by STORAGE_BACKEND (file, memory, redis,
postgres).

Examples:
  hrsession login --email jane@example.com --password '...'
  hrsession whoami --output yaml
  hrsession capabilities
  hrsession logout`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.open(cmd.Context()) },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.capabilitiesCommand(),
		a.changePasswordCommand(),
		a.verifyEmailCommand(),
		a.resendVerificationCommand(),
	)
	// cobra skips PersistentPostRunE when RunE fails
	for _, c := range rootCmd.Commands() {
		c.RunE = a.closeAfter(c.RunE)
	}
	return rootCmd
}

// ExecuteContext runs the CLI with configuration from the environment.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand(config.New(), os.Stdout).ExecuteContext(ctx)
}

// ConfigureLogging sets the global zerolog level and writes human readable
// logs to stderr.
func ConfigureLogging(cfg config.EnvConfig) {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func (a *app) open(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeStorage, err := openStorageFunc(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.closeStorage = closeStorage
	defer func() {
		if err != nil {
			_ = a.close()
		}
	}()

	tokens, err := token.NewStore(store)
	if err != nil {
		return err
	}
	client, err := httpclient.New(a.cfg.GetAPIBaseURL(), tokens, httpclient.WithTimeout(a.cfg.GetRequestTimeout()))
	if err != nil {
		return err
	}
	service, err := auth.NewService(client)
	if err != nil {
		return err
	}

	a.manager, err = sessions.NewManager(ctx, service, tokens, store)
	if err != nil {
		return errors.Wrap(err, "[app.open] failed to restore session")
	}
	return nil
}

func (a *app) close() error {
	if a.closeStorage == nil {
		return nil
	}
	closeStorage := a.closeStorage
	a.closeStorage = nil
	return closeStorage()
}

func (a *app) closeAfter(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if closeErr := a.close(); err == nil {
				err = closeErr
			}
		}()
		return run(cmd, args)
	}
}

// FormatError renders err for the terminal. Classified errors print as
// "<Title>: <Message> [<Action>]".
func FormatError(err error) string {
	if info, ok := apierr.InfoOf(err); ok {
		return info.String()
	}
	return fmt.Sprintf("Error: %v", err)
}
