package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vijay-prabhu/gmail-cli/internal/config"
	"github.com/vijay-prabhu/gmail-cli/internal/email"
	"github.com/vijay-prabhu/gmail-cli/internal/output"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

// skipConfig marks commands that run without loading the configuration
const skipConfig = "skip-config"

// ConnectFunc opens the mail provider the commands operate on
type ConnectFunc func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (email.Provider, error)

// Deps are the collaborators of the command tree
type Deps struct {
	Connect ConnectFunc // Defaults to the Gmail API
	Out     io.Writer   // Defaults to stdout
	Err     io.Writer   // Defaults to stderr; receives logs and usage
}

// usageError is a command line mistake; it exits with status 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

var errMissingCommand = errors.New("missing COMMAND")

// app holds the state shared by all commands of one invocation
type app struct {
	deps Deps

	// Global flags
	configPath string
	outputFmt  string
	logLevel   string
	limit      int

	format   output.Format
	cfg      *config.Config
	log      zerolog.Logger
	term     *Terminal
	provider email.Provider
}

// NewRootCmd builds the command tree
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Err == nil {
		deps.Err = os.Stderr
	}
	if deps.Connect == nil {
		deps.Connect = connectGmail
	}

	a := &app{deps: deps, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Google Mail command line interface",
		Long: `gmail lists labels, searches messages and downloads attachments
from a Google Mail account.

On first use it opens a browser for Google authentication and caches the
token for later runs.`,
		Example: `  gmail labels --show-counts
  gmail list --has-images --limit 10 --print-listing
  gmail download 18c2f0a1b2c3d4e5`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              noArgs,
		Annotations:       map[string]string{skipConfig: "true"},
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetOut(a.deps.Err)
			_ = cmd.Usage()
			return &usageError{errMissingCommand}
		},
	}

	root.SetOut(deps.Out)
	root.SetErr(deps.Err)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "",
		"config file (default: ~/.config/gmail/config.toml)")
	flags.StringVarP(&a.outputFmt, "output", "o", "text",
		"output format (text, json, table)")
	flags.StringVar(&a.logLevel, "log-level", "",
		"log level (trace, debug, info, warn, error)")
	flags.IntVar(&a.limit, "limit", 0,
		"limit execution to LIMIT number of items")

	root.AddCommand(
		a.newLabelsCmd(),
		a.newListCmd(),
		a.newDownloadCmd(),
		a.newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the command line and returns the process exit status
func Execute() int {
	return run(NewRootCmd(Deps{}), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ue *usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

// setup loads the configuration and logger before any command runs
func (a *app) setup(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(a.outputFmt)
	if err != nil {
		return &usageError{err}
	}
	a.format = format
	a.term = NewTerminal(a.deps.Err)

	level := a.logLevel
	if cmd.Annotations[skipConfig] == "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
		if level == "" {
			level = cfg.Log.Level
		}
	}
	if level == "" {
		level = "info"
	}

	log, err := newLogger(a.deps.Err, level, a.term.UseColor)
	if err != nil {
		return &usageError{err}
	}
	a.log = log

	return nil
}

// connect opens the provider on first use
func (a *app) connect(ctx context.Context) (email.Provider, error) {
	if a.provider != nil {
		return a.provider, nil
	}

	p, err := a.deps.Connect(ctx, a.cfg, a.log)
	if err != nil {
		return nil, err
	}

	a.log.Debug().Str("provider", p.Name()).Msg("connected")
	a.provider = p
	return p, nil
}

// limiter returns the --limit counter for one command run
func (a *app) limiter(cmd *cobra.Command) *limiter {
	return newLimiter(cmd.Flags().Changed("limit"), a.limit)
}

// exactArgs is cobra.ExactArgs reporting a usage error
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// noArgs rejects unknown commands with a usage error
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &usageError{err}
	}
	return nil
}

// aliasFlags accepts alternate spellings of flags
func aliasFlags(aliases map[string]string) func(*pflag.FlagSet, string) pflag.NormalizedName {
	return func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		return pflag.NormalizedName(name)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gmail %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", buildTime)
		},
	}
}
