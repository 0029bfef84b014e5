package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/api"
	"github.com/dshills/folio/internal/folioerr"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess        = 0
	ExitUsageError     = 2
	ExitAuthError      = 3
	ExitRuntimeError   = 4
	ExitMutationFailed = 5
)

// Global flags
var (
	flagAPIURL   string
	flagStore    string
	flagCacheDir string
	flagLogLevel string
	flagJSON     bool
)

// started is set once argument validation has passed, so errors returned
// after it are runtime failures rather than usage errors.
var started bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Portfolio site data CLI",
		Long:          "Folio browses and administers a cybersecurity portfolio: projects enriched from GitHub, CTF writeups, comments, the newsletter and security news.",
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			started = true
			cmd.SilenceUsage = true
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flagAPIURL, "api-url", "", "Portfolio API base URL")
	pf.StringVar(&flagStore, "store", "", "Persistent store backend (file, sqlite, memory)")
	pf.StringVar(&flagCacheDir, "cache-dir", "", "Directory for the persistent store")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newProjectsCmd(),
		newWriteupsCmd(),
		newCommentsCmd(),
		newNewsletterCmd(),
		newContactCmd(),
		newNewsCmd(),
		newScanCmd(),
		newWatchCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newCacheCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Run executes the root command and returns an exit code.
func Run() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	started = false
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}
	if !started {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.CommandPath())
		return ExitUsageError
	}
	if folioerr.IsMutationFailed(err) {
		fmt.Fprintf(stderr, "Error: %s: %v\n", folioerr.UserMessage(err), err)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCodeFor(err)
}

var errNotLoggedIn = errors.New("not logged in (run 'folio login')")

// usageError marks a bad invocation detected by a command body.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func exitCodeFor(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ue):
		return ExitUsageError
	case folioerr.IsMutationFailed(err):
		return ExitMutationFailed
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, errNotLoggedIn):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagAPIURL != "" {
		m["apiUrl"] = flagAPIURL
	}
	if flagStore != "" {
		m["store"] = flagStore
	}
	if flagCacheDir != "" {
		m["cacheDir"] = flagCacheDir
	}
	if flagLogLevel != "" {
		m["logLevel"] = flagLogLevel
	}
	return m
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print folio version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio version %s\n", version)
		},
	}
}
