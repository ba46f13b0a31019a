package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/studiowebux/setu/internal/analytics"
	"github.com/studiowebux/setu/internal/cli"
	"github.com/studiowebux/setu/internal/config"
	"github.com/studiowebux/setu/internal/filter"
	"github.com/studiowebux/setu/internal/keybinds"
	"github.com/studiowebux/setu/internal/tui"
	"github.com/studiowebux/setu/internal/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var statusErr *cli.StatusError
		if !errors.As(err, &statusErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "setu",
	Short: "setu - interactive HTTP client",
	Long: `setu is an HTTP client with tabs, history and collections.

Run without arguments to start the TUI, or use a subcommand to send
requests and manage history from the shell.

Examples:
  setu                                       # Start interactive TUI
  setu send https://api.example.com/users    # GET and print the response
  setu send api.example.com/users -d '{"name":"ada"}'
  setu history list --group domain
  setu collections run Users 1a2b3c4d`,
	Version:       config.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(flagDataDir); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var flagDataDir string

// Output flags shared by every command that prints a response
var (
	flagOutput string
	flagQuery  []string
	flagFull   bool
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagOutput, "output", "o", cli.FormatText, "Output format (text/json/yaml/body)")
	cmd.Flags().StringArrayVarP(&flagQuery, "query", "q", nil, "JMESPath query applied to JSON bodies, can be repeated")
	cmd.Flags().BoolVarP(&flagFull, "full", "f", false, "Show response headers")
}

// outputOptions collects the output flags, expanding @id query bookmarks
func outputOptions() (cli.OutputOptions, error) {
	opts := cli.OutputOptions{Format: flagOutput, Query: flagQuery, ShowFull: flagFull}
	if !filter.HasReferences(flagQuery) {
		return opts, nil
	}

	err := withBookmarks(func(b *filter.Bookmarks) error {
		expanded, err := b.Expand(flagQuery)
		opts.Query = expanded
		return err
	})
	return opts, err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory for history, collections and settings (default: the platform data directory)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(queriesCmd)
}

// openWorkspace loads settings and opens the stores under the data directory
func openWorkspace(logger *log.Logger) (*workspace.Workspace, error) {
	settings, err := config.LoadSettings(config.SettingsFile)
	if err != nil {
		return nil, err
	}
	return workspace.Open(settings, logger), nil
}

// withWorkspace runs fn against a workspace that logs to stderr
func withWorkspace(fn func(ws *workspace.Workspace) error) error {
	ws, err := openWorkspace(log.New(os.Stderr, "setu: ", 0))
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}

func runTUI() error {
	f, err := tea.LogToFile(config.LogFile, config.AppName)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	keys, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(log.Default())
	if err != nil {
		return err
	}
	defer ws.Close()

	return tui.Run(ws, keys)
}

// send

var sendOpts cli.SendOptions

var sendCmd = &cobra.Command{
	Use:   "send <url>",
	Short: "Send a request and print the response",
	Long: `Send a request from the command line. The exchange is recorded in
history like a send from the TUI.

The method defaults to GET, or POST when a body is given. -d reads a file
with @path and stdin with -.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := outputOptions()
		if err != nil {
			return err
		}
		sendOpts.URL = args[0]
		sendOpts.Output = output
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.Send(cmd.Context(), ws, cli.StdIO(), sendOpts)
		})
	},
}

func init() {
	f := sendCmd.Flags()
	f.StringVarP(&sendOpts.Method, "method", "X", "", "HTTP method")
	f.StringArrayVarP(&sendOpts.Headers, "header", "H", nil, "Header (\"Key: Value\"), can be repeated")
	f.StringVarP(&sendOpts.Data, "data", "d", "", "Request body, @file or - for stdin")
	f.BoolVar(&sendOpts.JSON, "json", false, "Send the body as JSON")
	f.StringArrayVar(&sendOpts.Form, "form", nil, "Form field (key=value), can be repeated")
	f.StringVarP(&sendOpts.User, "user", "u", "", "Basic auth (user:password)")
	f.StringVar(&sendOpts.Bearer, "bearer", "", "Bearer token")
	f.StringVarP(&sendOpts.Name, "name", "n", "", "Request name shown in history")
	f.StringVar(&sendOpts.SaveTo, "save-to", "", "Save the request to this collection")
	addOutputFlags(sendCmd)
}

// history

var historyListOpts cli.HistoryListOptions

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage request history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ListHistory(cli.StdIO(), ws.History(), historyListOpts)
		})
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "List entries whose URL, name or method contain text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := historyListOpts
		opts.Query = args[0]
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ListHistory(cli.StdIO(), ws.History(), opts)
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the stored response of an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := outputOptions()
		if err != nil {
			return err
		}
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ShowHistory(cli.StdIO(), ws.History(), args[0], output)
		})
	},
}

var historyReplayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Send an entry's request again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := outputOptions()
		if err != nil {
			return err
		}
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ReplayHistory(cmd.Context(), ws, cli.StdIO(), args[0], output)
		})
	},
}

var historyStarCmd = &cobra.Command{
	Use:   "star <id>",
	Short: "Star or unstar an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.StarHistory(cli.StdIO(), ws.History(), args[0])
		})
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.RemoveHistory(cli.StdIO(), ws.History(), args[0])
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry, starred ones included",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ClearHistory(cli.StdIO(), ws.History(), false)
		})
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove every entry that is not starred",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ClearHistory(cli.StdIO(), ws.History(), true)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historySearchCmd} {
		c.Flags().BoolVarP(&historyListOpts.Starred, "starred", "s", false, "Only starred entries")
		c.Flags().IntVarP(&historyListOpts.Limit, "limit", "l", 0, "Maximum number of entries")
		c.Flags().StringVarP(&historyListOpts.GroupBy, "group", "g", cli.GroupNone, "Group by time or domain")
	}
	historyListCmd.Flags().StringVar(&historyListOpts.Query, "query", "", "Only entries matching text")
	addOutputFlags(historyShowCmd)
	addOutputFlags(historyReplayCmd)

	historyCmd.AddCommand(historyListCmd, historySearchCmd, historyShowCmd, historyReplayCmd,
		historyStarCmd, historyRmCmd, historyClearCmd, historyPruneCmd)
}

// collections

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"col"},
	Short:   "Manage saved requests",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list [search]",
	Short: "List collections and their requests",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		search := ""
		if len(args) > 0 {
			search = args[0]
		}
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ListCollections(cli.StdIO(), ws.Collections(), search)
		})
	},
}

var collectionsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.CreateCollection(cli.StdIO(), ws.Collections(), args[0])
		})
	},
}

var collectionsRenameCmd = &cobra.Command{
	Use:   "rename <collection> <name>",
	Short: "Rename a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.RenameCollection(cli.StdIO(), ws.Collections(), args[0], args[1])
		})
	},
}

var collectionsRmCmd = &cobra.Command{
	Use:   "rm <collection>",
	Short: "Remove a collection and its requests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.RemoveCollection(cli.StdIO(), ws.Collections(), args[0])
		})
	},
}

var collectionsShowCmd = &cobra.Command{
	Use:   "show <collection>",
	Short: "List the requests of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ShowCollection(cli.StdIO(), ws.Collections(), args[0])
		})
	},
}

var collectionsAddCmd = &cobra.Command{
	Use:   "add <history-id> [collection]",
	Short: "Save a history entry's request to a collection",
	Long: `Save a history entry's request to a collection. Without a collection
argument an interactive picker is shown when stdin is a terminal.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection := ""
		if len(args) > 1 {
			collection = args[1]
		}
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.AddFromHistory(cli.StdIO(), ws.History(), ws.Collections(), collection, args[0])
		})
	},
}

var collectionsRmItemCmd = &cobra.Command{
	Use:   "rm-item <collection> <item>",
	Short: "Remove a request from a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.RemoveItem(cli.StdIO(), ws.Collections(), args[0], args[1])
		})
	},
}

var collectionsParallel int

var collectionsRunCmd = &cobra.Command{
	Use:   "run <collection> [item]",
	Short: "Send one saved request, or all of them",
	Long: `Send a saved request and print its response. Without an item every
request of the collection is sent and a summary is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := outputOptions()
		if err != nil {
			return err
		}
		return withWorkspace(func(ws *workspace.Workspace) error {
			if len(args) == 1 {
				return cli.RunCollection(cmd.Context(), ws, cli.StdIO(), args[0], collectionsParallel)
			}
			return cli.RunItem(cmd.Context(), ws, cli.StdIO(), args[0], args[1], output)
		})
	},
}

var importOpts cli.ImportOptions

var collectionsImportCmd = &cobra.Command{
	Use:   "import <file.har>",
	Short: "Import the requests of a browser HAR export",
	Long: `Import the requests of an HTTP archive into a collection named after
the file, or --name. Cookies and credentials are dropped unless
--import-headers is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(ws *workspace.Workspace) error {
			return cli.ImportHAR(cli.StdIO(), ws.Collections(), args[0], importOpts)
		})
	},
}

func init() {
	collectionsImportCmd.Flags().StringVar(&importOpts.Collection, "name", "", "Target collection")
	collectionsImportCmd.Flags().StringVar(&importOpts.Filter, "filter", "", "Only URLs containing this text")
	collectionsImportCmd.Flags().BoolVar(&importOpts.ImportHeaders, "import-headers", false, "Keep cookies and auth headers")

	addOutputFlags(collectionsRunCmd)
	collectionsRunCmd.Flags().IntVarP(&collectionsParallel, "parallel", "p", 4, "Requests in flight at once when running a whole collection")

	collectionsCmd.AddCommand(collectionsListCmd, collectionsCreateCmd, collectionsRenameCmd,
		collectionsRmCmd, collectionsShowCmd, collectionsAddCmd, collectionsRmItemCmd, collectionsRunCmd,
		collectionsImportCmd)
}

// stats

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-endpoint request statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalytics(func(m *analytics.Manager) error {
			return cli.ShowStats(cli.StdIO(), m, statsFormat)
		})
	},
}

var statsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalytics(func(m *analytics.Manager) error {
			if err := m.Clear(); err != nil {
				return fmt.Errorf("failed to clear stats: %w", err)
			}
			fmt.Fprintln(os.Stderr, "Statistics cleared")
			return nil
		})
	},
}

func withAnalytics(fn func(m *analytics.Manager) error) error {
	m, err := analytics.NewManager(config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open analytics: %w", err)
	}
	defer m.Close()
	return fn(m)
}

func init() {
	statsCmd.Flags().StringVarP(&statsFormat, "output", "o", cli.FormatText, "Output format (text/json/yaml)")
	statsCmd.AddCommand(statsClearCmd)
}

// queries

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Manage saved JMESPath queries, usable as --query @id",
}

var queriesListCmd = &cobra.Command{
	Use:   "list [search]",
	Short: "List saved queries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		search := ""
		if len(args) > 0 {
			search = args[0]
		}
		return withBookmarks(func(b *filter.Bookmarks) error {
			return cli.ListQueries(cli.StdIO(), b, search)
		})
	},
}

var queriesSaveCmd = &cobra.Command{
	Use:   "save <expression>",
	Short: "Save a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBookmarks(func(b *filter.Bookmarks) error {
			return cli.SaveQuery(cli.StdIO(), b, args[0])
		})
	},
}

var queriesRmCmd = &cobra.Command{
	Use:   "rm <@id>",
	Short: "Remove a saved query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBookmarks(func(b *filter.Bookmarks) error {
			return cli.RemoveQuery(cli.StdIO(), b, args[0])
		})
	},
}

func withBookmarks(fn func(b *filter.Bookmarks) error) error {
	b, err := filter.OpenBookmarks(config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open saved queries: %w", err)
	}
	defer b.Close()
	return fn(b)
}

func init() {
	queriesCmd.AddCommand(queriesListCmd, queriesSaveCmd, queriesRmCmd)
}
