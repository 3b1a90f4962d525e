package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Values accepted by --log-format.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// NewRootCmd creates the root command for hopcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hopcrawl",
		Short: "Single-path web crawler with a hop budget",
		Long: `hopcrawl walks the web one link at a time.

Starting from a URL, it fetches the page, picks the first link it has not
visited yet, and fetches that next. Each successful fetch is one hop; the
crawl ends when the hop budget is spent or a page offers no new link.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", logFormatText, "Log output format on stderr: text or json")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
