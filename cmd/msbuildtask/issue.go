// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msbuildtask/msbuildtask/internal/issue"
)

// newIssueCommand creates the `msbuildtask issue` command, which renders the
// troubleshooting guides that errors point at.
func newIssueCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "issue [id]",
		Short: "Show troubleshooting guides for known problems",
		Long: `Show troubleshooting guides for known problems.

Without an id every guide is listed. Errors print the guide that applies to
them automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, entry := range issue.Values() {
					fmt.Fprintf(app.stdout, "%s  %s\n", CmdStyle.Render(strconv.Itoa(int(entry.Id()))), issueTitle(entry))
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			entry := issue.Get(issue.Id(n))
			if err != nil || entry == nil {
				return usageError(fmt.Errorf("unknown issue %q; run 'msbuildtask issue' to list them", args[0]))
			}
			rendered, err := entry.Render(issueRenderStyle)
			if err != nil {
				return fmt.Errorf("render issue %d: %w", n, err)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}

// issueTitle returns the first markdown heading of entry.
func issueTitle(entry *issue.Issue) string {
	for line := range strings.Lines(string(entry.MarkdownMsg())) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}
