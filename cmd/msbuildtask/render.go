// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

// renderSummary prints one line per attempted project followed by the totals.
// Nothing is printed for an empty summary.
func renderSummary(w io.Writer, summary msbuild.Summary) {
	if len(summary.Outcomes) == 0 {
		return
	}

	width := 0
	for _, o := range summary.Outcomes {
		width = max(width, lipgloss.Width(o.Project.DisplayName()))
	}
	nameStyle := CmdStyle.Width(width + 2)

	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Build summary"))
	for _, o := range summary.Outcomes {
		style := statusStyle(o.Status)
		fmt.Fprintf(w, "  %s %s%s\n", style.Render(statusIcons[o.Status]), nameStyle.Render(o.Project.DisplayName()), style.Render(statusText(o)))
	}

	var totals []string
	for _, status := range []msbuild.Status{msbuild.StatusSucceeded, msbuild.StatusFailed, msbuild.StatusSkipped} {
		n := summary.Count(status)
		if n == 0 && status != msbuild.StatusSucceeded {
			continue
		}
		totals = append(totals, statusStyle(status).Render(fmt.Sprintf("%d %s", n, status)))
	}
	fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render(projectCount(len(summary.Outcomes))+":"), strings.Join(totals, ", "))
}

func statusText(o msbuild.Outcome) string {
	if o.Status == msbuild.StatusFailed {
		return fmt.Sprintf("failed (exit %s)", o.ExitCode)
	}
	return string(o.Status)
}

func projectCount(n int) string {
	if n == 1 {
		return "1 project"
	}
	return fmt.Sprintf("%d projects", n)
}
