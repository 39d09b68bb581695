// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/msbuildtask/msbuildtask/internal/msbuild"
)

var (
	colorAccent = lipgloss.Color("#7C3AED")
	colorDim    = lipgloss.Color("#6B7280")
	colorKey    = lipgloss.Color("#3B82F6")

	// statusColors tint everything that reports a build status. Errors and
	// warnings outside the summary reuse the failed and skipped colors.
	statusColors = map[msbuild.Status]lipgloss.Color{
		msbuild.StatusSucceeded: "#10B981",
		msbuild.StatusFailed:    "#EF4444",
		msbuild.StatusSkipped:   "#F59E0B",
	}

	statusIcons = map[msbuild.Status]string{
		msbuild.StatusSucceeded: "✓",
		msbuild.StatusFailed:    "✗",
		msbuild.StatusSkipped:   "-",
	}
)

var (
	// TitleStyle is for section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	// SubtitleStyle is for placeholders and de-emphasized text.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorDim)
	// CmdStyle is for project paths, config keys and issue ids.
	CmdStyle = lipgloss.NewStyle().Foreground(colorKey)

	SuccessStyle = statusStyle(msbuild.StatusSucceeded)
	ErrorStyle   = statusStyle(msbuild.StatusFailed).Bold(true)
	WarningStyle = statusStyle(msbuild.StatusSkipped)
)

func statusStyle(s msbuild.Status) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(statusColors[s])
}
