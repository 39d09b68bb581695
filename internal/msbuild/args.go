// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// HostWindows is the GOOS value of the platform MSBuild natively runs on.
// /maxcpucount is only passed there; the Mono-compatible toolchain rejects it.
const HostWindows = "windows"

// ArgBuilder renders MSBuild command lines for a fixed host OS.
// The zero value renders for the OS the binary is running on.
type ArgBuilder struct {
	// GOOS overrides runtime.GOOS, which decides whether /maxcpucount is emitted.
	GOOS string
}

// Build renders the ordered argument vector for building project with opts.
// The result depends only on its inputs and b.GOOS; MSBuild takes the last
// value for duplicated properties, so ExtraArgs are appended at the very end
// where they can override anything before them.
func (b ArgBuilder) Build(project Target, opts Options) []string {
	args := make([]string, 0, 8+len(opts.Properties)+len(opts.ExtraArgs))

	if !project.IsWorkingDir() {
		args = append(args, normalizePath(string(project)))
	}

	args = append(args,
		"/target:"+strings.Join(opts.Targets, ","),
		"/verbosity:"+opts.Verbosity.String(),
	)

	if opts.SuppressBanner {
		args = append(args, "/nologo")
	}

	if opts.MaxParallelism > 0 && b.hostOS() == HostWindows {
		args = append(args, "/maxcpucount:"+strconv.Itoa(opts.MaxParallelism))
	}

	if opts.ConsoleLoggerParameters != "" {
		args = append(args, "/clp:"+opts.ConsoleLoggerParameters)
	}

	args = append(args, "/property:Configuration="+opts.Configuration)

	if opts.Platform != "" {
		args = append(args, "/p:Platform="+opts.Platform)
	}

	if !opts.ReuseProcesses {
		args = append(args, "/nodeReuse:false")
	}

	if opts.ToolsetVersion != "" {
		args = append(args, "/p:VisualStudioVersion="+opts.ToolsetVersion+".0")
	}

	for _, prop := range opts.Properties {
		args = append(args, "/property:"+prop.Name+"="+prop.Value)
	}

	return append(args, opts.ExtraArgs...)
}

func (b ArgBuilder) hostOS() string {
	if b.GOOS != "" {
		return b.GOOS
	}
	return runtime.GOOS
}

// normalizePath converts separators for the current OS and removes redundant
// elements. An empty path stays empty instead of becoming ".".
func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(filepath.FromSlash(p))
}
