// SPDX-License-Identifier: MPL-2.0

// Package msbuild turns resolved build options into MSBuild invocations.
//
// The package is split along the pipeline a build run goes through:
//
//   - Options describes one fully resolved run configuration (see internal/config
//     for how raw configuration becomes an Options value).
//   - ArgBuilder maps a project target and Options to the ordered argument vector.
//   - Locator queries vswhere for the MSBuild executable when no explicit path is set.
//   - ExecRunner spawns the tool with inherited stdio and maps its exit status.
//   - Orchestrator drives the above over a list of targets, one at a time.
//
// Nothing in this package runs builds concurrently. Each target's process must exit
// before the next target is started.
package msbuild
