// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	ToolPathMissingId Id = iota + 1
	NoTargetsId
	LocatorFailedId
	BuildFailedId
	SpawnFailedId
	ConfigLoadFailedId
	InvalidOptionsId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation for this issue type
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- " + string(link) + "\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	toolPathMissingIssue = &Issue{
		id: ToolPathMissingId,
		mdMsg: `
# No MSBuild executable configured!

Neither an explicit tool path nor automatic location is enabled, so there is
nothing to run.

## Things you can try:
- Point at MSBuild directly:
~~~
$ msbuildtask build --tool-path "C:\Program Files\Microsoft Visual Studio\2022\BuildTools\MSBuild\Current\Bin\MSBuild.exe"
~~~

- Or let vswhere find the newest installation:
~~~
$ msbuildtask build --auto-locate
~~~

- Or set it once in msbuild.cue:
~~~cue
build: auto_locate: true
~~~`,
		extLinks: []HttpLink{"https://github.com/microsoft/vswhere"},
	}

	noTargetsIssue = &Issue{
		id: NoTargetsId,
		mdMsg: `
# No project or solution files found!

The patterns you gave did not match any file.

## Things you can try:
- Check the patterns against the working directory:
~~~
$ msbuildtask build "src/**/*.csproj"
~~~

- Remember that patterns starting with ! exclude files matched earlier.
- Run without patterns to let MSBuild pick the project in the current directory.`,
	}

	locatorFailedIssue = &Issue{
		id: LocatorFailedId,
		mdMsg: `
# Could not locate MSBuild!

vswhere was run to find an MSBuild installation but it did not succeed.

## Things you can try:
- Check that the Visual Studio Installer is present; vswhere ships with it:
~~~
%ProgramFiles(x86)%\Microsoft Visual Studio\Installer\vswhere.exe
~~~

- Inspect the query msbuildtask runs:
~~~
$ msbuildtask locate --verbose
~~~

- Loosen the locator filters (products, requires, version) in msbuild.cue.`,
		extLinks: []HttpLink{"https://github.com/microsoft/vswhere/wiki/Find-MSBuild"},
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Build failed!

MSBuild exited with a non-zero code and fail_fast is enabled, so the remaining
projects were not built.

## Things you can try:
- Scroll up for the compiler output of the failing project.
- Raise the log level:
~~~
$ msbuildtask build --verbosity detailed
~~~

- Build every project and report all failures at the end:
~~~
$ msbuildtask build --fail-fast=false
~~~`,
	}

	spawnFailedIssue = &Issue{
		id: SpawnFailedId,
		mdMsg: `
# Could not start MSBuild!

The configured MSBuild command could not be executed.

## Things you can try:
- Verify the tool path exists and is executable.
- Print the command line that would be run:
~~~
$ msbuildtask args app.sln
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the msbuildtask configuration file.

## Configuration file locations (first found wins):
1. ./msbuild.cue
2. Linux: ~/.config/msbuildtask/config.cue
3. macOS: ~/Library/Application Support/msbuildtask/config.cue
4. Windows: %APPDATA%\msbuildtask\config.cue

## Things you can try:
- Write a commented default file:
~~~
$ msbuildtask config init
~~~

- Show where configuration is read from:
~~~
$ msbuildtask config path
~~~

## Example configuration:
~~~cue
build: {
	auto_locate: true
	configuration: "Debug"
	targets: ["Clean", "Build"]
	properties: {
		WarningLevel: 2
	}
}
~~~`,
	}

	invalidOptionsIssue = &Issue{
		id: InvalidOptionsId,
		mdMsg: `
# Invalid build options!

One or more build options have values MSBuild does not accept.

## Valid verbosity levels:
- quiet
- minimal
- normal
- detailed
- diagnostic

## Things you can try:
- Inspect the resolved options and where they came from:
~~~
$ msbuildtask config show
~~~`,
	}

	issues = map[Id]*Issue{
		toolPathMissingIssue.Id():  toolPathMissingIssue,
		noTargetsIssue.Id():        noTargetsIssue,
		locatorFailedIssue.Id():    locatorFailedIssue,
		buildFailedIssue.Id():      buildFailedIssue,
		spawnFailedIssue.Id():      spawnFailedIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		invalidOptionsIssue.Id():   invalidOptionsIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
