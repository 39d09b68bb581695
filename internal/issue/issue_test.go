// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func stubRender(t *testing.T) {
	t.Helper()
	original := render
	render = func(in string, _ string) (string, error) { return in, nil }
	t.Cleanup(func() { render = original })
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{ToolPathMissingId, false, "No MSBuild executable configured"},
		{NoTargetsId, false, "No project or solution files found"},
		{LocatorFailedId, false, "Could not locate MSBuild"},
		{BuildFailedId, false, "Build failed"},
		{SpawnFailedId, false, "Could not start MSBuild"},
		{ConfigLoadFailedId, false, "Failed to load configuration"},
		{InvalidOptionsId, false, "Invalid build options"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)

			if tt.wantNil {
				if issue != nil {
					t.Errorf("Get(%d) should return nil", tt.id)
				}
				return
			}

			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("issue.Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d).MarkdownMsg() should contain '%s'", tt.id, tt.contains)
			}
		})
	}
}

func TestValues(t *testing.T) {
	issues := Values()

	if len(issues) != int(InvalidOptionsId) {
		t.Fatalf("Values() returned %d issues, want %d", len(issues), InvalidOptionsId)
	}
	for i, issue := range issues {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want ordered ids", i, issue.Id())
		}
	}
}

func TestIssue_LinksAreCloned(t *testing.T) {
	issue := Get(LocatorFailedId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("LocatorFailed should carry a vswhere link")
	}
	links[0] = "modified"
	if issue.ExtLinks()[0] == "modified" {
		t.Error("ExtLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	stubRender(t)

	withLinks := &Issue{
		id:       Id(9999),
		mdMsg:    "# Test Issue",
		docLinks: []HttpLink{"https://docs.example.com"},
	}
	rendered, err := withLinks.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "See also") || !strings.Contains(rendered, "https://docs.example.com") {
		t.Errorf("Render() with links = %q, want a See also section", rendered)
	}

	noLinks := &Issue{id: Id(9998), mdMsg: "# Test Issue"}
	rendered, _ = noLinks.Render("")
	if strings.Contains(rendered, "See also") {
		t.Error("Render() without links should not contain 'See also'")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	for _, issue := range Values() {
		rendered, err := issue.Render("notty")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}
