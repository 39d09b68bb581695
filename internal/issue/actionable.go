// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is what the CLI shows when a build cannot go ahead: the
	// step that failed ("locate msbuild", "start msbuild"), the project or file
	// it failed on, what to try next and, through IssueId, the catalog guide
	// rendered below the message.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("locate msbuild").
	//		WithResource("vswhere").
	//		WithIssue(issue.LocatorFailedId).
	//		WithSuggestion("Set build.tool_path explicitly").
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is the failed step as a verb phrase; Error prefixes it with "failed to".
		Operation string
		// Resource is the project, config file or executable involved. Optional.
		Resource string
		// Suggestions are printed as a bullet list under the message.
		Suggestions []string
		// IssueId selects the catalog guide for this failure, 0 if none.
		IssueId Id
		// Cause is the error reported by the msbuild, config or project packages.
		Cause error
	}

	// ErrorContext collects the parts of an ActionableError. Its methods
	// modify and return the receiver, so one chain ends in Build or BuildError.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		issueID     Id
		cause       error
	}
)

// NewErrorContext starts an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// IssueOf returns the catalog Id of the outermost ActionableError in err's
// chain that carries one. A classifier may wrap an error that already names
// its guide without naming one itself.
func IssueOf(err error) (Id, bool) {
	for err != nil {
		var ae *ActionableError
		if !errors.As(err, &ae) {
			return 0, false
		}
		if ae.IssueId != 0 {
			return ae.IssueId, true
		}
		err = ae.Cause
	}
	return 0, false
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format is the message printed after "Error:". Suggestions follow as
// bullets; with verbose (--verbose or ui.verbose) every error in the cause
// chain is listed as well.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, s := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		for depth, err := 1, e.Cause; err != nil; depth, err = depth+1, errors.Unwrap(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
		}
	}
	return msg.String()
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends one hint; call it once per hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, sugs...)
	return c
}

// WithIssue links the error to its catalog guide.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.issueID = id
	return c
}

func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build returns nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		IssueId:     c.issueID,
		Cause:       c.cause,
	}
}

// BuildError is Build typed as error, so an unset operation yields a nil
// interface rather than a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
