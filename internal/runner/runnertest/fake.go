// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"strings"

	"bot-launcher/internal/runner"
)

// Call is one recorded invocation.
type Call struct {
	Argv     []string
	Attached bool
}

// Line returns the invocation joined with spaces.
func (c Call) Line() string {
	return strings.Join(c.Argv, " ")
}

// Fake records every command and answers from scripted results.
// Results registered for the same command line are consumed in order; the last one repeats.
// Commands without a script return Default.
type Fake struct {
	Calls     []Call
	Default   runner.Result
	responses map[string][]runner.Result
}

// New returns a Fake whose unscripted commands succeed with empty output.
func New() *Fake {
	return &Fake{responses: make(map[string][]runner.Result)}
}

// On scripts the results for the command line formed by argv joined with spaces.
func (f *Fake) On(line string, results ...runner.Result) *Fake {
	f.responses[line] = append(f.responses[line], results...)
	return f
}

// Run records the call and returns the scripted result.
func (f *Fake) Run(_ context.Context, name string, args ...string) runner.Result {
	return f.record(false, name, args)
}

// RunAttached records the call as attached and returns the scripted result.
func (f *Fake) RunAttached(_ context.Context, name string, args ...string) runner.Result {
	return f.record(true, name, args)
}

// Lines returns every recorded command line in order.
func (f *Fake) Lines() []string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.Line())
	}
	return lines
}

// Ran reports whether the command line was invoked.
func (f *Fake) Ran(line string) bool {
	for _, c := range f.Calls {
		if c.Line() == line {
			return true
		}
	}
	return false
}

func (f *Fake) record(attached bool, name string, args []string) runner.Result {
	call := Call{Argv: append([]string{name}, args...), Attached: attached}
	f.Calls = append(f.Calls, call)

	queue, ok := f.responses[call.Line()]
	if !ok || len(queue) == 0 {
		return f.Default
	}
	res := queue[0]
	if len(queue) > 1 {
		f.responses[call.Line()] = queue[1:]
	}
	return res
}
