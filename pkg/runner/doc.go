/*
Package runner drives a team run from a terminal.

It sanitises the task, executes the run and hands every filtered event to an
output Handler: TextHandler renders worker reports as markdown for people,
JSONHandler writes one JSON object per line for other programs.

# Usage

	r := runner.NewRunner(team,
		runner.WithHandler(runner.NewTextHandler(os.Stdout, runner.WithRenderer(tui.NewRenderer(100)))),
	)

	res, err := r.Run(ctx, "Research AI agents and write a brief report about them.")

Tools handed to agents can be guarded with a ToolInterceptor, for example one
that asks for confirmation before each call.
*/
package runner
