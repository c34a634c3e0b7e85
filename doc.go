/*
Package foreman coordinates a team of task-execution workers under a single
supervisor and streams the intermediate results of a run to a client.

# Concept

A run is a walk over a small state machine. The supervisor looks at the
conversation so far and names the worker that should act next, or FINISH. The
chosen worker receives a read-only snapshot of the conversation, does its job,
and always hands control back to the supervisor. Every transition is counted;
a run that keeps routing past its step limit ends in FAILED instead of looping
forever.

The supervisor's routing decision comes from a Delegate, typically a language
model. Its answer is untrusted: anything that is not a registered worker name
or FINISH fails the run with a routing contract error.

# Events

Each transition publishes one StreamEvent. Run.Events yields the filtered
stream: raw tool output and the supervisor's own deliberation never reach the
client. Channels are bounded, so a slow consumer slows the run down instead of
growing a queue.

# Usage

	team, err := foreman.New(delegate,
		foreman.WithWorker("search", searchWorker),
		foreman.WithWorker("web_scraper", scraperWorker),
		foreman.WithStepLimit(150),
	)
	if err != nil {
		log.Fatal(err)
	}

	run := team.Start(ctx, "Research AI agents and write a brief report about them.")
	for ev := range run.Events() {
		fmt.Println(ev.Source, ev.Payload.Content())
	}
	res := run.Wait()
	if res.Err != nil {
		log.Printf("run %s failed: %v", res.RunID, res.Err)
	}

The HTTP adapter in pkg/adapters/http serves the same stream as Server-Sent
Events, and cmd/foreman wires everything behind a CLI.
*/
package foreman
