// Package runtime implements the supervisor/worker orchestration graph.
//
// A run starts in SUPERVISOR with a log seeded by one user message. The
// supervisor names the next worker or FINISH; a worker appends exactly one
// message and always hands control back to the supervisor. A step counter
// bounds the number of transitions.
package runtime
