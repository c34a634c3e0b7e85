/*
Package domain contains the core domain models of the foreman orchestration graph.

It defines the entities shared by the supervisor, the workers and the streaming
pipeline. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Message: One immutable entry of the conversation (author, content, kind).
  - Log / Conversation: The single-owner append log of a run and its read-only snapshots.
  - RoutingDecision: The supervisor's choice of the next worker, or FINISH.
  - RunContext: Per-run configuration (step limit).
  - StreamEvent: One observable state transition, before filtering.
*/
package domain
