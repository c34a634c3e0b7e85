/*
Package ports defines the driven ports (interfaces) of the foreman orchestration graph.

These interfaces decouple the core logic from external implementations, allowing
the graph to work with any reasoning provider, capability or storage backend.

# Key Interfaces

  - Worker: Wraps one bounded capability behind a uniform invoke contract.
  - Delegate: The reasoning component the supervisor consults to pick the next worker.
  - RunRecorder: Persists run metadata (never message contents) for introspection.
*/
package ports
