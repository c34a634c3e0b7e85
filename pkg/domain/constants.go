package domain

// Reserved identities. A worker cannot be registered under any of these names.
const (
	// SupervisorName is the identity of the routing node.
	SupervisorName = "supervisor"

	// UserAuthor is the author of the seed message of every run.
	UserAuthor = "user"

	// Done is the token a delegate returns to declare the run complete.
	Done = "FINISH"
)

// DefaultStepLimit is the step bound applied when the caller does not configure one.
const DefaultStepLimit = 150

// IsReserved reports whether name collides with a reserved identity.
func IsReserved(name string) bool {
	switch name {
	case SupervisorName, UserAuthor, Done:
		return true
	}
	return false
}
