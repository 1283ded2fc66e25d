/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients. Editing conflicts are NOT
errors; they travel as first-class protocol events on the WebSocket.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1002
)

// 2xxx: Project and Collaboration Business Logic Errors
const (
	// ErrProjectIDInvalid indicates that the supplied project identifier is malformed.
	ErrProjectIDInvalid = 2101

	// ErrProjectNotFound indicates that the requested project does not exist in the registry.
	ErrProjectNotFound = 2102

	// ErrSessionReplaced indicates that the connection was terminated because the
	// same user joined the project again from another connection.
	ErrSessionReplaced = 2201
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
