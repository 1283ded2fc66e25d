/*
Package randx provides generation and validation helpers for the identifiers
used across the collaboration protocol.

Project identifiers are opaque, client-supplied strings; this package only
bounds them. User and comment identifiers fall back to server/client stamped
UUIDs when the caller did not supply one.
*/
package randx

import (
	"github.com/google/uuid"
)

const (
	// UserIDPrefix is the prefix applied to generated user identifiers.
	UserIDPrefix = "user_"

	// CommentIDPrefix is the prefix applied to generated comment identifiers.
	CommentIDPrefix = "comment_"

	// MaxProjectIDLength bounds client-supplied project identifiers.
	MaxProjectIDLength = 128
)

// UserID generates a fallback user identifier for clients that joined
// without one.
func UserID() string {
	return UserIDPrefix + uuid.New().String()
}

// CommentID generates a unique identifier for a new comment.
func CommentID() string {
	return CommentIDPrefix + uuid.New().String()
}

// IsValidProjectID checks whether the given string is acceptable as a project
// identifier. Project identifiers are opaque, so the check is only a bound on
// emptiness and length.
func IsValidProjectID(id string) bool {
	return id != "" && len(id) <= MaxProjectIDLength
}
