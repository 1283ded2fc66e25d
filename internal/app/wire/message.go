/*
Package wire defines the WebSocket protocol shared by the collaboration
server and the client facade.

Every frame is an Envelope carrying an event type tag and a typed payload.
Each event name maps to exactly one payload struct below; payloads are
decoded at the boundary rather than trusting caller-supplied shape.
*/
package wire

import (
	"encoding/json"

	"slidesync/internal/app/project"
)

// EventType tags every frame crossing the wire.
type EventType string

// Client-to-server events.
const (
	EventJoinProject     EventType = "join_project"
	EventLeaveProject    EventType = "leave_project"
	EventSlideUpdate     EventType = "slide_update"
	EventBlockUpdate     EventType = "block_update"
	EventCursorUpdate    EventType = "cursor_update"
	EventPresenceUpdate  EventType = "presence_update"
	EventAddComment      EventType = "add_comment"
	EventResolveConflict EventType = "resolve_conflict"
)

// Server-to-client events.
const (
	// EventProjectState is the full-state snapshot sent to the joining
	// connection only.
	EventProjectState EventType = "project_state"

	EventUserJoined         EventType = "user_joined"
	EventUserLeft           EventType = "user_left"
	EventSlideUpdated       EventType = "slide_updated"
	EventBlockUpdated       EventType = "block_updated"
	EventUserCursorUpdate   EventType = "user_cursor_update"
	EventUserPresenceUpdate EventType = "user_presence_update"

	// EventConflictDetected goes to the offending sender only.
	EventConflictDetected EventType = "conflict_detected"

	// EventCommentAdded is the one room broadcast that includes the sender,
	// so the sender's UI reconciles through the same path as its peers.
	EventCommentAdded EventType = "comment_added"

	EventConflictResolved EventType = "conflict_resolved"
)

// Envelope wraps every WebSocket frame.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals the payload and wraps it with the event type tag.
func NewEnvelope(eventType EventType, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: eventType, Payload: raw}, nil
}

// Encode serializes the envelope for transmission.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Client-to-server payloads.

// JoinProjectPayload binds the connection to a project room.
type JoinProjectPayload struct {
	ProjectID string       `json:"projectId"`
	User      project.User `json:"user"`
}

// LeaveProjectPayload releases the binding without closing the connection.
type LeaveProjectPayload struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

// SlideUpdatePayload proposes a wholesale slide replacement. UserID and
// Timestamp are mandatory: they are the conflict-detection stamps.
type SlideUpdatePayload struct {
	ProjectID string        `json:"projectId"`
	SlideID   string        `json:"slideId"`
	Slide     project.Slide `json:"slide"`
	UserID    string        `json:"userId"`
	Timestamp int64         `json:"timestamp"`
}

// BlockUpdatePayload proposes an in-place block replacement.
type BlockUpdatePayload struct {
	ProjectID string        `json:"projectId"`
	SlideID   string        `json:"slideId"`
	BlockID   string        `json:"blockId"`
	Block     project.Block `json:"block"`
	UserID    string        `json:"userId"`
	Timestamp int64         `json:"timestamp"`
}

// CursorUpdatePayload is a cheap, non-conflict-checked presence relay.
type CursorUpdatePayload struct {
	ProjectID string         `json:"projectId"`
	UserID    string         `json:"userId"`
	Cursor    project.Cursor `json:"cursor"`
}

// PresenceUpdatePayload moves the user's active-slide pointer.
type PresenceUpdatePayload struct {
	ProjectID   string `json:"projectId"`
	UserID      string `json:"userId"`
	ActiveSlide string `json:"activeSlide"`
}

// AddCommentPayload appends an immutable comment to the project.
type AddCommentPayload struct {
	ProjectID string          `json:"projectId"`
	Comment   project.Comment `json:"comment"`
}

// Conflict resolution decisions.
const (
	ResolutionAccept = "accept"
	ResolutionReject = "reject"
)

// ResolveConflictPayload relays a resolution decision to peers. The server
// tracks no conflict state; this is a stateless pass-through.
type ResolveConflictPayload struct {
	ProjectID  string `json:"projectId"`
	ResourceID string `json:"resourceId"`
	Resolution string `json:"resolution"`
	UserID     string `json:"userId"`
}

// Server-to-client payloads.

// ProjectStatePayload is the late-joiner catch-up snapshot.
type ProjectStatePayload struct {
	Users    []project.User           `json:"users"`
	Slides   map[string]project.Slide `json:"slides"`
	Comments []project.Comment        `json:"comments"`
}

// UserJoinedPayload announces a new room member to the existing ones.
type UserJoinedPayload struct {
	User project.User `json:"user"`
}

// UserLeftPayload announces a departure, explicit or by disconnect.
type UserLeftPayload struct {
	UserID string `json:"userId"`
}

// SlideUpdatedPayload relays an accepted slide update, stamped.
type SlideUpdatedPayload struct {
	SlideID   string        `json:"slideId"`
	Slide     project.Slide `json:"slide"`
	UserID    string        `json:"userId"`
	Timestamp int64         `json:"timestamp"`
}

// BlockUpdatedPayload relays an accepted block update, stamped.
type BlockUpdatedPayload struct {
	SlideID   string        `json:"slideId"`
	BlockID   string        `json:"blockId"`
	Block     project.Block `json:"block"`
	UserID    string        `json:"userId"`
	Timestamp int64         `json:"timestamp"`
}

// UserCursorUpdatePayload relays a peer's cursor position.
type UserCursorUpdatePayload struct {
	UserID string         `json:"userId"`
	Cursor project.Cursor `json:"cursor"`
}

// UserPresenceUpdatePayload relays a peer's active slide.
type UserPresenceUpdatePayload struct {
	UserID      string `json:"userId"`
	ActiveSlide string `json:"activeSlide"`
}

// ConflictDetectedPayload tells the offending sender its mutation was
// rejected. The stored snapshot is unchanged; nobody else hears about it.
type ConflictDetectedPayload = project.Conflict

// CommentAddedPayload relays a stored comment to the whole room.
type CommentAddedPayload struct {
	Comment project.Comment `json:"comment"`
}

// ConflictResolvedPayload relays a peer's resolution decision.
type ConflictResolvedPayload struct {
	ResourceID string `json:"resourceId"`
	Resolution string `json:"resolution"`
	ResolvedBy string `json:"resolvedBy"`
}
