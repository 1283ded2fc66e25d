/*
Package project contains the collaboration data model and the session registry.

This file defines the value types shared by the server and the client facade:
users with presence attributes, slide and block snapshots carrying the
conflict-detection stamps, and immutable comments.
*/
package project

// Cursor is a canvas position broadcast for presence indicators.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User represents a collaboration participant with presence attributes.
type User struct {
	// ID is unique within a project. A re-join with the same ID overwrites
	// the previous entry (last join wins).
	ID string `json:"id"`

	// Name is the display name shown next to cursors and comments.
	Name string `json:"name"`

	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`

	// Color is drawn from the shared palette, collision-avoided across the
	// currently active users of the same project.
	Color string `json:"color,omitempty"`

	Cursor *Cursor `json:"cursor,omitempty"`

	// ActiveSlide is the slide the user is currently viewing, updated on
	// presence events so that late-joiner snapshots reflect it.
	ActiveSlide string `json:"activeSlide,omitempty"`
}

// Block is a positioned element on a slide. Its identity is stable across
// updates: the same ID is replaced in place.
type Block struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color,omitempty"`
	Font   string  `json:"font,omitempty"`
	ZIndex int     `json:"zIndex,omitempty"`
	Text   string  `json:"text,omitempty"`

	// LastModified and LastModifiedBy are the conflict-detection stamps.
	// They are mandatory on every block mutation crossing the wire.
	LastModified   int64  `json:"lastModified"`
	LastModifiedBy string `json:"lastModifiedBy,omitempty"`
}

// Slide is the server-side snapshot of one slide. It is authoritative only
// for conflict detection, not a rendering source of truth for any client.
type Slide struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Blocks []Block `json:"blocks,omitempty"`

	LastModified   int64  `json:"lastModified"`
	LastModifiedBy string `json:"lastModifiedBy,omitempty"`
}

// Comment is immutable once created. The Resolved flag is a client-local
// concern; the server stores comments verbatim and never mutates them.
type Comment struct {
	ID        string  `json:"id"`
	SlideID   string  `json:"slideId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Text      string  `json:"text"`
	UserID    string  `json:"userId"`
	UserName  string  `json:"userName"`
	Timestamp int64   `json:"timestamp"`
	Resolved  bool    `json:"resolved,omitempty"`
}

// UserColors is the fixed palette assigned to collaborators. With eight or
// fewer simultaneously active users in a project, no color repeats.
var UserColors = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B",
	"#8B5CF6", "#F97316", "#06B6D4", "#84CC16",
}
