/*
Package project contains the collaboration data model and the session registry.

This file defines the Project struct, the root collaboration unit scoping the
users, slide snapshots, and comments that share one identifier. All access is
mediated through its methods; the raw containers are never handed out, so the
conflict and eviction invariants stay centrally enforced.
*/
package project

import (
	"sync"
	"time"
)

// Project is the root collaboration unit. It is owned exclusively by the
// Registry; rooms mutate it only through these methods.
type Project struct {
	// ID is the opaque, client-supplied project identifier.
	ID string

	// mu protects every container below. Each mutation method is a single
	// critical section, so a check-and-replace is atomic with respect to
	// concurrent mutations and snapshot reads.
	mu sync.RWMutex

	users        map[string]*User
	slides       map[string]*Slide
	comments     []Comment
	lastActivity time.Time
}

func newProject(id string) *Project {
	return &Project{
		ID:           id,
		users:        make(map[string]*User),
		slides:       make(map[string]*Slide),
		comments:     make([]Comment, 0),
		lastActivity: time.Now(),
	}
}

// Touch updates the last-activity stamp. Mutation methods call it
// internally; it is exported for the join/leave paths driven by the room.
func (p *Project) Touch() {
	p.mu.Lock()
	p.lastActivity = time.Now()
	p.mu.Unlock()
}

func (p *Project) touchLocked() {
	p.lastActivity = time.Now()
}

// AddUser registers the user, overwriting any previous entry with the same ID
// (last join wins, no merge). A missing or colliding color is replaced with
// the first palette color unused by the other active users. It reports
// whether an existing entry was replaced.
func (p *Project) AddUser(u User) (User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, replaced := p.users[u.ID]

	inUse := make(map[string]bool, len(p.users))
	for id, existing := range p.users {
		if id != u.ID {
			inUse[existing.Color] = true
		}
	}

	if u.Color == "" || inUse[u.Color] {
		u.Color = pickColor(inUse)
	}

	stored := u
	p.users[u.ID] = &stored
	p.touchLocked()

	return u, replaced
}

// pickColor returns the first palette color not in use. When the palette is
// exhausted the first color is reused.
func pickColor(inUse map[string]bool) string {
	for _, c := range UserColors {
		if !inUse[c] {
			return c
		}
	}
	return UserColors[0]
}

// RemoveUser deletes the user and reports whether it was present.
func (p *Project) RemoveUser(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[userID]; !ok {
		return false
	}

	delete(p.users, userID)
	p.touchLocked()
	return true
}

// SetPresence records the user's active slide so that late-joiner snapshots
// reflect current presence. It reports whether the user exists.
func (p *Project) SetPresence(userID, activeSlide string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[userID]
	if !ok {
		return false
	}

	u.ActiveSlide = activeSlide
	p.touchLocked()
	return true
}

// ApplySlideUpdate replaces the slide snapshot wholesale unless the mutation
// collides with a recent differing-author write. On conflict the stored
// snapshot is left untouched and the conflict is returned for point-to-point
// delivery to the sender.
func (p *Project) ApplySlideUpdate(slideID string, slide Slide, userID string, timestamp int64) *Conflict {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prior, ok := p.slides[slideID]; ok {
		if Collides(prior.LastModified, prior.LastModifiedBy, timestamp, userID, SlideConflictWindow) {
			return &Conflict{
				ResourceID:      "slide_" + slideID,
				ResourceType:    ResourceSlide,
				ConflictingUser: prior.LastModifiedBy,
				Timestamp:       timestamp,
			}
		}
	}

	stored := slide
	stored.ID = slideID
	stored.LastModified = timestamp
	stored.LastModifiedBy = userID
	p.slides[slideID] = &stored
	p.touchLocked()

	return nil
}

// ApplyBlockUpdate replaces the block in place (or appends it) on the given
// slide, subject to the block conflict window. When the slide itself is
// unknown nothing is stored, matching the fail-open handling of mutations
// that arrive after state was cleaned up; the caller still relays the update.
func (p *Project) ApplyBlockUpdate(slideID, blockID string, block Block, userID string, timestamp int64) *Conflict {
	p.mu.Lock()
	defer p.mu.Unlock()

	slide, slideExists := p.slides[slideID]

	if slideExists {
		for i := range slide.Blocks {
			if slide.Blocks[i].ID != blockID {
				continue
			}

			prior := &slide.Blocks[i]
			if Collides(prior.LastModified, prior.LastModifiedBy, timestamp, userID, BlockConflictWindow) {
				return &Conflict{
					ResourceID:      "block_" + blockID,
					ResourceType:    ResourceBlock,
					ConflictingUser: prior.LastModifiedBy,
					Timestamp:       timestamp,
				}
			}

			stored := block
			stored.ID = blockID
			stored.LastModified = timestamp
			stored.LastModifiedBy = userID
			slide.Blocks[i] = stored
			p.touchLocked()
			return nil
		}

		stored := block
		stored.ID = blockID
		stored.LastModified = timestamp
		stored.LastModifiedBy = userID
		slide.Blocks = append(slide.Blocks, stored)
	}

	p.touchLocked()
	return nil
}

// AddComment appends to the comment sequence. Comments are never mutated or
// removed server-side.
func (p *Project) AddComment(c Comment) {
	p.mu.Lock()
	p.comments = append(p.comments, c)
	p.touchLocked()
	p.mu.Unlock()
}

// Snapshot returns copies of the current users, slides, and comments. This is
// the full-state reply sent to a newly joined connection in lieu of any
// historical event replay.
func (p *Project) Snapshot() ([]User, map[string]Slide, []Comment) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]User, 0, len(p.users))
	for _, u := range p.users {
		users = append(users, *u)
	}

	slides := make(map[string]Slide, len(p.slides))
	for id, s := range p.slides {
		copied := *s
		copied.Blocks = append([]Block(nil), s.Blocks...)
		slides[id] = copied
	}

	comments := append([]Comment(nil), p.comments...)

	return users, slides, comments
}

// GetSlide returns a copy of the stored slide snapshot.
func (p *Project) GetSlide(slideID string) (Slide, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.slides[slideID]
	if !ok {
		return Slide{}, false
	}

	copied := *s
	copied.Blocks = append([]Block(nil), s.Blocks...)
	return copied, true
}

// GetUser returns a copy of the user entry.
func (p *Project) GetUser(userID string) (User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	u, ok := p.users[userID]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// UserCount returns the number of currently joined users.
func (p *Project) UserCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}

// SlideCount returns the number of stored slide snapshots.
func (p *Project) SlideCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slides)
}

// CommentCount returns the number of stored comments.
func (p *Project) CommentCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.comments)
}

// LastActivity returns the last-activity stamp.
func (p *Project) LastActivity() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastActivity
}

// expired reports whether the project is empty and has been idle longer than
// the threshold. Only the sweep removes projects, never a leave event.
func (p *Project) expired(now time.Time, idleThreshold time.Duration) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users) == 0 && now.Sub(p.lastActivity) > idleThreshold
}
