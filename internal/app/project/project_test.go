package project

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUserLastJoinWins(t *testing.T) {
	p := newProject("demo")

	first, replaced := p.AddUser(User{ID: "user_1", Name: "Alice", Color: "#3B82F6"})
	assert.False(t, replaced)
	assert.Equal(t, "Alice", first.Name)

	// Same ID joins again with different attributes: full overwrite, no merge.
	second, replaced := p.AddUser(User{ID: "user_1", Name: "Alice 2", Color: "#EF4444"})
	assert.True(t, replaced)
	assert.Equal(t, "Alice 2", second.Name)

	stored, ok := p.GetUser("user_1")
	require.True(t, ok)
	assert.Equal(t, "Alice 2", stored.Name)
	assert.Equal(t, "#EF4444", stored.Color)
	assert.Equal(t, 1, p.UserCount())
}

func TestAddUserAssignsDistinctColors(t *testing.T) {
	p := newProject("demo")

	seen := make(map[string]bool)
	for i := 0; i < len(UserColors); i++ {
		u, _ := p.AddUser(User{ID: fmt.Sprintf("user_%d", i)})
		assert.False(t, seen[u.Color], "color %s assigned twice", u.Color)
		seen[u.Color] = true
	}

	// Palette exhausted: the ninth user gets a reused color rather than none.
	u, _ := p.AddUser(User{ID: "user_overflow"})
	assert.NotEmpty(t, u.Color)
}

func TestAddUserReplacesCollidingColor(t *testing.T) {
	p := newProject("demo")

	p.AddUser(User{ID: "user_1", Color: "#3B82F6"})
	u, _ := p.AddUser(User{ID: "user_2", Color: "#3B82F6"})

	assert.NotEqual(t, "#3B82F6", u.Color)
	assert.Contains(t, UserColors, u.Color)
}

func TestRemoveUser(t *testing.T) {
	p := newProject("demo")
	p.AddUser(User{ID: "user_1"})

	assert.True(t, p.RemoveUser("user_1"))
	assert.False(t, p.RemoveUser("user_1"))
	assert.Equal(t, 0, p.UserCount())
}

func TestSetPresence(t *testing.T) {
	p := newProject("demo")
	p.AddUser(User{ID: "user_1"})

	assert.True(t, p.SetPresence("user_1", "slide_3"))
	u, _ := p.GetUser("user_1")
	assert.Equal(t, "slide_3", u.ActiveSlide)

	assert.False(t, p.SetPresence("ghost", "slide_3"))
}

func TestApplySlideUpdateStoresStampedSnapshot(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	conflict := p.ApplySlideUpdate("s1", Slide{Title: "Intro"}, "user_1", ts)
	require.Nil(t, conflict)

	stored, ok := p.GetSlide("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", stored.ID)
	assert.Equal(t, "Intro", stored.Title)
	assert.Equal(t, ts, stored.LastModified)
	assert.Equal(t, "user_1", stored.LastModifiedBy)
}

func TestApplySlideUpdateConflictLeavesSnapshotUntouched(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Title: "Original"}, "user_1", ts))

	// A differing author lands 300ms later, inside the 1000ms window.
	conflict := p.ApplySlideUpdate("s1", Slide{Title: "Clobbered"}, "user_2", ts+300)
	require.NotNil(t, conflict)
	assert.Equal(t, "slide_s1", conflict.ResourceID)
	assert.Equal(t, ResourceSlide, conflict.ResourceType)
	assert.Equal(t, "user_1", conflict.ConflictingUser)

	stored, _ := p.GetSlide("s1")
	assert.Equal(t, "Original", stored.Title)
	assert.Equal(t, "user_1", stored.LastModifiedBy)
}

func TestApplySlideUpdateSameAuthorRapidEdits(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Title: "v1"}, "user_1", ts))
	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Title: "v2"}, "user_1", ts+50))

	stored, _ := p.GetSlide("s1")
	assert.Equal(t, "v2", stored.Title)
}

func TestApplySlideUpdateAfterWindowWins(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Title: "Old"}, "user_1", ts))
	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Title: "New"}, "user_2", ts+1500))

	stored, _ := p.GetSlide("s1")
	assert.Equal(t, "New", stored.Title)
	assert.Equal(t, "user_2", stored.LastModifiedBy)
}

func TestApplyBlockUpdateReplacesInPlace(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	require.Nil(t, p.ApplySlideUpdate("s1", Slide{
		Blocks: []Block{{ID: "b1", Text: "hello"}, {ID: "b2", Text: "world"}},
	}, "user_1", ts))

	conflict := p.ApplyBlockUpdate("s1", "b2", Block{Text: "edited"}, "user_1", ts+600)
	require.Nil(t, conflict)

	stored, _ := p.GetSlide("s1")
	require.Len(t, stored.Blocks, 2)
	assert.Equal(t, "hello", stored.Blocks[0].Text)
	assert.Equal(t, "edited", stored.Blocks[1].Text)
	assert.Equal(t, "b2", stored.Blocks[1].ID)
	assert.Equal(t, ts+600, stored.Blocks[1].LastModified)
}

func TestApplyBlockUpdateConflictInsideBlockWindow(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Blocks: []Block{{ID: "b1"}}}, "user_1", ts))
	require.Nil(t, p.ApplyBlockUpdate("s1", "b1", Block{Text: "first"}, "user_1", ts+10))

	conflict := p.ApplyBlockUpdate("s1", "b1", Block{Text: "second"}, "user_2", ts+310)
	require.NotNil(t, conflict)
	assert.Equal(t, "block_b1", conflict.ResourceID)
	assert.Equal(t, ResourceBlock, conflict.ResourceType)
	assert.Equal(t, "user_1", conflict.ConflictingUser)

	stored, _ := p.GetSlide("s1")
	assert.Equal(t, "first", stored.Blocks[0].Text)
}

func TestApplyBlockUpdateAppendsUnknownBlock(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Blocks: []Block{{ID: "b1"}}}, "user_1", ts))
	require.Nil(t, p.ApplyBlockUpdate("s1", "b9", Block{Text: "new"}, "user_2", ts+2000))

	stored, _ := p.GetSlide("s1")
	require.Len(t, stored.Blocks, 2)
	assert.Equal(t, "b9", stored.Blocks[1].ID)
	assert.Equal(t, "user_2", stored.Blocks[1].LastModifiedBy)
}

func TestApplyBlockUpdateMissingSlideStoresNothing(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	conflict := p.ApplyBlockUpdate("ghost", "b1", Block{Text: "lost"}, "user_1", ts)
	assert.Nil(t, conflict)
	assert.Equal(t, 0, p.SlideCount())
}

func TestAddCommentAppendsInOrder(t *testing.T) {
	p := newProject("demo")

	p.AddComment(Comment{ID: "comment_1", Text: "first"})
	p.AddComment(Comment{ID: "comment_2", Text: "second"})

	_, _, comments := p.Snapshot()
	require.Len(t, comments, 2)
	assert.Equal(t, "comment_1", comments[0].ID)
	assert.Equal(t, "comment_2", comments[1].ID)
}

func TestSnapshotCopiesAreIndependent(t *testing.T) {
	p := newProject("demo")
	ts := time.Now().UnixMilli()

	p.AddUser(User{ID: "user_1"})
	require.Nil(t, p.ApplySlideUpdate("s1", Slide{Blocks: []Block{{ID: "b1", Text: "orig"}}}, "user_1", ts))

	users, slides, _ := p.Snapshot()
	require.Len(t, users, 1)
	require.Contains(t, slides, "s1")

	// Mutating the snapshot must not leak into stored state.
	snap := slides["s1"]
	snap.Blocks[0].Text = "mutated"

	stored, _ := p.GetSlide("s1")
	assert.Equal(t, "orig", stored.Blocks[0].Text)
}
