package store

import (
	"time"

	"github.com/uptrace/bun"
)

// Interaction types recorded against a story. Counts are always computed
// from the rows, never stored.
const (
	InteractionLike    = "like"
	InteractionDislike = "dislike"
	InteractionView    = "view"
)

// Story is the relational record the graph mirrors. Soft-deletable; the
// graph node lives and dies with the row.
type Story struct {
	bun.BaseModel `bun:"table:stories,alias:s"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	Slug            string    `bun:"slug,notnull" json:"slug"`
	Title           string    `bun:"title,notnull" json:"title"`
	Body            string    `bun:"body" json:"body"`
	CategoryID      int64     `bun:"category_id,notnull" json:"category_id"`
	ParentStoryID   *int64    `bun:"parent_story_id" json:"parent_story_id,omitempty"`
	UserID          int64     `bun:"user_id,notnull" json:"user_id"`
	EventOccurredAt time.Time `bun:"event_occurred_at,notnull" json:"event_occurred_at"`
	EventReportedAt time.Time `bun:"event_reported_at,notnull" json:"event_reported_at"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt       time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Interaction is one user action (like, dislike, view) against a story.
type Interaction struct {
	bun.BaseModel `bun:"table:story_interactions,alias:si"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	StoryID   int64     `bun:"story_id,notnull" json:"story_id"`
	Type      string    `bun:"interaction_type,notnull" json:"type"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// UserSetting holds a user's category preferences. AllCategories is the
// sentinel meaning no category filter applies.
type UserSetting struct {
	bun.BaseModel `bun:"table:user_settings,alias:us"`

	UserID              int64   `bun:"user_id,pk" json:"user_id"`
	AllCategories       bool    `bun:"all_categories,notnull,default:false" json:"all_categories"`
	PreferredCategories []int64 `bun:"preferred_categories,array" json:"preferred_categories"`
}

// UserSearch is one entry in a user's search history.
type UserSearch struct {
	bun.BaseModel `bun:"table:user_searches,alias:usr"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	Query     string    `bun:"query,notnull" json:"query"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Engagement carries the distinct like/dislike/view counts for one story.
type Engagement struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Views    int64 `json:"views"`
}

// Score is the trending score: likes - dislikes + views.
func (e Engagement) Score() int64 {
	return e.Likes - e.Dislikes + e.Views
}

// Preferences is the per-user preferred-category view consumed by the
// ranking engine.
type Preferences struct {
	All         bool
	CategoryIDs []int64
}
