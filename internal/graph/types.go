package graph

import "time"

// ============================================================================
// Story Graph Types
// ============================================================================

// StoryNode mirrors a relational Story in the graph, carrying only identity
// and event time. One node per story.
type StoryNode struct {
	StoryID         int64     `json:"story_id"`
	EventOccurredAt time.Time `json:"event_occurred_at"`
}

// Storyline is a narrative thread grouping a root story and all of its
// descendant stories.
type Storyline struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	Summary      string    `json:"summary"`
	Subject      string    `json:"subject"`
	Hashtags     string    `json:"hashtags"`
	StoryCount   int64     `json:"story_count,omitempty"`
	HashtagCount int64     `json:"hashtag_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StorylineInput carries the derived fields for a new storyline created for
// a root story.
type StorylineInput struct {
	Description string
	Summary     string
	Subject     string
	Hashtags    string
}

// Hashtag is a deduplicated tag entity connected to every story node that
// mentions it.
type Hashtag struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StoryCount int64  `json:"story_count,omitempty"`
}
