package main

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/devshittu/media-be-sub000/internal/graph"
	"github.com/devshittu/media-be-sub000/internal/graphsync"
	"github.com/devshittu/media-be-sub000/internal/store"
	"github.com/devshittu/media-be-sub000/pkg/config"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

// Rebuilds the graph mirror from the relational store: schema constraints
// and indexes first, then every live story replayed through the sync
// engine, parents before children.
func main() {
	schemaOnly := flag.Bool("schema-only", false, "Create constraints and indexes, skip the story replay")
	limit := flag.Int("limit", 0, "Replay at most this many stories (0 = all)")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting graph seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Create constraints
	log.Info("Creating constraints...")
	if err := createConstraints(ctx, driver); err != nil {
		log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
	}

	// Create indexes for better performance
	log.Info("Creating indexes...")
	if err := createIndexes(ctx, driver); err != nil {
		log.Warn("Failed to create some indexes (may already exist)", zap.Error(err))
	}

	if *schemaOnly {
		log.Info("Schema ready, skipping replay (-schema-only)")
		return
	}

	// Initialize Postgres
	db := store.OpenDB(cfg.PostgresDSN)
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to verify Postgres connectivity", zap.Error(err))
	}

	relStore := store.NewStore(db)
	engine := graphsync.NewEngine(graph.NewRepository(driver))

	stories, err := relStore.AllStories(ctx)
	if err != nil {
		log.Fatal("Failed to load stories", zap.Error(err))
	}
	if *limit > 0 && len(stories) > *limit {
		stories = stories[:*limit]
	}

	orderForReplay(stories)

	log.Info("Replaying stories into the graph", zap.Int("count", len(stories)))

	var seeded, failed int
	for i := range stories {
		story := &stories[i]
		if err := engine.StoryCreated(ctx, story, graphsync.Options{}); err != nil {
			failed++
			log.Warn("Failed to seed story",
				zap.Int64("story_id", story.ID),
				zap.Error(err),
			)
			continue
		}
		seeded++
	}

	log.Info("Seed completed",
		zap.Int("seeded", seeded),
		zap.Int("failed", failed),
	)
}

// orderForReplay sorts stories so roots come first, then by creation time
// with story id as the tie-break. Bulk-imported lineages often share one
// transaction timestamp, so the autoincrement id (parent id < child id) is
// what actually guarantees parents replay before their children.
func orderForReplay(stories []store.Story) {
	sort.SliceStable(stories, func(i, j int) bool {
		if (stories[i].ParentStoryID == nil) != (stories[j].ParentStoryID == nil) {
			return stories[i].ParentStoryID == nil
		}
		if !stories[i].CreatedAt.Equal(stories[j].CreatedAt) {
			return stories[i].CreatedAt.Before(stories[j].CreatedAt)
		}
		return stories[i].ID < stories[j].ID
	})
}

// createConstraints creates Neo4j constraints for data integrity
func createConstraints(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT story_node_id_unique IF NOT EXISTS FOR (s:StoryNode) REQUIRE s.story_id IS UNIQUE",
		"CREATE CONSTRAINT storyline_id_unique IF NOT EXISTS FOR (sl:Storyline) REQUIRE sl.id IS UNIQUE",
		"CREATE CONSTRAINT hashtag_name_unique IF NOT EXISTS FOR (h:Hashtag) REQUIRE h.name IS UNIQUE",
	}

	for _, constraint := range constraints {
		_, err := session.Run(ctx, constraint, nil)
		if err != nil {
			// Log but don't fail - constraints may already exist
			continue
		}
	}

	return nil
}

// createIndexes creates Neo4j indexes for better query performance
func createIndexes(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	indexes := []string{
		"CREATE INDEX story_node_event IF NOT EXISTS FOR (s:StoryNode) ON (s.event_occurred_at)",
		"CREATE INDEX storyline_updated IF NOT EXISTS FOR (sl:Storyline) ON (sl.updated_at)",
		"CREATE INDEX storyline_subject IF NOT EXISTS FOR (sl:Storyline) ON (sl.subject)",
		"CREATE INDEX hashtag_name IF NOT EXISTS FOR (h:Hashtag) ON (h.name)",
	}

	for _, idx := range indexes {
		_, err := session.Run(ctx, idx, nil)
		if err != nil {
			// Log but don't fail - indexes may already exist
			continue
		}
	}

	return nil
}
