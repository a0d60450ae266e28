package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devshittu/media-be-sub000/internal/graph"
	"github.com/devshittu/media-be-sub000/internal/graphsync"
	"github.com/devshittu/media-be-sub000/internal/ranking"
	"github.com/devshittu/media-be-sub000/internal/search"
	"github.com/devshittu/media-be-sub000/internal/store"
	"github.com/devshittu/media-be-sub000/internal/storyline"
	"github.com/devshittu/media-be-sub000/pkg/config"
	apperrors "github.com/devshittu/media-be-sub000/pkg/errors"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting storyline API server...")

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

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Initialize Postgres
	db := store.OpenDB(cfg.PostgresDSN)
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to verify Postgres connectivity", zap.Error(err))
	}

	// Initialize Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to verify Redis connectivity", zap.Error(err))
	}

	// Initialize Elasticsearch
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticsearchURL},
	})
	if err != nil {
		log.Fatal("Failed to create Elasticsearch client", zap.Error(err))
	}

	// Initialize components
	relStore := store.NewStore(db)
	graphRepo := graph.NewRepository(driver)
	syncEngine := graphsync.NewEngine(graphRepo)
	aggregator := storyline.NewAggregator(graphRepo, relStore)
	rankingEngine := ranking.NewEngine(relStore)
	gateway := search.NewGateway(
		search.NewRedisCache(redisClient),
		search.NewESIndex(esClient, cfg.ElasticsearchIndex),
		relStore,
		relStore,
		search.Options{
			AutocompleteLimit: cfg.AutocompleteLimit,
			Fuzziness:         cfg.SuggestFuzziness,
			TitleCount:        cfg.CacheTitleCount,
			PruneThreshold:    cfg.QueryPruneThreshold,
		},
	)
	dispatcher := graphsync.NewDispatcher(syncEngine, gateway, cfg.BackendTimeout)

	// Periodic cache maintenance: refresh the autocomplete title set and
	// prune unpopular queries
	maintCtx, stopMaint := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.CacheRefreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-maintCtx.Done():
				return
			case <-ticker.C:
				if err := gateway.RefreshTitles(maintCtx); err != nil {
					log.Error("Title set refresh failed", zap.Error(err))
				}
				if err := gateway.PruneQueries(maintCtx); err != nil {
					log.Error("Query prune failed", zap.Error(err))
				}
			}
		}
	}()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Post-commit story mutation hooks; the fan-out to graph and
		// index is asynchronous and never blocks the caller
		api.POST("/hooks/stories", func(c *gin.Context) {
			var req struct {
				Action  string       `json:"action" binding:"required,oneof=created updated deleted"`
				Story   *store.Story `json:"story"`
				StoryID int64        `json:"story_id"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			switch req.Action {
			case "created", "updated":
				if req.Story == nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "story is required"})
					return
				}
				if req.Action == "created" {
					dispatcher.StoryCreated(req.Story)
				} else {
					dispatcher.StoryUpdated(req.Story)
				}
			case "deleted":
				if req.StoryID == 0 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "story_id is required"})
					return
				}
				dispatcher.StoryDeleted(req.StoryID)
			}

			c.JSON(http.StatusAccepted, gin.H{"status": "dispatched"})
		})

		// Storylines
		api.GET("/storylines", func(c *gin.Context) {
			storylines, err := aggregator.Storylines(c.Request.Context())
			if err != nil {
				serverError(c, log, "Failed to list storylines", err)
				return
			}
			c.JSON(http.StatusOK, storylines)
		})

		api.GET("/storylines/:id/stories", func(c *gin.Context) {
			dir := storyline.Forward
			if c.Query("direction") == "previous" {
				dir = storyline.Previous
			}
			stories, err := aggregator.StorylineStories(c.Request.Context(), c.Param("id"), dir)
			if err != nil {
				serverError(c, log, "Failed to fetch storyline stories", err)
				return
			}
			c.JSON(http.StatusOK, stories)
		})

		api.GET("/storylines/:id/hashtags", func(c *gin.Context) {
			hashtags, err := aggregator.StorylineHashtags(c.Request.Context(), c.Param("id"))
			if err != nil {
				serverError(c, log, "Failed to fetch storyline hashtags", err)
				return
			}
			c.JSON(http.StatusOK, hashtags)
		})

		api.GET("/stories/:slug/storylines", func(c *gin.Context) {
			storylines, err := aggregator.StorylinesForStorySlug(c.Request.Context(), c.Param("slug"))
			if err != nil {
				serverError(c, log, "Failed to fetch storylines for story", err)
				return
			}
			c.JSON(http.StatusOK, storylines)
		})

		// Hashtags
		api.GET("/hashtags/trending", func(c *gin.Context) {
			hashtags, err := aggregator.TrendingHashtags(c.Request.Context())
			if err != nil {
				serverError(c, log, "Failed to fetch trending hashtags", err)
				return
			}
			c.JSON(http.StatusOK, hashtags)
		})

		api.GET("/hashtags/:name/stories", func(c *gin.Context) {
			stories, err := aggregator.StoriesByHashtag(c.Request.Context(), c.Param("name"))
			if err != nil {
				serverError(c, log, "Failed to fetch stories by hashtag", err)
				return
			}
			c.JSON(http.StatusOK, stories)
		})

		// Ranking
		api.GET("/trending", func(c *gin.Context) {
			ranked, err := rankingEngine.Trending(c.Request.Context(), userID(c))
			if err != nil {
				serverError(c, log, "Failed to rank trending stories", err)
				return
			}
			c.JSON(http.StatusOK, ranked)
		})

		api.GET("/feed", func(c *gin.Context) {
			stories, err := rankingEngine.Feed(c.Request.Context(), userID(c))
			if err != nil {
				serverError(c, log, "Failed to build feed", err)
				return
			}
			c.JSON(http.StatusOK, stories)
		})

		api.GET("/feed/inverse", func(c *gin.Context) {
			stories, err := rankingEngine.InverseFeed(c.Request.Context(), userID(c))
			if err != nil {
				serverError(c, log, "Failed to build inverse feed", err)
				return
			}
			c.JSON(http.StatusOK, stories)
		})

		// Search
		api.GET("/search", func(c *gin.Context) {
			page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
			pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

			results, err := gateway.Search(c.Request.Context(), search.Request{
				Query:    c.Query("q"),
				UserID:   userID(c),
				Page:     page,
				PageSize: pageSize,
			})
			if err != nil {
				searchError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, results)
		})

		api.GET("/search/autocomplete", func(c *gin.Context) {
			suggestions, err := gateway.Autocomplete(c.Request.Context(), c.Query("q"))
			if err != nil {
				searchError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
		})

		api.GET("/search/popular", func(c *gin.Context) {
			n, _ := strconv.Atoi(c.DefaultQuery("n", "10"))
			queries, err := gateway.PopularQueries(c.Request.Context(), n)
			if err != nil {
				searchError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, queries)
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	stopMaint()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight sync tasks drain before the backends close
	dispatcher.Wait()

	log.Info("Server exited")
}

// userID reads the acting user from the query string; 0 means anonymous.
// Authentication itself is owned by the upstream gateway.
func userID(c *gin.Context) int64 {
	id, _ := strconv.ParseInt(c.Query("user_id"), 10, 64)
	return id
}

func serverError(c *gin.Context, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func searchError(c *gin.Context, log *zap.Logger, err error) {
	if apperrors.IsErrorType(err, apperrors.ErrorTypeValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Error("Search request failed", zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search service unavailable"})
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
