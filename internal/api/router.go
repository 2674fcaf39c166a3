package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/api/comment"
	"github.com/emojiblog/emojiblog/internal/api/post"
	"github.com/emojiblog/emojiblog/internal/api/profile"
	"github.com/emojiblog/emojiblog/internal/api/tag"
	"github.com/emojiblog/emojiblog/internal/api/user"
	"github.com/emojiblog/emojiblog/internal/cache"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/engagement"
	"github.com/emojiblog/emojiblog/internal/feed"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/posting"
	profilesvc "github.com/emojiblog/emojiblog/internal/profile"
	"github.com/emojiblog/emojiblog/internal/ratelimit"
	"github.com/emojiblog/emojiblog/internal/tags"
	"github.com/emojiblog/emojiblog/internal/usersync"
	"github.com/emojiblog/emojiblog/pkg/config"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// Deps are the collaborators the API is built from
type Deps struct {
	DB       *db.DB
	Cache    *cache.Cache
	Provider identity.Provider
	// Verifier may be nil, in which case every caller is anonymous
	Verifier *identity.Verifier
	Limiter  *ratelimit.Limiter
	// Now defaults to time.Now
	Now func() time.Time
}

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	deps    Deps
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(deps Deps) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		deps:    deps,
		logger:  logging.WithComponent("api-router"),
	}

	router.registerMethods()
	router.logger.Info("JSON-RPC methods registered", zap.Strings("methods", router.handler.Methods()))

	return router
}

// Handler exposes the JSON-RPC dispatcher
func (r *Router) Handler() *JSONRPCHandler {
	return r.handler
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine, serverCfg *config.ServerConfig) {
	engine.Use(cors.New(corsConfig(serverCfg.AllowedOrigins)))
	engine.Use(RequestLogger(logging.WithComponent("http")))
	engine.Use(Authenticate(r.deps.Verifier, r.logger))

	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)
	engine.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	engine.POST("/", r.handler.Handle)
	engine.GET("/rpc/:method", r.handler.HandleQuery)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	repo := db.NewRepository(r.deps.DB.DB)

	feedSvc := feed.NewService(repo, r.deps.Provider)
	postingSvc := posting.NewService(repo, r.deps.Limiter, r.deps.Now)
	engagementSvc := engagement.NewService(repo, r.deps.Limiter, r.deps.Provider, r.deps.Now)
	tagSvc := tags.NewService(repo, r.deps.Cache)
	syncSvc := usersync.NewService(repo, r.deps.Provider)
	profileSvc := profilesvc.NewService(r.deps.Provider)

	posts := post.NewAPI(feedSvc, postingSvc, engagementSvc)
	r.handler.Register("post.getLatest", Procedure{Query, Public, posts.GetLatest})
	r.handler.Register("post.getPostByTag", Procedure{Query, Public, posts.GetPostByTag})
	r.handler.Register("post.getPostByUserId", Procedure{Query, Public, posts.GetPostByUserID})
	r.handler.Register("post.getPostById", Procedure{Query, Public, posts.GetPostByID})
	r.handler.Register("post.create", Procedure{Mutation, Private, posts.Create})
	r.handler.Register("post.toggleLike", Procedure{Mutation, Private, posts.ToggleLike})

	comments := comment.NewAPI(engagementSvc)
	r.handler.Register("comment.create", Procedure{Mutation, Private, comments.Create})
	r.handler.Register("comment.getByPostId", Procedure{Query, Public, comments.GetByPostID})

	tagAPI := tag.NewAPI(tagSvc)
	r.handler.Register("tag.getAll", Procedure{Query, Public, tagAPI.GetAll})
	r.handler.Register("tag.create", Procedure{Mutation, Public, tagAPI.Create})
	r.handler.Register("tag.addPostTagById", Procedure{Mutation, Public, tagAPI.AddPostTagByID})

	users := user.NewAPI(syncSvc)
	r.handler.Register("user.create", Procedure{Mutation, Private, users.Create})

	profiles := profile.NewAPI(profileSvc)
	r.handler.Register("profile.getUserByUsername", Procedure{Query, Public, profiles.GetUserByUsername})
}

// healthHandler reports database and cache health
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if err := r.deps.DB.Health(ctx); err != nil {
		status = http.StatusServiceUnavailable
		checks["database"] = err.Error()
	} else {
		checks["database"] = "OK"
	}

	switch err := r.deps.Cache.Health(ctx); {
	case errors.Is(err, cache.ErrCacheDisabled):
		checks["redis"] = "disabled"
	case err != nil:
		status = http.StatusServiceUnavailable
		checks["redis"] = err.Error()
	default:
		checks["redis"] = "OK"
	}

	overall := "OK"
	if status != http.StatusOK {
		overall = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": "emojiblog-api",
		"checks":  checks,
	})
}
