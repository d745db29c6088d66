package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fellowship-backend/config"
	"fellowship-backend/internal/mw"
	"fellowship-backend/internal/notify"
	"fellowship-backend/internal/push"
	"fellowship-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, sender push.Sender, pool *notify.WorkerPool) *gin.Engine {
	r := gin.Default()

	limit := rate.Limit(cfg.Server.RateLimitPerSec)
	if limit <= 0 {
		limit = rate.Limit(10)
	}
	rateLimiter := mw.RateLimiter(limit, 5, cfg.Server.RequestIPHeader)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	handler := NewHandler(s, sender, cfg.Push.SendTimeout, pool, cacheStore)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.PUT("/devices", handler.PutDevice)
		api.DELETE("/devices", handler.DeleteDevice)
		api.GET("/devices", handler.GetDevices)

		api.POST("/dispatch", handler.PostDispatch)

		api.GET("/events", caching, handler.GetEvents)
		api.POST("/events", handler.PostEvent)
		api.PUT("/events/:event_id/rsvp", handler.PutRSVP)
	}

	return r
}
