// Package app wires the services to the HTTP routes
package app

import (
	"context"
	"slices"
	"time"

	"grandeva/store-api/app/auth"
	"grandeva/store-api/app/product"
	"grandeva/store-api/app/root"
	"grandeva/store-api/app/user"
	"grandeva/store-api/internal"
	"grandeva/store-api/pkg/middleware"
	"grandeva/store-api/storage"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type handler func(c *gin.Context, d *internal.Deps)

// NewRouter registers every route. ctx bounds the background work of the
// middleware (rate limiter sweeper).
func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	router := gin.New()

	with := func(h handler) gin.HandlerFunc {
		return func(c *gin.Context) { h(c, d) }
	}

	router.Use(
		cors.New(corsConfig()),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
			RequestsPerSecond: viper.GetInt("security.rate_limit"),
			Burst:             viper.GetInt("security.rate_limit") * 2,
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	maxUploadSize := viper.GetInt64("upload.max_size_bytes")
	// Leaves room for the other form fields
	router.MaxMultipartMemory = maxUploadSize + 1<<20

	authed := middleware.NewAuthMiddleware(d.Identity)
	turnstile := middleware.NewTurnstileMiddleware()
	smallBody := middleware.BodySizeLimiter(1 << 20)

	// HEAD /heartbeat		-> Used to check if the server is alive
	router.HEAD("/heartbeat", root.Heartbeat)

	// GET /validate		-> Validates an auth token
	router.GET("/validate", authed, root.Validate)

	if m, ok := d.Store.(*storage.Memory); ok {
		// GET /blobs/*key		-> Serves images when they're kept in process
		router.GET("/blobs/*key", root.Blob(m))
	}

	a := router.Group("/auth", smallBody)
	{
		// POST /auth/register		-> Registers a new user and returns its token
		a.POST("/register", turnstile, with(auth.Register))

		// POST /auth/signin		-> Signs in a user and returns its token
		a.POST("/signin", with(auth.SignIn))

		// POST /auth/refresh		-> Replaces the current token with a new one
		a.POST("/refresh", authed, with(auth.Refresh))

		// DELETE /auth/signout		-> Revokes the current token
		a.DELETE("/signout", authed, with(auth.SignOut))
	}

	p := router.Group("/products")
	{
		// GET /products		-> Lists every product
		p.GET("", with(product.List))

		// GET /products/:id		-> Returns a single product
		p.GET("/:id", with(product.Fetch))

		// POST /products		-> Creates a product from a multipart form
		p.POST("", authed, middleware.BodySizeLimiter(maxUploadSize+1<<20), with(product.Create))

		// DELETE /products		-> Deletes every product
		p.DELETE("", authed, with(product.DeleteAll))

		// DELETE /products/:id		-> Deletes a product and its image
		p.DELETE("/:id", authed, with(product.Delete))

		// PATCH /products/:id/like	-> Likes a product
		p.PATCH("/:id/like", authed, with(product.Like))

		// PATCH /products/:id/dislike	-> Removes a like
		p.PATCH("/:id/dislike", authed, with(product.Dislike))

		// PATCH /products/:id/reserve	-> Reserves a product
		p.PATCH("/:id/reserve", authed, with(product.Reserve))

		// PATCH /products/:id/release	-> Releases a reservation
		p.PATCH("/:id/release", authed, with(product.Release))
	}

	u := router.Group("/user", authed)
	{
		// GET /user			-> Returns the profile of the signed in user
		u.GET("", with(user.Fetch))

		// GET /user/products/liked	-> Lists the liked products
		u.GET("/products/liked", with(user.Liked))

		// GET /user/products/reserved	-> Lists the reserved products
		u.GET("/products/reserved", with(user.Reserved))
	}

	return router
}

func corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.AuthHeader, middleware.TurnstileHeader},
		ExposeHeaders: []string{"Content-Length", auth.TokenHeader, middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	origins := viper.GetStringSlice("host.cors_origins")
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cfg
}
