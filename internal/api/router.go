package api

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hostel-ledger-backend/internal/mw"
	"hostel-ledger-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, opts Options) *gin.Engine {
	opts = opts.withDefaults()

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(opts.Logger))

	handler := NewHandler(s, opts)

	burst := int(opts.RateLimitPerSec)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), burst, mw.CallerOrIP(opts.CallerHeader))
	caching := mw.Cache(handler.cache, opts.CacheTTL)
	auth := mw.RequireCaller(opts.CallerHeader)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/institutions", auth, handler.CreateInstitution)
		api.GET("/institutions/:id/balance", caching, handler.GetInstitutionBalance)
		api.GET("/institutions/:id/rooms", handler.ListRooms)
		api.POST("/institutions/:id/withdrawals", auth, handler.WithdrawFunds)
		api.POST("/institutions/:id/rooms", auth, handler.PublishRoom)
		api.POST("/institutions/:id/rooms/:room_id/memos", auth, handler.PublishMemo)
		api.POST("/institutions/:id/bookings", auth, handler.BookRoom)
		api.POST("/institutions/:id/transfers", auth, handler.TransferRoom)
		api.POST("/institutions/:id/returns", auth, handler.ReturnRoom)

		api.POST("/students", auth, handler.CreateStudent)
		api.POST("/students/:id/top-ups", auth, handler.TopUp)
		api.GET("/students/:id/bookings", handler.BookingsByStudent)

		api.GET("/rooms/:room_id/bookings", handler.BookingsByRoom)
		api.GET("/bookings/:id", handler.GetBooking)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", auth, handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
