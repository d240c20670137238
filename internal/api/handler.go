package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"hostel-ledger-backend/internal/ledger"
	"hostel-ledger-backend/internal/model"
	"hostel-ledger-backend/internal/mw"
	"hostel-ledger-backend/internal/store"
)

// BookingNotifier receives committed bookings for out-of-band confirmation.
type BookingNotifier interface {
	Dispatch(rec model.BookingRecord) bool
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(model.BookingRecord) bool { return false }

// Options configures the handler and router.
type Options struct {
	Webpush         *webpush.Options
	Notifier        BookingNotifier
	Logger          *zap.Logger
	Currency        string
	CallerHeader    string
	RateLimitPerSec float64
	CacheTTL        time.Duration
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	webpush  *webpush.Options
	notifier BookingNotifier
	logger   *zap.Logger
	cache    *cache.Cache
	currency string
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, opts Options) *Handler {
	opts = opts.withDefaults()
	return &Handler{
		store:    s,
		webpush:  opts.Webpush,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		cache:    cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		currency: opts.Currency,
	}
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.CallerHeader == "" {
		o.CallerHeader = "X-Caller-Address"
	}
	if o.RateLimitPerSec <= 0 {
		o.RateLimitPerSec = 10
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Second
	}
	return o
}

func balancePath(institutionID string) string {
	return "/api/institutions/" + institutionID + "/balance"
}

// statusFor maps ledger errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrMemoNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrNoCapacity),
		errors.Is(err, ledger.ErrCapacityExceeded),
		errors.Is(err, ledger.ErrNotOccupant):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrWrongInstitution),
		errors.Is(err, ledger.ErrRoomMismatch),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func caller(c *gin.Context) ledger.Caller {
	return mw.CallerFrom(c)
}
