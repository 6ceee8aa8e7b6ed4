package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/railtix/internal/domain"
	redisrepo "github.com/kirinyoku/railtix/internal/repository/redis"
	"github.com/kirinyoku/railtix/internal/service"
	"github.com/kirinyoku/railtix/internal/service/admin"
)

const idempotencyLockTTL = 60 * time.Second

// IdempotencyStore remembers purchase responses by Idempotency-Key.
type IdempotencyStore interface {
	GetResult(ctx context.Context, key string) (string, bool, error)
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	Release(ctx context.Context, key string) error
}

// Options are the optional collaborators of the router. A nil Idempotency
// or Limiter disables that feature.
type Options struct {
	Idempotency IdempotencyStore
	Limiter     RateLimiter
	Logger      *slog.Logger
	Middlewares []gin.HandlerFunc
}

func NewRouter(svcs *service.Services, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(opts.Logger), RequestIDMiddleware(), CORS())
	for _, m := range opts.Middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/trains", handleListTrains(svcs))
	r.GET("/trains/:id", handleGetTrain(svcs))
	r.GET("/trains/:id/availability", handleGetAvailability(svcs))

	r.POST("/quotes", handleQuote(svcs))

	purchase := []gin.HandlerFunc{handlePurchase(svcs, opts.Idempotency, opts.Logger)}
	if opts.Limiter != nil {
		purchase = append([]gin.HandlerFunc{RateLimitMiddleware(opts.Limiter, opts.Logger)}, purchase...)
	}
	r.POST("/tickets", purchase...)
	r.GET("/tickets", handleListTickets(svcs))
	r.GET("/tickets/:id", handleGetTicket(svcs))
	r.PATCH("/tickets/:id", handleModifyTicket(svcs))
	r.DELETE("/tickets/:id", handleCancelTicket(svcs))

	r.GET("/promotions", handleListPromotions(svcs))
	r.POST("/promotions/applicable", handleApplicablePromotions(svcs))

	// TODO: put the admin group behind an operator token once accounts exist.
	adm := r.Group("/admin")
	{
		adm.POST("/promotions", handleCreatePromotion(svcs))
		adm.DELETE("/promotions/:id", handleDeletePromotion(svcs))
		adm.POST("/trains", handleCreateTrain(svcs))
		adm.DELETE("/tickets", handleClearTickets(svcs))
	}

	return r
}

// @Summary  List trains
// @Success  200  {array}  domain.Train
// @Router   /trains [get]
func handleListTrains(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		trains, err := svcs.Query.ListTrains(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, trains, cacheTrains)
	}
}

// @Summary  Get train
// @Param    id  path  int  true  "Train ID"
// @Success  200  {object}  domain.Train
// @Failure  404  {object}  ErrorResponse
// @Router   /trains/{id} [get]
func handleGetTrain(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Query.GetTrain(c.Request.Context(), trainID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, t, cacheTrains)
	}
}

// @Summary  Free seats on a train
// @Param    id  path  int  true  "Train ID"
// @Success  200  {object}  domain.TrainAvailability
// @Failure  404  {object}  ErrorResponse
// @Router   /trains/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		av, err := svcs.Query.Availability(c.Request.Context(), trainID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, av, cacheAvailability)
	}
}

// @Summary  Price an itinerary without booking
// @Param    req body  QuoteRequest true "payload"
// @Success  200 {object} booking.QuoteResult
// @Failure  400 {object} booking.QuoteResult
// @Failure  404 {object} booking.QuoteResult
// @Router   /quotes [post]
func handleQuote(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		in, err := req.toDomain()
		if err != nil {
			respondErr(c, err)
			return
		}
		res, err := svcs.Booking.Quote(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondResult(c, http.StatusOK, res, res.Err)
	}
}

// @Summary  Purchase a ticket (idempotent)
// @Param    req body  PurchaseTicketRequest true "payload"
// @Param    Idempotency-Key header string false "replays the first response"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} booking.PurchaseResult
// @Failure  400 {object} booking.PurchaseResult
// @Failure  404 {object} booking.PurchaseResult
// @Failure  409 {object} booking.PurchaseResult "seats unavailable / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /tickets [post]
func handlePurchase(svcs *service.Services, idem IdempotencyStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		in, err := req.toDomain()
		if err != nil {
			respondErr(c, err)
			return
		}

		ctx := c.Request.Context()
		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(idemKey)

			if replayed := replayResult(c, idem, idemStorageKey, idemKey); replayed {
				return
			}

			locked, err := idem.AcquireLock(ctx, idemStorageKey, idempotencyLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if replayed := replayResult(c, idem, idemStorageKey, idemKey); replayed {
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		res, err := svcs.Booking.Purchase(ctx, in)
		if err != nil || !res.Success {
			if idemStorageKey != "" {
				if err := idem.Release(ctx, idemStorageKey); err != nil {
					logger.Warn("idempotency key release failed",
						slog.String("idempotency_key", idemKey), slog.Any("err", err))
				}
			}
			if err != nil {
				respondErr(c, err)
				return
			}
			respondResult(c, http.StatusCreated, res, res.Err)
			return
		}

		if idemStorageKey != "" {
			saveResult(ctx, idem, logger, idemStorageKey, idemKey, res)
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, res)
	}
}

// @Summary  List tickets
// @Param    username query string false "only this customer's tickets"
// @Success  200 {array} domain.Ticket
// @Router   /tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := svcs.Query.ListTickets(c.Request.Context(), c.Query("username"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(tickets))
	}
}

// @Summary  Get ticket
// @Param    id  path  string  true  "Ticket ID"
// @Success  200 {object} domain.Ticket
// @Failure  404 {object} ErrorResponse
// @Router   /tickets/{id} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svcs.Query.GetTicket(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Modify a ticket
// @Param    id  path  string  true  "Ticket ID"
// @Param    req body  ModifyTicketRequest true "fields to change"
// @Success  200 {object} booking.OperationResult
// @Failure  400 {object} booking.OperationResult
// @Failure  404 {object} booking.OperationResult
// @Router   /tickets/{id} [patch]
func handleModifyTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ModifyTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		in, err := req.toDomain(c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		res, err := svcs.Booking.Modify(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		respondResult(c, http.StatusOK, res, res.Err)
	}
}

// @Summary  Cancel a ticket and free its seats
// @Param    id  path  string  true  "Ticket ID"
// @Success  200 {object} booking.OperationResult
// @Failure  404 {object} booking.OperationResult
// @Router   /tickets/{id} [delete]
func handleCancelTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svcs.Booking.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		respondResult(c, http.StatusOK, res, res.Err)
	}
}

// @Summary  List promotions
// @Success  200 {array} domain.Promotion
// @Router   /promotions [get]
func handleListPromotions(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		promos, err := svcs.Query.ListPromotions(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(promos))
	}
}

// @Summary  Promotions applicable to an itinerary
// @Param    req body  ApplicablePromotionsRequest true "payload"
// @Success  200 {array} domain.Promotion
// @Failure  400 {object} ErrorResponse
// @Router   /promotions/applicable [post]
func handleApplicablePromotions(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ApplicablePromotionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		in, err := req.toDomain()
		if err != nil {
			respondErr(c, err)
			return
		}
		promos, err := svcs.Query.ApplicablePromotions(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(promos))
	}
}

// @Summary  Create promotion
// @Param    req body  CreatePromotionRequest true "payload"
// @Success  201 {object} domain.Promotion
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/promotions [post]
func handleCreatePromotion(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePromotionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := req.toDomain()
		if err != nil {
			respondErr(c, err)
			return
		}
		if err := svcs.Admin.AddPromotion(c.Request.Context(), p); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary  Delete promotion
// @Param    id  path  string  true  "Promotion ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/promotions/{id} [delete]
func handleDeletePromotion(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Admin.DeletePromotion(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Create train
// @Param    req body  CreateTrainRequest true "payload"
// @Success  201 {object} domain.Train
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/trains [post]
func handleCreateTrain(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTrainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := req.toDomain()
		if err != nil {
			respondErr(c, err)
			return
		}
		if err := svcs.Admin.AddTrain(c.Request.Context(), t); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// @Summary  Remove every ticket and free its seats
// @Success  200 {object} ClearTicketsResponse
// @Router   /admin/tickets [delete]
func handleClearTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svcs.Booking.ClearAll(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ClearTicketsResponse{Removed: n})
	}
}

// --- Helpers ---

func replayResult(c *gin.Context, idem IdempotencyStore, storageKey, idemKey string) bool {
	payload, ok, _ := idem.GetResult(c.Request.Context(), storageKey)
	if !ok {
		return false
	}
	c.Header("Idempotency-Key", idemKey)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
	return true
}

// saveResult stores res for replay. A result that cannot be stored leaves the
// key locked until it expires, so a retry gets 409 instead of a second ticket.
func saveResult(ctx context.Context, idem IdempotencyStore, logger *slog.Logger, storageKey, idemKey string, res any) {
	b, err := json.Marshal(res)
	if err != nil {
		logger.Error("idempotent result encoding failed",
			slog.String("idempotency_key", idemKey), slog.Any("err", err))
		return
	}

	if err := idem.SaveResult(ctx, storageKey, string(b)); err != nil {
		logger.Error("idempotent result not saved",
			slog.String("idempotency_key", idemKey), slog.Any("err", err))
	}
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// respondResult writes a service result. A nil expected error means success.
func respondResult(c *gin.Context, okStatus int, body any, expected error) {
	if expected == nil {
		c.JSON(okStatus, body)
		return
	}
	c.JSON(statusFor(expected), body)
}

func respondErr(c *gin.Context, err error) {
	_ = c.Error(err)

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(status, ErrorResponse{Error: publicMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNoChange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCapacity),
		errors.Is(err, admin.ErrPromotionConflict),
		errors.Is(err, admin.ErrTrainConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage strips operation prefixes down to the domain error.
func publicMessage(err error) string {
	var (
		ve domain.ValidationError
		nf domain.NotFoundError
		ce domain.CapacityError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &ce):
		return ce.Error()
	}

	for _, sentinel := range []error{
		admin.ErrPromotionConflict,
		admin.ErrTrainConflict,
		domain.ErrNoChange,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return err.Error()
}
