package handler

import (
	"math"
	"net/http"

	"tripsearch_backend/internal/search/domain"
	"tripsearch_backend/internal/search/service"
	"tripsearch_backend/internal/search/transport"
	"tripsearch_backend/platform/httpkit"
	"tripsearch_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	engine *service.Engine
	val    *validator.Validator
}

func New(engine *service.Engine, val *validator.Validator) *Handler {
	return &Handler{engine: engine, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/flights", h.SearchFlights)
	rg.GET("/trains", h.SearchTrains)
	rg.GET("/buses", h.SearchBuses)
	rg.GET("/hotels", h.SearchHotels)
	rg.GET("/ratelimit", h.RateLimit)
}

// bind runs query binding plus struct validation, writing the error response
// itself. Callers bail out on false.
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func searchResponse(options []domain.Option) transport.SearchResponse {
	resp := transport.SearchResponse{Options: options, Total: len(options)}
	if recommended := service.RecommendOption(options); recommended != nil {
		resp.RecommendedID = recommended.ID
	}
	return resp
}

func (h *Handler) SearchFlights(c *gin.Context) {
	var req transport.FlightSearchRequest
	if !h.bind(c, &req) {
		return
	}

	options, err := h.engine.SearchFlights(c.Request.Context(), domain.FlightQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        req.Date,
		Travelers:   req.Travelers,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, searchResponse(options))
}

func (h *Handler) SearchTrains(c *gin.Context) {
	var req transport.TransitSearchRequest
	if !h.bind(c, &req) {
		return
	}

	options, err := h.engine.SearchTrains(c.Request.Context(), domain.TransitQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        req.Date,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, searchResponse(options))
}

func (h *Handler) SearchBuses(c *gin.Context) {
	var req transport.TransitSearchRequest
	if !h.bind(c, &req) {
		return
	}

	options, err := h.engine.SearchBuses(c.Request.Context(), domain.TransitQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        req.Date,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, searchResponse(options))
}

func (h *Handler) SearchHotels(c *gin.Context) {
	var req transport.HotelSearchRequest
	if !h.bind(c, &req) {
		return
	}
	if req.BudgetMax > 0 && req.BudgetMin > req.BudgetMax {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "budgetMin exceeds budgetMax")
		return
	}

	options, err := h.engine.SearchHotels(c.Request.Context(), domain.HotelQuery{
		City:      req.City,
		Checkin:   req.Checkin,
		Checkout:  req.Checkout,
		BudgetMin: req.BudgetMin,
		BudgetMax: req.BudgetMax,
		Limit:     req.Limit,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, searchResponse(options))
}

func (h *Handler) RateLimit(c *gin.Context) {
	var req transport.RateLimitRequest
	if !h.bind(c, &req) {
		return
	}

	limited, remaining := h.engine.RateLimited(req.Key)
	resp := transport.RateLimitResponse{Operation: req.Key, Limited: limited}
	if limited {
		resp.RetryAfterSeconds = int(math.Ceil(remaining.Seconds()))
	}

	httpkit.OK(c, resp)
}
