package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	"github.com/vladislavdragonenkov/shop/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/shop/internal/service/stock"
)

// HeaderSessionID идентифицирует сессию покупателя для операций с корзиной.
const HeaderSessionID = "X-Session-ID"

// Server — HTTP-слой магазина поверх gin.
type Server struct {
	engine    *gin.Engine
	carts     *cart.SessionStore
	products  domain.ProductStore
	checkout  *checkout.Engine
	lifecycle *lifecycle.Manager
	stock     *stock.BatchUpdater
	logger    *log.Entry
}

// NewServer создаёт HTTP-сервер и регистрирует маршруты.
func NewServer(carts *cart.SessionStore, products domain.ProductStore, engine *checkout.Engine, manager *lifecycle.Manager, updater *stock.BatchUpdater, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "httpapi")
	}

	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		engine:    r,
		carts:     carts,
		products:  products,
		checkout:  engine,
		lifecycle: manager,
		stock:     updater,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

// Engine возвращает gin.Engine для запуска и тестов.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/api/v1")
	{
		c := v1.Group("/cart")
		c.GET("", s.getCart)
		c.POST("/items", s.addCartItem)
		c.PATCH("/items/:product_id", s.updateCartItem)
		c.DELETE("/items/:product_id", s.removeCartItem)
		c.DELETE("", s.clearCart)

		v1.POST("/checkout", s.checkoutCart)

		orders := v1.Group("/orders")
		orders.GET("", s.listOrders)
		orders.GET(":id", s.getOrder)
		orders.GET(":id/timeline", s.getOrderTimeline)
		orders.PATCH(":id/status", s.updateOrderStatus)

		v1.POST("/stock/batch", s.applyStockBatch)
	}
}

// sessionID достаёт идентификатор сессии из заголовка. Пустой заголовок —
// ошибка клиента: сессии сервер не выдаёт.
func (s *Server) sessionID(c *gin.Context) (string, bool) {
	id := c.GetHeader(HeaderSessionID)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + HeaderSessionID + " header"})
		return "", false
	}
	return id, true
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCartItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrOrderVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrPaymentValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrInvalidFreightType),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
