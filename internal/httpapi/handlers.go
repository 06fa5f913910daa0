package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/checkout"
	"github.com/vladislavdragonenkov/shop/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/shop/internal/service/stock"
)

// Корзина.

type cartLineResponse struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	PriceMinor    int64  `json:"price_minor"`
	Qty           int32  `json:"qty"`
	SubtotalMinor int64  `json:"subtotal_minor"`
}

type cartResponse struct {
	Items      []cartLineResponse `json:"items"`
	TotalMinor int64              `json:"total_minor"`
	ItemCount  int32              `json:"item_count"`
}

func toCartResponse(c *domain.Cart) cartResponse {
	items := c.Items()
	resp := cartResponse{
		Items:      make([]cartLineResponse, 0, len(items)),
		TotalMinor: c.TotalMinor(),
		ItemCount:  c.ItemCount(),
	}
	for _, line := range items {
		resp.Items = append(resp.Items, cartLineResponse{
			ProductID:     line.ProductID,
			Name:          line.Name,
			PriceMinor:    line.PriceMinor,
			Qty:           line.Qty,
			SubtotalMinor: line.SubtotalMinor(),
		})
	}
	return resp
}

func (s *Server) getCart(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toCartResponse(s.carts.Get(sessionID)))
}

type addCartItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

func (s *Server) addCartItem(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	var req addCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	// Имя и цена кешируются в корзине на момент добавления; при
	// оформлении движок перечитает актуальные значения.
	product, err := s.products.GetByID(c.Request.Context(), req.ProductID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	carted := s.carts.Get(sessionID)
	if err := carted.AddItem(product.ID, product.Name, product.PriceMinor, req.Qty); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(carted))
}

type updateCartItemReq struct {
	Qty int32 `json:"qty"`
}

func (s *Server) updateCartItem(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	var req updateCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	carted := s.carts.Get(sessionID)
	if err := carted.UpdateQuantity(c.Param("product_id"), req.Qty); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(carted))
}

func (s *Server) removeCartItem(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	carted := s.carts.Get(sessionID)
	if err := carted.RemoveItem(c.Param("product_id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(carted))
}

func (s *Server) clearCart(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	s.carts.Clear(sessionID)
	c.Status(http.StatusNoContent)
}

// Оформление заказа.

type paymentDataReq struct {
	CardNumber string `json:"card_number"`
	CVV        string `json:"cvv"`
	Expiry     string `json:"expiry"`
	Holder     string `json:"holder"`
	PayerTaxID string `json:"payer_tax_id"`
}

type checkoutReq struct {
	CustomerID    string         `json:"customer_id"`
	AddressID     string         `json:"address_id"`
	PaymentMethod string         `json:"payment_method"`
	Payment       paymentDataReq `json:"payment"`
	FreightType   string         `json:"freight_type"`
	WeightKg      float64        `json:"weight_kg"`
}

type orderLineResponse struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Qty           int32  `json:"qty"`
	PriceMinor    int64  `json:"price_minor"`
	SubtotalMinor int64  `json:"subtotal_minor"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	Status          string              `json:"status"`
	TotalMinor      int64               `json:"total_minor"`
	FreightMinor    int64               `json:"freight_minor"`
	FreightEtaDays  int                 `json:"freight_eta_days"`
	DeliveryAddress string              `json:"delivery_address"`
	PaymentMethod   string              `json:"payment_method"`
	Items           []orderLineResponse `json:"items"`
	Version         int64               `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o domain.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		TotalMinor:      o.TotalMinor,
		FreightMinor:    o.FreightMinor,
		FreightEtaDays:  o.FreightEtaDays,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
		Items:           make([]orderLineResponse, 0, len(o.Items)),
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, line := range o.Items {
		resp.Items = append(resp.Items, orderLineResponse{
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Qty:           line.Qty,
			PriceMinor:    line.PriceMinor,
			SubtotalMinor: line.SubtotalMinor,
		})
	}
	return resp
}

func (s *Server) checkoutCart(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	carted := s.carts.Get(sessionID)
	order, err := s.checkout.CreateOrder(c.Request.Context(), checkout.CreateOrderInput{
		CustomerID:    req.CustomerID,
		Lines:         carted.Items(),
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		Payment: domain.PaymentData{
			CardNumber: req.Payment.CardNumber,
			CVV:        req.Payment.CVV,
			Expiry:     req.Payment.Expiry,
			Holder:     req.Payment.Holder,
			PayerTaxID: req.Payment.PayerTaxID,
		},
		FreightType: req.FreightType,
		WeightKg:    req.WeightKg,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Корзина очищается только после успешного оформления: при отказе
	// покупатель продолжает с того же состава.
	carted.Clear()

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// Заказы.

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func (s *Server) listOrders(c *gin.Context) {
	if customerID := c.Query("customer_id"); customerID != "" {
		limit := parseIntQuery(c, "limit", 0)
		orders, err := s.lifecycle.ListByCustomer(c.Request.Context(), customerID, limit)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": toOrderResponses(orders)})
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 0)

	var (
		result lifecycle.Page
		err    error
	)
	if status := c.Query("status"); status != "" {
		result, err = s.lifecycle.FilterByStatus(c.Request.Context(), domain.OrderStatus(status), page, perPage)
	} else {
		result, err = s.lifecycle.ListAll(c.Request.Context(), page, perPage)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orderPageResponse{
		Orders:     toOrderResponses(result.Orders),
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, toOrderResponse(o))
	}
	return result
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

func (s *Server) getOrderTimeline(c *gin.Context) {
	events, err := s.lifecycle.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	result := make([]timelineEventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, timelineEventResponse{
			Type:     e.Type,
			Reason:   e.Reason,
			Occurred: e.Occurred,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": result})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	order, err := s.lifecycle.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Остатки.

type stockBatchReq struct {
	Updates []stockUpdateReq `json:"updates"`
}

type stockUpdateReq struct {
	SKU   string `json:"sku"`
	Stock int32  `json:"stock"`
}

type stockBatchResponse struct {
	Applied int                  `json:"applied"`
	Errors  []stockItemErrorResp `json:"errors"`
}

type stockItemErrorResp struct {
	SKU   string `json:"sku"`
	Error string `json:"error"`
}

func (s *Server) applyStockBatch(c *gin.Context) {
	var req stockBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := make([]stock.Update, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, stock.Update{SKU: u.SKU, Stock: u.Stock})
	}

	result := s.stock.Apply(c.Request.Context(), updates)

	resp := stockBatchResponse{
		Applied: result.Applied,
		Errors:  make([]stockItemErrorResp, 0, len(result.Errors)),
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, stockItemErrorResp{SKU: e.SKU, Error: e.Err.Error()})
	}
	c.JSON(http.StatusOK, resp)
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
