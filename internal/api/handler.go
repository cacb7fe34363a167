package api

import (
	"net/http"
	"time"

	"pos-service/internal/auth"
	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/service"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	products   *store.ProductStore
	orders     *store.OrderStore
	categories *store.CategoryStore
	cardTypes  *store.CardTypeStore
	carts      *cart.Manager
	checkout   *service.CheckoutService
	reporting  *service.ReportingService
	gate       *auth.Gate
}

// NewHandler creates a new HTTP handler
func NewHandler(
	products *store.ProductStore,
	orders *store.OrderStore,
	categories *store.CategoryStore,
	cardTypes *store.CardTypeStore,
	carts *cart.Manager,
	checkout *service.CheckoutService,
	reporting *service.ReportingService,
	gate *auth.Gate,
) *Handler {
	return &Handler{
		products:   products,
		orders:     orders,
		categories: categories,
		cardTypes:  cardTypes,
		carts:      carts,
		checkout:   checkout,
		reporting:  reporting,
		gate:       gate,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(roleMiddleware())

	v1.POST("/admin/login", h.adminLogin)
	v1.POST("/admin/logout", h.adminLogout)

	// Reads, open to every role
	v1.GET("/products", h.listProducts)
	v1.GET("/categories", h.listCategories)
	v1.GET("/card-types", h.listCardTypes)
	v1.GET("/orders", h.listOrders)
	v1.GET("/orders/export", h.exportOrdersCSV)
	v1.GET("/reports/summary", h.reportSummary)
	v1.GET("/reports/customers", h.reportCustomers)

	// Cart and checkout, cashier or admin
	sales := v1.Group("")
	sales.Use(requireRoles(models.RoleAdmin, models.RoleCashier))
	{
		sales.GET("/cart/:terminal", h.getCart)
		sales.POST("/cart/:terminal/items", h.addToCart)
		sales.PUT("/cart/:terminal/items/:itemID", h.updateCartQuantity)
		sales.DELETE("/cart/:terminal/items/:itemID", h.removeFromCart)
		sales.DELETE("/cart/:terminal", h.clearCart)
		sales.POST("/cart/:terminal/checkout", h.doCheckout)
	}

	// Management, admin role plus an authenticated admin session
	admin := v1.Group("")
	admin.Use(requireRoles(models.RoleAdmin), requireAdminGate(h.gate))
	{
		admin.POST("/products", h.addProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.POST("/categories", h.addCategory)
		admin.PUT("/categories/:id", h.updateCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)

		admin.POST("/card-types", h.addCardType)
		admin.PUT("/card-types/:id", h.updateCardType)
		admin.DELETE("/card-types/:id", h.deleteCardType)

		admin.DELETE("/orders/:id", h.deleteOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// --- admin gate ---

type adminLoginRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	token, err := h.gate.Authenticate(req.Passphrase)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid passphrase"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) adminLogout(c *gin.Context) {
	h.gate.Logout(c.GetHeader(adminTokenHeader))
	c.Status(http.StatusNoContent)
}

// --- products ---

type variantRequest struct {
	ID         string  `json:"id"`
	CardType   string  `json:"cardType" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required"`
	TotalPrice float64 `json:"totalPrice"`
}

type productRequest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name" binding:"required"`
	BottleSize  string           `json:"bottle_size"`
	BottlePrice float64          `json:"bottle_price"`
	Category    string           `json:"category"`
	Stock       int              `json:"stock"`
	Variants    []variantRequest `json:"variants"`
	Image       string           `json:"image"`
}

type productUpdateRequest struct {
	Name        *string          `json:"name"`
	BottleSize  *string          `json:"bottle_size"`
	BottlePrice *float64         `json:"bottle_price"`
	Category    *string          `json:"category"`
	Stock       *int             `json:"stock"`
	Variants    []variantRequest `json:"variants"`
	Image       *string          `json:"image"`
}

func toVariants(reqs []variantRequest) []models.ProductVariant {
	if reqs == nil {
		return nil
	}
	variants := make([]models.ProductVariant, len(reqs))
	for i, v := range reqs {
		variants[i] = models.ProductVariant{
			ID:         v.ID,
			CardType:   v.CardType,
			Quantity:   v.Quantity,
			TotalPrice: v.TotalPrice,
		}
	}
	return variants
}

func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.products.Products()})
}

func (h *Handler) addProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.products.Add(c.Request.Context(), models.Product{
		ID:          req.ID,
		Name:        req.Name,
		BottleSize:  req.BottleSize,
		BottlePrice: req.BottlePrice,
		Category:    req.Category,
		Stock:       req.Stock,
		Variants:    toVariants(req.Variants),
		Image:       req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req productUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	err := h.products.Update(c.Request.Context(), c.Param("id"), models.ProductUpdate{
		Name:        req.Name,
		BottleSize:  req.BottleSize,
		BottlePrice: req.BottlePrice,
		Category:    req.Category,
		Stock:       req.Stock,
		Variants:    toVariants(req.Variants),
		Image:       req.Image,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- categories ---

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type categoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.categories.Categories()})
}

func (h *Handler) addCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	category, err := h.categories.Add(c.Request.Context(), models.Category{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	var req categoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	err := h.categories.Update(c.Request.Context(), c.Param("id"), models.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if err := h.categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- card types ---

type cardTypeRequest struct {
	Label    string `json:"label" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type cardTypeUpdateRequest struct {
	Label    *string `json:"label"`
	Quantity *int    `json:"quantity"`
}

func (h *Handler) listCardTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"card_types": h.cardTypes.CardTypes()})
}

func (h *Handler) addCardType(c *gin.Context) {
	var req cardTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cardType, err := h.cardTypes.Add(c.Request.Context(), models.CardType{
		Label:    req.Label,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cardType)
}

func (h *Handler) updateCardType(c *gin.Context) {
	var req cardTypeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	err := h.cardTypes.Update(c.Request.Context(), c.Param("id"), models.CardTypeUpdate{
		Label:    req.Label,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCardType(c *gin.Context) {
	if err := h.cardTypes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- orders ---

func (h *Handler) listOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": h.orders.Orders()})
}

func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.checkout.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- cart and checkout ---

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	VariantID string `json:"variant_id" binding:"required"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type checkoutRequest struct {
	CustomerName string `json:"customer_name"`
}

func (h *Handler) getCart(c *gin.Context) {
	crt := h.carts.Cart(c.Param("terminal"))
	c.JSON(http.StatusOK, gin.H{
		"items": crt.Items(),
		"total": crt.Total(),
	})
}

func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, ok := h.products.Get(req.ProductID)
	if !ok {
		respondError(c, &models.NotFoundError{Entity: "product", ID: req.ProductID})
		return
	}

	var variant *models.ProductVariant
	for i := range product.Variants {
		if product.Variants[i].ID == req.VariantID {
			variant = &product.Variants[i]
			break
		}
	}
	if variant == nil {
		respondError(c, &models.NotFoundError{Entity: "variant", ID: req.VariantID})
		return
	}

	crt := h.carts.Cart(c.Param("terminal"))
	if err := crt.AddToCart(product, *variant); err != nil {
		respondError(c, err)
		return
	}

	util.CartAddsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"items": crt.Items(), "total": crt.Total()})
}

func (h *Handler) updateCartQuantity(c *gin.Context) {
	var req cartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	crt := h.carts.Cart(c.Param("terminal"))
	if err := crt.UpdateQuantity(c.Param("itemID"), req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": crt.Items(), "total": crt.Total()})
}

func (h *Handler) removeFromCart(c *gin.Context) {
	crt := h.carts.Cart(c.Param("terminal"))
	crt.Remove(c.Param("itemID"))
	c.JSON(http.StatusOK, gin.H{"items": crt.Items(), "total": crt.Total()})
}

func (h *Handler) clearCart(c *gin.Context) {
	h.carts.Cart(c.Param("terminal")).Clear()
	c.Status(http.StatusNoContent)
}

func (h *Handler) doCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	crt := h.carts.Cart(c.Param("terminal"))
	order, err := h.checkout.Checkout(c.Request.Context(), crt, req.CustomerName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// --- reports ---

func (h *Handler) reportSummary(c *gin.Context) {
	summary, err := h.reporting.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) reportCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"customers": h.reporting.Customers()})
}
