package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pos/internal/cart"
	"pos/internal/domain"
	"pos/internal/logger"
	"pos/internal/repository"
	"pos/internal/service"
)

type Server struct {
	engine  *gin.Engine
	session *service.Session
	catalog repository.CatalogService
}

func NewServer(session *service.Session, catalogSvc repository.CatalogService) *Server {
	r := gin.New()
	r.Use(logger.RequestLogger(), gin.Recovery())
	s := &Server{engine: r, session: session, catalog: catalogSvc}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	{
		products := v1.Group("/products")
		products.GET("", s.listProducts)
		products.POST("", s.createProduct)

		v1.GET("/categories", s.listCategories)
		v1.POST("/pins/:id/toggle", s.togglePin)

		cartGroup := v1.Group("/cart")
		cartGroup.GET("", s.getCart)
		cartGroup.POST("/items", s.addCartItem)
		cartGroup.PUT("/items/:id", s.setCartItemQuantity)
		cartGroup.DELETE("/items/:id", s.removeCartItem)

		v1.POST("/checkout", s.checkout)

		v1.GET("/customers", s.listCustomers)
		v1.POST("/customers", s.createCustomer)
		v1.PUT("/customer", s.selectCustomer)

		v1.POST("/payment-method", s.setPaymentMethod)
		v1.POST("/order-status", s.setOrderStatus)

		v1.GET("/orders/today", s.todaysOrders)
		v1.POST("/session/refresh", s.refreshSession)
	}
}

// Product handlers

// @Summary List products (pinned first, then by name)
// @Tags products
// @Produce json
// @Param q query string false "Name or SKU contains"
// @Param category query string false "Category filter"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	list := s.session.Products(c.Query("q"), c.Query("category"))
	c.JSON(http.StatusOK, list)
}

type createProductReq struct {
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Price    float64 `json:"price"`
	Stock    float64 `json:"stock"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

// @Summary Create product in the catalog
// @Tags products
// @Accept json
// @Produce json
// @Param input body createProductReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.SKU == "" || req.Price < 0 || req.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidInput.Error()})
		return
	}
	p := domain.Product{Name: req.Name, SKU: req.SKU, Price: req.Price, Stock: req.Stock, Unit: req.Unit, Category: req.Category}
	if err := s.catalog.Create(c, &p); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary List categories of the current catalog snapshot
// @Tags products
// @Produce json
// @Success 200 {array} string
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Categories())
}

// @Summary Toggle product pin
// @Tags pins
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /pins/{id}/toggle [post]
func (s *Server) togglePin(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	pinned, err := s.session.TogglePin(c, id)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "pinned": pinned})
}

// Cart handlers

type cartView struct {
	Lines []domain.CartLine `json:"lines"`
	Total float64           `json:"total"`
	Units float64           `json:"units"`
}

// @Summary Current cart contents
// @Tags cart
// @Produce json
// @Success 200 {object} cartView
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	lines, total, units := s.session.CartView()
	c.JSON(http.StatusOK, cartView{Lines: lines, Total: total, Units: units})
}

type addCartItemReq struct {
	ProductID int64  `json:"product_id"`
	Quantity  string `json:"quantity"`
}

// @Summary Add product to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addCartItemReq true "Item; empty quantity means 1"
// @Success 200 {object} cartView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	qty := 1.0
	if req.Quantity != "" {
		var err error
		qty, err = cart.ParseQuantity(req.Quantity)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := s.session.AddToCart(req.ProductID, qty); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	lines, total, units := s.session.CartView()
	c.JSON(http.StatusOK, cartView{Lines: lines, Total: total, Units: units})
}

type setQuantityReq struct {
	Quantity float64 `json:"quantity"`
}

// @Summary Set absolute line quantity; zero or less removes the line
// @Tags cart
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body setQuantityReq true "Quantity"
// @Success 200 {object} cartView
// @Failure 400 {object} map[string]string
// @Router /cart/items/{id} [put]
func (s *Server) setCartItemQuantity(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req setQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s.session.SetCartQuantity(id, req.Quantity)
	lines, total, units := s.session.CartView()
	c.JSON(http.StatusOK, cartView{Lines: lines, Total: total, Units: units})
}

// @Summary Remove line from cart
// @Tags cart
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /cart/items/{id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s.session.RemoveFromCart(id)
	c.Status(http.StatusNoContent)
}

// Checkout

type checkoutReq struct {
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
}

// @Summary Compose and submit the sale
// @Tags checkout
// @Accept json
// @Produce json
// @Param input body checkoutReq false "Optional payment method / status override"
// @Success 201 {object} domain.Sale
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	var req checkoutReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	if req.PaymentMethod != "" {
		if err := s.session.SetPaymentMethod(domain.PaymentMethod(req.PaymentMethod)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment method"})
			return
		}
	}
	if req.Status != "" {
		if err := s.session.SetStatus(domain.SaleStatus(req.Status)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}
	sale, err := s.session.Checkout(c)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// Customer handlers

// @Summary List customers
// @Tags customers
// @Produce json
// @Success 200 {array} domain.Customer
// @Router /customers [get]
func (s *Server) listCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Customers())
}

type createCustomerReq struct {
	Name string `json:"name"`
}

// @Summary Quick-create customer and select it
// @Tags customers
// @Accept json
// @Produce json
// @Param input body createCustomerReq true "Customer"
// @Success 201 {object} domain.Customer
// @Failure 400 {object} map[string]string
// @Router /customers [post]
func (s *Server) createCustomer(c *gin.Context) {
	var req createCustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	customer, err := s.session.CreateCustomer(c, req.Name)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

type selectCustomerReq struct {
	CustomerID *int64 `json:"customer_id"`
}

// @Summary Select session customer; null means walk-in
// @Tags customers
// @Accept json
// @Produce json
// @Param input body selectCustomerReq true "Customer ID or null"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /customer [put]
func (s *Server) selectCustomer(c *gin.Context) {
	var req selectCustomerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.session.SelectCustomer(req.CustomerID); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	selected := s.session.SelectedCustomer()
	if selected == nil {
		c.JSON(http.StatusOK, gin.H{"customer": nil, "walk_in": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": selected, "walk_in": false})
}

// Session settings

type paymentMethodReq struct {
	PaymentMethod string `json:"payment_method"`
}

// @Summary Set payment method
// @Tags checkout
// @Accept json
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /payment-method [post]
func (s *Server) setPaymentMethod(c *gin.Context) {
	var req paymentMethodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.session.SetPaymentMethod(domain.PaymentMethod(req.PaymentMethod)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment method"})
		return
	}
	c.Status(http.StatusNoContent)
}

type orderStatusReq struct {
	Status string `json:"status"`
}

// @Summary Set order status for the next sale
// @Tags checkout
// @Accept json
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /order-status [post]
func (s *Server) setOrderStatus(c *gin.Context) {
	var req orderStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.session.SetStatus(domain.SaleStatus(req.Status)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Today's orders (display only)
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Sale
// @Router /orders/today [get]
func (s *Server) todaysOrders(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.TodaysOrders())
}

// @Summary Re-fetch catalog, customers and today's orders
// @Tags session
// @Success 204
// @Router /session/refresh [post]
func (s *Server) refreshSession(c *gin.Context) {
	s.session.Open(c)
	c.Status(http.StatusNoContent)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCheckoutInFlight):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotEnoughStock):
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}
