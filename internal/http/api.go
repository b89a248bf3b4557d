package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gendai-ordering/internal/domain"
	"gendai-ordering/internal/service"
)

const maxImageSize = 5 << 20 // 5MB, matches the upload contract of the admin UI

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      service.AuthService
	menu      service.MenuService
	orders    service.OrderService
	logger    logrus.FieldLogger
	imagesDir string
}

// NewHandler builds the API surface. imagesDir is the local directory served
// under /images; empty when images live in object storage.
func NewHandler(authSvc service.AuthService, menu service.MenuService, orders service.OrderService, logger logrus.FieldLogger, imagesDir string) *Handler {
	return &Handler{
		auth:      authSvc,
		menu:      menu,
		orders:    orders,
		logger:    logger,
		imagesDir: imagesDir,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	if h.imagesDir != "" {
		router.Static("/images", h.imagesDir)
	}

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/verify", h.verify)
	}

	menu := api.Group("/menu")
	{
		menu.GET("", h.listMenuItems)
		menu.GET("/:id", h.getMenuItem)

		restricted := menu.Group("", AuthMiddleware(h.auth), AdminRequired())
		restricted.POST("", h.createMenuItem)
		restricted.PUT("/:id", h.updateMenuItem)
		restricted.DELETE("/:id", h.deleteMenuItem)
	}

	orders := api.Group("/orders")
	{
		orders.POST("", h.createOrder)

		staff := orders.Group("", AuthMiddleware(h.auth))
		staff.GET("", h.listOrders)
		staff.PUT("/:id", h.updateOrderStatus)
	}

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, gin.H{"message": message, "code": code})
}

// --- auth ---

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", "VALIDATION_ERROR")
		return
	}

	user, token, err := h.auth.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameExists):
			respondError(c, http.StatusBadRequest, "Username already exists", "USERNAME_EXISTS")
		case errors.Is(err, service.ErrEmailExists):
			respondError(c, http.StatusBadRequest, "Email already exists", "EMAIL_EXISTS")
		case errors.Is(err, service.ErrValidation):
			respondError(c, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		default:
			h.logger.WithError(err).Error("signup failed")
			respondError(c, http.StatusInternalServerError, "Server error during signup", "SERVER_ERROR")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    userToResponse(user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", "VALIDATION_ERROR")
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid username or password", "INVALID_CREDENTIALS")
		case errors.Is(err, service.ErrAccountLocked):
			respondError(c, http.StatusLocked, "Account temporarily locked. Try again later.", "ACCOUNT_LOCKED")
		default:
			h.logger.WithError(err).Error("login failed")
			respondError(c, http.StatusInternalServerError, "Server error during login", "SERVER_ERROR")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userToResponse(user),
	})
}

// logout exists for client symmetry only; the server holds no session state.
func (h *Handler) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
		"code":    "LOGOUT_SUCCESS",
	})
}

func (h *Handler) verify(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"isValid": false,
			"message": "No token provided",
		})
		return
	}

	user, err := h.auth.VerifyToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"isValid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isValid": true,
		"user":    userToResponse(user),
	})
}

// --- menu ---

func (h *Handler) listMenuItems(c *gin.Context) {
	items, err := h.menu.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("list menu items")
		respondError(c, http.StatusInternalServerError, "Failed to load menu", "SERVER_ERROR")
		return
	}

	resp := make([]MenuItemResponse, len(items))
	for i := range items {
		resp[i] = h.menuItemToResponse(items[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getMenuItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.menu.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMenuItemNotFound) {
			respondError(c, http.StatusNotFound, "Menu item not found", "NOT_FOUND")
			return
		}
		h.logger.WithError(err).Error("get menu item")
		respondError(c, http.StatusInternalServerError, "Failed to load menu item", "SERVER_ERROR")
		return
	}

	c.JSON(http.StatusOK, h.menuItemToResponse(*item))
}

func (h *Handler) createMenuItem(c *gin.Context) {
	price, err := strconv.ParseFloat(c.DefaultPostForm("price", "0"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid price", "VALIDATION_ERROR")
		return
	}
	available := true
	if v, ok := c.GetPostForm("available"); ok {
		available = v == "true" || v == "1"
	}

	input := service.MenuItemInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Price:       price,
		Category:    c.PostForm("category"),
		Available:   available,
	}

	image, ok := h.formImage(c)
	if !ok {
		return
	}

	item, err := h.menu.Create(c.Request.Context(), input, image)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
		h.logger.WithError(err).Error("create menu item")
		respondError(c, http.StatusInternalServerError, "Failed to create menu item", "SERVER_ERROR")
		return
	}

	c.JSON(http.StatusCreated, h.menuItemToResponse(*item))
}

func (h *Handler) updateMenuItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var update service.MenuItemUpdate
	if v, ok := c.GetPostForm("name"); ok {
		update.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		update.Description = &v
	}
	if v, ok := c.GetPostForm("price"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid price", "VALIDATION_ERROR")
			return
		}
		update.Price = &price
	}
	if v, ok := c.GetPostForm("category"); ok {
		update.Category = &v
	}
	if v, ok := c.GetPostForm("available"); ok {
		available := v == "true" || v == "1"
		update.Available = &available
	}
	if v, ok := c.GetPostForm("image"); ok {
		update.Image = &v
	}

	image, ok := h.formImage(c)
	if !ok {
		return
	}

	item, err := h.menu.Update(c.Request.Context(), id, update, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMenuItemNotFound):
			respondError(c, http.StatusNotFound, "Menu item not found", "NOT_FOUND")
		case errors.Is(err, service.ErrValidation):
			respondError(c, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		default:
			h.logger.WithError(err).Error("update menu item")
			respondError(c, http.StatusInternalServerError, "Failed to update menu item", "SERVER_ERROR")
		}
		return
	}

	c.JSON(http.StatusOK, h.menuItemToResponse(*item))
}

func (h *Handler) deleteMenuItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.menu.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrMenuItemNotFound) {
			respondError(c, http.StatusNotFound, "Menu item not found", "NOT_FOUND")
			return
		}
		h.logger.WithError(err).Error("delete menu item")
		respondError(c, http.StatusInternalServerError, "Failed to delete menu item", "SERVER_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// formImage reads an optional "image" multipart field, enforcing the mime
// and size limits. Returns ok=false after writing the error response.
func (h *Handler) formImage(c *gin.Context) (*service.ImageUpload, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		// no file uploaded
		return nil, true
	}

	if fileHeader.Size > maxImageSize {
		respondError(c, http.StatusBadRequest, "Image exceeds the 5MB limit", "IMAGE_TOO_LARGE")
		return nil, false
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "Not an image! Please upload an image.", "INVALID_IMAGE")
		return nil, false
	}

	// the server removes multipart temp files once the request finishes
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Unable to read uploaded image", "INVALID_IMAGE")
		return nil, false
	}

	return &service.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Reader:      f,
	}, true
}

// --- orders ---

type orderLineRequest struct {
	// MenuItem carries the catalog identifier as sent by the client. A value
	// that does not parse as an id is treated as an ad-hoc line rather than
	// rejected, so stale carts still go through.
	MenuItem  string   `json:"menuItem"`
	ItemName  string   `json:"itemName"`
	ItemPrice *float64 `json:"itemPrice"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
	IsAddon   bool     `json:"isAddon"`
}

type createOrderRequest struct {
	CustomerName  string             `json:"customerName" binding:"required"`
	Items         []orderLineRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount   float64            `json:"totalAmount"`
	TableNumber   *int               `json:"tableNumber"`
	PaymentMethod string             `json:"paymentMethod"`
	OrderType     string             `json:"orderType"`
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order payload", "VALIDATION_ERROR")
		return
	}

	input := service.CreateOrderInput{
		CustomerName:  req.CustomerName,
		TotalAmount:   req.TotalAmount,
		TableNumber:   req.TableNumber,
		PaymentMethod: req.PaymentMethod,
		OrderType:     req.OrderType,
	}
	for _, item := range req.Items {
		line := service.OrderLineInput{
			Name:     item.ItemName,
			Price:    item.ItemPrice,
			Quantity: item.Quantity,
			IsAddon:  item.IsAddon,
		}
		if id, err := strconv.ParseInt(item.MenuItem, 10, 64); err == nil {
			line.MenuItemID = &id
		}
		input.Lines = append(input.Lines, line)
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.logger.WithError(err).Error("create order")
		respondError(c, http.StatusInternalServerError, "Error creating order", "SERVER_ERROR")
		return
	}

	c.JSON(http.StatusCreated, orderToResponse(*order))
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("list orders")
		respondError(c, http.StatusInternalServerError, "Failed to load orders", "SERVER_ERROR")
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i := range orders {
		resp[i] = orderToResponse(orders[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payload", "VALIDATION_ERROR")
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, http.StatusNotFound, "Order not found", "NOT_FOUND")
			return
		}
		h.logger.WithError(err).Error("update order status")
		respondError(c, http.StatusInternalServerError, "Failed to update order", "SERVER_ERROR")
		return
	}

	c.JSON(http.StatusOK, orderToResponse(*order))
}

// --- responses ---

type UserResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	LastLogin *string `json:"lastLogin,omitempty"`
}

type MenuItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Available   bool    `json:"available"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type OrderLineResponse struct {
	ID        int64   `json:"id"`
	MenuItem  *int64  `json:"menuItem,omitempty"`
	ItemName  string  `json:"itemName"`
	ItemPrice float64 `json:"itemPrice"`
	Quantity  int     `json:"quantity"`
}

type OrderResponse struct {
	ID            int64               `json:"id"`
	CustomerName  string              `json:"customerName"`
	Items         []OrderLineResponse `json:"items"`
	TotalAmount   float64             `json:"totalAmount"`
	Status        string              `json:"status"`
	TableNumber   *int                `json:"tableNumber,omitempty"`
	PaymentMethod string              `json:"paymentMethod,omitempty"`
	OrderType     string              `json:"orderType,omitempty"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
}

func userToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}
	if user.LastLogin != nil {
		v := user.LastLogin.Format(time.RFC3339)
		resp.LastLogin = &v
	}
	return resp
}

func (h *Handler) menuItemToResponse(item domain.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Category:    item.Category,
		Image:       item.Image,
		ImageURL:    h.menu.ImageURL(item.Image),
		Available:   item.Available,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339),
	}
}

func orderToResponse(order domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:            order.ID,
		CustomerName:  order.CustomerName,
		Items:         make([]OrderLineResponse, len(order.Lines)),
		TotalAmount:   order.TotalAmount,
		Status:        string(order.Status),
		TableNumber:   order.TableNumber,
		PaymentMethod: order.PaymentMethod,
		OrderType:     order.OrderType,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     order.UpdatedAt.Format(time.RFC3339),
	}
	for i, line := range order.Lines {
		resp.Items[i] = OrderLineResponse{
			ID:        line.ID,
			MenuItem:  line.MenuItemID,
			ItemName:  line.Name,
			ItemPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}
	return resp
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid id", "VALIDATION_ERROR")
		return 0, false
	}
	return id, true
}
