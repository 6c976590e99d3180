package server

import (
	"errors"
	"net/http"

	"campus-market-api/internal/apperr"
	"campus-market-api/internal/handler"
	appmw "campus-market-api/internal/middleware"
	"campus-market-api/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	echo *echo.Echo

	authService service.AuthService

	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	productHandler      *handler.ProductHandler
	orderHandler        *handler.OrderHandler
	paymentHandler      *handler.PaymentHandler
	cartHandler         *handler.CartHandler
	reviewHandler       *handler.ReviewHandler
	wishlistHandler     *handler.WishlistHandler
	messageHandler      *handler.MessageHandler
	notificationHandler *handler.NotificationHandler
}

type Services struct {
	Auth         service.AuthService
	User         service.UserService
	Product      service.ProductService
	Order        service.OrderService
	Payment      service.PaymentService
	Cart         service.CartService
	Review       service.ReviewService
	Wishlist     service.WishlistService
	Message      service.MessageService
	Notification service.NotificationService
}

func NewServer(svc *Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmw.Prometheus())

	s := &Server{
		echo:                e,
		authService:         svc.Auth,
		authHandler:         handler.NewAuthHandler(svc.Auth),
		userHandler:         handler.NewUserHandler(svc.User),
		productHandler:      handler.NewProductHandler(svc.Product, svc.Review),
		orderHandler:        handler.NewOrderHandler(svc.Order),
		paymentHandler:      handler.NewPaymentHandler(svc.Payment),
		cartHandler:         handler.NewCartHandler(svc.Cart),
		reviewHandler:       handler.NewReviewHandler(svc.Review),
		wishlistHandler:     handler.NewWishlistHandler(svc.Wishlist),
		messageHandler:      handler.NewMessageHandler(svc.Message),
		notificationHandler: handler.NewNotificationHandler(svc.Notification),
	}

	s.setupRoutes()
	return s
}

// errorHandler maps domain errors onto HTTP statuses so handlers can
// return service errors untranslated.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, map[string]interface{}{"error": he.Message})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrChargeDeclined):
		status = http.StatusPaymentRequired
	case errors.Is(err, apperr.ErrGatewayTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, apperr.ErrGatewayUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, apperr.ErrInvalidCallback):
		status = http.StatusBadRequest
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		message = "internal server error"
	}

	_ = c.JSON(status, map[string]interface{}{"error": message})
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- public --------
	api.POST("/auth/register", s.authHandler.Register)
	api.POST("/auth/login", s.authHandler.Login)

	api.GET("/products", s.productHandler.List)
	api.GET("/products/:id", s.productHandler.Get)
	api.GET("/products/:id/reviews", s.productHandler.Reviews)
	api.GET("/sellers/:id", s.userHandler.SellerProfile)

	api.GET("/payments/methods", s.paymentHandler.Methods)

	// -------- gateway callbacks --------
	api.POST("/payments/callback/:provider", s.paymentHandler.Callback)

	// -------- authenticated --------
	auth := api.Group("", appmw.JWTAuth(s.authService))

	auth.GET("/users/me", s.userHandler.Me)
	auth.PUT("/users/me", s.userHandler.UpdateProfile)
	auth.PUT("/users/me/password", s.userHandler.ChangePassword)

	auth.POST("/products", s.productHandler.Create)
	auth.PUT("/products/:id", s.productHandler.Update)
	auth.DELETE("/products/:id", s.productHandler.Delete)

	auth.POST("/orders", s.orderHandler.Create)
	auth.GET("/orders", s.orderHandler.ListMine)
	auth.GET("/orders/:id", s.orderHandler.Get)
	auth.POST("/orders/:id/cancel", s.orderHandler.Cancel)

	auth.POST("/payments/initiate", s.paymentHandler.Initiate)
	auth.GET("/payments/verify/:ref", s.paymentHandler.Verify)
	auth.GET("/payments/status/:ref", s.paymentHandler.Status)

	auth.GET("/cart", s.cartHandler.Get)
	auth.PUT("/cart", s.cartHandler.Save)
	auth.POST("/cart/merge", s.cartHandler.Merge)
	auth.DELETE("/cart", s.cartHandler.Clear)

	auth.POST("/reviews", s.reviewHandler.Create)
	auth.GET("/reviews/mine", s.reviewHandler.ListMine)
	auth.PUT("/reviews/:id", s.reviewHandler.Update)
	auth.DELETE("/reviews/:id", s.reviewHandler.Delete)

	auth.GET("/wishlist", s.wishlistHandler.List)
	auth.POST("/wishlist/:productId", s.wishlistHandler.Add)
	auth.GET("/wishlist/:productId", s.wishlistHandler.Contains)
	auth.DELETE("/wishlist/:productId", s.wishlistHandler.Remove)
	auth.DELETE("/wishlist", s.wishlistHandler.Clear)

	auth.POST("/conversations", s.messageHandler.StartConversation)
	auth.GET("/conversations", s.messageHandler.ListConversations)
	auth.DELETE("/conversations/:id", s.messageHandler.DeleteConversation)
	auth.POST("/conversations/:id/messages", s.messageHandler.Send)
	auth.GET("/conversations/:id/messages", s.messageHandler.Messages)
	auth.POST("/conversations/:id/read", s.messageHandler.MarkRead)
	auth.GET("/messages/unread", s.messageHandler.UnreadCount)

	auth.GET("/notifications", s.notificationHandler.List)
	auth.GET("/notifications/unread", s.notificationHandler.UnreadCount)
	auth.POST("/notifications/:id/read", s.notificationHandler.MarkRead)
	auth.POST("/notifications/read-all", s.notificationHandler.MarkAllRead)
	auth.DELETE("/notifications/:id", s.notificationHandler.Delete)
	auth.DELETE("/notifications/read", s.notificationHandler.ClearRead)

	// -------- admin --------
	admin := auth.Group("/admin", appmw.RequireAdmin())
	admin.GET("/users", s.userHandler.List)
	admin.PUT("/users/:id/active", s.userHandler.SetActive)
	admin.PUT("/users/:id/role", s.userHandler.SetRole)
	admin.GET("/orders", s.orderHandler.ListAll)
	admin.PUT("/orders/:id/status", s.orderHandler.UpdateStatus)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
