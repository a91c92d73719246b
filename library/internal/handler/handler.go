package handler

import (
	"net/http"

	md "github.com/Astemirdum/library-management/pkg/middleware"
	"github.com/Astemirdum/library-management/pkg/serializer"
	"github.com/Astemirdum/library-management/pkg/validate"
	_ "github.com/Astemirdum/library-management/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

const (
	welcome   = "Library Management API: books and borrows over REST"
	bodyLimit = "1M"
)

type Handler struct {
	bookSvc   BookService
	borrowSvc BorrowService
	log       *zap.Logger
}

func New(bookSvc BookService, borrowSvc BorrowService, log *zap.Logger) *Handler {
	return &Handler{
		bookSvc:   bookSvc,
		borrowSvc: borrowSvc,
		log:       log,
	}
}

// @title       Library Management API
// @version     1.0
// @BasePath    /
func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.JSONSerializer = serializer.JSONIter{}
	e.Validator = validate.NewCustomValidator()
	e.HTTPErrorHandler = ErrorHandler(h.log)

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(md.NewRequestID())

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/", h.Welcome)
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.BodyLimit(bodyLimit),
		md.NewRateLimiter(apiRPS),
	)
	api.POST("/books", h.CreateBook)
	api.GET("/books", h.ListBooks)
	api.GET("/books/:bookId", h.GetBook)
	api.PATCH("/books/:bookId", h.UpdateBook)
	api.DELETE("/books/:bookId", h.DeleteBook)

	api.POST("/borrow", h.BorrowBook)
	api.GET("/borrow", h.BorrowSummary)

	return e
}

func (h *Handler) Welcome(c echo.Context) error {
	return c.String(http.StatusOK, welcome)
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
