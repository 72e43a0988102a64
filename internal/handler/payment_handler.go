package handler

import (
	"net/http"

	"shop/internal/config"
	"shop/internal/middleware"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /paymentのHTTP
type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type PaymentInitializeRequest struct {
	OrderID int64  `json:"order_id"`
	Gateway string `json:"gateway"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payment")

	//initializeは本人確認が必要
	init := g.Group("")
	init.Use(middleware.AuthJWT(cfg))
	init.POST("/initialize", h.initialize)

	//verifyはゲートウェイのリダイレクトで叩かれるので認証なし
	g.GET("/verify", h.verify)
}

func (h *PaymentHandler) initialize(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req PaymentInitializeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.InitializePayment(c.Request().Context(), userID, usecase.InitializePaymentInput{
		OrderID: req.OrderID,
		Gateway: req.Gateway,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) verify(c echo.Context) error {
	gateway := c.QueryParam("gateway")
	authority := c.QueryParam("authority")
	//zarinpalはAuthorityパラメータ名で返してくる
	if authority == "" {
		authority = c.QueryParam("Authority")
	}
	if authority == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing authority"})
	}

	out, err := h.uc.VerifyPayment(c.Request().Context(), gateway, authority)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
