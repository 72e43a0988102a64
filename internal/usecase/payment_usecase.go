package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	"shop/internal/payment"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

// Usecaseが知るのはこの境界だけ
type PaymentGateway interface {
	Initialize(ctx context.Context, req payment.InitRequest) (payment.InitResult, error)
	Verify(ctx context.Context, req payment.VerifyRequest) (payment.VerifyResult, error)
}

type PaymentUsecase struct {
	gateway     PaymentGateway
	orderRepo   repo.OrderRepository
	userRepo    repo.UserRepository
	callbackURL string
}

func NewPaymentUsecase(
	gateway PaymentGateway,
	orderRepo repo.OrderRepository,
	userRepo repo.UserRepository,
	callbackURL string,
) *PaymentUsecase {
	return &PaymentUsecase{
		gateway:     gateway,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		callbackURL: callbackURL,
	}
}

type InitializePaymentInput struct {
	OrderID int64
	Gateway string
}

type InitializePaymentOutput struct {
	OrderID    int64           `json:"order_id"`
	Authority  string          `json:"authority"`
	PaymentURL string          `json:"payment_url"`
	Amount     decimal.Decimal `json:"amount"`
}

type VerifyPaymentOutput struct {
	OrderID         int64  `json:"order_id"`
	RefID           string `json:"ref_id"`
	AlreadyVerified bool   `json:"already_verified"`
}

// InitializePayment は決済を開始してorderに授権情報を書く。
// 在庫や明細には触らない
func (u *PaymentUsecase) InitializePayment(ctx context.Context, userID int64, in InitializePaymentInput) (InitializePaymentOutput, error) {
	if userID <= 0 {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.OrderID <= 0 {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}
	gw := strings.TrimSpace(in.Gateway)
	if gw == "" {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid gateway")
	}

	order, err := u.orderRepo.FindByID(ctx, in.OrderID)
	if err == repo.ErrNotFound {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return InitializePaymentOutput{}, ErrStoreUnavailable
	}

	//他人の注文は払えない
	if order.UserID != userID {
		return InitializePaymentOutput{}, ErrForbidden
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return InitializePaymentOutput{}, ErrAlreadyPaid
	}

	//ゲートウェイに渡す連絡先
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil && err != repo.ErrNotFound {
		return InitializePaymentOutput{}, ErrStoreUnavailable
	}

	res, err := u.gateway.Initialize(ctx, payment.InitRequest{
		Gateway:     gw,
		Amount:      order.TotalPrice,
		OrderID:     order.ID,
		Email:       user.Email,
		Phone:       user.Phone,
		CallbackURL: u.callbackURL,
	})
	if errors.Is(err, payment.ErrUnsupportedGateway) {
		return InitializePaymentOutput{}, ErrUnsupportedGateway
	}
	if err != nil {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusBadGateway, "payment initialization failed")
	}

	status := model.PaymentStatusPending
	if err := u.orderRepo.UpdatePayment(ctx, order.ID, repo.PaymentUpdate{
		Gateway:   &gw,
		Authority: &res.Authority,
		Status:    &status,
	}); err != nil {
		return InitializePaymentOutput{}, ErrStoreUnavailable
	}

	return InitializePaymentOutput{
		OrderID:    order.ID,
		Authority:  res.Authority,
		PaymentURL: res.PaymentURL,
		Amount:     order.TotalPrice,
	}, nil
}

// VerifyPayment はゲートウェイのコールバックを検証する。
// すでにpaidの注文への再コールバックは何も書かずに同じ結果を返す
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, gateway string, authority string) (VerifyPaymentOutput, error) {
	gw := strings.TrimSpace(gateway)
	if gw == "" || strings.TrimSpace(authority) == "" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid verification request")
	}

	order, err := u.orderRepo.FindByAuthority(ctx, gw, authority)
	if err == repo.ErrNotFound {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return VerifyPaymentOutput{}, ErrStoreUnavailable
	}

	//二重コールバックガード
	if order.PaymentStatus == model.PaymentStatusPaid {
		return VerifyPaymentOutput{
			OrderID:         order.ID,
			RefID:           order.PaymentRefID,
			AlreadyVerified: true,
		}, nil
	}

	res, err := u.gateway.Verify(ctx, payment.VerifyRequest{
		Gateway:   gw,
		Authority: authority,
		Amount:    order.TotalPrice,
	})
	if errors.Is(err, payment.ErrUnsupportedGateway) {
		return VerifyPaymentOutput{}, ErrUnsupportedGateway
	}
	if err != nil {
		//失敗はpayment_statusだけ記録してstatusは触らない
		failed := model.PaymentStatusFailed
		if uerr := u.orderRepo.UpdatePayment(ctx, order.ID, repo.PaymentUpdate{Status: &failed}); uerr != nil {
			return VerifyPaymentOutput{}, ErrStoreUnavailable
		}
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "payment verification failed")
	}

	now := time.Now()
	paid := model.PaymentStatusPaid
	if err := u.orderRepo.UpdatePayment(ctx, order.ID, repo.PaymentUpdate{
		Status:     &paid,
		RefID:      &res.RefID,
		VerifiedAt: &now,
	}); err != nil {
		return VerifyPaymentOutput{}, ErrStoreUnavailable
	}

	//支払い完了でpendingから抜ける
	if err := u.orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed); err != nil {
		return VerifyPaymentOutput{}, ErrStoreUnavailable
	}

	return VerifyPaymentOutput{
		OrderID: order.ID,
		RefID:   res.RefID,
	}, nil
}
