package usecase_test

import (
	"context"
	"errors"
	"testing"

	"shop/internal/domain/model"
	"shop/internal/payment"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks
// =====================

type PayGatewayMock struct{ mock.Mock }

func (m *PayGatewayMock) Initialize(ctx context.Context, req payment.InitRequest) (payment.InitResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(payment.InitResult)
	return res, args.Error(1)
}

func (m *PayGatewayMock) Verify(ctx context.Context, req payment.VerifyRequest) (payment.VerifyResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(payment.VerifyResult)
	return res, args.Error(1)
}

type PayOrderRepoMock struct{ mock.Mock }

func (m *PayOrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *PayOrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	panic("not used in PaymentUsecase tests")
}

func (m *PayOrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	panic("not used in PaymentUsecase tests")
}

func (m *PayOrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *PayOrderRepoMock) UpdatePayment(ctx context.Context, orderID int64, up repo.PaymentUpdate) error {
	args := m.Called(ctx, orderID, up)
	return args.Error(0)
}

func (m *PayOrderRepoMock) FindByAuthority(ctx context.Context, gateway string, authority string) (model.Order, error) {
	args := m.Called(ctx, gateway, authority)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *PayOrderRepoMock) Delete(ctx context.Context, orderID int64) error {
	panic("not used in PaymentUsecase tests")
}

func (m *PayOrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	panic("not used in PaymentUsecase tests")
}

func (m *PayOrderRepoMock) Stats(ctx context.Context) (repo.OrderStats, error) {
	panic("not used in PaymentUsecase tests")
}

func (m *PayOrderRepoMock) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	panic("not used in PaymentUsecase tests")
}

type PayUserRepoMock struct{ mock.Mock }

func (m *PayUserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in PaymentUsecase tests")
}

func (m *PayUserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *PayUserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	panic("not used in PaymentUsecase tests")
}

const testCallbackURL = "http://localhost:8080/payment/verify"

func newPaymentUsecase(gw *PayGatewayMock, oRepo *PayOrderRepoMock, uRepo *PayUserRepoMock) *usecase.PaymentUsecase {
	return usecase.NewPaymentUsecase(gw, oRepo, uRepo, testCallbackURL)
}

// =====================
// InitializePayment
// =====================

func TestPaymentUsecase_Initialize_ForbiddenForOtherUsersOrder(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uc := newPaymentUsecase(gw, oRepo, new(PayUserRepoMock))

	oRepo.On("FindByID", mock.Anything, int64(1)).
		Return(model.Order{ID: 1, UserID: 7, PaymentStatus: model.PaymentStatusUnpaid}, nil)

	_, err := uc.InitializePayment(context.Background(), 8, usecase.InitializePaymentInput{OrderID: 1, Gateway: "zarinpal"})
	assert.True(t, errors.Is(err, usecase.ErrForbidden))
}

func TestPaymentUsecase_Initialize_AlreadyPaid(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uc := newPaymentUsecase(gw, oRepo, new(PayUserRepoMock))

	oRepo.On("FindByID", mock.Anything, int64(1)).
		Return(model.Order{ID: 1, UserID: 7, PaymentStatus: model.PaymentStatusPaid}, nil)

	_, err := uc.InitializePayment(context.Background(), 7, usecase.InitializePaymentInput{OrderID: 1, Gateway: "zarinpal"})
	assert.True(t, errors.Is(err, usecase.ErrAlreadyPaid))
}

func TestPaymentUsecase_Initialize_UnsupportedGateway(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uRepo := new(PayUserRepoMock)
	uc := newPaymentUsecase(gw, oRepo, uRepo)

	oRepo.On("FindByID", mock.Anything, int64(1)).
		Return(model.Order{ID: 1, UserID: 7, TotalPrice: price("45.48"), PaymentStatus: model.PaymentStatusUnpaid}, nil)
	uRepo.On("FindByID", mock.Anything, int64(7)).
		Return(model.User{ID: 7, Email: "a@example.com"}, nil)
	gw.On("Initialize", mock.Anything, mock.Anything).
		Return(payment.InitResult{}, payment.ErrUnsupportedGateway)

	_, err := uc.InitializePayment(context.Background(), 7, usecase.InitializePaymentInput{OrderID: 1, Gateway: "paypal"})
	assert.True(t, errors.Is(err, usecase.ErrUnsupportedGateway))
}

func TestPaymentUsecase_Initialize_Success(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uRepo := new(PayUserRepoMock)
	uc := newPaymentUsecase(gw, oRepo, uRepo)

	oRepo.On("FindByID", mock.Anything, int64(1)).
		Return(model.Order{ID: 1, UserID: 7, TotalPrice: price("45.48"), PaymentStatus: model.PaymentStatusUnpaid}, nil)
	uRepo.On("FindByID", mock.Anything, int64(7)).
		Return(model.User{ID: 7, Email: "a@example.com", Phone: "0912"}, nil)

	gw.On("Initialize", mock.Anything, mock.MatchedBy(func(req payment.InitRequest) bool {
		return req.Gateway == "zarinpal" &&
			req.Amount.Equal(price("45.48")) &&
			req.CallbackURL == testCallbackURL
	})).Return(payment.InitResult{Authority: "A-0001", PaymentURL: "https://pay.example/A-0001"}, nil)

	//authorityとpending statusが注文に書かれる
	oRepo.On("UpdatePayment", mock.Anything, int64(1), mock.MatchedBy(func(up repo.PaymentUpdate) bool {
		return up.Authority != nil && *up.Authority == "A-0001" &&
			up.Status != nil && *up.Status == model.PaymentStatusPending
	})).Return(nil)

	out, err := uc.InitializePayment(context.Background(), 7, usecase.InitializePaymentInput{OrderID: 1, Gateway: "zarinpal"})
	require.NoError(t, err)
	assert.Equal(t, "A-0001", out.Authority)
	assert.Equal(t, "https://pay.example/A-0001", out.PaymentURL)
	assert.True(t, out.Amount.Equal(price("45.48")))

	oRepo.AssertExpectations(t)
	gw.AssertExpectations(t)
}

// =====================
// VerifyPayment
// =====================

func TestPaymentUsecase_Verify_Success(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uc := newPaymentUsecase(gw, oRepo, new(PayUserRepoMock))

	oRepo.On("FindByAuthority", mock.Anything, "zarinpal", "A-0001").
		Return(model.Order{ID: 1, UserID: 7, TotalPrice: price("45.48"), Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending}, nil)
	gw.On("Verify", mock.Anything, mock.Anything).
		Return(payment.VerifyResult{RefID: "R-77"}, nil)
	oRepo.On("UpdatePayment", mock.Anything, int64(1), mock.MatchedBy(func(up repo.PaymentUpdate) bool {
		return up.Status != nil && *up.Status == model.PaymentStatusPaid &&
			up.RefID != nil && *up.RefID == "R-77" &&
			up.VerifiedAt != nil
	})).Return(nil)
	oRepo.On("UpdateStatus", mock.Anything, int64(1), model.OrderStatusConfirmed).Return(nil)

	out, err := uc.VerifyPayment(context.Background(), "zarinpal", "A-0001")
	require.NoError(t, err)
	assert.Equal(t, "R-77", out.RefID)
	assert.False(t, out.AlreadyVerified)

	oRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Verify_DoubleCallbackIsNoOp(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uc := newPaymentUsecase(gw, oRepo, new(PayUserRepoMock))

	//すでにpaid。gatewayにもDBにも触らず同じ結果を返す
	oRepo.On("FindByAuthority", mock.Anything, "zarinpal", "A-0001").
		Return(model.Order{ID: 1, PaymentStatus: model.PaymentStatusPaid, PaymentRefID: "R-77"}, nil)

	out, err := uc.VerifyPayment(context.Background(), "zarinpal", "A-0001")
	require.NoError(t, err)
	assert.Equal(t, "R-77", out.RefID)
	assert.True(t, out.AlreadyVerified)

	gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	oRepo.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_Verify_GatewayFailureMarksFailedOnly(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uc := newPaymentUsecase(gw, oRepo, new(PayUserRepoMock))

	oRepo.On("FindByAuthority", mock.Anything, "zarinpal", "A-0001").
		Return(model.Order{ID: 1, TotalPrice: price("45.48"), Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending}, nil)
	gw.On("Verify", mock.Anything, mock.Anything).
		Return(payment.VerifyResult{}, payment.ErrVerifyFailed)

	//payment_statusだけfailedになりstatusは触らない
	oRepo.On("UpdatePayment", mock.Anything, int64(1), mock.MatchedBy(func(up repo.PaymentUpdate) bool {
		return up.Status != nil && *up.Status == model.PaymentStatusFailed && up.RefID == nil
	})).Return(nil)

	_, err := uc.VerifyPayment(context.Background(), "zarinpal", "A-0001")
	require.Error(t, err)

	oRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	oRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Verify_UnknownAuthority(t *testing.T) {
	gw := new(PayGatewayMock)
	oRepo := new(PayOrderRepoMock)
	uc := newPaymentUsecase(gw, oRepo, new(PayUserRepoMock))

	oRepo.On("FindByAuthority", mock.Anything, "zarinpal", "A-9999").
		Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.VerifyPayment(context.Background(), "zarinpal", "A-9999")
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 404, he.Status)
}
