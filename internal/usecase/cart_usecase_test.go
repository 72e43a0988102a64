package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks（衝突回避の命名）
// =====================

type CartCartRepoMock struct{ mock.Mock }

func (m *CartCartRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartCartRepoMock) FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error) {
	args := m.Called(ctx, userID, productID)
	ci, _ := args.Get(0).(model.CartItem)
	return ci, args.Error(1)
}

func (m *CartCartRepoMock) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error {
	args := m.Called(ctx, userID, productID, addQty)
	return args.Error(0)
}

func (m *CartCartRepoMock) SetQuantity(ctx context.Context, userID int64, productID int64, qty int64) error {
	args := m.Called(ctx, userID, productID, qty)
	return args.Error(0)
}

func (m *CartCartRepoMock) DeleteByUserAndProduct(ctx context.Context, userID int64, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *CartCartRepoMock) Clear(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type CartProductRepoMock struct{ mock.Mock }

func (m *CartProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *CartProductRepoMock) FindActiveByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *CartProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in CartUsecase tests")
}

func assertErrContains(t *testing.T, err error, sub string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), sub), "error %q should contain %q", err.Error(), sub)
}

// =====================
// AddToCart
// =====================

func TestCartUsecase_AddToCart_RejectsZeroAndNegativeQuantity(t *testing.T) {
	uc := usecase.NewCartUsecase(new(CartCartRepoMock), new(CartProductRepoMock))

	for _, qty := range []int64{0, -1} {
		_, err := uc.AddToCart(context.Background(), 7, usecase.AddCartInput{ProductID: 1, Quantity: qty})
		assertErrContains(t, err, "invalid quantity")
	}
}

func TestCartUsecase_AddToCart_RejectsOverPerItemLimit(t *testing.T) {
	uc := usecase.NewCartUsecase(new(CartCartRepoMock), new(CartProductRepoMock))

	_, err := uc.AddToCart(context.Background(), 7, usecase.AddCartInput{ProductID: 1, Quantity: 101})
	assertErrContains(t, err, "per-item limit")
}

func TestCartUsecase_AddToCart_CumulativeOverLimit(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	pRepo.On("FindActiveByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, Name: "Coffee", Price: price("19.99"), StockQuantity: 500, IsActive: true}, nil)
	cRepo.On("FindByUserAndProduct", mock.Anything, int64(7), int64(1)).
		Return(model.CartItem{UserID: 7, ProductID: 1, Quantity: 60}, nil)

	//60+50は上限100を超える
	_, err := uc.AddToCart(context.Background(), 7, usecase.AddCartInput{ProductID: 1, Quantity: 50})
	assertErrContains(t, err, "per-item limit")
}

func TestCartUsecase_AddToCart_InsufficientStock(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	pRepo.On("FindActiveByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, Name: "Coffee", Price: price("19.99"), StockQuantity: 2, IsActive: true}, nil)
	cRepo.On("FindByUserAndProduct", mock.Anything, int64(7), int64(1)).
		Return(model.CartItem{}, repo.ErrNotFound)

	_, err := uc.AddToCart(context.Background(), 7, usecase.AddCartInput{ProductID: 1, Quantity: 3})
	assert.True(t, errors.Is(err, usecase.ErrInsufficientStock))
}

func TestCartUsecase_AddToCart_ProductNotFound(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	pRepo.On("FindActiveByID", mock.Anything, int64(99)).
		Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.AddToCart(context.Background(), 7, usecase.AddCartInput{ProductID: 99, Quantity: 1})
	assertErrContains(t, err, "product not found")
}

func TestCartUsecase_AddToCart_Success(t *testing.T) {
	ctx := context.Background()
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	p := model.Product{ID: 1, Name: "Coffee", Price: price("19.99"), StockQuantity: 10, IsActive: true}
	pRepo.On("FindActiveByID", mock.Anything, int64(1)).Return(p, nil)
	pRepo.On("FindByID", mock.Anything, int64(1)).Return(p, nil)
	cRepo.On("FindByUserAndProduct", mock.Anything, int64(7), int64(1)).
		Return(model.CartItem{}, repo.ErrNotFound)
	cRepo.On("UpsertByUserAndProduct", mock.Anything, int64(7), int64(1), int64(2)).Return(nil)
	cRepo.On("ListByUserID", mock.Anything, int64(7)).
		Return([]model.CartItem{{UserID: 7, ProductID: 1, Quantity: 2}}, nil)

	out, err := uc.AddToCart(ctx, 7, usecase.AddCartInput{ProductID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.True(t, out.Total.Equal(price("39.98")))

	cRepo.AssertExpectations(t)
}

// =====================
// UpdateCartItem
// =====================

func TestCartUsecase_UpdateCartItem_NegativeQuantityRejected(t *testing.T) {
	uc := usecase.NewCartUsecase(new(CartCartRepoMock), new(CartProductRepoMock))

	_, err := uc.UpdateCartItem(context.Background(), 7, usecase.UpdateCartInput{ProductID: 1, Quantity: -1})
	assertErrContains(t, err, "invalid quantity")
}

func TestCartUsecase_UpdateCartItem_ZeroQuantityDeletes(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	//行が無くても削除は成功（冪等）
	cRepo.On("DeleteByUserAndProduct", mock.Anything, int64(7), int64(1)).Return(nil)
	cRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil)

	out, err := uc.UpdateCartItem(context.Background(), 7, usecase.UpdateCartInput{ProductID: 1, Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.True(t, out.Total.IsZero())

	cRepo.AssertExpectations(t)
}

func TestCartUsecase_UpdateCartItem_SetQuantityOverwrites(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	p := model.Product{ID: 1, Name: "Coffee", Price: price("19.99"), StockQuantity: 10, IsActive: true}
	pRepo.On("FindActiveByID", mock.Anything, int64(1)).Return(p, nil)
	pRepo.On("FindByID", mock.Anything, int64(1)).Return(p, nil)
	//加算ではなく上書き
	cRepo.On("SetQuantity", mock.Anything, int64(7), int64(1), int64(5)).Return(nil)
	cRepo.On("ListByUserID", mock.Anything, int64(7)).
		Return([]model.CartItem{{UserID: 7, ProductID: 1, Quantity: 5}}, nil)

	out, err := uc.UpdateCartItem(context.Background(), 7, usecase.UpdateCartInput{ProductID: 1, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Items[0].Quantity)

	cRepo.AssertExpectations(t)
}

func TestCartUsecase_UpdateCartItem_ItemNotInCart(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	pRepo.On("FindActiveByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, StockQuantity: 10, IsActive: true}, nil)
	cRepo.On("SetQuantity", mock.Anything, int64(7), int64(1), int64(2)).Return(repo.ErrNotFound)

	_, err := uc.UpdateCartItem(context.Background(), 7, usecase.UpdateCartInput{ProductID: 1, Quantity: 2})
	assertErrContains(t, err, "item not in cart")
}

// =====================
// Remove / Clear / Validate
// =====================

func TestCartUsecase_RemoveFromCart_MissingRowStillSucceeds(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	uc := usecase.NewCartUsecase(cRepo, new(CartProductRepoMock))

	cRepo.On("DeleteByUserAndProduct", mock.Anything, int64(7), int64(1)).Return(nil)
	cRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil)

	out, err := uc.RemoveFromCart(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
}

func TestCartUsecase_ClearCart_Idempotent(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	uc := usecase.NewCartUsecase(cRepo, new(CartProductRepoMock))

	cRepo.On("Clear", mock.Anything, int64(7)).Return(int64(2), nil).Once()
	cRepo.On("Clear", mock.Anything, int64(7)).Return(int64(0), nil).Once()

	out, err := uc.ClearCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Removed)

	//2回目も成功してremoved=0
	out, err = uc.ClearCart(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Removed)
}

func TestCartUsecase_Validate_ReportsAllIssues(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	pRepo := new(CartProductRepoMock)
	uc := usecase.NewCartUsecase(cRepo, pRepo)

	cRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{UserID: 7, ProductID: 1, Quantity: 5},
		{UserID: 7, ProductID: 2, Quantity: 1},
		{UserID: 7, ProductID: 3, Quantity: 1},
	}, nil)
	pRepo.On("FindByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, Name: "Coffee", StockQuantity: 2, IsActive: true}, nil)
	pRepo.On("FindByID", mock.Anything, int64(2)).
		Return(model.Product{ID: 2, Name: "Old Mug", StockQuantity: 9, IsActive: false}, nil)
	pRepo.On("FindByID", mock.Anything, int64(3)).
		Return(model.Product{}, repo.ErrNotFound)

	out, err := uc.Validate(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, out.Valid)
	require.Len(t, out.Issues, 3)
	assert.Contains(t, out.Issues[0], "only 2 available")
	assert.Contains(t, out.Issues[1], "no longer available")
	assert.Contains(t, out.Issues[2], "not found")
}

func TestCartUsecase_Validate_EmptyCartIsValid(t *testing.T) {
	cRepo := new(CartCartRepoMock)
	uc := usecase.NewCartUsecase(cRepo, new(CartProductRepoMock))

	cRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil)

	out, err := uc.Validate(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Empty(t, out.Issues)
}
