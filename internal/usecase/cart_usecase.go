package usecase

import (
	"context"
	"fmt"
	"net/http"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

// 1明細あたりの数量上限
const maxQuantityPerLine = 100

// CartUsecase は /cart の業務ロジックです。
// ここでの在庫チェックは参考値（予約はしない）。
// 確定チェックは注文トランザクションの中でもう一度やる。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// price は現在の商品価格（カートには価格を持たない）
type CartLineResponse struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
	Quantity      int64           `json:"quantity"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartInput struct {
	ProductID int64
	Quantity  int64
}

type ValidateCartOutput struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

type ClearCartOutput struct {
	Removed int64 `json:"removed"`
}

// 明細1行の購入可否。注文確定側も同じ判定を使う
func cartLineIssue(p model.Product, found bool, qty int64) (string, bool) {
	if !found {
		return "Product not found", true
	}
	if !p.IsActive {
		return fmt.Sprintf("%s is no longer available", p.Name), true
	}
	if qty > p.StockQuantity {
		return fmt.Sprintf("%s - only %d available, you have %d in cart", p.Name, p.StockQuantity, qty), true
	}
	return "", false
}

// GetCart はカート取得（空なら空配列を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}

	return u.buildCartResponse(ctx, items)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	//0以下は丸めずに弾く
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if in.Quantity > maxQuantityPerLine {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity exceeds per-item limit")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindActiveByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}

	// 既存行があれば累積数量で判定する
	var existingQty int64 = 0
	existing, err := u.cartRepo.FindByUserAndProduct(ctx, userID, in.ProductID)
	if err == nil {
		existingQty = existing.Quantity
	} else if err != repo.ErrNotFound {
		return CartResponse{}, ErrStoreUnavailable
	}

	newQty := existingQty + in.Quantity
	if newQty > maxQuantityPerLine {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity exceeds per-item limit")
	}
	//参考チェック。予約はしない
	if newQty > p.StockQuantity {
		return CartResponse{}, ErrInsufficientStock
	}

	if err := u.cartRepo.UpsertByUserAndProduct(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}
	return u.buildCartResponse(ctx, items)
}

// 数量変更。0は削除と同じ（行が無くても成功）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, in UpdateCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if in.Quantity > maxQuantityPerLine {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "quantity exceeds per-item limit")
	}

	if in.Quantity == 0 {
		if err := u.cartRepo.DeleteByUserAndProduct(ctx, userID, in.ProductID); err != nil {
			return CartResponse{}, ErrStoreUnavailable
		}
		items, err := u.cartRepo.ListByUserID(ctx, userID)
		if err != nil {
			return CartResponse{}, ErrStoreUnavailable
		}
		return u.buildCartResponse(ctx, items)
	}

	p, err := u.productRepo.FindActiveByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}
	if in.Quantity > p.StockQuantity {
		return CartResponse{}, ErrInsufficientStock
	}

	//上書き（加算ではない）
	if err := u.cartRepo.SetQuantity(ctx, userID, in.ProductID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "item not in cart")
		}
		return CartResponse{}, ErrStoreUnavailable
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}
	return u.buildCartResponse(ctx, items)
}

// 明細削除（無ければ何もしないで成功）
func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	if err := u.cartRepo.DeleteByUserAndProduct(ctx, userID, productID); err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, ErrStoreUnavailable
	}
	return u.buildCartResponse(ctx, items)
}

// 全削除。2回目は removed=0 で成功
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (ClearCartOutput, error) {
	if userID <= 0 {
		return ClearCartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	removed, err := u.cartRepo.Clear(ctx, userID)
	if err != nil {
		return ClearCartOutput{}, ErrStoreUnavailable
	}
	return ClearCartOutput{Removed: removed}, nil
}

// Validate は参考チェック（ロックも予約もしない）。
// 確定用の同じ判定は注文トランザクションの中で再実行される
func (u *CartUsecase) Validate(ctx context.Context, userID int64) (ValidateCartOutput, error) {
	if userID <= 0 {
		return ValidateCartOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return ValidateCartOutput{}, ErrStoreUnavailable
	}

	issues := []string{}
	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		found := true
		if err == repo.ErrNotFound {
			found = false
		} else if err != nil {
			return ValidateCartOutput{}, ErrStoreUnavailable
		}

		if msg, bad := cartLineIssue(p, found, it.Quantity); bad {
			issues = append(issues, msg)
		}
	}

	return ValidateCartOutput{
		Valid:  len(issues) == 0,
		Issues: issues,
	}, nil
}

// 明細をまとめてCartResponseを作る。
// 消えた商品は表示から落とす。非公開はフラグ付きで残すが合計には入れない
func (u *CartUsecase) buildCartResponse(ctx context.Context, items []model.CartItem) (CartResponse, error) {
	respItems := make([]CartLineResponse, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			continue
		}
		if err != nil {
			return CartResponse{}, ErrStoreUnavailable
		}

		respItems = append(respItems, CartLineResponse{
			ProductID:     it.ProductID,
			Name:          p.Name,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
			IsActive:      p.IsActive,
			Quantity:      it.Quantity,
		})

		if p.IsActive {
			total = total.Add(p.Price.Mul(decimal.NewFromInt(it.Quantity)))
		}
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
