package repository

import (
	"context"

	"shop/internal/domain/model"
)

// カートは (user_id, product_id) ごとに1行
type CartRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error)

	// 同一商品は数量加算
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error

	// 数量を上書き（加算ではない）
	SetQuantity(ctx context.Context, userID int64, productID int64, qty int64) error

	// 行が無くてもエラーにしない
	DeleteByUserAndProduct(ctx context.Context, userID int64, productID int64) error

	// 全削除。削除した行数を返す
	Clear(ctx context.Context, userID int64) (int64, error)
}
