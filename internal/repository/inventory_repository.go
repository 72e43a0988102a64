package repository

import "context"

type InventoryRepository interface {
	// 在庫の現在値を設定（管理者の棚卸し補正）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算（stock_quantity >= qty の行だけ更新し、
	// RowsAffectedで成否を判定する。読んでから書くはしない）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 販売数を加算
	IncreaseSalesCount(ctx context.Context, productID int64, qty int64) error
}
