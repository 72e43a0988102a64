package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// ダッシュボード用の集計
type OrderStats struct {
	TotalOrders   int64
	PendingOrders int64
	//cancelledを除いた売上合計
	TotalRevenue decimal.Decimal
}

type PaymentUpdate struct {
	Gateway    *string
	Authority  *string
	Status     *model.PaymentStatus
	RefID      *string
	VerifiedAt *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//決済フィールドだけを部分更新
	UpdatePayment(ctx context.Context, orderID int64, up PaymentUpdate) error

	//ゲートウェイのコールバックからの逆引き
	FindByAuthority(ctx context.Context, gateway string, authority string) (model.Order, error)

	//pending注文の物理削除（明細はOrderItemRepository側で先に消す）
	Delete(ctx context.Context, orderID int64) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	Stats(ctx context.Context) (OrderStats, error)
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
}
