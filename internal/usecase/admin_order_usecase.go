package usecase

import (
	"context"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type DashboardStatsOutput struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	PendingOrders int64           `json:"pending_orders"`
	RecentOrders  []OrderOutput   `json:"recent_orders"`
}

// 注文一覧（管理者）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return ErrStoreUnavailable
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return ErrStoreUnavailable
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ステータス更新。
// 値が既知かだけを見る。遷移表は持たない（どの状態からでも上書きできる）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := strings.TrimSpace(in.Status)
	switch model.OrderStatus(newStatus) {
	case model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusConfirmed,
		model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return ErrStoreUnavailable
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatus(newStatus)); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return ErrStoreUnavailable
		}
		return nil
	})
}

// ダッシュボード集計
func (u *AdminOrderUsecase) DashboardStats(ctx context.Context) (DashboardStatsOutput, error) {
	var out DashboardStatsOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		stats, err := r.Orders().Stats(ctx)
		if err != nil {
			return ErrStoreUnavailable
		}

		recent, err := r.Orders().ListRecent(ctx, 5)
		if err != nil {
			return ErrStoreUnavailable
		}

		recentOuts := make([]OrderOutput, 0, len(recent))
		for _, o := range recent {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return ErrStoreUnavailable
			}
			recentOuts = append(recentOuts, toOrderOutput(o, items))
		}

		out = DashboardStatsOutput{
			TotalOrders:   stats.TotalOrders,
			TotalRevenue:  stats.TotalRevenue,
			PendingOrders: stats.PendingOrders,
			RecentOrders:  recentOuts,
		}
		return nil
	})

	if err != nil {
		return DashboardStatsOutput{}, err
	}
	return out, nil
}
