package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type PlaceOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Notes           string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	Notes           string            `json:"notes"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

// PlaceOrder は注文確定。全ステップを1トランザクションで行う。
// どこで失敗しても注文・明細・在庫・カートは一切変わらない
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	name := strings.TrimSpace(in.CustomerName)
	phone := strings.TrimSpace(in.CustomerPhone)
	address := strings.TrimSpace(in.CustomerAddress)
	if name == "" || len(name) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid customer_name")
	}
	if phone == "" || len(phone) > 30 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid customer_phone")
	}
	if address == "" || len(address) > 500 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid customer_address")
	}

	var out OrderOutput

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カートと商品の今の状態を読み直す（事前のvalidateは信用しない）
		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return ErrStoreUnavailable
		}
		if len(cartItems) == 0 {
			return ErrCartEmpty
		}

		//参考チェックと同じ判定をここでもう一度。1行でもだめなら全部やめる
		issues := []string{}
		products := make([]model.Product, 0, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			found := true
			if err == repo.ErrNotFound {
				found = false
			} else if err != nil {
				return ErrStoreUnavailable
			}

			if msg, bad := cartLineIssue(p, found, ci.Quantity); bad {
				issues = append(issues, msg)
				continue
			}
			products = append(products, p)
		}
		if len(issues) > 0 {
			return &CartValidationError{Issues: issues}
		}

		//合計は今の価格で一度だけ計算。明細には同じ価格をスナップショット
		total := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		for i, ci := range cartItems {
			p := products[i]
			orderItems = append(orderItems, model.OrderItem{
				ProductID:   ci.ProductID,
				ProductName: p.Name,
				Price:       p.Price,
				Quantity:    ci.Quantity,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(ci.Quantity)))
		}

		// 注文作成
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			CustomerName:    name,
			CustomerPhone:   phone,
			CustomerAddress: address,
			Notes:           strings.TrimSpace(in.Notes),
			TotalPrice:      total,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusUnpaid,
		})
		if err != nil {
			return ErrStoreUnavailable
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return ErrStoreUnavailable
		}

		//在庫減算（条件付きUPDATE）。負けたら全ロールバック
		for _, ci := range cartItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return ErrStoreUnavailable
			}
			if !ok {
				return ErrInsufficientStock
			}
			if err := r.Inventory().IncreaseSalesCount(ctx, ci.ProductID, ci.Quantity); err != nil {
				return ErrStoreUnavailable
			}
		}

		//カートを空にする
		if _, err := r.CartItems().Clear(ctx, userID); err != nil {
			return ErrStoreUnavailable
		}

		created := model.Order{
			ID:              orderID,
			UserID:          userID,
			CustomerName:    name,
			CustomerPhone:   phone,
			CustomerAddress: address,
			Notes:           strings.TrimSpace(in.Notes),
			TotalPrice:      total,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusUnpaid,
			CreatedAt:       time.Now(),
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, page, limit)
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

func (u *OrderUsecase) GetOrderDetail(ctx context.Context, userID int64, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return ErrStoreUnavailable
		}
		if o.UserID != userID && !isAdmin {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return ErrStoreUnavailable
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// DeleteOrder はpendingの注文だけを物理削除する（明細も一緒に消す）。
func (u *OrderUsecase) DeleteOrder(ctx context.Context, userID int64, isAdmin bool, orderID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return ErrStoreUnavailable
		}
		if o.UserID != userID && !isAdmin {
			return ErrForbidden
		}
		//pending以外は消せない
		if o.Status != model.OrderStatusPending {
			return ErrInvalidState
		}

		//明細から先に消す（FK順）
		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return ErrStoreUnavailable
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return ErrStoreUnavailable
		}
		return nil
	})
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		Notes:           o.Notes,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
