package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// 注文。作成後はstatusと決済フィールド以外は変更しない
type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//連絡先は注文時点のスナップショット（ユーザープロフィールとは別）
	CustomerName    string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone   string `gorm:"type:varchar(30);not null" json:"customer_phone"`
	CustomerAddress string `gorm:"type:varchar(500);not null" json:"customer_address"`
	Notes           string `gorm:"type:text" json:"notes"`

	//作成時に一度だけ計算。以後再計算しない
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	PaymentGateway    string        `gorm:"type:varchar(30)" json:"payment_gateway"`
	PaymentAuthority  string        `gorm:"type:varchar(255);index" json:"-"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentRefID      string        `gorm:"type:varchar(255)" json:"-"`
	PaymentVerifiedAt *time.Time    `json:"payment_verified_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
