package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  *int64 `gorm:"index" json:"category_id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	//金額はdecimalで持つ（floatは使わない）
	Price decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`

	//在庫数。注文確定の条件付きUPDATEだけが減らす
	StockQuantity int64 `gorm:"not null;default:0" json:"stock_quantity"`

	//累計販売数。注文確定時に数量分だけ加算
	SalesCount int64 `gorm:"not null;default:0" json:"sales_count"`

	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	ImageURL  string         `gorm:"type:varchar(500)" json:"image_url"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
