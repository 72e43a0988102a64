package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 種類ごとに使い回すエラー。errors.Isで判別できる
var (
	//400 入力不備
	ErrValidation = NewHTTPError(http.StatusBadRequest, "validation failed")
	//400 カートが空
	ErrCartEmpty = NewHTTPError(http.StatusBadRequest, "cart is empty")
	//409 条件付き減算に負けた/在庫不足
	ErrInsufficientStock = NewHTTPError(http.StatusConflict, "insufficient stock")
	//403 所有者でもadminでもない
	ErrForbidden = NewHTTPError(http.StatusForbidden, "forbidden")
	//400 今のstatusでは許されない操作
	ErrInvalidState = NewHTTPError(http.StatusBadRequest, "invalid order state")
	//400 すでに支払い済み
	ErrAlreadyPaid = NewHTTPError(http.StatusBadRequest, "order already paid")
	//400 未対応のゲートウェイ
	ErrUnsupportedGateway = NewHTTPError(http.StatusBadRequest, "unsupported payment gateway")
	//503 ストア障害。呼び出し側はカートを取り直してからリトライする
	ErrStoreUnavailable = NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
)

// 1行でも購入不能ならこのエラーで全部返す
type CartValidationError struct {
	Issues []string
}

func (e *CartValidationError) Error() string {
	return "cart validation failed"
}

func AsCartValidationError(err error) (*CartValidationError, bool) {
	var ce *CartValidationError
	ok := errors.As(err, &ce)
	return ce, ok
}
