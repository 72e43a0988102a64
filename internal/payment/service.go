package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ゲートウェイ名はオープンな文字列enum
const (
	GatewayZarinpal = "zarinpal"
	GatewayMellat   = "mellat"
	GatewayParsian  = "parsian"
	GatewaySadad    = "sadad"
)

var (
	ErrUnsupportedGateway = errors.New("unsupported payment gateway")
	ErrInitializeFailed   = errors.New("payment initialization failed")
	ErrVerifyFailed       = errors.New("payment verification failed")
)

type InitRequest struct {
	Gateway string
	//主要通貨単位の金額。ゲートウェイごとの換算はadapter側でやる
	Amount      decimal.Decimal
	OrderID     int64
	Email       string
	Phone       string
	CallbackURL string
}

type InitResult struct {
	Authority  string
	PaymentURL string
}

type VerifyRequest struct {
	Gateway   string
	Authority string
	Amount    decimal.Decimal
}

type VerifyResult struct {
	RefID string
}

// Service は各ゲートウェイへの振り分け。
// zarinpalだけ実APIを叩く。残りはデモ実装
type Service struct {
	client *http.Client
	logger *zap.Logger

	zarinpalMerchantID string
	zarinpalBaseURL    string
}

func NewService(logger *zap.Logger, zarinpalMerchantID string) *Service {
	return &Service{
		client:             &http.Client{Timeout: 15 * time.Second},
		logger:             logger,
		zarinpalMerchantID: zarinpalMerchantID,
		zarinpalBaseURL:    "https://api.zarinpal.com",
	}
}

func (s *Service) Initialize(ctx context.Context, req InitRequest) (InitResult, error) {
	switch req.Gateway {
	case GatewayZarinpal:
		return s.initializeZarinpal(ctx, req)
	case GatewayMellat:
		return s.initializeMellat(req)
	case GatewayParsian:
		return s.initializeParsian(req)
	case GatewaySadad:
		return s.initializeSadad(req)
	default:
		return InitResult{}, ErrUnsupportedGateway
	}
}

func (s *Service) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	switch req.Gateway {
	case GatewayZarinpal:
		return s.verifyZarinpal(ctx, req)
	default:
		//zarinpal以外の検証は未実装
		return VerifyResult{}, ErrUnsupportedGateway
	}
}
