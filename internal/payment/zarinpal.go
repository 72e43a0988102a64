package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// v4 APIは code=100 が成功
const zarinpalCodeOK = 100

type zarinpalRequestBody struct {
	MerchantID  string `json:"merchant_id"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url"`
	Description string `json:"description"`
	Metadata    struct {
		Email  string `json:"email,omitempty"`
		Mobile string `json:"mobile,omitempty"`
	} `json:"metadata"`
}

type zarinpalVerifyBody struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	Authority  string `json:"authority"`
}

type zarinpalResponse struct {
	Data struct {
		Code      int    `json:"code"`
		Authority string `json:"authority"`
		RefID     int64  `json:"ref_id"`
	} `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// 金額はリアル建てに換算して送る
func toRials(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(10)).IntPart()
}

func (s *Service) initializeZarinpal(ctx context.Context, req InitRequest) (InitResult, error) {
	body := zarinpalRequestBody{
		MerchantID:  s.zarinpalMerchantID,
		Amount:      toRials(req.Amount),
		CallbackURL: req.CallbackURL,
		Description: fmt.Sprintf("order #%d", req.OrderID),
	}
	body.Metadata.Email = req.Email
	body.Metadata.Mobile = req.Phone

	var resp zarinpalResponse
	if err := s.postJSON(ctx, s.zarinpalBaseURL+"/pg/v4/payment/request.json", body, &resp); err != nil {
		s.logger.Error("zarinpal request failed", zap.Error(err), zap.Int64("order_id", req.OrderID))
		return InitResult{}, ErrInitializeFailed
	}

	if resp.Data.Code != zarinpalCodeOK || resp.Data.Authority == "" {
		s.logger.Warn("zarinpal rejected payment request",
			zap.Int("code", resp.Data.Code), zap.Int64("order_id", req.OrderID))
		return InitResult{}, ErrInitializeFailed
	}

	return InitResult{
		Authority:  resp.Data.Authority,
		PaymentURL: "https://www.zarinpal.com/pg/StartPay/" + resp.Data.Authority,
	}, nil
}

func (s *Service) verifyZarinpal(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	body := zarinpalVerifyBody{
		MerchantID: s.zarinpalMerchantID,
		Amount:     toRials(req.Amount),
		Authority:  req.Authority,
	}

	var resp zarinpalResponse
	if err := s.postJSON(ctx, s.zarinpalBaseURL+"/pg/v4/payment/verify.json", body, &resp); err != nil {
		s.logger.Error("zarinpal verify failed", zap.Error(err))
		return VerifyResult{}, ErrVerifyFailed
	}

	if resp.Data.Code != zarinpalCodeOK {
		s.logger.Warn("zarinpal verification rejected", zap.Int("code", resp.Data.Code))
		return VerifyResult{}, ErrVerifyFailed
	}

	return VerifyResult{
		RefID: fmt.Sprintf("%d", resp.Data.RefID),
	}, nil
}

func (s *Service) postJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return json.NewDecoder(res.Body).Decode(out)
}
