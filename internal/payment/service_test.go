package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	s := NewService(zap.NewNop(), "test-merchant")
	if baseURL != "" {
		s.zarinpalBaseURL = baseURL
	}
	return s
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestToRials(t *testing.T) {
	//トマン建ての金額を10倍してリアルで送る
	assert.Equal(t, int64(4548), toRials(price("454.8")))
	assert.Equal(t, int64(100), toRials(price("10")))
}

func TestService_InitializeZarinpal_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pg/v4/payment/request.json", r.URL.Path)

		var body zarinpalRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-merchant", body.MerchantID)
		//45.48 → 454リアル（端数切り捨て）
		assert.Equal(t, int64(454), body.Amount)
		assert.Equal(t, "http://cb.example/verify", body.CallbackURL)
		assert.Contains(t, body.Description, "order #12")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"code":      100,
				"authority": "A-0001",
			},
		})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)

	res, err := s.Initialize(context.Background(), InitRequest{
		Gateway:     GatewayZarinpal,
		Amount:      price("45.48"),
		OrderID:     12,
		Email:       "a@example.com",
		CallbackURL: "http://cb.example/verify",
	})
	require.NoError(t, err)
	assert.Equal(t, "A-0001", res.Authority)
	assert.Equal(t, "https://www.zarinpal.com/pg/StartPay/A-0001", res.PaymentURL)
}

func TestService_InitializeZarinpal_RejectedCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"code": -9},
		})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)

	_, err := s.Initialize(context.Background(), InitRequest{
		Gateway: GatewayZarinpal,
		Amount:  price("10"),
		OrderID: 1,
	})
	assert.True(t, errors.Is(err, ErrInitializeFailed))
}

func TestService_VerifyZarinpal_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pg/v4/payment/verify.json", r.URL.Path)

		var body zarinpalVerifyBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "A-0001", body.Authority)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"code":   100,
				"ref_id": 987654,
			},
		})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)

	res, err := s.Verify(context.Background(), VerifyRequest{
		Gateway:   GatewayZarinpal,
		Authority: "A-0001",
		Amount:    price("45.48"),
	})
	require.NoError(t, err)
	assert.Equal(t, "987654", res.RefID)
}

func TestService_VerifyZarinpal_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"code": 101},
		})
	}))
	defer srv.Close()

	s := newTestService(t, srv.URL)

	_, err := s.Verify(context.Background(), VerifyRequest{
		Gateway:   GatewayZarinpal,
		Authority: "A-0001",
		Amount:    price("45.48"),
	})
	assert.True(t, errors.Is(err, ErrVerifyFailed))
}

func TestService_MockGateways_IssueTokens(t *testing.T) {
	s := newTestService(t, "")

	cases := []struct {
		gateway string
		prefix  string
		urlPart string
	}{
		{GatewayMellat, "MELLAT_", "bpm.shaparak.ir"},
		{GatewayParsian, "PARSIAN_", "pec.shaparak.ir"},
		{GatewaySadad, "SADAD_", "sadad.shaparak.ir"},
	}
	for _, tc := range cases {
		res, err := s.Initialize(context.Background(), InitRequest{Gateway: tc.gateway, Amount: price("10"), OrderID: 1})
		require.NoError(t, err, tc.gateway)
		assert.True(t, strings.HasPrefix(res.Authority, tc.prefix), tc.gateway)
		assert.Contains(t, res.PaymentURL, tc.urlPart)
		assert.Contains(t, res.PaymentURL, res.Authority)
	}
}

func TestService_UnsupportedGateway(t *testing.T) {
	s := newTestService(t, "")

	_, err := s.Initialize(context.Background(), InitRequest{Gateway: "paypal", Amount: price("10")})
	assert.True(t, errors.Is(err, ErrUnsupportedGateway))

	//verifyはzarinpal以外未対応
	_, err = s.Verify(context.Background(), VerifyRequest{Gateway: GatewayMellat, Authority: "x"})
	assert.True(t, errors.Is(err, ErrUnsupportedGateway))
}
