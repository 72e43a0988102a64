package payment

import (
	"strings"

	"github.com/google/uuid"
)

// mellat/parsian/sadadはデモ実装。
// トークンを発行して決済ページのURLを組み立てるだけ

func mockToken(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Service) initializeMellat(req InitRequest) (InitResult, error) {
	refID := mockToken("MELLAT")
	return InitResult{
		Authority:  refID,
		PaymentURL: "https://bpm.shaparak.ir/pgwchannel/startpay.mellat?RefId=" + refID,
	}, nil
}

func (s *Service) initializeParsian(req InitRequest) (InitResult, error) {
	token := mockToken("PARSIAN")
	return InitResult{
		Authority:  token,
		PaymentURL: "https://pec.shaparak.ir/NewIPGServices/Sale/Sale?token=" + token,
	}, nil
}

func (s *Service) initializeSadad(req InitRequest) (InitResult, error) {
	token := mockToken("SADAD")
	return InitResult{
		Authority:  token,
		PaymentURL: "https://sadad.shaparak.ir/VPG/Purchase?token=" + token,
	}, nil
}
