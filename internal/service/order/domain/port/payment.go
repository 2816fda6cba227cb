package port

import "context"

type PaymentState string

const (
	PaymentSucceeded PaymentState = "succeeded"
	PaymentFailed    PaymentState = "failed"
	PaymentPending   PaymentState = "pending"
)

// PaymentResult 是支付渠道返回的交易状态
type PaymentResult struct {
	TransactionID string
	Reference     string // 下单时传给渠道的订单号
	State         PaymentState
	Amount        float64
}

// PaymentGateway 查询支付渠道的交易状态。
type PaymentGateway interface {
	VerifyTransaction(ctx context.Context, transactionID string) (*PaymentResult, error)
}
