package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"teahouse/internal/pkg/httpclient"
	"teahouse/internal/service/order/domain"
	"teahouse/internal/service/order/domain/port"
)

// transactionResponse 是支付渠道交易查询接口的响应体
type transactionResponse struct {
	ID        string  `json:"id"`
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
}

// PaymentHTTPAdapter 实现了 port.PaymentGateway，通过渠道的交易查询接口核实支付结果。
type PaymentHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewPaymentHTTPAdapter(client *httpclient.Client, baseURL, apiKey string, timeout time.Duration) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
	}
}

func (a *PaymentHTTPAdapter) VerifyTransaction(ctx context.Context, transactionID string) (*port.PaymentResult, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/v1/transactions/%s", a.baseURL, url.PathEscape(transactionID))
	header := http.Header{}
	if a.apiKey != "" {
		header.Set("Authorization", "Bearer "+a.apiKey)
	}

	var resp transactionResponse
	if err := a.client.GetJSON(ctx, endpoint, header, &resp); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: unknown transaction %s", domain.ErrPaymentNotConfirmed, transactionID)
		}
		return nil, fmt.Errorf("payment provider error: %w", err)
	}

	return &port.PaymentResult{
		TransactionID: resp.ID,
		Reference:     resp.Reference,
		State:         mapPaymentState(resp.Status),
		Amount:        resp.Amount,
	}, nil
}

func mapPaymentState(status string) port.PaymentState {
	switch strings.ToLower(status) {
	case "succeeded", "success", "paid", "completed":
		return port.PaymentSucceeded
	case "failed", "declined", "abandoned", "reversed":
		return port.PaymentFailed
	}
	return port.PaymentPending
}
