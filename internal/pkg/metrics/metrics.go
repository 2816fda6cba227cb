// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CouponValidations 按结果统计优惠券校验次数，result 为 applied 或拒绝原因码。
	CouponValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teashop",
		Subsystem: "promotion",
		Name:      "coupon_validations_total",
		Help:      "Coupon validation outcomes by result code.",
	}, []string{"result"})

	CouponRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teashop",
		Subsystem: "promotion",
		Name:      "coupon_redemptions_total",
		Help:      "Coupon redemptions recorded or released.",
	}, []string{"action"})

	// OrderTransitions 统计订单状态流转，rejected 表示被拦截的请求。
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teashop",
		Subsystem: "order",
		Name:      "status_transitions_total",
		Help:      "Order status transitions by from/to status, actor role and outcome.",
	}, []string{"from", "to", "role", "outcome"})

	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teashop",
		Subsystem: "order",
		Name:      "placed_total",
		Help:      "Orders created through checkout.",
	})
)
