// internal/service/order/domain/state.go
package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending    Status = "pending"    // 已下单，等待支付
	StatusPaid       Status = "paid"       // 支付已确认
	StatusProcessing Status = "processing" // 备货中
	StatusShipped    Status = "shipped"    // 已发货
	StatusDelivered  Status = "delivered"  // 已签收
	StatusCancelled  Status = "cancelled"  // 已取消
	StatusRefunded   Status = "refunded"   // 已退款
)

// PaymentStatus 是支付状态，与订单状态分开记录
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// forward 是正向流程中每个状态的下一个状态
var forward = map[Status]Status{
	StatusPending:    StatusPaid,
	StatusPaid:       StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// rank 用于判断履约事件是否已经被处理过
var rank = map[Status]int{
	StatusPending:    0,
	StatusPaid:       1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Terminal 报告状态是否为终态，终态不允许任何流转。
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// Next 返回正向流程的下一个状态。
func (s Status) Next() (Status, bool) {
	next, ok := forward[s]
	return next, ok
}

// Reached 报告订单是否已经走到（或越过）正向流程中的 target。
func (s Status) Reached(target Status) bool {
	cur, ok1 := rank[s]
	want, ok2 := rank[target]
	return ok1 && ok2 && cur >= want
}

// Cancellable 报告顾客能否在该状态下取消订单。
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusPaid
}
