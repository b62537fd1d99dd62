package voucher

import (
	"errors"

	"github.com/shopspring/decimal"
)

// User-facing messages.
const (
	MsgEnterCode       = "Vui lòng nhập mã voucher"
	MsgLoginRequired   = "Vui lòng đăng nhập để sử dụng voucher"
	MsgInvalidAmount   = "Giá trị đơn hàng không hợp lệ"
	MsgInvalidCode     = "Mã voucher không hợp lệ hoặc không đủ điều kiện"
	MsgNotEligible     = "Voucher không đủ điều kiện áp dụng"
	MsgNotApplicable   = "Voucher không áp dụng được cho đơn hàng này"
	MsgApplyFailed     = "Không thể áp dụng voucher, vui lòng thử lại"
	MsgLoadMineFailed  = "Không thể tải danh sách voucher của bạn"
	MsgLoadOtherFailed = "Không thể tải danh sách voucher có thể nhận"
	MsgApplied         = "Áp dụng voucher thành công"
	MsgRemoved         = "Đã gỡ voucher"
	MsgAlreadyApplied  = "Đã áp dụng voucher, hãy gỡ voucher hiện tại trước"
	MsgNotReady        = "Danh sách voucher chưa sẵn sàng"
)

// Rejection causes carried in ApplyResult.Err. Transport failures wrap the
// underlying client error instead.
var (
	ErrInvalidInput   = errors.New("invalid voucher input")
	ErrNotEligible    = errors.New("voucher not eligible")
	ErrNotApplicable  = errors.New("voucher not applicable")
	ErrTransport      = errors.New("voucher backend unavailable")
	ErrAlreadyApplied = errors.New("voucher already applied")
	ErrInvalidState   = errors.New("voucher widget not ready")
)

// Status is the outcome of an apply attempt.
type Status string

const (
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// ApplyResult is what both apply paths hand back. Only an applied result
// carries a code and discount checkout may use.
type ApplyResult struct {
	Status   Status          `json:"status"`
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Reason   string          `json:"reason,omitempty"`
	Err      error           `json:"-"`
}

// Applied reports whether the result may be handed to checkout.
func (r ApplyResult) Applied() bool {
	return r.Status == StatusApplied
}

func applied(code string, discount decimal.Decimal) ApplyResult {
	return ApplyResult{Status: StatusApplied, Code: code, Discount: discount}
}

func rejected(code, reason string, err error) ApplyResult {
	return ApplyResult{Status: StatusRejected, Code: code, Reason: reason, Err: err}
}
