package api

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is a catalog category as returned by the backend.
type Category struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	ParentID   *string `json:"parentId"`
	Level      int     `json:"level"`
	IsFeatured bool    `json:"isFeatured"`
	SortOrder  int     `json:"sortOrder"`
	IsActive   bool    `json:"isActive"`
}

// IsTopLevel reports whether the category sits at the root of the tree.
func (c Category) IsTopLevel() bool {
	return c.Level <= 1 && (c.ParentID == nil || *c.ParentID == "")
}

// Product is a listing entry. Category holds the denormalized label the
// backend copies onto each product; it is matched by name, not by ID.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    *string          `json:"category"`
	CategoryID  *string          `json:"categoryId"`
	ShopID      *string          `json:"shopId"`
	ShopName    *string          `json:"shopName"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"salePrice"`
	Unit        *string          `json:"unit"`
	Stock       int              `json:"stock"`
	SoldCount   int              `json:"soldCount"`
	Rating      float64          `json:"rating"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"imageUrl"`
	CreatedAt   Timestamp        `json:"createdAt"`
}

// VoucherType selects which of Value/MaxDiscountAmount apply.
type VoucherType string

const (
	VoucherPercentage   VoucherType = "percentage"
	VoucherFixedAmount  VoucherType = "fixed_amount"
	VoucherFreeShipping VoucherType = "free_shipping"
)

var voucherTypeLabels = map[VoucherType]string{
	VoucherPercentage:   "Giảm theo %",
	VoucherFixedAmount:  "Giảm tiền",
	VoucherFreeShipping: "Miễn phí vận chuyển",
}

// Label returns the Vietnamese display label for the voucher type.
func (t VoucherType) Label() string {
	if label, ok := voucherTypeLabels[VoucherType(strings.ToLower(string(t)))]; ok {
		return label
	}
	return string(t)
}

// VoucherStatusActive is the only status under which a voucher can apply.
const VoucherStatusActive = "active"

// Voucher is a discount definition.
type Voucher struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	Type              VoucherType      `json:"type"`
	Value             decimal.Decimal  `json:"value"`
	MinOrderAmount    decimal.Decimal  `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"`
	UsageLimit        int              `json:"usageLimit"`
	UsedCount         int              `json:"usedCount"`
	MaxUsagePerUser   int              `json:"maxUsagePerUser"`
	StartDate         Timestamp        `json:"startDate"`
	EndDate           Timestamp        `json:"endDate"`
	Status            string           `json:"status"`
	IsStackable       bool             `json:"isStackable"`
	MembershipType    *string          `json:"membershipType"`
}

// ActiveAt reports whether status and the validity window both allow use at t.
// Zero dates are treated as open bounds.
func (v Voucher) ActiveAt(t time.Time) bool {
	if !strings.EqualFold(v.Status, VoucherStatusActive) {
		return false
	}
	if !v.StartDate.IsZero() && t.Before(v.StartDate.Time) {
		return false
	}
	if !v.EndDate.IsZero() && t.After(v.EndDate.Time) {
		return false
	}
	return true
}

// UsageExhausted reports whether the global usage limit has been reached.
func (v Voucher) UsageExhausted() bool {
	return v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit
}

// UserVoucher is a voucher claimed by one user.
type UserVoucher struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	VoucherID   string     `json:"voucherId"`
	VoucherCode string     `json:"voucherCode"`
	ReceivedAt  Timestamp  `json:"receivedAt"`
	ExpiresAt   Timestamp  `json:"expiresAt"`
	IsUsed      bool       `json:"isUsed"`
	UsedAt      *Timestamp `json:"usedAt"`
	OrderID     *string    `json:"orderId"`
}

// VoucherEligibilityResult is the server-computed join of a claimed voucher
// and its applicability to the current cart. DiscountAmount is only
// authoritative when Eligible is true.
type VoucherEligibilityResult struct {
	UserVoucher    UserVoucher     `json:"userVoucher"`
	Voucher        Voucher         `json:"voucher"`
	Eligible       bool            `json:"eligible"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Reason         *string         `json:"reason"`
}

// Code returns the voucher code, preferring the claimed instance's copy.
func (r VoucherEligibilityResult) Code() string {
	if code := strings.TrimSpace(r.UserVoucher.VoucherCode); code != "" {
		return code
	}
	return strings.TrimSpace(r.Voucher.Code)
}

// CartContext scopes eligibility queries to a cart.
type CartContext struct {
	Subtotal    decimal.Decimal
	ShopID      string
	ProductIDs  []string
	CategoryIDs []string
}

// ValidateVoucherRequest is the body of the validate-for-order call.
type ValidateVoucherRequest struct {
	Code        string
	UserID      string
	OrderAmount decimal.Decimal
	ShopID      string
	ProductIDs  []string
	CategoryIDs []string
}
