// Package voucher reconciles the user's claimed vouchers and the platform
// vouchers they qualify for into one selectable list, and runs the two
// apply paths (list selection and manual code entry) against the backend.
package voucher

import (
	"context"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/shopspring/decimal"
)

// Service is the backend the reconciler talks to. *api.Client satisfies it.
type Service interface {
	MyVouchersForCart(ctx context.Context, userID string, cart api.CartContext) ([]api.VoucherEligibilityResult, error)
	EligibleVouchers(ctx context.Context, userID string, cart api.CartContext) ([]api.Voucher, error)
	ValidateVoucher(ctx context.Context, req api.ValidateVoucherRequest) (bool, error)
	CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error)
}

var _ Service = (*api.Client)(nil)
