package voucher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/events"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// codeInput is the manual-entry form.
type codeInput struct {
	Code        string          `validate:"required"`
	UserID      string          `validate:"required"`
	OrderAmount decimal.Decimal `validate:"gte=0"`
}

func inputMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return MsgInvalidCode
	}
	switch verrs[0].Field() {
	case "Code":
		return MsgEnterCode
	case "UserID":
		return MsgLoginRequired
	default:
		return MsgInvalidAmount
	}
}

// Candidates are the two voucher groups shown to the user. The groups are
// kept apart so the user can tell claimed vouchers from ones still to claim.
type Candidates struct {
	Mine             []api.VoucherEligibilityResult `json:"mine"`
	EligiblePlatform []api.Voucher                  `json:"eligiblePlatform"`

	MineErr     error `json:"-"`
	PlatformErr error `json:"-"`
}

// Empty reports whether neither group has anything to offer.
func (c Candidates) Empty() bool {
	return len(c.Mine) == 0 && len(c.EligiblePlatform) == 0
}

// Find returns the claimed voucher with the given code.
func (c Candidates) Find(code string) (api.VoucherEligibilityResult, bool) {
	key := codeKey(code)
	for _, m := range c.Mine {
		if codeKey(m.Code()) == key {
			return m, true
		}
	}
	return api.VoucherEligibilityResult{}, false
}

// Reconciler runs the voucher flows against a Service and reports
// user-facing outcomes on a bus.
type Reconciler struct {
	svc Service
	bus *events.Bus
}

// NewReconciler creates a reconciler. bus may be nil.
func NewReconciler(svc Service, bus *events.Bus) *Reconciler {
	return &Reconciler{svc: svc, bus: bus}
}

// LoadCandidates fetches both voucher groups concurrently. A failing call
// empties its own group and raises an error toast; it never fails the other
// group or the caller.
func (r *Reconciler) LoadCandidates(ctx context.Context, userID string, cart api.CartContext) Candidates {
	log := zerolog.Ctx(ctx)
	var out Candidates

	if strings.TrimSpace(userID) == "" {
		r.toast(events.ToastError, MsgLoginRequired)
		return Candidates{Mine: []api.VoucherEligibilityResult{}, EligiblePlatform: []api.Voucher{}}
	}

	var g errgroup.Group
	g.Go(func() error {
		mine, err := r.svc.MyVouchersForCart(ctx, userID, cart)
		if err != nil {
			out.MineErr = err
			return nil
		}
		out.Mine = mine
		return nil
	})
	g.Go(func() error {
		platform, err := r.svc.EligibleVouchers(ctx, userID, cart)
		if err != nil {
			out.PlatformErr = err
			return nil
		}
		out.EligiblePlatform = platform
		return nil
	})
	_ = g.Wait()

	if out.MineErr != nil {
		log.Warn().Err(out.MineErr).Str("user_id", userID).Msg("load claimed vouchers failed")
		r.toast(events.ToastError, MsgLoadMineFailed)
		out.Mine = nil
	}
	if out.PlatformErr != nil {
		log.Warn().Err(out.PlatformErr).Str("user_id", userID).Msg("load platform vouchers failed")
		r.toast(events.ToastError, MsgLoadOtherFailed)
		out.EligiblePlatform = nil
	}

	out.Mine = rankMine(out.Mine)
	out.EligiblePlatform = dropClaimed(out.EligiblePlatform, out.Mine)
	return out
}

// rankMine orders eligible vouchers first, larger discounts first within
// each group. Ties keep backend order.
func rankMine(mine []api.VoucherEligibilityResult) []api.VoucherEligibilityResult {
	ranked := make([]api.VoucherEligibilityResult, len(mine))
	copy(ranked, mine)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Eligible != b.Eligible {
			return a.Eligible
		}
		return a.DiscountAmount.GreaterThan(b.DiscountAmount)
	})
	return ranked
}

func dropClaimed(platform []api.Voucher, mine []api.VoucherEligibilityResult) []api.Voucher {
	claimed := make(map[string]struct{}, len(mine))
	for _, m := range mine {
		claimed[codeKey(m.Code())] = struct{}{}
	}
	out := make([]api.Voucher, 0, len(platform))
	for _, v := range platform {
		if _, ok := claimed[codeKey(v.Code)]; ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// outcome is an apply result before it is announced. Rejections from bad
// input carry no toast; the caller shows the reason inline.
type outcome struct {
	res    ApplyResult
	notify bool
}

// SelectVoucher applies a claimed voucher picked from the list. The
// precomputed eligibility is trusted as is: an ineligible candidate is
// rejected without contacting the backend.
func (r *Reconciler) SelectVoucher(ctx context.Context, candidate api.VoucherEligibilityResult, orderAmount decimal.Decimal) ApplyResult {
	return r.announce(r.selectVoucher(ctx, candidate, orderAmount))
}

func (r *Reconciler) selectVoucher(ctx context.Context, candidate api.VoucherEligibilityResult, orderAmount decimal.Decimal) outcome {
	code := candidate.Code()
	log := zerolog.Ctx(ctx).With().Str("code", code).Logger()

	if !candidate.Eligible {
		reason := MsgNotEligible
		if candidate.Reason != nil && strings.TrimSpace(*candidate.Reason) != "" {
			reason = strings.TrimSpace(*candidate.Reason)
		}
		log.Debug().Str("reason", reason).Msg("voucher selection rejected")
		return reject(code, reason, ErrNotEligible)
	}
	if code == "" {
		return reject(code, MsgInvalidCode, ErrInvalidInput)
	}

	discount := candidate.DiscountAmount
	if !discount.IsPositive() {
		calculated, err := r.svc.CalculateDiscount(ctx, code, orderAmount)
		if err != nil {
			log.Warn().Err(err).Msg("discount calculation failed")
			return reject(code, MsgApplyFailed, fmt.Errorf("%w: %w", ErrTransport, err))
		}
		discount = calculated
	}

	return finish(ctx, code, discount)
}

// ApplyByCode is the manual-entry path: validate the code for the cart, then
// ask the backend for the discount. It does not consult the candidate list.
func (r *Reconciler) ApplyByCode(ctx context.Context, code, userID string, cart api.CartContext) ApplyResult {
	return r.announce(r.applyByCode(ctx, code, userID, cart))
}

func (r *Reconciler) applyByCode(ctx context.Context, code, userID string, cart api.CartContext) outcome {
	code = strings.TrimSpace(code)
	log := zerolog.Ctx(ctx).With().Str("code", code).Logger()

	in := codeInput{Code: code, UserID: strings.TrimSpace(userID), OrderAmount: cart.Subtotal}
	if err := validate.Struct(in); err != nil {
		return outcome{res: rejected(code, inputMessage(err), fmt.Errorf("%w: %w", ErrInvalidInput, err))}
	}

	ok, err := r.svc.ValidateVoucher(ctx, api.ValidateVoucherRequest{
		Code:        in.Code,
		UserID:      in.UserID,
		OrderAmount: cart.Subtotal,
		ShopID:      cart.ShopID,
		ProductIDs:  cart.ProductIDs,
		CategoryIDs: cart.CategoryIDs,
	})
	if err != nil {
		log.Warn().Err(err).Msg("voucher validation failed")
		return reject(code, MsgApplyFailed, fmt.Errorf("%w: %w", ErrTransport, err))
	}
	if !ok {
		return reject(code, MsgInvalidCode, ErrNotEligible)
	}

	discount, err := r.svc.CalculateDiscount(ctx, code, cart.Subtotal)
	if err != nil {
		log.Warn().Err(err).Msg("discount calculation failed")
		return reject(code, MsgApplyFailed, fmt.Errorf("%w: %w", ErrTransport, err))
	}

	return finish(ctx, code, discount)
}

// finish enforces the zero-discount guard shared by both paths.
func finish(ctx context.Context, code string, discount decimal.Decimal) outcome {
	if !discount.IsPositive() {
		zerolog.Ctx(ctx).Warn().Str("code", code).Str("discount", discount.String()).Msg("voucher yields no discount")
		return reject(code, MsgNotApplicable, ErrNotApplicable)
	}
	return outcome{res: applied(code, discount)}
}

// announce publishes the outcome: VoucherApplied and a success toast for an
// applied voucher, an error toast for a rejection that asks for one.
func (r *Reconciler) announce(o outcome) ApplyResult {
	switch {
	case o.res.Applied():
		r.bus.Publish(events.VoucherApplied{Code: o.res.Code, Discount: o.res.Discount})
		r.toast(events.ToastSuccess, MsgApplied)
	case o.notify:
		r.toast(events.ToastError, o.res.Reason)
	}
	return o.res
}

// RemoveSelection announces that code is no longer attached to the cart.
func (r *Reconciler) RemoveSelection(code string) {
	r.bus.Publish(events.VoucherRemoved{Code: code})
	r.toast(events.ToastInfo, MsgRemoved)
}

func reject(code, reason string, err error) outcome {
	return outcome{res: rejected(code, reason, err), notify: true}
}

func (r *Reconciler) toast(level events.ToastLevel, msg string) {
	r.bus.Publish(events.Toast{Level: level, Message: msg})
}
