package voucher

import (
	"context"
	"sync"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/rs/zerolog"
)

// State is the voucher dialog's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateSelecting
	StateApplied
	StateRejected
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateLoading:   "loading",
	StateLoaded:    "loaded",
	StateSelecting: "selecting",
	StateApplied:   "applied",
	StateRejected:  "rejected",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Ticket identifies one load or selection. Work finished under a stale ticket
// is dropped.
type Ticket struct {
	gen uint64
}

// Widget is one voucher dialog session for a user and cart. It is safe for
// concurrent use; network work runs outside the lock.
type Widget struct {
	rec    *Reconciler
	userID string
	cart   api.CartContext

	mu         sync.Mutex
	state      State
	gen        uint64
	candidates Candidates
	last       ApplyResult
	selection  *ApplyResult
}

// NewWidget creates an idle widget.
func NewWidget(rec *Reconciler, userID string, cart api.CartContext) *Widget {
	return &Widget{rec: rec, userID: userID, cart: cart}
}

// State returns the current state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Candidates returns the most recently loaded groups.
func (w *Widget) Candidates() Candidates {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.candidates
}

// Last returns the outcome of the latest apply attempt.
func (w *Widget) Last() ApplyResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Selection returns the applied voucher, if any. It survives Close and is
// cleared only by RemoveSelection.
func (w *Widget) Selection() (ApplyResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selection == nil {
		return ApplyResult{}, false
	}
	return *w.selection, true
}

// BeginLoad moves the widget to Loading and invalidates any earlier ticket.
// Re-opening always passes through here, including after an apply.
func (w *Widget) BeginLoad() Ticket {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.state = StateLoading
	w.candidates = Candidates{}
	w.last = ApplyResult{}
	return Ticket{gen: w.gen}
}

// FinishLoad stores candidates loaded under t. It reports false, storing
// nothing, when the dialog was closed or re-opened in the meantime.
func (w *Widget) FinishLoad(t Ticket, c Candidates) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t.gen != w.gen || w.state != StateLoading {
		return false
	}
	w.candidates = c
	w.state = StateLoaded
	return true
}

// Load fetches candidates for a ticket without touching widget state.
func (w *Widget) Load(ctx context.Context) Candidates {
	return w.rec.LoadCandidates(ctx, w.userID, w.cart)
}

// Open runs a full load. The bool is false when the result was discarded.
func (w *Widget) Open(ctx context.Context) (Candidates, bool) {
	t := w.BeginLoad()
	c := w.Load(ctx)
	return c, w.FinishLoad(t, c)
}

// Close ends the dialog session. Loads and selections still in flight are
// discarded when they complete. An applied selection is kept.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.state = StateIdle
	w.candidates = Candidates{}
}

// Select applies a claimed voucher from the loaded list by code.
func (w *Widget) Select(ctx context.Context, code string) ApplyResult {
	w.mu.Lock()
	candidate, found := w.candidates.Find(code)
	w.mu.Unlock()
	if !found {
		return w.run(ctx, code, func(context.Context) outcome {
			return reject(code, MsgInvalidCode, ErrInvalidInput)
		})
	}
	return w.run(ctx, code, func(ctx context.Context) outcome {
		return w.rec.selectVoucher(ctx, candidate, w.cart.Subtotal)
	})
}

// ApplyCode applies a manually entered code.
func (w *Widget) ApplyCode(ctx context.Context, code string) ApplyResult {
	return w.run(ctx, code, func(ctx context.Context) outcome {
		return w.rec.applyByCode(ctx, code, w.userID, w.cart)
	})
}

// run applies under the current generation. A result that lands after Close
// or a re-open is returned to the caller but neither recorded nor announced.
// A kept selection must be removed before another voucher can be applied.
func (w *Widget) run(ctx context.Context, code string, apply func(context.Context) outcome) ApplyResult {
	w.mu.Lock()
	if w.selection != nil {
		w.mu.Unlock()
		return rejected(code, MsgAlreadyApplied, ErrAlreadyApplied)
	}
	switch w.state {
	case StateLoaded, StateRejected:
	default:
		w.mu.Unlock()
		return rejected(code, MsgNotReady, ErrInvalidState)
	}
	w.state = StateSelecting
	gen := w.gen
	w.mu.Unlock()

	o := apply(ctx)

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		zerolog.Ctx(ctx).Debug().Str("code", o.res.Code).Msg("voucher result dropped after close")
		return o.res
	}
	w.last = o.res
	if o.res.Applied() {
		w.state = StateApplied
		sel := o.res
		w.selection = &sel
	} else {
		w.state = StateRejected
	}
	w.mu.Unlock()

	return w.rec.announce(o)
}

// RemoveSelection detaches the applied voucher, returning the widget to
// Idle. It reports the removed code, or "" when nothing was applied.
func (w *Widget) RemoveSelection() string {
	w.mu.Lock()
	sel := w.selection
	w.selection = nil
	w.gen++
	w.state = StateIdle
	w.candidates = Candidates{}
	w.last = ApplyResult{}
	w.mu.Unlock()

	if sel == nil {
		return ""
	}
	w.rec.RemoveSelection(sel.Code)
	return sel.Code
}
