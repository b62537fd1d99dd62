// Package events carries typed application notifications between the
// voucher flow, the CLI and the interactive picker.
package events

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Event is any value published on a Bus.
type Event interface {
	eventName() string
}

// ToastLevel is the severity of a user-facing notice.
type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
)

// Toast is a short user-facing notice.
type Toast struct {
	Level   ToastLevel
	Message string
}

// VoucherApplied is published once a code and amount pass validation.
type VoucherApplied struct {
	Code     string
	Discount decimal.Decimal
}

// VoucherRemoved is published when the user detaches the selected voucher.
type VoucherRemoved struct {
	Code string
}

func (Toast) eventName() string          { return "toast" }
func (VoucherApplied) eventName() string { return "voucher_applied" }
func (VoucherRemoved) eventName() string { return "voucher_removed" }

// Name returns the stable snake_case name of an event, used in logs and
// JSON output.
func Name(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
// The zero value is ready to use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every current subscriber before returning.
// Handlers may subscribe or unsubscribe without deadlocking; such changes
// take effect from the next Publish. A nil bus drops events.
func (b *Bus) Publish(e Event) {
	if b == nil || e == nil {
		return
	}
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(e)
	}
}

// Len reports the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
