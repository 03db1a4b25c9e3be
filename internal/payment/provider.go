// Package payment settles a sale total before it is committed.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bistrogest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrDeclined      = errors.New("payment declined")
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

type Receipt struct {
	Method        models.PaymentMethod
	Status        models.PaymentStatus
	TransactionID string
}

type Provider interface {
	Method() models.PaymentMethod
	Charge(ctx context.Context, amount decimal.Decimal) (Receipt, error)
}

// Cash settles immediately.
type Cash struct{}

func (Cash) Method() models.PaymentMethod { return models.PaymentCash }

func (Cash) Charge(ctx context.Context, amount decimal.Decimal) (Receipt, error) {
	if !amount.IsPositive() {
		return Receipt{}, ErrInvalidAmount
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	return Receipt{Method: models.PaymentCash, Status: models.PaymentSuccess}, nil
}

// MobileMoney simulates an Airtel/Moov push payment: it waits Delay, then asks
// Decide for the outcome. A nil Decide always accepts.
type MobileMoney struct {
	Name   models.PaymentMethod
	Prefix string
	Delay  time.Duration
	Decide func(amount decimal.Decimal) error
}

func (m *MobileMoney) Method() models.PaymentMethod { return m.Name }

func (m *MobileMoney) Charge(ctx context.Context, amount decimal.Decimal) (Receipt, error) {
	if !amount.IsPositive() {
		return Receipt{}, ErrInvalidAmount
	}

	timer := time.NewTimer(m.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case <-timer.C:
	}

	if m.Decide != nil {
		if err := m.Decide(amount); err != nil {
			if !errors.Is(err, ErrDeclined) {
				err = fmt.Errorf("%w: %v", ErrDeclined, err)
			}
			return Receipt{Method: m.Name, Status: models.PaymentFailed}, err
		}
	}

	return Receipt{
		Method:        m.Name,
		Status:        models.PaymentSuccess,
		TransactionID: fmt.Sprintf("%s-%s", m.Prefix, uuid.NewString()),
	}, nil
}

func NewAirtelMoney(delay time.Duration) *MobileMoney {
	return &MobileMoney{Name: models.PaymentAirtelMoney, Prefix: "AM", Delay: delay}
}

func NewMoovMoney(delay time.Duration) *MobileMoney {
	return &MobileMoney{Name: models.PaymentMoovMoney, Prefix: "MM", Delay: delay}
}

// Registry maps a payment method to its provider.
type Registry struct {
	providers map[models.PaymentMethod]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.PaymentMethod]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Method()] = p
	}
	return r
}

// DefaultRegistry wires cash plus both mobile-money operators.
func DefaultRegistry(delay time.Duration) *Registry {
	return NewRegistry(Cash{}, NewAirtelMoney(delay), NewMoovMoney(delay))
}

func (r *Registry) Get(method models.PaymentMethod) (Provider, error) {
	p, ok := r.providers[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return p, nil
}
