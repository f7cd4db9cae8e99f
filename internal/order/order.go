package order

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// Item is one purchased line of an order.
type Item struct {
	ProductRef string  `json:"productRef" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	UnitPrice  float64 `json:"unitPrice" validate:"gt=0"`
	Quantity   int     `json:"quantity" validate:"gte=1"`
}

// PaymentData is the method-specific payload, tagged by
// Order.PaymentMethod. Exactly one branch is expected to be set.
type PaymentData struct {
	Card *CardData `json:"card,omitempty"`
	Cash *CashData `json:"cash,omitempty"`
	QR   *QRData   `json:"qr,omitempty"`
}

type CardData struct {
	Holder    string `json:"holder"`
	MaskedPAN string `json:"maskedPan"`
}

type CashData struct {
	PaidWith float64 `json:"paidWith"`
}

type QRData struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	Status      Status    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// Order is the central entity, tracked from payment confirmation
// through pickup. The JSON layout is the persisted wire format shared
// by every storage tier.
type Order struct {
	ID            string         `json:"id"`
	CustomerName  string         `json:"customerName"`
	Items         []Item         `json:"items"`
	Total         float64        `json:"total"`
	PaymentMethod string         `json:"paymentMethod"`
	PaymentData   *PaymentData   `json:"paymentData,omitempty"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	StatusHistory []StatusChange `json:"statusHistory"`

	// Timestamp is the unix-millis creation instant, used for sort
	// ordering and replica freshness comparison.
	Timestamp int64 `json:"timestamp"`

	// Stamped by the sync layer on save; preserved on round trips.
	DeviceSaved string `json:"deviceSaved,omitempty"`
	SyncTime    string `json:"syncTime,omitempty"`
	CreatedFrom string `json:"createdFrom,omitempty"`
}

// Draft is what the checkout flow hands over: an order lacking id,
// status and timestamps.
type Draft struct {
	CustomerName  string       `json:"customerName"`
	Items         []Item       `json:"items" validate:"required,min=1,dive"`
	Total         float64      `json:"total" validate:"gt=0"`
	PaymentMethod string       `json:"paymentMethod" validate:"required"`
	PaymentData   *PaymentData `json:"paymentData"`
}

// NewID builds a fresh order identifier: OXXO + the last 8 digits of
// the unix-millis clock + 4 random digits. Collisions are not
// defended against.
func NewID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	return fmt.Sprintf("OXXO%s%04d", ms[len(ms)-8:], rand.Intn(10000))
}

// New materializes a draft into a confirmed order with its initial
// history entry.
func New(d Draft, now time.Time) Order {
	name := d.CustomerName
	if name == "" {
		name = RandomCustomerName()
	}
	return Order{
		ID:            NewID(now),
		CustomerName:  name,
		Items:         append([]Item(nil), d.Items...),
		Total:         d.Total,
		PaymentMethod: d.PaymentMethod,
		PaymentData:   d.PaymentData,
		Status:        StatusConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
		Timestamp:     now.UnixMilli(),
		StatusHistory: []StatusChange{{
			Status:      StatusConfirmed,
			Timestamp:   now,
			Description: "Pago confirmado exitosamente",
		}},
	}
}

// ApplyStatus moves the order to status, bumps UpdatedAt and appends a
// history entry. An empty description falls back to the canned one.
// Re-applying the current status still appends; there is no dedup.
func ApplyStatus(o *Order, status Status, description string, now time.Time) {
	if description == "" {
		description = Descriptions[status]
	}
	o.Status = status
	o.UpdatedAt = now
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:      status,
		Timestamp:   now,
		Description: description,
	})
}

// Clone returns a deep copy; storage tiers hand out clones so callers
// cannot mutate shared state.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]Item(nil), o.Items...)
	c.StatusHistory = append([]StatusChange(nil), o.StatusHistory...)
	if o.PaymentData != nil {
		pd := *o.PaymentData
		c.PaymentData = &pd
	}
	return c
}

var (
	givenNames = []string{"Juan", "Maria", "Carlos", "Ana", "Luis", "Carmen", "Pedro", "Rosa"}
	surnames   = []string{"Perez", "Gonzalez", "Rodriguez", "Lopez", "Martinez", "Garcia", "Sanchez", "Torres"}
)

// RandomCustomerName fabricates a demo customer name for drafts that
// arrive anonymous.
func RandomCustomerName() string {
	return fmt.Sprintf("%s %s %s",
		givenNames[rand.Intn(len(givenNames))],
		surnames[rand.Intn(len(surnames))],
		surnames[rand.Intn(len(surnames))])
}
