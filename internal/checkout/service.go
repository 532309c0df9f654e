package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesansayur/storefront/internal/chat"
	"github.com/pesansayur/storefront/internal/coupon"
	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/history"
	"github.com/pesansayur/storefront/internal/notify"
	"github.com/pesansayur/storefront/internal/pricing"
	"github.com/pesansayur/storefront/internal/session"
)

type Carts interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type Sessions interface {
	Get(ctx context.Context, sessionID string) (session.State, error)
	Reset(ctx context.Context, sessionID string) error
}

type History interface {
	Add(ctx context.Context, sessionID string, order domain.Order) error
	Last(ctx context.Context, sessionID string) (domain.Order, error)
}

// Channel hands the rendered order message to the shop and returns the link
// the customer opens to send it.
type Channel interface {
	Handoff(ctx context.Context, message string) (string, error)
}

type Request struct {
	Name     string                `json:"name"`
	Phone    string                `json:"phone"`
	Address  string                `json:"address"`
	Note     string                `json:"note,omitempty"`
	Schedule domain.ScheduleOption `json:"schedule"`
	Date     string                `json:"date,omitempty"`
	Payment  domain.PaymentMethod  `json:"payment_method"`
}

type Prefill struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Quote is the priced view of a session's cart. Producing it has no side
// effects.
type Quote struct {
	pricing.Breakdown
	Items             []domain.CartItem        `json:"items"`
	ItemCount         int                      `json:"item_count"`
	Coupon            *domain.Coupon           `json:"coupon,omitempty"`
	CouponNotice      string                   `json:"coupon_notice,omitempty"`
	Location          *domain.DeliveryLocation `json:"location,omitempty"`
	Eligible          bool                     `json:"eligible"`
	MaxRadiusKm       float64                  `json:"max_radius_km"`
	FreeShippingAbove int64                    `json:"free_shipping_above"`
	Prefill           Prefill                  `json:"prefill"`
}

type Receipt struct {
	Order    domain.Order `json:"order"`
	Message  string       `json:"message"`
	ChatLink string       `json:"chat_link,omitempty"`
}

type Service struct {
	store    domain.Store
	carts    Carts
	sessions Sessions
	history  History
	chat     Channel
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(store domain.Store, carts Carts, sessions Sessions, hist History, channel Channel, notifier notify.Notifier, log zerolog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Service{
		store:    store.WithDefaults(),
		carts:    carts,
		sessions: sessions,
		history:  hist,
		chat:     channel,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) Quote(ctx context.Context, sessionID string) (*Quote, error) {
	cart, st, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	b, applied, notice := s.price(cart, st)
	q := &Quote{
		Breakdown:         b,
		Items:             cart.Items,
		ItemCount:         cart.ItemCount(),
		Coupon:            applied,
		CouponNotice:      notice,
		Location:          st.Location,
		Eligible:          s.eligible(st.Location),
		MaxRadiusKm:       s.store.MaxRadiusKm,
		FreeShippingAbove: s.store.FreeShippingAbove,
	}

	last, err := s.history.Last(ctx, sessionID)
	switch {
	case err == nil:
		q.Prefill = Prefill{Name: last.CustomerName, Phone: last.Phone}
	case !errors.Is(err, history.ErrNotFound):
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to load last order for prefill")
	}
	return q, nil
}

// Confirm finalizes the session's cart into an order. Once the preconditions
// pass, nothing fails the call: side-effect errors are logged and the order
// stands.
func (s *Service) Confirm(ctx context.Context, sessionID string, req Request) (*Receipt, error) {
	cart, st, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	address := strings.TrimSpace(req.Address)
	if missing := missingFields(name, phone, address); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMissingCustomerFields, strings.Join(missing, ", "))
	}

	loc := st.Location
	if !loc.Resolved() {
		return nil, ErrNoLocation
	}
	if !s.eligible(loc) {
		return nil, fmt.Errorf("%w: maksimal %s km dari toko", ErrOutOfRange,
			strconv.FormatFloat(s.store.MaxRadiusKm, 'f', -1, 64))
	}

	now := s.now()
	schedule, err := ScheduleLabel(req.Schedule, req.Date, now)
	if err != nil {
		return nil, err
	}
	payment, err := PaymentLabel(req.Payment)
	if err != nil {
		return nil, err
	}

	b, applied, _ := s.price(cart, st)
	point := loc.Point
	order := domain.Order{
		ID:               NewOrderID(now),
		CreatedAt:        now.UTC(),
		CustomerName:     name,
		Phone:            phone,
		Address:          address,
		Items:            cart.Clone().Items,
		Subtotal:         b.Subtotal,
		ShippingCost:     b.Shipping,
		ShippingDiscount: b.ShippingDiscount,
		Discount:         b.Discount,
		Total:            b.Total,
		Schedule:         schedule,
		PaymentMethod:    payment,
		Note:             strings.TrimSpace(req.Note),
		MapLink:          point.MapLink(),
		Location:         &point,
		DistanceKm:       *loc.DistanceKm,
	}
	if applied != nil {
		order.CouponCode = applied.Code
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}

	log := s.log.With().Str("session_id", sessionID).Str("order_id", order.ID).Logger()
	receipt := &Receipt{Order: order, Message: chat.RenderOrderMessage(order)}

	link, err := s.chat.Handoff(ctx, receipt.Message)
	if err != nil {
		log.Warn().Err(err).Msg("chat handoff failed")
	}
	receipt.ChatLink = link

	if err := s.history.Add(ctx, sessionID, order); err != nil {
		log.Warn().Err(err).Msg("failed to add order to history")
	}

	s.notifier.Notify(ctx, notify.OrderPlaced(order))

	s.reset(ctx, sessionID, log)

	log.Info().Int64("total", order.Total).Int("items", order.ItemCount()).Msg("order confirmed")
	return receipt, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*domain.Cart, session.State, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, session.State{}, fmt.Errorf("load cart: %w", err)
	}
	st, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, session.State{}, fmt.Errorf("load checkout session: %w", err)
	}
	return cart, st, nil
}

// price composes the order amounts. A coupon whose minimum is no longer met by
// the cart is left out and reported through notice.
func (s *Service) price(cart *domain.Cart, st session.State) (b pricing.Breakdown, applied *domain.Coupon, notice string) {
	subtotal := cart.Total()

	var distance float64
	if st.Location.Resolved() {
		distance = *st.Location.DistanceKm
	}
	base := pricing.ShippingBase(distance, s.store.RatePerKm, subtotal, s.store.FreeShippingAbove)

	var d coupon.Discount
	if c := st.Coupon; c != nil {
		if c.MinOrder > 0 && subtotal < c.MinOrder {
			notice = fmt.Sprintf("Kupon %s butuh minimum belanja %s", c.Code, pricing.FormatRupiah(c.MinOrder))
		} else {
			applied = c
			d = coupon.CalculateDiscount(*c, subtotal, base)
		}
	}
	return pricing.Compose(subtotal, base, d.Amount, d.Shipping), applied, notice
}

func (s *Service) eligible(loc *domain.DeliveryLocation) bool {
	return loc.Resolved() && loc.Eligible && *loc.DistanceKm <= s.store.MaxRadiusKm
}

func (s *Service) reset(ctx context.Context, sessionID string, log zerolog.Logger) {
	ctx = context.WithoutCancel(ctx)
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		log.Error().Err(err).Msg("failed to clear cart after checkout")
	}
	if err := s.sessions.Reset(ctx, sessionID); err != nil {
		log.Error().Err(err).Msg("failed to reset checkout session")
	}
}

func missingFields(name, phone, address string) []string {
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if phone == "" {
		missing = append(missing, "phone")
	}
	if address == "" {
		missing = append(missing, "address")
	}
	return missing
}
