// Package pos owns the application state: catalog ledger, sales, pending queue,
// the active checkout session and store settings. Every mutating command runs
// under one lock and touches memory only after the store confirmed the write.
package pos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bistrogest/internal/audit"
	"bistrogest/internal/cart"
	"bistrogest/internal/checkout"
	"bistrogest/internal/inventory"
	"bistrogest/internal/metrics"
	"bistrogest/internal/models"
	"bistrogest/internal/payment"
	"bistrogest/internal/pending"
	"bistrogest/internal/sale"
	"bistrogest/internal/store"

	"github.com/shopspring/decimal"
)

var (
	ErrPendingNotFound = errors.New("pending order not found")
	ErrProductNotFound = inventory.ErrUnknownProduct
)

type Options struct {
	StoreID        string
	ActivationCode string
	Payments       *payment.Registry
	Now            func() time.Time
}

// Session is the checkout in progress at the till.
type Session struct {
	Cart         *cart.Cart
	CustomerName string
	TableNumber  string
	WaiterName   string
	PendingID    string // set when the cart came from a pending order
}

type Service struct {
	mu sync.Mutex

	store          *store.Store
	committer      *checkout.Committer
	payments       *payment.Registry
	now            func() time.Time
	storeID        string
	activationCode string

	ledger     *inventory.Ledger
	sales      []models.Sale         // newest first
	pending    []models.PendingOrder // oldest first
	staff      []models.StaffMember
	session    Session
	crates     models.CrateStock
	settings   models.Settings
	info       models.StoreInfo
	categories []string
}

func NewService(st *store.Store, opts Options) *Service {
	if opts.Payments == nil {
		opts.Payments = payment.DefaultRegistry(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:          st,
		committer:      checkout.NewCommitter(st),
		payments:       opts.Payments,
		now:            opts.Now,
		storeID:        opts.StoreID,
		activationCode: opts.ActivationCode,
		ledger:         inventory.NewLedger(nil),
		session:        Session{Cart: cart.New()},
	}
}

// Load reads every collection into memory, seeding a first-run catalog, staff,
// categories, store and settings when they are missing.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Reload is a cold restart of the in-memory state, used after a backup import.
// The checkout session is discarded.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{Cart: cart.New()}
	return s.load(ctx)
}

// ReplaceAll swaps every persisted collection (backup import, factory reset) and
// reloads from scratch. An empty dataset brings back the first-run defaults.
func (s *Service) ReplaceAll(ctx context.Context, d store.Dataset) error {
	staff, err := hashStaffCodes(d.Staff)
	if err != nil {
		return err
	}
	d.Staff = staff

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ReplaceAll(ctx, d); err != nil {
		return err
	}
	s.session = Session{Cart: cart.New()}
	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) error {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		products = defaultProducts()
		if err := s.store.BulkAddProducts(ctx, products); err != nil {
			return err
		}
		log.Printf("Seeded %d default products.", len(products))
	}

	staff, err := s.store.ListStaff(ctx)
	if err != nil {
		return err
	}
	if len(staff) == 0 {
		if staff, err = defaultStaff(s.now()); err != nil {
			return err
		}
		if err := s.store.ReplaceStaff(ctx, staff); err != nil {
			return err
		}
	}

	categories := defaultCategories()
	if err := loadOrSeed(ctx, s.store, models.MetaCategories, &categories); err != nil {
		return err
	}
	info := defaultStoreInfo(s.storeID, s.activationCode)
	if err := loadOrSeed(ctx, s.store, models.MetaStore, &info); err != nil {
		return err
	}
	settings := defaultSettings(info, s.now())
	if err := loadOrSeed(ctx, s.store, models.MetaSettings, &settings); err != nil {
		return err
	}
	var crates models.CrateStock
	if err := s.store.GetMetadata(ctx, models.MetaCrates, &crates); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	sales, err := s.store.ListSales(ctx)
	if err != nil {
		return err
	}
	queue, err := s.store.ListPendingOrders(ctx)
	if err != nil {
		return err
	}

	s.ledger.Replace(products)
	s.staff = staff
	s.categories = categories
	s.info = info
	s.settings = settings
	s.crates = crates
	s.sales = sales
	s.pending = queue
	s.pruneCart()
	metrics.LowStockProducts.Set(float64(len(s.ledger.LowStock())))

	log.Printf("POS state loaded: %d products, %d sales, %d pending orders.", len(products), len(sales), len(queue))
	return nil
}

func loadOrSeed(ctx context.Context, st *store.Store, key string, v any) error {
	err := st.GetMetadata(ctx, key, v)
	if errors.Is(err, store.ErrNotFound) {
		return st.PutMetadata(ctx, key, v)
	}
	return err
}

// ---- cart ----

// AddToCart adds one unit. It reports false when the cart already holds all the stock.
func (s *Service) AddToCart(productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledger.Product(productID); !ok {
		return false, ErrProductNotFound
	}
	return s.session.Cart.Add(s.ledger, productID), nil
}

func (s *Service) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Cart.Remove(productID)
}

func (s *Service) DeleteFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Cart.Delete(productID)
}

// ClearCart resets the whole session, including customer and table.
func (s *Service) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{Cart: cart.New()}
}

func (s *Service) SetCheckoutInfo(customerName, tableNumber, waiterName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.CustomerName = customerName
	s.session.TableNumber = tableNumber
	s.session.WaiterName = waiterName
}

func (s *Service) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Cart.Total(s.ledger)
}

// ---- pending orders ----

// SubmitPending queues a digital-menu order. Stock is not reserved.
func (s *Service) SubmitPending(ctx context.Context, lines []cart.Line, sub pending.Submission) (models.PendingOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.SaleItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.SaleItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if sub.Now.IsZero() {
		sub.Now = s.now()
	}

	order, err := pending.Submit(cart.FromItems(items), s.ledger, sub)
	if err != nil {
		return models.PendingOrder{}, err
	}
	if err := s.store.AddPendingOrder(ctx, order); err != nil {
		return models.PendingOrder{}, err
	}
	s.pending = append(s.pending, order)
	metrics.PendingSubmitted.Inc()
	return order, nil
}

// LoadPending moves a pending order into the checkout session. The order leaves
// the queue immediately, whether or not the checkout completes. Lines that no
// longer fit stock are reported; checkout rejects them until staff adjust the cart.
func (s *Service) LoadPending(ctx context.Context, id string) ([]inventory.Shortfall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := pending.Find(s.pending, id)
	if i < 0 {
		return nil, ErrPendingNotFound
	}
	order := s.pending[i]

	if err := s.store.DeletePendingOrder(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	s.pending = append(s.pending[:i:i], s.pending[i+1:]...)

	c, short := pending.Load(order, s.ledger)
	s.session = Session{
		Cart:         c,
		CustomerName: order.CustomerName,
		TableNumber:  order.TableNumber,
		WaiterName:   order.WaiterName,
		PendingID:    order.ID,
	}
	return short, nil
}

// CancelPending drops an order without checkout and records it.
func (s *Service) CancelPending(ctx context.Context, id, userName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := pending.Find(s.pending, id)
	if i < 0 {
		return ErrPendingNotFound
	}
	order := s.pending[i]
	cancelled := order
	cancelled.Status = models.PendingStatusCancelled

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.DeletePendingOrder(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		total := order.Total
		return audit.WriteLog(tx.DB().WithContext(ctx), audit.LogOptions{
			Type:        models.ActivityPendingCancel,
			UserName:    userName,
			EntityType:  "pending_order",
			EntityID:    order.ID,
			Description: fmt.Sprintf("Pending order cancelled: %s, table %s", order.CustomerName, order.TableNumber),
			Amount:      &total,
			Before:      order,
			After:       cancelled,
		})
	})
	if err != nil {
		return err
	}
	s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
	return nil
}

// ---- checkout ----

// taxRate applies settings.tvaRate only while the store has TVA switched on.
func (s *Service) taxRate() decimal.Decimal {
	if !s.info.TVAEnabled {
		return decimal.Zero
	}
	return s.settings.TVARate
}

func (s *Service) buildSale(ctx context.Context, cashier string) (models.Sale, error) {
	n, err := s.store.CountSales(ctx)
	if err != nil {
		return models.Sale{}, err
	}
	managedBy := s.session.WaiterName
	if managedBy == "" {
		managedBy = cashier
	}
	return sale.Build(s.session.Cart, s.ledger, sale.Context{
		Sequence:     int(n) + 1,
		TaxRate:      s.taxRate(),
		Cashier:      managedBy,
		CustomerName: s.session.CustomerName,
		TableNumber:  s.session.TableNumber,
		StoreID:      s.info.ID,
		Now:          s.now(),
	})
}

// PreviewSale builds the draft ticket for the current cart without paying or committing.
func (s *Service) PreviewSale(ctx context.Context, cashier string) (models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildSale(ctx, cashier)
}

// Checkout builds the sale, charges it, then commits it in one transaction.
// A failed payment or a rejected commit leaves stock, sales and the session as
// they were. The lock is held across the payment so no other command can
// interleave with a sale in flight.
func (s *Service) Checkout(ctx context.Context, method models.PaymentMethod, cashier string) (models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider, err := s.payments.Get(method)
	if err != nil {
		metrics.RecordRejection(metrics.ReasonInvalid)
		return models.Sale{}, err
	}

	sl, err := s.buildSale(ctx, cashier)
	if err != nil {
		metrics.RecordRejection(metrics.ReasonInvalid)
		return models.Sale{}, err
	}
	// fail before charging when the snapshot already shows a shortfall
	if err := s.ledger.Check(sl.Items); err != nil {
		metrics.RecordRejection(metrics.ReasonStock)
		return models.Sale{}, err
	}

	receipt, err := provider.Charge(ctx, sl.Total)
	if err != nil {
		metrics.RecordRejection(metrics.ReasonPayment)
		return models.Sale{}, fmt.Errorf("payment %s: %w", method, err)
	}
	sl.PaymentMethod = receipt.Method
	sl.PaymentStatus = receipt.Status
	sl.TransactionID = receipt.TransactionID

	updated, err := s.committer.Commit(ctx, sl)
	if err != nil {
		if receipt.TransactionID != "" {
			log.Printf("[WARN] sale %s charged (%s) but not committed: %v", sl.OrderNumber, receipt.TransactionID, err)
		}
		return models.Sale{}, err
	}

	applied, err := s.ledger.Apply(sl.Items)
	if err != nil {
		// the store accepted the sale, so its rows win over the snapshot
		log.Printf("[WARN] ledger rejected committed sale %s: %v", sl.OrderNumber, err)
	}
	reconcile(s.ledger, applied, updated)
	s.sales = append([]models.Sale{sl}, s.sales...)
	s.session = Session{Cart: cart.New()}
	metrics.LowStockProducts.Set(float64(len(s.ledger.LowStock())))
	return sl, nil
}

// reconcile logs any product whose in-memory stock disagrees with the committed
// row and keeps the persisted value.
func reconcile(l *inventory.Ledger, applied, persisted []models.Product) {
	mem := make(map[string]int, len(applied))
	for _, p := range applied {
		mem[p.ID] = p.Stock
	}
	for _, p := range persisted {
		if got, ok := mem[p.ID]; !ok || got != p.Stock {
			log.Printf("[WARN] stock drift on %s: memory %d, store %d", p.ID, got, p.Stock)
			l.Put(p)
		}
	}
}

// ---- reads ----

func (s *Service) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Products()
}

func (s *Service) Product(id string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Product(id)
}

func (s *Service) LowStock() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.LowStock()
}

// Sales returns a copy, newest first.
// StockValue is the on-hand inventory valued at cost.
func (s *Service) StockValue() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.StockValue()
}

func (s *Service) Sales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Sale(nil), s.sales...)
}

func (s *Service) PendingOrders() []models.PendingOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PendingOrder(nil), s.pending...)
}

func (s *Service) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.categories...)
}

func (s *Service) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Service) StoreInfo() models.StoreInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *Service) Crates() models.CrateStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crates
}

// Staff lists members without their access codes.
func (s *Service) Staff() []models.StaffMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return redactStaff(s.staff)
}

func redactStaff(in []models.StaffMember) []models.StaffMember {
	out := make([]models.StaffMember, len(in))
	copy(out, in)
	for i := range out {
		out[i].AccessCode = ""
	}
	return out
}

// CheckoutView is the session as shown on the till.
type CheckoutView struct {
	Lines        []cart.Line     `json:"lines"`
	Count        int             `json:"count"`
	Total        decimal.Decimal `json:"total"`
	CustomerName string          `json:"customerName"`
	TableNumber  string          `json:"tableNumber"`
	WaiterName   string          `json:"waiterName"`
	PendingID    string          `json:"pendingId,omitempty"`
	NextTicket   string          `json:"nextTicket"`
}

func (s *Service) CurrentCheckout() CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutView()
}

func (s *Service) checkoutView() CheckoutView {
	return CheckoutView{
		Lines:        s.session.Cart.Lines(),
		Count:        s.session.Cart.Count(),
		Total:        s.session.Cart.Total(s.ledger),
		CustomerName: s.session.CustomerName,
		TableNumber:  s.session.TableNumber,
		WaiterName:   s.session.WaiterName,
		PendingID:    s.session.PendingID,
		NextTicket:   sale.OrderNumber(len(s.sales) + 1),
	}
}

// Snapshot is a read-only copy of the whole state.
type Snapshot struct {
	Products      []models.Product      `json:"products"`
	Sales         []models.Sale         `json:"sales"`
	PendingOrders []models.PendingOrder `json:"pendingOrders"`
	Staff         []models.StaffMember  `json:"staff"`
	Categories    []string              `json:"categories"`
	Crates        models.CrateStock     `json:"crates"`
	Settings      models.Settings       `json:"settings"`
	Store         models.StoreInfo      `json:"store"`
	Checkout      CheckoutView          `json:"checkout"`
	TaxRate       decimal.Decimal       `json:"taxRate"`
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := s.info
	info.ActivationCode = ""
	info.StaffAccessCode = ""
	return Snapshot{
		Products:      s.ledger.Products(),
		Sales:         append([]models.Sale(nil), s.sales...),
		PendingOrders: append([]models.PendingOrder(nil), s.pending...),
		Staff:         redactStaff(s.staff),
		Categories:    append([]string(nil), s.categories...),
		Crates:        s.crates,
		Settings:      s.settings,
		Store:         info,
		Checkout:      s.checkoutView(),
		TaxRate:       s.taxRate(),
	}
}

// pruneCart drops cart lines whose product left the catalog.
func (s *Service) pruneCart() {
	for _, l := range s.session.Cart.Lines() {
		if _, ok := s.ledger.Product(l.ProductID); !ok {
			s.session.Cart.Delete(l.ProductID)
		}
	}
}
