package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"pos/internal/cart"
	"pos/internal/domain"
	"pos/internal/kv"
	"pos/internal/repository"
)

type note struct {
	kind  NoteKind
	title string
}

type recorder struct{ notes []note }

func (r *recorder) Notify(kind NoteKind, title, _ string) {
	r.notes = append(r.notes, note{kind, title})
}

func (r *recorder) last() note {
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

// countingSales отсчитывает вызовы Create поверх реальной реализации
type countingSales struct {
	repository.SalesService
	creates int
}

func (c *countingSales) Create(ctx context.Context, s *domain.Sale) error {
	c.creates++
	return c.SalesService.Create(ctx, s)
}

func setup(t *testing.T) (*Session, *repository.MemoryStore, *countingSales, *recorder) {
	t.Helper()
	store := repository.NewMemoryStore()
	tx := repository.NewMemoryTx(store)
	sales := &countingSales{SalesService: repository.NewMemorySales(store, tx)}
	rec := &recorder{}
	s := NewSession(store, repository.NewMemoryCustomers(store), sales, kv.NewMemory(), rec, zap.NewNop())
	return s, store, sales, rec
}

func seedProduct(t *testing.T, store *repository.MemoryStore, p domain.Product) domain.Product {
	t.Helper()
	if err := store.Create(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOpen_LoadsSnapshot(t *testing.T) {
	ctx := context.Background()
	s, store, _, _ := setup(t)
	seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1", Price: 50, Stock: 10, Category: "Hardware"})
	seedProduct(t, store, domain.Product{Name: "Screw", SKU: "S1", Price: 2, Stock: 100, Category: "Fasteners"})

	s.Open(ctx)
	if got := s.Products("", ""); len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
	if got := s.Categories(); len(got) != 2 {
		t.Fatalf("expected 2 categories, got %v", got)
	}
}

type failingCatalog struct{}

func (failingCatalog) List(context.Context, repository.ProductFilter) ([]domain.Product, error) {
	return nil, errors.New("catalog down")
}
func (failingCatalog) Create(context.Context, *domain.Product) error {
	return errors.New("catalog down")
}

func TestOpen_CatalogFailureDegradesToEmpty(t *testing.T) {
	store := repository.NewMemoryStore()
	tx := repository.NewMemoryTx(store)
	rec := &recorder{}
	s := NewSession(failingCatalog{}, repository.NewMemoryCustomers(store),
		repository.NewMemorySales(store, tx), kv.NewMemory(), rec, zap.NewNop())

	s.Open(context.Background())
	if got := s.Products("", ""); len(got) != 0 {
		t.Fatalf("expected empty catalog")
	}
	if rec.notes[0].kind != NoteError || rec.notes[0].title != "Error" {
		t.Fatalf("expected error notification, got %+v", rec.notes)
	}
}

func TestAddToCart_Scenario(t *testing.T) {
	ctx := context.Background()
	s, store, _, rec := setup(t)
	p := seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1", Price: 50, Stock: 10, Unit: "pcs", Category: "Hardware"})
	s.Open(ctx)

	if err := s.AddToCart(p.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	lines, total, _ := s.CartView()
	if len(lines) != 1 || lines[0].ProductID != p.ID || lines[0].Quantity != 3 {
		t.Fatalf("unexpected cart: %+v", lines)
	}
	if total != 150 {
		t.Fatalf("expected 150, got %v", total)
	}
	if rec.last().title != "Added to Cart" {
		t.Fatalf("expected add notification, got %+v", rec.last())
	}
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	s, _, _, _ := setup(t)
	s.Open(context.Background())
	if err := s.AddToCart(42, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddPendingQuantity(t *testing.T) {
	ctx := context.Background()
	s, store, _, rec := setup(t)
	p := seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1", Price: 50, Stock: 10})
	s.Open(ctx)

	// garbage input is filtered out while typing, so nothing is stored
	s.SetQuantityInput(p.ID, "abc")
	if err := s.AddPendingQuantity(p.ID); !errors.Is(err, cart.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if rec.last().title != "Invalid Quantity" {
		t.Fatalf("expected notification, got %+v", rec.last())
	}
	if lines, _, _ := s.CartView(); len(lines) != 0 {
		t.Fatalf("cart must stay unchanged")
	}

	s.SetQuantityInput(p.ID, "2.5")
	if err := s.AddPendingQuantity(p.ID); err != nil {
		t.Fatalf("add pending: %v", err)
	}
	lines, _, _ := s.CartView()
	if len(lines) != 1 || lines[0].Quantity != 2.5 {
		t.Fatalf("unexpected cart: %+v", lines)
	}

	// input cleared after a successful add
	if err := s.AddPendingQuantity(p.ID); !errors.Is(err, cart.ErrInvalidQuantity) {
		t.Fatalf("expected cleared input, got %v", err)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	s, _, sales, rec := setup(t)
	s.Open(context.Background())

	_, err := s.Checkout(context.Background())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if sales.creates != 0 {
		t.Fatalf("no service call expected, got %d", sales.creates)
	}
	if rec.last().title != "Empty Cart" {
		t.Fatalf("expected notification, got %+v", rec.last())
	}
}

func TestCheckout_SuccessResetsState(t *testing.T) {
	ctx := context.Background()
	s, store, _, rec := setup(t)
	p1 := seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1", Price: 50, Stock: 10, Unit: "pcs"})
	p2 := seedProduct(t, store, domain.Product{Name: "Screw", SKU: "S1", Price: 2, Stock: 100, Unit: "pcs"})
	s.Open(ctx)

	cust, err := s.CreateCustomer(ctx, "Ahmed")
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	if err := s.SetPaymentMethod(domain.PaymentCard); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(p1.ID, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(p2.ID, 10); err != nil {
		t.Fatal(err)
	}

	sale, err := s.Checkout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if sale.TotalAmount != 120 || sale.Discount != 0 {
		t.Fatalf("unexpected totals: %+v", sale)
	}
	if len(sale.Items) != 2 || sale.Items[0].ProductID != p1.ID || sale.Items[1].ProductID != p2.ID {
		t.Fatalf("cart order not preserved: %+v", sale.Items)
	}
	if sale.Items[0].TotalPrice != 100 {
		t.Fatalf("line total: %+v", sale.Items[0])
	}
	if sale.CustomerID == nil || *sale.CustomerID != cust.ID || sale.Notes != "Sale to Ahmed" {
		t.Fatalf("customer not carried into sale: %+v", sale)
	}
	if sale.PaymentMethod != domain.PaymentCard {
		t.Fatalf("payment method: %v", sale.PaymentMethod)
	}

	// state reset
	if lines, _, _ := s.CartView(); len(lines) != 0 {
		t.Fatalf("cart not cleared")
	}
	if s.SelectedCustomer() != nil {
		t.Fatalf("customer selection not cleared")
	}
	if s.PaymentMethod() != domain.PaymentCash {
		t.Fatalf("payment method not reset")
	}
	if got := s.TodaysOrders(); len(got) != 1 {
		t.Fatalf("today's orders not refreshed: %d", len(got))
	}
	if rec.last().kind != NoteSuccess {
		t.Fatalf("expected success notification, got %+v", rec.last())
	}
}

func TestCheckout_WalkInDefaults(t *testing.T) {
	ctx := context.Background()
	s, store, _, _ := setup(t)
	p := seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1", Price: 50, Stock: 10})
	s.Open(ctx)
	if err := s.AddToCart(p.ID, 1); err != nil {
		t.Fatal(err)
	}

	sale, err := s.Checkout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if sale.CustomerID != nil || sale.CustomerName != domain.WalkInName {
		t.Fatalf("expected walk-in defaults: %+v", sale)
	}
	if sale.Notes != "Walk-in customer sale" {
		t.Fatalf("notes: %q", sale.Notes)
	}
}

type failingSales struct{}

func (failingSales) List(context.Context, repository.SaleFilter) ([]domain.Sale, error) {
	return nil, nil
}
func (failingSales) Create(context.Context, *domain.Sale) error {
	return errors.New("sales service unavailable")
}

func TestCheckout_FailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	rec := &recorder{}
	s := NewSession(store, repository.NewMemoryCustomers(store), failingSales{},
		kv.NewMemory(), rec, zap.NewNop())
	p := seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1", Price: 50, Stock: 10})
	s.Open(ctx)

	cust, err := s.CreateCustomer(ctx, "Ahmed")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddToCart(p.ID, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Checkout(ctx); err == nil {
		t.Fatalf("expected submission failure")
	}
	// everything kept for a retry
	lines, total, _ := s.CartView()
	if len(lines) != 1 || total != 100 {
		t.Fatalf("cart must be kept: %+v", lines)
	}
	if sel := s.SelectedCustomer(); sel == nil || sel.ID != cust.ID {
		t.Fatalf("customer selection must be kept")
	}
	if rec.last().title != "Sale Failed" {
		t.Fatalf("expected failure notification, got %+v", rec.last())
	}
}

type blockingSales struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSales) List(context.Context, repository.SaleFilter) ([]domain.Sale, error) {
	return nil, nil
}
func (b *blockingSales) Create(context.Context, *domain.Sale) error {
	close(b.started)
	<-b.release
	return nil
}

func TestCheckout_SecondSubmissionRejected(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	blocking := &blockingSales{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(store, repository.NewMemoryCustomers(store), blocking,
		kv.NewMemory(), &recorder{}, zap.NewNop())
	p := seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1", Price: 50, Stock: 10})
	s.Open(ctx)
	if err := s.AddToCart(p.ID, 1); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Checkout(ctx)
		done <- err
	}()
	<-blocking.started

	if _, err := s.Checkout(ctx); !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("expected in-flight guard, got %v", err)
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("first checkout: %v", err)
	}
}

func TestTogglePin(t *testing.T) {
	ctx := context.Background()
	s, store, _, rec := setup(t)
	p := seedProduct(t, store, domain.Product{Name: "Hinge", SKU: "H1"})
	s.Open(ctx)

	pinned, err := s.TogglePin(ctx, p.ID)
	if err != nil || !pinned {
		t.Fatalf("toggle: %v %v", pinned, err)
	}
	if rec.last().title != "Product Pinned" {
		t.Fatalf("expected pin notification, got %+v", rec.last())
	}
	if s.PinnedCount() != 1 {
		t.Fatalf("count: %d", s.PinnedCount())
	}

	pinned, err = s.TogglePin(ctx, p.ID)
	if err != nil || pinned {
		t.Fatalf("toggle off: %v %v", pinned, err)
	}
	if rec.last().title != "Product Unpinned" {
		t.Fatalf("expected unpin notification, got %+v", rec.last())
	}
}

func TestPinnedProductsSortFirst(t *testing.T) {
	ctx := context.Background()
	s, store, _, _ := setup(t)
	_ = seedProduct(t, store, domain.Product{Name: "Aardvark Glue", SKU: "A1"})
	z := seedProduct(t, store, domain.Product{Name: "Zinc Plate", SKU: "Z1"})
	s.Open(ctx)

	if _, err := s.TogglePin(ctx, z.ID); err != nil {
		t.Fatal(err)
	}
	got := s.Products("", "")
	if got[0].ID != z.ID {
		t.Fatalf("pinned product must sort first: %+v", got)
	}
}

func TestSelectCustomer(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := setup(t)
	s.Open(ctx)

	cust, err := s.CreateCustomer(ctx, "Ali")
	if err != nil {
		t.Fatal(err)
	}
	if sel := s.SelectedCustomer(); sel == nil || sel.Name != "Ali" {
		t.Fatalf("quick-create must select the customer")
	}

	if err := s.SelectCustomer(nil); err != nil {
		t.Fatal(err)
	}
	if s.SelectedCustomer() != nil {
		t.Fatalf("nil must mean walk-in")
	}

	if err := s.SelectCustomer(&cust.ID); err != nil {
		t.Fatal(err)
	}
	unknown := int64(999)
	if err := s.SelectCustomer(&unknown); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetPaymentMethodAndStatus_Validated(t *testing.T) {
	s, _, _, _ := setup(t)
	if err := s.SetPaymentMethod("bitcoin"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := s.SetStatus("shipped"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := s.SetPaymentMethod(domain.PaymentBankTransfer); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStatus(domain.SaleStatusPending); err != nil {
		t.Fatal(err)
	}
}
