package repository

import (
	"context"
	"sync"

	"pos/internal/domain"
)

// MemoryStore объединённое in-memory хранилище каталога, покупателей и продаж
// с простым генератором ID. Служит локальной реализацией внешних сервисов
type MemoryStore struct {
	mu            sync.RWMutex
	nextProdID    int64
	nextCustID    int64
	nextSaleID    int64
	productsByID  map[int64]domain.Product
	productOrder  []int64
	customersByID map[int64]domain.Customer
	customerOrder []int64
	sales         []domain.Sale
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextProdID:    1,
		nextCustID:    1,
		nextSaleID:    1,
		productsByID:  make(map[int64]domain.Product),
		customersByID: make(map[int64]domain.Customer),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var _ CatalogService = (*MemoryStore)(nil)

// CatalogService implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	p.ID = m.nextProdID
	m.nextProdID++
	m.productsByID[p.ID] = *p
	m.productOrder = append(m.productOrder, p.ID)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0, len(m.productOrder))
	for _, id := range m.productOrder {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		out = append(out, m.productsByID[id])
	}
	return out, nil
}

func (m *MemoryStore) getProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := p
	return &cp, nil
}

func (m *MemoryStore) updateProduct(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.productsByID[p.ID]; !ok {
		return ErrNotFound
	}
	m.productsByID[p.ID] = *p
	return nil
}

// CustomerService implementation on wrapper type
type MemoryCustomers struct{ store *MemoryStore }

func NewMemoryCustomers(store *MemoryStore) *MemoryCustomers { return &MemoryCustomers{store: store} }

var _ CustomerService = (*MemoryCustomers)(nil)

func (mc *MemoryCustomers) Create(ctx context.Context, c *domain.Customer) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	c.ID = mc.store.nextCustID
	mc.store.nextCustID++
	mc.store.customersByID[c.ID] = *c
	mc.store.customerOrder = append(mc.store.customerOrder, c.ID)
	return nil
}

func (mc *MemoryCustomers) List(ctx context.Context, f CustomerFilter) ([]domain.Customer, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	out := make([]domain.Customer, 0, len(mc.store.customerOrder))
	for _, id := range mc.store.customerOrder {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		out = append(out, mc.store.customersByID[id])
	}
	return out, nil
}

// SalesService implementation on wrapper type
type MemorySales struct {
	store *MemoryStore
	tx    TxManager
}

func NewMemorySales(store *MemoryStore, tx TxManager) *MemorySales {
	return &MemorySales{store: store, tx: tx}
}

var _ SalesService = (*MemorySales)(nil)

// Create атомарно проверяет остатки, списывает их и сохраняет продажу
func (ms *MemorySales) Create(ctx context.Context, s *domain.Sale) error {
	return ms.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// load and check stock, accumulate updates to avoid partial state
		productCopies := make(map[int64]*domain.Product)
		for _, it := range s.Items {
			p, err := ms.store.getProduct(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p.Stock < it.Quantity {
				return ErrNotEnoughStock
			}
			p.Stock -= it.Quantity
			productCopies[p.ID] = p
		}
		for _, p := range productCopies {
			if err := ms.store.updateProduct(ctx, p); err != nil {
				return err
			}
		}

		s.ID = ms.store.nextSaleID
		ms.store.nextSaleID++
		ms.store.sales = append(ms.store.sales, *s)
		return nil
	})
}

func (ms *MemorySales) List(ctx context.Context, f SaleFilter) ([]domain.Sale, error) {
	ms.store.rlock(ctx)
	defer ms.store.runlock(ctx)
	out := make([]domain.Sale, 0)
	for _, s := range ms.store.sales {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		if !f.From.IsZero() && s.SaleDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !s.SaleDate.Before(f.To) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы репозитории пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}

// SeedDemo наполняет каталог небольшим набором товаров для локального запуска
func (m *MemoryStore) SeedDemo(ctx context.Context) {
	products := []domain.Product{
		{Name: "Door Hinge 3in", SKU: "HNG-3", Price: 50, Stock: 120, Unit: "pcs", Category: "Hardware"},
		{Name: "Wood Screw 4x40", SKU: "SCR-440", Price: 2.5, Stock: 5000, Unit: "pcs", Category: "Fasteners"},
		{Name: "PVC Pipe 1in", SKU: "PVC-1", Price: 180, Stock: 60, Unit: "m", Category: "Plumbing"},
		{Name: "Wall Paint White", SKU: "PNT-W", Price: 950, Stock: 24, Unit: "l", Category: "Paint"},
	}
	for i := range products {
		_ = m.Create(ctx, &products[i])
	}
}
