package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pos/internal/cart"
	"pos/internal/catalog"
	"pos/internal/domain"
	"pos/internal/kv"
	"pos/internal/pins"
	"pos/internal/repository"
)

var (
	// ErrInvalidInput вход не прошёл проверку
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCart попытка оформить пустую корзину
	ErrEmptyCart = errors.New("empty cart")
	// ErrCheckoutInFlight оформление уже выполняется
	ErrCheckoutInFlight = errors.New("checkout already in progress")
)

const (
	productFetchLimit  = 100
	customerFetchLimit = 100
	ordersFetchLimit   = 50
)

// Session состояние одной кассовой смены: снимок каталога, корзина,
// закреплённые товары, выбранный покупатель и параметры оформления.
// Методы потокобезопасны, хотя логическая модель — один поток событий
type Session struct {
	catalogSvc  repository.CatalogService
	customerSvc repository.CustomerService
	salesSvc    repository.SalesService
	kvStore     kv.Store
	notifier    Notifier
	log         *zap.Logger
	cat         *catalog.Catalog

	mu             sync.Mutex
	products       []domain.Product
	categories     []string
	customers      []domain.Customer
	todaysOrders   []domain.Sale
	cart           *cart.Cart
	pins           *pins.Registry
	selected       *domain.Customer
	paymentMethod  domain.PaymentMethod
	status         domain.SaleStatus
	quantityInputs map[int64]string
	submitting     bool
}

func NewSession(
	catalogSvc repository.CatalogService,
	customerSvc repository.CustomerService,
	salesSvc repository.SalesService,
	kvStore kv.Store,
	notifier Notifier,
	log *zap.Logger,
) *Session {
	return &Session{
		catalogSvc:     catalogSvc,
		customerSvc:    customerSvc,
		salesSvc:       salesSvc,
		kvStore:        kvStore,
		notifier:       notifier,
		log:            log,
		cat:            catalog.New(),
		cart:           cart.New(),
		pins:           pins.Load(context.Background(), kvStore, log),
		paymentMethod:  domain.PaymentCash,
		status:         domain.SaleStatusCompleted,
		quantityInputs: make(map[int64]string),
	}
}

// Open загружает снимок каталога, покупателей и сегодняшние заказы.
// Любая из загрузок может упасть: сессия остаётся рабочей с пустыми списками
func (s *Session) Open(ctx context.Context) {
	products, err := s.catalogSvc.List(ctx, repository.ProductFilter{Status: "active", Limit: productFetchLimit})
	if err != nil {
		s.log.Error("failed to fetch products", zap.Error(err))
		products = nil
		s.notifier.Notify(NoteError, "Error", "Failed to load products")
	}

	customers, err := s.customerSvc.List(ctx, repository.CustomerFilter{Limit: customerFetchLimit})
	if err != nil {
		// каталог без покупателей пригоден: продажи идут как walk-in
		s.log.Error("failed to fetch customers", zap.Error(err))
		customers = nil
	}

	s.mu.Lock()
	s.products = products
	s.categories = s.cat.Categories(products)
	s.customers = customers
	s.pins = pins.Load(ctx, s.kvStore, s.log)
	s.mu.Unlock()

	s.refreshTodaysOrders(ctx)
}

func (s *Session) refreshTodaysOrders(ctx context.Context) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	orders, err := s.salesSvc.List(ctx, repository.SaleFilter{
		From:  from,
		To:    from.AddDate(0, 0, 1),
		Limit: ordersFetchLimit,
	})
	if err != nil {
		s.log.Error("failed to fetch today's orders", zap.Error(err))
		orders = nil
	}
	s.mu.Lock()
	s.todaysOrders = orders
	s.mu.Unlock()
}

// Products отфильтрованный и отсортированный вид каталога:
// закреплённые первыми, далее по имени
func (s *Session) Products(search, category string) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.cat.Filter(s.products, search, category)
	return s.cat.Sort(filtered, s.pins.Set())
}

// Categories категории текущего снимка каталога
func (s *Session) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// Customers список покупателей сессии
func (s *Session) Customers() []domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Customer, len(s.customers))
	copy(out, s.customers)
	return out
}

// TodaysOrders продажи за сегодня (только для отображения)
func (s *Session) TodaysOrders() []domain.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Sale, len(s.todaysOrders))
	copy(out, s.todaysOrders)
	return out
}

// PinnedCount число закреплённых товаров
func (s *Session) PinnedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins.Count()
}

// TogglePin переключает закрепление товара и сохраняет множество
func (s *Session) TogglePin(ctx context.Context, productID int64) (bool, error) {
	s.mu.Lock()
	pinnedNow, err := s.pins.Toggle(ctx, productID)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	if pinnedNow {
		s.notifier.Notify(NoteInfo, "Product Pinned", "Product added to pinned items")
	} else {
		s.notifier.Notify(NoteInfo, "Product Unpinned", "Product removed from pinned items")
	}
	return pinnedNow, nil
}

// AddToCart добавляет qty единиц товара из снимка каталога в корзину
func (s *Session) AddToCart(productID int64, qty float64) error {
	if qty <= 0 {
		return cart.ErrInvalidQuantity
	}
	s.mu.Lock()
	p, ok := s.findProduct(productID)
	if !ok {
		s.mu.Unlock()
		return repository.ErrNotFound
	}
	s.cart.Add(p, qty)
	delete(s.quantityInputs, productID)
	s.mu.Unlock()

	s.notifier.Notify(NoteInfo, "Added to Cart",
		fmt.Sprintf("%g %s of %s added to cart", qty, p.Unit, p.Name))
	return nil
}

// SetQuantityInput запоминает промежуточный текстовый ввод количества.
// Недопустимые символы отбрасываются без изменения сохранённого значения
func (s *Session) SetQuantityInput(productID int64, value string) {
	if !cart.AllowedInput(value) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantityInputs[productID] = value
}

// AddPendingQuantity разбирает накопленный ввод и добавляет товар в корзину.
// Нечисловое, нулевое или отрицательное значение отклоняется, корзина не меняется
func (s *Session) AddPendingQuantity(productID int64) error {
	s.mu.Lock()
	input := s.quantityInputs[productID]
	s.mu.Unlock()

	qty, err := cart.ParseQuantity(input)
	if err != nil {
		s.notifier.Notify(NoteError, "Invalid Quantity", "Please enter a valid quantity")
		return err
	}
	return s.AddToCart(productID, qty)
}

// SetCartQuantity абсолютная установка количества; qty <= 0 удаляет строку
func (s *Session) SetCartQuantity(productID int64, qty float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.SetQuantity(productID, qty)
}

// RemoveFromCart удаляет строку корзины
func (s *Session) RemoveFromCart(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID)
}

// CartView строки, сумма и суммарное количество позиций корзины
func (s *Session) CartView() ([]domain.CartLine, float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines(), s.cart.Total(), s.cart.Units()
}

// SelectCustomer выбирает покупателя сессии; nil означает walk-in
func (s *Session) SelectCustomer(customerID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if customerID == nil {
		s.selected = nil
		return nil
	}
	for _, c := range s.customers {
		if c.ID == *customerID {
			cp := c
			s.selected = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

// SelectedCustomer текущий выбранный покупатель или nil
func (s *Session) SelectedCustomer() *domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}

// CreateCustomer быстрое создание покупателя: сохраняет во внешнем сервисе,
// добавляет в список сессии и сразу выбирает
func (s *Session) CreateCustomer(ctx context.Context, name string) (*domain.Customer, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	c := domain.Customer{Name: name}
	if err := s.customerSvc.Create(ctx, &c); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.customers = append(s.customers, c)
	cp := c
	s.selected = &cp
	s.mu.Unlock()
	return &c, nil
}

// SetPaymentMethod устанавливает способ оплаты
func (s *Session) SetPaymentMethod(m domain.PaymentMethod) error {
	if !m.Valid() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethod = m
	return nil
}

// SetStatus устанавливает статус оформляемой продажи
func (s *Session) SetStatus(st domain.SaleStatus) error {
	if !st.Valid() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	return nil
}

// PaymentMethod текущий способ оплаты
func (s *Session) PaymentMethod() domain.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentMethod
}

// Status текущий статус оформления
func (s *Session) Status() domain.SaleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Checkout собирает продажу из корзины и отправляет во внешний сервис продаж.
// Успех очищает корзину, выбор покупателя и вводы количества, возвращает
// способ оплаты к значению по умолчанию и обновляет сегодняшние заказы.
// Неудача оставляет всё состояние нетронутым, повтор — просто новый вызов
func (s *Session) Checkout(ctx context.Context) (*domain.Sale, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	if s.cart.Len() == 0 {
		s.mu.Unlock()
		s.notifier.Notify(NoteError, "Empty Cart", "Please add items to cart before checkout")
		return nil, ErrEmptyCart
	}
	sale := s.composeLocked()
	s.submitting = true
	s.mu.Unlock()

	err := s.salesSvc.Create(ctx, &sale)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		s.log.Error("failed to process sale", zap.Error(err))
		s.notifier.Notify(NoteError, "Sale Failed", fmt.Sprintf("Error: %s", errMessage(err)))
		return nil, err
	}
	s.cart.Clear()
	s.selected = nil
	s.quantityInputs = make(map[int64]string)
	s.paymentMethod = domain.PaymentCash
	s.mu.Unlock()

	s.refreshTodaysOrders(ctx)
	s.notifier.Notify(NoteSuccess, "Sale Completed Successfully",
		fmt.Sprintf("Order has been processed with status: %s. Total: PKR %.2f", sale.Status, sale.TotalAmount))
	return &sale, nil
}

// composeLocked строит продажу из текущего состояния; вызывается под мьютексом
func (s *Session) composeLocked() domain.Sale {
	lines := s.cart.Lines()
	items := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.SaleItem{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.Price,
			TotalPrice: line.Price * line.Quantity,
		})
	}

	sale := domain.Sale{
		CustomerName:  domain.WalkInName,
		Items:         items,
		TotalAmount:   s.cart.Total(),
		Discount:      0,
		PaymentMethod: s.paymentMethod,
		Status:        s.status,
		SaleDate:      time.Now().UTC(),
		Notes:         "Walk-in customer sale",
	}
	if s.selected != nil {
		id := s.selected.ID
		sale.CustomerID = &id
		sale.CustomerName = s.selected.Name
		sale.Notes = fmt.Sprintf("Sale to %s", s.selected.Name)
	}
	return sale
}

func (s *Session) findProduct(id int64) (domain.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func errMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Unknown error occurred"
	}
	return err.Error()
}
