package repository

import (
	"context"
	"errors"
	"time"

	"pos/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrNotEnoughStock возвращается сервисом продаж, когда остатка не хватает
var ErrNotEnoughStock = errors.New("not enough stock")

// ProductFilter параметры выборки каталога. Status интерпретируется
// внешним сервисом каталога; Limit <= 0 означает без ограничения
type ProductFilter struct {
	Status string
	Limit  int
}

// CustomerFilter параметры выборки покупателей
type CustomerFilter struct {
	Limit int
}

// SaleFilter выборка продаж за период [From, To)
type SaleFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// CatalogService внешний сервис каталога товаров
type CatalogService interface {
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
}

// CustomerService внешний сервис покупателей
type CustomerService interface {
	List(ctx context.Context, f CustomerFilter) ([]domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
}

// SalesService внешний сервис продаж
type SalesService interface {
	List(ctx context.Context, f SaleFilter) ([]domain.Sale, error)
	Create(ctx context.Context, s *domain.Sale) error
}

// TxManager абстракция транзакции. Для in-memory — глобальная блокировка записи
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
