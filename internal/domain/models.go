package domain

import "time"

// Product снимок товара из каталога; после загрузки не изменяется
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Price    float64 `json:"price"`
	Stock    float64 `json:"stock"`
	Unit     string  `json:"unit"`
	Category string  `json:"category,omitempty"`
}

// CartLine строка корзины; в корзине не бывает двух строк с одним ProductID
type CartLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	SKU       string  `json:"sku"`
	Unit      string  `json:"unit"`
}

// Customer покупатель; отсутствие выбранного покупателя означает walk-in
type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WalkInName имя, подставляемое в продажу без выбранного покупателя
const WalkInName = "Walk-in Customer"

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCredit       PaymentMethod = "credit"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
)

// Valid сообщает, входит ли значение в список поддерживаемых способов оплаты
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCredit, PaymentBankTransfer, PaymentCard:
		return true
	}
	return false
}

// SaleStatus статус оформляемой продажи
type SaleStatus string

const (
	SaleStatusCompleted  SaleStatus = "completed"
	SaleStatusPending    SaleStatus = "pending"
	SaleStatusProcessing SaleStatus = "processing"
)

// Valid сообщает, входит ли значение в список поддерживаемых статусов
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusCompleted, SaleStatusPending, SaleStatusProcessing:
		return true
	}
	return false
}

// SaleItem позиция продажи; TotalPrice вычисляется при сборке продажи
type SaleItem struct {
	ProductID  int64   `json:"productId"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// Sale продажа, отправляемая во внешний сервис продаж
type Sale struct {
	ID            int64         `json:"id,omitempty"`
	CustomerID    *int64        `json:"customerId"`
	CustomerName  string        `json:"customerName"`
	Items         []SaleItem    `json:"items"`
	TotalAmount   float64       `json:"totalAmount"`
	Discount      float64       `json:"discount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        SaleStatus    `json:"status"`
	SaleDate      time.Time     `json:"saleDate"`
	Notes         string        `json:"notes"`
}
