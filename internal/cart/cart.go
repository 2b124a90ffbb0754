package cart

import (
	"errors"
	"regexp"
	"strconv"

	"pos/internal/domain"
)

// ErrInvalidQuantity возвращается при нечисловом, нулевом или отрицательном количестве
var ErrInvalidQuantity = errors.New("invalid quantity")

// quantityRe цифры с не более чем одной десятичной точкой
var quantityRe = regexp.MustCompile(`^\d*\.?\d*$`)

// ParseQuantity разбирает количество из свободного текстового ввода.
// Принимаются только строки вида "12", "1.5", ".5"; результат должен быть > 0
func ParseQuantity(s string) (float64, error) {
	if s == "" || !quantityRe.MatchString(s) {
		return 0, ErrInvalidQuantity
	}
	q, err := strconv.ParseFloat(s, 64)
	if err != nil || q <= 0 {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

// AllowedInput сообщает, допустима ли строка как промежуточный ввод количества
// (пустая строка разрешена, пока значение не отправлено)
func AllowedInput(s string) bool {
	return quantityRe.MatchString(s)
}

// Cart строки корзины в порядке добавления, не более одной строки на товар.
// Строка с количеством <= 0 никогда не хранится
type Cart struct {
	order []int64
	lines map[int64]*domain.CartLine
}

func New() *Cart {
	return &Cart{lines: make(map[int64]*domain.CartLine)}
}

// Add добавляет qty товара: существующая строка увеличивается, иначе
// создаётся новая. Вызывающая сторона обязана передавать qty > 0
func (c *Cart) Add(p domain.Product, qty float64) {
	if line, ok := c.lines[p.ID]; ok {
		line.Quantity += qty
		return
	}
	c.lines[p.ID] = &domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  qty,
		SKU:       p.SKU,
		Unit:      p.Unit,
	}
	c.order = append(c.order, p.ID)
}

// SetQuantity устанавливает абсолютное количество; qty <= 0 удаляет строку
func (c *Cart) SetQuantity(productID int64, qty float64) {
	line, ok := c.lines[productID]
	if !ok {
		return
	}
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	line.Quantity = qty
}

// Remove удаляет строку, если она есть
func (c *Cart) Remove(productID int64) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear опустошает корзину
func (c *Cart) Clear() {
	c.order = nil
	c.lines = make(map[int64]*domain.CartLine)
}

// Lines копия строк в порядке добавления
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Len число строк
func (c *Cart) Len() int { return len(c.lines) }

// Total сумма price*quantity по всем строкам; всегда пересчитывается
func (c *Cart) Total() float64 {
	var sum float64
	for _, line := range c.lines {
		sum += line.Price * line.Quantity
	}
	return sum
}

// Units суммарное количество по всем строкам (для счётчика в шапке)
func (c *Cart) Units() float64 {
	var sum float64
	for _, line := range c.lines {
		sum += line.Quantity
	}
	return sum
}
