package pins

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"pos/internal/kv"
)

// StorageKey фиксированный ключ, под которым хранится список закреплённых товаров
const StorageKey = "pinnedProducts"

// Registry множество закреплённых товаров, сохраняемое в key-value хранилище.
// Методы не потокобезопасны: реестр принадлежит одной сессии
type Registry struct {
	store kv.Store
	log   *zap.Logger
	order []int64
	set   map[int64]bool
}

// Load читает сохранённый список. Отсутствующее или повреждённое значение
// даёт пустое множество: ошибка десериализации логируется и не поднимается выше
func Load(ctx context.Context, store kv.Store, log *zap.Logger) *Registry {
	r := &Registry{store: store, log: log, set: make(map[int64]bool)}
	raw, ok, err := store.Get(ctx, StorageKey)
	if err != nil {
		log.Warn("pins: read failed, starting empty", zap.Error(err))
		return r
	}
	if !ok {
		return r
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Warn("pins: malformed stored value, starting empty", zap.Error(err))
		return r
	}
	for _, id := range ids {
		if !r.set[id] {
			r.set[id] = true
			r.order = append(r.order, id)
		}
	}
	return r
}

// IsPinned закреплён ли товар
func (r *Registry) IsPinned(productID int64) bool { return r.set[productID] }

// Set копия множества для передачи в сортировку каталога
func (r *Registry) Set() map[int64]bool {
	out := make(map[int64]bool, len(r.set))
	for id := range r.set {
		out[id] = true
	}
	return out
}

// IDs сохранённый порядок идентификаторов
func (r *Registry) IDs() []int64 {
	out := make([]int64, len(r.order))
	copy(out, r.order)
	return out
}

// Count число закреплённых товаров
func (r *Registry) Count() int { return len(r.set) }

// Toggle добавляет товар в множество, если его там нет, иначе убирает,
// и сохраняет полное множество. При ошибке записи изменение откатывается.
// Возвращает новое состояние товара (true — закреплён)
func (r *Registry) Toggle(ctx context.Context, productID int64) (bool, error) {
	was := r.set[productID]
	if was {
		delete(r.set, productID)
		for i, id := range r.order {
			if id == productID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	} else {
		r.set[productID] = true
		r.order = append(r.order, productID)
	}

	if err := r.persist(ctx); err != nil {
		// rollback
		if was {
			r.set[productID] = true
			r.order = append(r.order, productID)
		} else {
			delete(r.set, productID)
			r.order = r.order[:len(r.order)-1]
		}
		return was, err
	}
	return !was, nil
}

func (r *Registry) persist(ctx context.Context) error {
	ids := r.order
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, StorageKey, string(data))
}
