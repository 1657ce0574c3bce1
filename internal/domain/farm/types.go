package farm

import (
	"sort"
	"time"
)

type ItemName string

type CropName string

type Inventory map[ItemName]Quantity

// Get returns the held amount; absent items are zero.
func (i Inventory) Get(item ItemName) Quantity {
	if i == nil {
		return Zero
	}
	return i[item]
}

func (i Inventory) clone() Inventory {
	out := make(Inventory, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

func (i Inventory) equal(other Inventory) bool {
	keys := map[ItemName]struct{}{}
	for k := range i {
		keys[k] = struct{}{}
	}
	for k := range other {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if !i.Get(k).Equal(other.Get(k)) {
			return false
		}
	}
	return true
}

// Items lists the held item names in lexical order.
func (i Inventory) Items() []ItemName {
	out := make([]ItemName, 0, len(i))
	for k := range i {
		out = append(out, k)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

type Field struct {
	Crop      CropName  `json:"name"`
	PlantedAt time.Time `json:"planted_at"`
}

type Fields map[int]Field

func (f Fields) clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f Fields) equal(other Fields) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		o, ok := other[k]
		if !ok || o.Crop != v.Crop || !o.PlantedAt.Equal(v.PlantedAt) {
			return false
		}
	}
	return true
}

type Snapshot struct {
	ID        int64     `json:"id"`
	Balance   Quantity  `json:"balance"`
	Fields    Fields    `json:"fields"`
	Inventory Inventory `json:"inventory"`
	Stock     Inventory `json:"stock"`
}

// Clone returns a deep copy that shares no maps with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		ID:        s.ID,
		Balance:   s.Balance,
		Fields:    s.Fields.clone(),
		Inventory: s.Inventory.clone(),
		Stock:     s.Stock.clone(),
	}
}

// Equal compares by value. Absent inventory keys equal explicit zeros.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.ID == other.ID &&
		s.Balance.Equal(other.Balance) &&
		s.Fields.equal(other.Fields) &&
		s.Inventory.equal(other.Inventory) &&
		s.Stock.equal(other.Stock)
}

// Valid reports whether the non-negativity invariants hold.
func (s Snapshot) Valid() bool {
	if s.Balance.IsNegative() {
		return false
	}
	for _, q := range s.Inventory {
		if q.IsNegative() {
			return false
		}
	}
	for _, q := range s.Stock {
		if q.IsNegative() {
			return false
		}
	}
	return true
}
