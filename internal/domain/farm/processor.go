package farm

import "fmt"

// Apply validates a against snapshot and returns the next snapshot. On
// rejection it returns snapshot itself and a *Rejection. The input is never
// mutated: accepted actions produce a deep copy.
//
// Apply must stay free of clocks, randomness and I/O so that any log suffix
// can be replayed against a stored snapshot.
func Apply(snapshot Snapshot, a Action) (Snapshot, error) {
	var (
		next Snapshot
		rej  *Rejection
	)
	switch v := a.(type) {
	case CraftAction:
		next, rej = applyCraft(snapshot, v)
	case SellAction:
		next, rej = applySell(snapshot, v)
	case PlantAction:
		next, rej = applyPlant(snapshot, v)
	case HarvestAction:
		next, rej = applyHarvest(snapshot, v)
	default:
		rej = reject(a, UnknownAction, "unregistered action")
	}
	if rej != nil {
		return snapshot, rej
	}
	return next, nil
}

// ReplayError reports which entry of a replayed sequence was rejected.
type ReplayError struct {
	Index     int
	Rejection *Rejection
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay entry %d: %v", e.Index, e.Rejection)
}

func (e *ReplayError) Unwrap() error { return e.Rejection }

// Replay folds Apply over actions and stops at the first rejection, returning
// base unchanged in that case.
func Replay(base Snapshot, actions ...Action) (Snapshot, error) {
	current := base
	for i, a := range actions {
		next, err := Apply(current, a)
		if err != nil {
			rej, _ := err.(*Rejection)
			return base, &ReplayError{Index: i, Rejection: rej}
		}
		current = next
	}
	return current, nil
}

func applyCraft(s Snapshot, a CraftAction) (Snapshot, *Rejection) {
	if a.Amount <= 0 {
		return s, reject(a, UnknownAction, "amount must be positive")
	}
	item, ok := LookupItem(a.Item)
	if !ok || !item.Purchasable() {
		return s, reject(a, UnknownAction, fmt.Sprintf("item %q is not for sale", a.Item))
	}
	if isLocked(s, item) {
		return s, reject(a, LockedItem, string(item.Name))
	}
	amount := NewQuantity(a.Amount)
	if s.Stock.Get(item.Name).LessThan(amount) {
		return s, reject(a, InsufficientStock, string(item.Name))
	}
	cost := item.Price.Mul(a.Amount)
	if s.Balance.LessThan(cost) {
		return s, reject(a, InsufficientFunds, cost.String())
	}

	next := s.Clone()
	next.Balance = s.Balance.Sub(cost)
	next.Stock[item.Name] = s.Stock.Get(item.Name).Sub(amount)
	next.Inventory[item.Name] = s.Inventory.Get(item.Name).Add(amount)
	return next, nil
}

func applySell(s Snapshot, a SellAction) (Snapshot, *Rejection) {
	if a.Amount <= 0 {
		return s, reject(a, UnknownAction, "amount must be positive")
	}
	item, ok := LookupItem(a.Item)
	if !ok || item.Kind != KindCrop {
		return s, reject(a, UnknownAction, fmt.Sprintf("item %q cannot be sold", a.Item))
	}
	amount := NewQuantity(a.Amount)
	if s.Inventory.Get(item.Name).LessThan(amount) {
		return s, reject(a, InsufficientStock, string(item.Name))
	}

	next := s.Clone()
	next.Balance = s.Balance.Add(item.SellPrice.Mul(a.Amount))
	next.Inventory[item.Name] = s.Inventory.Get(item.Name).Sub(amount)
	return next, nil
}

func applyPlant(s Snapshot, a PlantAction) (Snapshot, *Rejection) {
	if !validPlot(a.Index) {
		return s, reject(a, InvalidPlot, fmt.Sprintf("index %d out of range", a.Index))
	}
	if _, planted := s.Fields[a.Index]; planted {
		return s, reject(a, InvalidPlot, fmt.Sprintf("plot %d is not empty", a.Index))
	}
	item, ok := LookupItem(a.Item)
	if !ok || item.Kind != KindSeed {
		return s, reject(a, UnknownAction, fmt.Sprintf("item %q is not a seed", a.Item))
	}
	one := NewQuantity(1)
	if s.Inventory.Get(item.Name).LessThan(one) {
		return s, reject(a, InsufficientStock, string(item.Name))
	}

	next := s.Clone()
	next.Inventory[item.Name] = s.Inventory.Get(item.Name).Sub(one)
	next.Fields[a.Index] = Field{Crop: item.Crop, PlantedAt: a.PlantedAt}
	return next, nil
}

func applyHarvest(s Snapshot, a HarvestAction) (Snapshot, *Rejection) {
	if !validPlot(a.Index) {
		return s, reject(a, InvalidPlot, fmt.Sprintf("index %d out of range", a.Index))
	}
	field, planted := s.Fields[a.Index]
	if !planted {
		return s, reject(a, InvalidPlot, fmt.Sprintf("plot %d is empty", a.Index))
	}
	crop, ok := LookupCrop(field.Crop)
	if !ok {
		return s, reject(a, UnknownAction, fmt.Sprintf("crop %q", field.Crop))
	}
	if a.HarvestedAt.Before(crop.ReadyAt(field.PlantedAt)) {
		return s, reject(a, InvalidPlot, fmt.Sprintf("plot %d is not ready", a.Index))
	}

	next := s.Clone()
	delete(next.Fields, a.Index)
	name := ItemName(crop.Name)
	next.Inventory[name] = s.Inventory.Get(name).Add(NewQuantity(1))
	return next, nil
}

func isLocked(s Snapshot, item Item) bool {
	if item.Disabled {
		return true
	}
	if item.Requires == "" {
		return false
	}
	return !NewQuantity(0).LessThan(s.Inventory.Get(item.Requires))
}

func validPlot(index int) bool {
	return index >= 0 && index < MaxFields
}
