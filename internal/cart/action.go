package cart

// Action is a cart mutation applied by Reduce.
type Action interface {
	apply(items []LineItem) []LineItem
}

// Add increments the line for Item.ProductID, or appends Item with
// quantity 1 when there is none.
type Add struct {
	Item LineItem
}

type Remove struct {
	ProductID string
}

// SetQuantity replaces a line's quantity. A quantity of zero or less removes
// the line.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

type Clear struct{}

// Deduct lowers each line by the quantity Items holds for the same product
// and drops lines that reach zero. Lines missing from Items are kept.
type Deduct struct {
	Items []LineItem
}

func (a Add) apply(items []LineItem) []LineItem {
	for i := range items {
		if items[i].ProductID == a.Item.ProductID {
			items[i].Quantity++
			return items
		}
	}
	it := a.Item
	it.Quantity = 1
	return append(items, it)
}

func (a Remove) apply(items []LineItem) []LineItem {
	out := items[:0]
	for _, it := range items {
		if it.ProductID != a.ProductID {
			out = append(out, it)
		}
	}
	return out
}

func (a SetQuantity) apply(items []LineItem) []LineItem {
	if a.Quantity <= 0 {
		return Remove{ProductID: a.ProductID}.apply(items)
	}
	for i := range items {
		if items[i].ProductID == a.ProductID {
			items[i].Quantity = a.Quantity
		}
	}
	return items
}

func (Clear) apply([]LineItem) []LineItem {
	return []LineItem{}
}

func (a Deduct) apply(items []LineItem) []LineItem {
	taken := make(map[string]int, len(a.Items))
	for _, it := range a.Items {
		taken[it.ProductID] += it.Quantity
	}
	out := items[:0]
	for _, it := range items {
		it.Quantity -= taken[it.ProductID]
		if it.Quantity > 0 {
			out = append(out, it)
		}
	}
	return out
}

// Reduce returns the state after a. The input slice is left untouched.
func Reduce(items []LineItem, a Action) []LineItem {
	return a.apply(clone(items))
}

func clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// normalize merges duplicate product lines and drops empty ones, keeping
// first-seen order.
func normalize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := map[string]int{}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
