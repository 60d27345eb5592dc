// Package cart is the buyer-side cart: a pure reducer over cart actions
// plus a store that persists state through an injected Storage.
package cart

import (
	"storefront-backend/internal/domain"
)

// MaxLineQuantity caps a single line regardless of stock.
const MaxLineQuantity = 10

// Line snapshots a product at the time it was added.
type Line struct {
	ProductID string       `json:"productId"`
	Name      string       `json:"name"`
	Price     domain.Money `json:"price"`
	Image     string       `json:"image,omitempty"`
	Stock     int          `json:"stock"`
	Quantity  int          `json:"quantity"`
}

func (l Line) limit() int {
	return lineCap(l.Stock)
}

func lineCap(stock int) int {
	if stock < 0 {
		return 0
	}
	return min(stock, MaxLineQuantity)
}

// State holds the cart lines. Totals are derived, never stored.
type State struct {
	Lines []Line `json:"lines"`
}

func (s State) Total() domain.Money {
	var total domain.Money
	for _, l := range s.Lines {
		total += l.Price.Mul(l.Quantity)
	}
	return total
}

func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

func (s State) Empty() bool { return len(s.Lines) == 0 }

func (s State) index(productID string) int {
	for i, l := range s.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	return State{Lines: lines}
}

type Action interface {
	isAction()
}

// AddItem adds one unit of a product, or one more unit of an existing line
// up to its cap. The snapshot fields are refreshed from the action.
type AddItem struct {
	ProductID string
	Name      string
	Price     domain.Money
	Image     string
	Stock     int
}

// UpdateQuantity sets a line's quantity, clamped to [0, cap]. Zero removes it.
type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

type RemoveItem struct {
	ProductID string
}

type Clear struct{}

// Load replaces the state with previously persisted lines.
type Load struct {
	Lines []Line
}

func (AddItem) isAction()        {}
func (UpdateQuantity) isAction() {}
func (RemoveItem) isAction()     {}
func (Clear) isAction()          {}
func (Load) isAction()           {}

// Reduce returns the state after applying a. The input state is not modified.
func Reduce(s State, a Action) State {
	next := s.clone()
	switch act := a.(type) {
	case AddItem:
		if act.ProductID == "" {
			return next
		}
		limit := lineCap(act.Stock)
		i := next.index(act.ProductID)
		if i < 0 {
			if limit < 1 {
				return next
			}
			next.Lines = append(next.Lines, Line{
				ProductID: act.ProductID,
				Name:      act.Name,
				Price:     act.Price,
				Image:     act.Image,
				Stock:     act.Stock,
				Quantity:  1,
			})
			return next
		}
		l := &next.Lines[i]
		l.Name, l.Price, l.Image, l.Stock = act.Name, act.Price, act.Image, act.Stock
		l.Quantity = min(l.Quantity+1, limit)
		if l.Quantity < 1 {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
		}

	case UpdateQuantity:
		i := next.index(act.ProductID)
		if i < 0 {
			return next
		}
		q := max(0, min(act.Quantity, next.Lines[i].limit()))
		if q == 0 {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
			return next
		}
		next.Lines[i].Quantity = q

	case RemoveItem:
		if i := next.index(act.ProductID); i >= 0 {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
		}

	case Clear:
		next.Lines = nil

	case Load:
		next.Lines = sanitize(act.Lines)
	}
	return next
}

// sanitize drops unusable persisted lines, merges duplicates and clamps
// quantities to their caps.
func sanitize(lines []Line) []Line {
	out := State{}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 || l.Price < 0 {
			continue
		}
		if i := out.index(l.ProductID); i >= 0 {
			out.Lines[i].Quantity += l.Quantity
			continue
		}
		out.Lines = append(out.Lines, l)
	}
	kept := out.Lines[:0]
	for _, l := range out.Lines {
		l.Quantity = min(l.Quantity, l.limit())
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
