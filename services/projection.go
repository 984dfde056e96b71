package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/queless/trinity-canteen-api/models"
)

// OrderView is the slice of an order a student's live view cares about.
type OrderView struct {
	OrderID     uint   `json:"order_id"`
	TokenNumber int    `json:"token_number"`
	Status      string `json:"status"`
	Total       int    `json:"total"`
}

// Notification tells a student their order is ready for collection.
type Notification struct {
	TokenNumber int    `json:"token_number"`
	Message     string `json:"message"`
}

// StudentProjection maintains one student's live view of the order ledger
// for the duration of a client session (one open event stream). It splits
// the student's orders into pending and served partitions and remembers
// which token numbers it has already raised a ready notification for, so a
// served transition notifies at most once no matter how many change events
// arrive for it. The notified set dies with the stream; it is never
// persisted.
type StudentProjection struct {
	studentID uint

	mu        sync.Mutex
	orders    map[uint]*OrderView
	notified  map[int]struct{}
	dismissed map[uint]struct{}
}

// NewStudentProjection creates a projection for the given student
func NewStudentProjection(studentID uint) *StudentProjection {
	return &StudentProjection{
		studentID: studentID,
		orders:    make(map[uint]*OrderView),
		notified:  make(map[int]struct{}),
		dismissed: make(map[uint]struct{}),
	}
}

// Seed loads the student's existing orders into the projection, marking
// already-served tokens as notified so reconnecting doesn't replay old
// ready notifications.
func (p *StudentProjection) Seed(orders []models.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range orders {
		o := &orders[i]
		if o.StudentID != p.studentID {
			continue
		}
		p.orders[o.ID] = &OrderView{
			OrderID:     o.ID,
			TokenNumber: o.TokenNumber,
			Status:      o.Status,
			Total:       o.Total(),
		}
		if o.Status == models.OrderStatusServed {
			p.notified[o.TokenNumber] = struct{}{}
			p.dismissed[o.ID] = struct{}{}
		}
	}
}

// Apply folds one change event into the projection. It returns a
// notification exactly once per distinct token number reaching served;
// duplicate events for the same transition return nil.
func (p *StudentProjection) Apply(e Event) *Notification {
	order, ok := e.Data.(models.Order)
	if !ok {
		return nil
	}
	if order.StudentID != p.studentID {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case EventOrderCreated:
		p.orders[order.ID] = &OrderView{
			OrderID:     order.ID,
			TokenNumber: order.TokenNumber,
			Status:      order.Status,
			Total:       order.Total(),
		}

	case EventOrderServed:
		view, exists := p.orders[order.ID]
		if !exists {
			view = &OrderView{
				OrderID:     order.ID,
				TokenNumber: order.TokenNumber,
				Total:       order.Total(),
			}
			p.orders[order.ID] = view
		}
		view.Status = models.OrderStatusServed

		if _, already := p.notified[order.TokenNumber]; !already {
			p.notified[order.TokenNumber] = struct{}{}
			return &Notification{
				TokenNumber: order.TokenNumber,
				Message:     fmt.Sprintf("Your order with token #%d is ready! Please collect it.", order.TokenNumber),
			}
		}
	}

	return nil
}

// Pending returns the student's active queue presentation, lowest token
// first. A just-served order stays here until the student dismisses its
// ready notification.
func (p *StudentProjection) Pending() []OrderView {
	return p.filter(func(v *OrderView) bool {
		if v.Status != models.OrderStatusServed {
			return true
		}
		_, dismissed := p.dismissed[v.OrderID]
		return !dismissed
	})
}

// Served returns the student's order history (all served orders), lowest
// token first.
func (p *StudentProjection) Served() []OrderView {
	return p.filter(func(v *OrderView) bool { return v.Status == models.OrderStatusServed })
}

// Dismiss acknowledges ready notifications: served orders leave the pending
// presentation. This is cosmetic only, the stored order records and the
// served history are untouched.
func (p *StudentProjection) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, view := range p.orders {
		if view.Status == models.OrderStatusServed {
			p.dismissed[id] = struct{}{}
		}
	}
}

func (p *StudentProjection) filter(keep func(*OrderView) bool) []OrderView {
	p.mu.Lock()
	defer p.mu.Unlock()

	var views []OrderView
	for _, view := range p.orders {
		if keep(view) {
			views = append(views, *view)
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].TokenNumber < views[j].TokenNumber })
	return views
}
