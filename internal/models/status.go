package models

import "fmt"

type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
)

var orderFlow = []OrderStatus{StatusNew, StatusPreparing, StatusReady, StatusCompleted}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if st.Rank() < 0 {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

// Rank is the position of s in new → preparing → ready → completed, or -1.
func (s OrderStatus) Rank() int {
	for i, st := range orderFlow {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted
}

func (s OrderStatus) Active() bool {
	return s.Rank() >= 0 && !s.Terminal()
}
