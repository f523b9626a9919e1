package service

import "printshop/internal/model"

// statusRank orders the happy path. A transition is legal when it moves
// strictly forward along this ranking (skipping stages is allowed — staff
// regularly jump e.g. New straight to Confirmed), or when it enters
// Cancelled from any state that still permits cancellation.
// Ready_for_Pickup and Ready_for_Delivery share a rank: an order takes
// one branch or the other, never both.
var statusRank = map[string]int{
	model.OrderStatusNew:              0,
	model.OrderStatusPending:          0,
	model.OrderStatusQuoteRequested:   1,
	model.OrderStatusQuoteSent:        2,
	model.OrderStatusQuoteApproved:    3,
	model.OrderStatusConfirmed:        4,
	model.OrderStatusInProduction:     5,
	model.OrderStatusQualityCheck:     6,
	model.OrderStatusReadyForPickup:   7,
	model.OrderStatusReadyForDelivery: 7,
	model.OrderStatusOutForDelivery:   8,
	model.OrderStatusDelivered:        9,
	model.OrderStatusCompleted:        10,
}

// ValidStatus reports whether s names a known order status.
func ValidStatus(s string) bool {
	if s == model.OrderStatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanCancel reports whether an order in the given status may still be
// cancelled. Delivered and Completed orders are past the point of no
// return, and cancelling twice is rejected.
func CanCancel(status string) bool {
	switch status {
	case model.OrderStatusDelivered, model.OrderStatusCompleted, model.OrderStatusCancelled:
		return false
	}
	return true
}

// CanTransition validates a status change request.
func CanTransition(from, to string) bool {
	if to == model.OrderStatusCancelled {
		return CanCancel(from)
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false // from a terminal state nothing moves
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// IsEarlyStatus marks the states in which an order has not yet consumed
// materials and may be hard-deleted by an admin.
func IsEarlyStatus(status string) bool {
	switch status {
	case model.OrderStatusNew, model.OrderStatusPending, model.OrderStatusConfirmed:
		return true
	}
	return false
}
