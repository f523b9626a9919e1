package service

import (
	"testing"

	"printshop/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"forward one step", model.OrderStatusNew, model.OrderStatusQuoteRequested, true},
		{"skip stages forward", model.OrderStatusNew, model.OrderStatusConfirmed, true},
		{"pending behaves like new", model.OrderStatusPending, model.OrderStatusInProduction, true},
		{"backwards rejected", model.OrderStatusInProduction, model.OrderStatusConfirmed, false},
		{"same status rejected", model.OrderStatusConfirmed, model.OrderStatusConfirmed, false},
		{"pickup and delivery share a rank", model.OrderStatusReadyForPickup, model.OrderStatusReadyForDelivery, false},
		{"delivery to pickup also rejected", model.OrderStatusReadyForDelivery, model.OrderStatusReadyForPickup, false},
		{"quality check to pickup", model.OrderStatusQualityCheck, model.OrderStatusReadyForPickup, true},
		{"cancel from production", model.OrderStatusInProduction, model.OrderStatusCancelled, true},
		{"cancel after delivery rejected", model.OrderStatusDelivered, model.OrderStatusCancelled, false},
		{"cancel completed rejected", model.OrderStatusCompleted, model.OrderStatusCancelled, false},
		{"double cancel rejected", model.OrderStatusCancelled, model.OrderStatusCancelled, false},
		{"nothing moves out of cancelled", model.OrderStatusCancelled, model.OrderStatusConfirmed, false},
		{"unknown target rejected", model.OrderStatusNew, "Archived", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(model.OrderStatusNew))
	assert.True(t, ValidStatus(model.OrderStatusCancelled))
	assert.True(t, ValidStatus(model.OrderStatusReadyForDelivery))
	assert.False(t, ValidStatus("Archived"))
	assert.False(t, ValidStatus(""))
}

func TestIsEarlyStatus(t *testing.T) {
	assert.True(t, IsEarlyStatus(model.OrderStatusNew))
	assert.True(t, IsEarlyStatus(model.OrderStatusPending))
	assert.True(t, IsEarlyStatus(model.OrderStatusConfirmed))
	assert.False(t, IsEarlyStatus(model.OrderStatusInProduction))
	assert.False(t, IsEarlyStatus(model.OrderStatusCancelled))
}
