package service

import (
	"testing"

	"printshop/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestApplyWorkload(t *testing.T) {
	tests := []struct {
		name          string
		start         model.Employee
		action        string
		wantAssigned  int
		wantActive    int
		wantCompleted int
		wantAvail     string
	}{
		{
			name:         "assign from idle",
			start:        model.Employee{},
			action:       model.WorkloadAssign,
			wantAssigned: 1, wantActive: 1,
			wantAvail: model.AvailabilityBusy,
		},
		{
			name:          "complete releases the employee",
			start:         model.Employee{AssignedOrders: 1, ActiveOrders: 1},
			action:        model.WorkloadComplete,
			wantAssigned:  1,
			wantActive:    0,
			wantCompleted: 1,
			wantAvail:     model.AvailabilityAvailable,
		},
		{
			name:          "complete with no active work still counts",
			start:         model.Employee{CompletedOrders: 4},
			action:        model.WorkloadComplete,
			wantCompleted: 5,
			wantAvail:     model.AvailabilityAvailable,
		},
		{
			name:      "unassign floors at zero",
			start:     model.Employee{},
			action:    model.WorkloadUnassign,
			wantAvail: model.AvailabilityAvailable,
		},
		{
			name:         "busy while other orders remain",
			start:        model.Employee{AssignedOrders: 3, ActiveOrders: 2},
			action:       model.WorkloadUnassign,
			wantAssigned: 2,
			wantActive:   1,
			wantAvail:    model.AvailabilityBusy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			employee := tt.start
			ApplyWorkload(&employee, tt.action)
			assert.Equal(t, tt.wantAssigned, employee.AssignedOrders)
			assert.Equal(t, tt.wantActive, employee.ActiveOrders)
			assert.Equal(t, tt.wantCompleted, employee.CompletedOrders)
			assert.Equal(t, tt.wantAvail, employee.Availability)
		})
	}
}

func TestApplyWorkload_AssignCompleteRoundTrip(t *testing.T) {
	var employee model.Employee
	ApplyWorkload(&employee, model.WorkloadAssign)
	ApplyWorkload(&employee, model.WorkloadAssign)
	ApplyWorkload(&employee, model.WorkloadComplete)
	ApplyWorkload(&employee, model.WorkloadComplete)

	assert.Equal(t, 2, employee.AssignedOrders)
	assert.Equal(t, 0, employee.ActiveOrders)
	assert.Equal(t, 2, employee.CompletedOrders)
	assert.Equal(t, model.AvailabilityAvailable, employee.Availability)
}
