package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to paid", StatusPending, StatusPaid, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to expired", StatusPending, StatusExpired, true},
		{"pending to pending", StatusPending, StatusPending, false},
		{"paid to cancelled", StatusPaid, StatusCancelled, false},
		{"paid to expired", StatusPaid, StatusExpired, false},
		{"paid to paid", StatusPaid, StatusPaid, false},
		{"cancelled to paid", StatusCancelled, StatusPaid, false},
		{"expired to paid", StatusExpired, StatusPaid, false},
		{"cancelled to expired", StatusCancelled, StatusExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusExpired.Terminal())
}
