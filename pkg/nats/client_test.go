package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDurableReplacesSubjectWildcards(t *testing.T) {
	assert.Equal(t, "events-orders-BTCUSDT", sanitizeDurable("events.orders.BTCUSDT"))
	assert.Equal(t, "events--", sanitizeDurable("events.*"))
	assert.Equal(t, "events--", sanitizeDurable("events.>"))
	assert.Equal(t, "plain", sanitizeDurable("plain"))
}
