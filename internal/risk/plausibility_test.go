package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sentinel = 100000.0

// TestPlausibleEquity_NormalSample accepts an ordinary reading.
func TestPlausibleEquity_NormalSample(t *testing.T) {
	assert.True(t, PlausibleEquity(4923.17, 5000, sentinel))
}

// TestPlausibleEquity_MockSentinel rejects the nominal demo balance on an
// account whose initial balance differs.
func TestPlausibleEquity_MockSentinel(t *testing.T) {
	assert.False(t, PlausibleEquity(sentinel, 5000, sentinel))
}

// TestPlausibleEquity_SentinelSizedAccount accepts the sentinel value when the
// account genuinely started at that balance.
func TestPlausibleEquity_SentinelSizedAccount(t *testing.T) {
	assert.True(t, PlausibleEquity(sentinel, sentinel, sentinel))
}

// TestPlausibleEquity_RejectsNonFinite rejects NaN and infinities.
func TestPlausibleEquity_RejectsNonFinite(t *testing.T) {
	assert.False(t, PlausibleEquity(math.NaN(), 5000, sentinel))
	assert.False(t, PlausibleEquity(math.Inf(1), 5000, sentinel))
	assert.False(t, PlausibleEquity(math.Inf(-1), 5000, sentinel))
}

// TestPlausibleEquity_RejectsNegative rejects negative equity readings.
func TestPlausibleEquity_RejectsNegative(t *testing.T) {
	assert.False(t, PlausibleEquity(-0.01, 5000, sentinel))
}

// TestPlausibleEquity_ZeroIsValid allows a fully blown account to read zero.
func TestPlausibleEquity_ZeroIsValid(t *testing.T) {
	assert.True(t, PlausibleEquity(0, 5000, sentinel))
}
