package booking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBookingCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewBookingCode()
		assert.True(t, strings.HasPrefix(code, "FH-"))
		assert.Len(t, code, 11)
		assert.Equal(t, strings.ToUpper(code), code)
		assert.False(t, seen[code], "codes must not repeat")
		seen[code] = true
	}
}
