package booking

import (
	"strings"

	"github.com/google/uuid"
)

// NewBookingCode returns a short human-readable booking code such as
// "FH-9F2C4A1B", derived from a v4 UUID so collisions are not a
// practical concern at booking volumes.
func NewBookingCode() string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "FH-" + s[:8]
}
