package flags

import (
	"fmt"
	"time"
)

// ValidateLimit validates that limit is non-negative.
func ValidateLimit(v int) error {
	if v < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", v)
	}
	return nil
}

// ValidateDebounce validates a watch debounce delay.
func ValidateDebounce(d time.Duration) error {
	if d < 10*time.Millisecond || d > time.Minute {
		return fmt.Errorf("debounce must be between 10ms and 1m, got %s", d)
	}
	return nil
}
