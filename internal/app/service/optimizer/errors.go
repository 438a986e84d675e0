package optimizer

import "errors"

var (
	// ErrNotFound covers a missing subscription or one owned by another user.
	ErrNotFound = errors.New("subscription not found")
	// ErrUnpricedDowngrade marks a downgrade that cannot be priced because the
	// service has no known cheaper plan. The recommendation is omitted rather
	// than synthesized with a fabricated zero cost.
	ErrUnpricedDowngrade = errors.New("no priced downgrade plan for service")
)
