package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found. Absent cart
	// IDs are reported with this, never with a hard failure: dependent
	// components treat it as "cart expired or invalid".
	ErrNotFound = errors.New("not found")

	// ErrCartEmpty indicates a cart exists but holds no items, which blocks
	// checkout line compilation.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrDuplicateExternal indicates an external item with the same feed ID
	// is already held in the cart.
	ErrDuplicateExternal = errors.New("external item already in cart")

	// ErrConflict indicates the platform rejected a create because the
	// resource already exists. Provisioning re-queries on this instead of
	// failing.
	ErrConflict = errors.New("resource conflict")
)
