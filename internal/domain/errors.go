package domain

import "errors"

// Sentinel errors returned by repository implementations so services can map
// store-level outcomes without knowing the backing engine.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail indicates the store's unique constraint on email fired.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNoCopiesAvailable indicates a borrow raced past the last available copy.
	ErrNoCopiesAvailable = errors.New("no copies available")
	// ErrAlreadyReturned indicates a return on a record that is not BORROWED.
	ErrAlreadyReturned = errors.New("record already returned")
)
