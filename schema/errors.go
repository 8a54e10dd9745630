package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrGroupNotFound indicates a requested group could not be found.
	ErrGroupNotFound = errors.New("group not found")
	// ErrWindowMismatch indicates tabs and target group live in different windows.
	ErrWindowMismatch = errors.New("tab is in a different window")
	// ErrNoTabs indicates an operation was given no tabs.
	ErrNoTabs = errors.New("no tabs")
	// ErrInvalidColor indicates a color outside the palette.
	ErrInvalidColor = errors.New("invalid color")
)
