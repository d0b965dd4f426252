package session

import "errors"

var (
	// ErrTicketInvalid is returned by transports and codecs when a stored
	// ticket cannot be decoded or fails verification.
	ErrTicketInvalid = errors.New("invalid session ticket")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
