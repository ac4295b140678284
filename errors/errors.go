package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrNameInUse         = fmt.Errorf("name already in use")
	ErrNotFound          = fmt.Errorf("client not found")
	ErrRecipientNotFound = fmt.Errorf("recipient not found")
	ErrInvalidName       = fmt.Errorf("invalid client name")
	ErrEmptySender       = fmt.Errorf("sender must not be empty")
	ErrInvalidLimit      = fmt.Errorf("history limit must not be negative")
	ErrInvalidRequest    = fmt.Errorf("invalid request")

	ErrDeliveryTimeout     = fmt.Errorf("delivery timeout")
	ErrDeliveryUnreachable = fmt.Errorf("client unreachable")
)
