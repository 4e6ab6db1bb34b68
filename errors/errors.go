package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUnknownDestination = fmt.Errorf("unknown destination")
	ErrUnknownSender      = fmt.Errorf("unknown sender")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrInvalidRoomID      = fmt.Errorf("invalid room id")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrAlreadyBound       = fmt.Errorf("connection already bound")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
	ErrEmptyContent       = fmt.Errorf("message content cannot be empty")
)
