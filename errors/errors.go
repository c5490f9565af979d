package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrUnknownFrameType = fmt.Errorf("unknown frame type")
	ErrBlankMessage     = fmt.Errorf("message body is blank")
)
