package util

import "fmt"

// ResponseError is the gateway-side error carrying the HTTP status to respond with.
type ResponseError struct {
	Msg    string
	Status int
}

func (e ResponseError) Error() string { return e.Msg }

func NewResponseError(status int, format string, args ...interface{}) error {
	return ResponseError{
		Msg:    fmt.Sprintf(format, args...),
		Status: status,
	}
}
