package entity

import "errors"

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrTransport      = errors.New("transport failure")
	ErrJobNotFound    = errors.New("preview job not found")
)
