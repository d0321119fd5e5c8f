package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	// ErrorServiceNotReady is returned when an optional backing service (redis, pubsub,
	// cloud storage) has not been connected.
	ErrorServiceNotReady = errors.New("service not ready")
)
