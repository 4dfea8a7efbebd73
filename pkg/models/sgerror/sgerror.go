package sgerror

import (
	"errors"
	"fmt"
)

const (
	SG_UNEXPECTED       = "SGU"
	SG_CONFIGURATION    = "SGC"
	SG_ROUTING_ERROR    = "SGR"
	SG_UNSUPPORTED      = "SGX"
	SG_EXECUTION        = "SGE"
	SG_NO_DATASHARD     = "SGD"
	SG_INVALID_REQUEST  = "SGI"
	SG_SEQUENCE_ERROR   = "SGS"
	SG_CONNECTION_ERROR = "SGO"
)

var existingErrorCodeMap = map[string]string{
	SG_CONFIGURATION:    "Configuration error",
	SG_ROUTING_ERROR:    "Routing error",
	SG_UNSUPPORTED:      "Unsupported operation",
	SG_EXECUTION:        "Execution error",
	SG_NO_DATASHARD:     "failed to match any datashard",
	SG_INVALID_REQUEST:  "Invalid request",
	SG_SEQUENCE_ERROR:   "Sequence error",
	SG_CONNECTION_ERROR: "Connection error",
}

func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &ShardError{}

type ShardError struct {
	Err error

	ErrorCode string
}

func New(errorCode string, msg string) *ShardError {
	return &ShardError{
		Err:       errors.New(msg),
		ErrorCode: errorCode,
	}
}

func Newf(errorCode string, format string, a ...any) *ShardError {
	return &ShardError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

func NewByCode(errorCode string) *ShardError {
	return &ShardError{
		Err:       errors.New(GetMessageByCode(errorCode)),
		ErrorCode: errorCode,
	}
}

// Wrap attaches a code to an error coming from a collaborator (driver, pool, etcd).
func Wrap(errorCode string, err error) error {
	if err == nil {
		return nil
	}
	return &ShardError{
		Err:       err,
		ErrorCode: errorCode,
	}
}

func (er *ShardError) Error() string {
	return fmt.Sprintf("Code: %s. Name: %s. Description: %s.",
		er.ErrorCode, GetMessageByCode(er.ErrorCode), er.Err)
}

func (er *ShardError) Unwrap() error {
	return er.Err
}

// Is reports whether any error in err's chain is a ShardError with the given code.
func Is(err error, errorCode string) bool {
	var se *ShardError
	for err != nil {
		if !errors.As(err, &se) {
			return false
		}
		if se.ErrorCode == errorCode {
			return true
		}
		err = se.Err
	}
	return false
}
