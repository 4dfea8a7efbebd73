package shardlog

import (
	"fmt"
	"io"
	"os"
	"reflect"
)

func errUnknownLevel(level string) error {
	return fmt.Errorf("no matching log level found %q", level)
}

// GetPointer does the same as fmt.Sprintf("%p", v) but without formatting.
func GetPointer(value any) uint {
	ptr := reflect.ValueOf(value).Pointer()
	return uint(ptr)
}

// newWriter opens filepath in append mode, or returns stdout for an empty path.
func newWriter(filepath string) (*os.File, io.Writer, error) {
	if filepath == "" {
		return nil, os.Stdout, nil
	}
	f, err := os.OpenFile(filepath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
