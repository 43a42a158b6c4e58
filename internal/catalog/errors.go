package catalog

import (
	"errors"
	"fmt"
)

var errEmptyKey = errors.New("stat key is required")

func duplicateKeyError(key StatKey) error {
	return fmt.Errorf("duplicate stat key %q", key)
}
