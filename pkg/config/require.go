package config

import (
	"fmt"
	"strings"
)

// Required collects the names of required settings that are empty.
type Required struct {
	missing []string
}

func (r *Required) String(value, envName string) {
	if value == "" {
		r.missing = append(r.missing, envName)
	}
}

func (r *Required) Bytes(value []byte, envName string) {
	if len(value) == 0 {
		r.missing = append(r.missing, envName)
	}
}

func (r *Required) Err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required env %s", strings.Join(r.missing, ", "))
}
