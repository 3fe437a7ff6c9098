package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"studynotes-dashboard/internal/services"
)

// describe turns service errors into one line for the terminal.
func describe(err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+verr.Fields[k])
		}
		return fmt.Errorf("invalid input: %s", strings.Join(parts, "; "))
	}
	return err
}
