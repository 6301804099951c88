package pjrt

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// NamedValuesMap map names to option values passed to platforms when creating a client.
// Supported value types are string, int64, []int64, float32 and bool.
type NamedValuesMap map[string]any

// Validate checks that all values are of supported types.
func (m NamedValuesMap) Validate() error {
	for key, value := range m {
		switch value.(type) {
		case string, int64, []int64, float32, bool:
		default:
			return errors.Errorf("NamedValuesMap[%q] has unsupported type %T", key, value)
		}
	}
	return nil
}

// String implements fmt.Stringer, with keys sorted.
func (m NamedValuesMap) String() string {
	parts := make([]string, 0, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, m[key]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
