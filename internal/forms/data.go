package forms

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/alfredjeanlab/datedvalues/internal/model"
)

// DefaultPrefix is used by a RangeFormset constructed without a prefix.
const DefaultPrefix = "form"

// Data is a flat mapping of submitted field keys to raw input.
// A missing key is the absent value and is treated like a blank string.
type Data map[string]string

// DataFromValues builds Data from a parsed form body, keeping the first
// value of each key.
func DataFromValues(v url.Values) Data {
	d := make(Data, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			d[k] = vals[0]
		}
	}
	return d
}

// FieldKey returns the key under which the value for a day offset is submitted.
func FieldKey(prefix string, offset int) string {
	return prefix + "-" + strconv.Itoa(offset) + "-value"
}

// Prefix returns the namespace for a value type's fields. The id keeps it
// unique across types that share a slug.
func Prefix(vt *model.ValueType) string {
	return fmt.Sprintf("%s_%d", vt.Slug, vt.ID)
}
