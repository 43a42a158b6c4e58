// internal/mapping/coerce.go
package mapping

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
)

// FieldError describes a value that could not be converted to its stat type.
type FieldError struct {
	Key    catalog.StatKey `json:"key"`
	Value  any             `json:"value"`
	Reason string          `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2, 2006",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Coerce converts record values to their catalog types: int to int64,
// float and pct to float64 (pct as a fraction), date to time.Time and
// string to trimmed string. Blank values are left out. Values that fail to
// convert are reported and omitted; the rest of the record is kept.
func Coerce(record Record, c *catalog.Catalog) (Record, []FieldError) {
	if c == nil {
		c = catalog.Default()
	}

	out := make(Record, len(record))
	var errs []FieldError
	for key, value := range record {
		stat, ok := c.Lookup(key)
		if !ok {
			errs = append(errs, FieldError{Key: key, Value: value, Reason: "is not a catalog stat"})
			continue
		}
		if isBlank(value) {
			continue
		}

		converted, err := coerceValue(stat.Type, value)
		if err != nil {
			errs = append(errs, FieldError{Key: key, Value: value, Reason: err.Error()})
			continue
		}
		out[key] = converted
	}
	sortFieldErrors(errs)
	return out, errs
}

func coerceValue(statType catalog.StatType, value any) (any, error) {
	switch statType {
	case catalog.TypeString:
		return strings.TrimSpace(fmt.Sprint(value)), nil
	case catalog.TypeInt:
		return toInt(value)
	case catalog.TypeFloat:
		return toFloat(value)
	case catalog.TypePct:
		return toPct(value)
	case catalog.TypeDate:
		return toDate(value)
	default:
		return nil, fmt.Errorf("has unsupported type %q", statType)
	}
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return wholeFloat(v)
	case string:
		raw := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil {
				return 0, fmt.Errorf("must be a whole number")
			}
			return wholeFloat(f)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("must be a whole number")
	}
}

// wholeFloat converts f when it is integral and fits in an int64.
// float64(math.MaxInt64) rounds up to 2^63, hence the >= bound.
func wholeFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("must be a whole number")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("must be a whole number within range")
	}
	return int64(f), nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return f, nil
	default:
		return 0, fmt.Errorf("must be a number")
	}
}

// toPct accepts ".312", "0.312" and "31.2%". Bare numbers above 1 are read
// as percentages.
func toPct(value any) (float64, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if strings.HasSuffix(s, "%") {
			f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
			if err != nil {
				return 0, fmt.Errorf("must be a percentage")
			}
			return f / 100, nil
		}
		value = s
	}
	f, err := toFloat(value)
	if err != nil {
		return 0, fmt.Errorf("must be a percentage")
	}
	if math.Abs(f) > 1 {
		return f / 100, nil
	}
	return f, nil
}

func toDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		raw := strings.TrimSpace(v)
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC(), nil
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("must be a valid date")
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func sortFieldErrors(errs []FieldError) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Key < errs[j].Key })
}
