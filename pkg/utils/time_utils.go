// utils/timeutil.go
package utils

import "time"

// Layout product records use for their createdAt string field.
const ISOLayout = "2006-01-02T15:04:05"

func NowUTC() time.Time { return time.Now().UTC() }

// FromUnixSeconds converts a Stripe epoch value to UTC.
// Returns zero time if t<=0 to let callers decide how to render.
func FromUnixSeconds(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0).UTC()
}

// FromUnixSecondsPtr is FromUnixSeconds for nullable fields.
func FromUnixSecondsPtr(t int64) *time.Time {
	if t <= 0 {
		return nil
	}
	v := FromUnixSeconds(t)
	return &v
}

func FormatISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ISOLayout)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseISO reads the ISO-8601 forms other writers leave in the store.
// Values without an offset are taken as UTC.
func ParseISO(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
