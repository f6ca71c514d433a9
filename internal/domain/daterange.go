package domain

import (
	"strings"
	"time"

	pkgvalidator "taskdesk/internal/pkg/validator"
)

const DateLayout = "2006-01-02"

// ParseDateRange turns inclusive YYYY-MM-DD bounds, read in loc, into the half-open
// [from, to) range the repositories filter on. Empty bounds stay nil.
func ParseDateRange(start, end string, loc *time.Location) (from, to *time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	if s := strings.TrimSpace(start); s != "" {
		d, perr := time.ParseInLocation(DateLayout, s, loc)
		if perr != nil {
			return nil, nil, pkgvalidator.Field("start_date", "datetime")
		}
		from = &d
	}
	if s := strings.TrimSpace(end); s != "" {
		d, perr := time.ParseInLocation(DateLayout, s, loc)
		if perr != nil {
			return nil, nil, pkgvalidator.Field("end_date", "datetime")
		}
		next := d.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}
