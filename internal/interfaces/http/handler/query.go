package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DateLayout is the calendar date format used by the API
const DateLayout = "2006-01-02"

// Date is a calendar day. It accepts "2006-01-02" or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		return shared.NewValidationError("Invalid date, expected YYYY-MM-DD")
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// OrToday returns the date, or today when it was omitted
func (d *Date) OrToday() time.Time {
	if d == nil || d.IsZero() {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return d.Time
}

// Ptr returns nil for an omitted date
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Query parameters are parsed leniently: a malformed value is ignored and
// the filter it would have set stays open.

func queryUUID(c *gin.Context, key string) *uuid.UUID {
	id, err := uuid.Parse(c.Query(key))
	if err != nil {
		return nil
	}
	return &id
}

func queryDate(c *gin.Context, key string) *time.Time {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	t, err := parseDate(v)
	if err != nil {
		return nil
	}
	return &t
}

// queryDateEnd is queryDate moved to the last instant of that day
func queryDateEnd(c *gin.Context, key string) *time.Time {
	t := queryDate(c, key)
	if t == nil {
		return nil
	}
	end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return &end
}

func queryMoney(c *gin.Context, key string) *valueobject.Money {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	m, err := valueobject.NewMoneyFromString(v)
	if err != nil {
		return nil
	}
	return &m
}

func queryBool(c *gin.Context, key string) *bool {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// queryFilter reads page, page_size, ordering and search. Ordering is a field
// name optionally prefixed with "-" for descending; aliases maps public names
// to storage columns and unknown names fall back to the repository default.
func queryFilter(c *gin.Context, aliases map[string]string) shared.Filter {
	f := shared.DefaultFilter()
	if p := queryInt(c, "page"); p > 0 {
		f.Page = p
	}
	if ps := queryInt(c, "page_size"); ps > 0 {
		f.PageSize = ps
	}
	if ordering := strings.TrimSpace(c.Query("ordering")); ordering != "" {
		field := strings.TrimPrefix(ordering, "-")
		if field != ordering {
			f.OrderDir = "desc"
		} else {
			f.OrderDir = "asc"
		}
		if col, ok := aliases[field]; ok {
			field = col
		}
		f.OrderBy = field
	}
	f.Search = strings.TrimSpace(c.Query("search"))
	f.Normalize()
	return f
}
