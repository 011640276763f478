// Package values — общие типы полей журналов: календарная дата и количество/сумма.
package values

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Date календарная дата без времени (UTC, полночь).
type Date struct{ time.Time }

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf отрезает время и зону.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate принимает "YYYY-MM-DD", а также "YYYY-MM-DD HH:MM:SS" и RFC3339,
// которые встречаются в старых выгрузках.
func ParseDate(field, raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, apperr.Validation(field, "date is required")
	}
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, apperr.Validation(field, "invalid date %q, use YYYY-MM-DD", raw)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey ключ вида "2024-01".
func (d Date) MonthKey() string { return d.Format("2006-01") }

func (d Date) Compare(o Date) int { return d.Time.Compare(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate("date", s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseAmount разбирает количество или цену, запятая допускается как разделитель.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return decimal.Zero, apperr.Validation(field, "value is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation(field, "invalid number %q", raw)
	}
	return d, nil
}

// MustDate для констант и тестов.
func MustDate(raw string) Date {
	d, err := ParseDate("date", raw)
	if err != nil {
		panic(err)
	}
	return d
}
