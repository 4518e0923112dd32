package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire form of a calendar day.
const DateLayout = "2006-01-02"

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	Kind string

	// Date is a calendar day. The time part is always midnight UTC so that
	// two dates compare equal exactly when their keys do.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is the amount-bearing part of a transaction: either Income or
	// Expense. The set is closed.
	Entry interface {
		Kind() Kind
		isEntry()
	}

	// Income is money received. Cost, when present, is the cost of goods
	// tied to that income event.
	Income struct {
		Amount Money
		Cost   *Money
	}

	Expense struct {
		Amount Money
	}

	Transaction struct {
		ID          string
		Date        Date
		Category    string
		Description string
		Entry       Entry
	}
)

var (
	ErrEmptyID        = errors.New("empty transaction id")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidKind    = errors.New("invalid transaction type")
	ErrMissingEntry   = errors.New("transaction has no income or expense entry")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrNegativeCost   = errors.New("cost must not be negative")
	ErrInvalidAmount  = errors.New("invalid amount")
)

func (Income) Kind() Kind  { return KindIncome }
func (Expense) Kind() Kind { return KindExpense }
func (Income) isEntry()    {}
func (Expense) isEntry()   {}

// ParseKind accepts "income" or "expense", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindExpense:
		return KindExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// NewDate creates a new Date from year, month, day. Out-of-range values are
// normalised the way time.Date does (e.g. day 0 is the last day of the
// previous month).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD day key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Key returns the YYYY-MM-DD form used for bucketing.
func (d Date) Key() string {
	return d.Format(DateLayout)
}

func (d Date) String() string {
	return d.Key()
}

// MarshalText writes the day key instead of a timestamp.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Key()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Key() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	return d.UnmarshalText([]byte(s))
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// NewIncome builds an income transaction. A nil cost means "no cost recorded".
func NewIncome(id string, date Date, amount Money, cost *Money, category, description string) Transaction {
	return Transaction{
		ID:          id,
		Date:        date,
		Category:    category,
		Description: description,
		Entry:       Income{Amount: amount, Cost: cost},
	}
}

func NewExpense(id string, date Date, amount Money, category, description string) Transaction {
	return Transaction{
		ID:          id,
		Date:        date,
		Category:    category,
		Description: description,
		Entry:       Expense{Amount: amount},
	}
}

// Kind returns the variant of the transaction, or "" when it has no entry.
func (t Transaction) Kind() Kind {
	if t.Entry == nil {
		return ""
	}
	return t.Entry.Kind()
}

// Amount returns the non-negative amount of either variant.
func (t Transaction) Amount() Money {
	switch e := t.Entry.(type) {
	case Income:
		return e.Amount
	case Expense:
		return e.Amount
	}
	return Money{}
}

// Cost returns the cost attached to an income transaction, if any.
func (t Transaction) Cost() (Money, bool) {
	if in, ok := t.Entry.(Income); ok && in.Cost != nil {
		return *in.Cost, true
	}
	return Money{}, false
}

// WithID returns a copy of t carrying the given id.
func (t Transaction) WithID(id string) Transaction {
	t.ID = id
	return t
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	switch e := t.Entry.(type) {
	case Income:
		if err := e.Amount.Validate(); err != nil {
			return err
		}
		if e.Cost != nil && e.Cost.Cents < 0 {
			return ErrNegativeCost
		}
	case Expense:
		if err := e.Amount.Validate(); err != nil {
			return err
		}
	default:
		return ErrMissingEntry
	}
	return nil
}
