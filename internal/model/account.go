package model

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// AccountStore persists Account aggregates. Every write replaces the whole aggregate.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	// Save writes the aggregate if the stored version still equals account.Version.
	// It returns ErrVersionConflict otherwise and the saved account with the bumped version on success.
	Save(ctx context.Context, account Account) (Account, error)
	Ping(ctx context.Context) error
}

// Account is the aggregate root: one user with all of their recipe pages.
type Account struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Pages        []Page
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Page is a named grouping (usually one recipe) owning timers and unit converters.
type Page struct {
	ID             string          `json:"_id"`
	Label          string          `json:"label"`
	Timers         []Timer         `json:"timers"`
	UnitConverters []UnitConverter `json:"unitConverters"`
}

// TimerStatus enumerates timer states.
type TimerStatus string

const (
	// TimerStatusActive is assigned at creation and never changed.
	TimerStatusActive TimerStatus = "active"
)

// Timer is a labelled cooking timer.
type Timer struct {
	ID       string      `json:"_id"`
	Label    string      `json:"label"`
	Duration int64       `json:"duration"`
	Status   TimerStatus `json:"status"`
}

// UnitConverter converts FromUnit to ToUnit by multiplying with ConversionFactor.
type UnitConverter struct {
	ID               string  `json:"_id"`
	Category         string  `json:"category"`
	FromUnit         string  `json:"fromUnit"`
	ToUnit           string  `json:"toUnit"`
	ConversionFactor float64 `json:"conversionFactor"`
}

// UserSummary is the public view of an account.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public view of the account.
func (a Account) Summary() UserSummary {
	return UserSummary{ID: a.ID.String(), Username: a.Username}
}

// Clone returns a deep copy of the account, so mutating the copy never touches the original.
func (a Account) Clone() Account {
	out := a
	out.Pages = ClonePages(a.Pages)
	return out
}

// ClonePages deep-copies a page sequence. Nil stays nil-free: the result is always non-nil.
func ClonePages(pages []Page) []Page {
	out := make([]Page, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := p
	out.Timers = slices.Clone(p.Timers)
	if out.Timers == nil {
		out.Timers = []Timer{}
	}
	out.UnitConverters = slices.Clone(p.UnitConverters)
	if out.UnitConverters == nil {
		out.UnitConverters = []UnitConverter{}
	}
	return out
}
