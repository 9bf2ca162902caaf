package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dtroode/recipebox-server/internal/aggregate"
	servermocks "github.com/dtroode/recipebox-server/internal/mocks"
	"github.com/dtroode/recipebox-server/internal/model"
	"github.com/dtroode/recipebox-server/internal/repository/memory"
	"github.com/dtroode/recipebox-server/internal/testutil"
)

func newPagesWithAccount(t *testing.T) (*Pages, model.AccountStore, uuid.UUID) {
	t.Helper()

	store := memory.NewAccountStore()
	account, err := store.Create(context.Background(), model.Account{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)

	return NewPages(store, DefaultMaxAttempts, testutil.MakeNoopLogger()), store, account.ID
}

func TestPages_CakeScenario(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newPagesWithAccount(t)

	page, pages, err := s.AddPage(ctx, userID, aggregate.PageInput{Label: "Cake"})
	require.NoError(t, err)
	require.Len(t, pages, 1)

	timers, err := s.AddTimer(ctx, userID, aggregate.TimerInput{PageID: page.ID, Label: "Bake", Duration: 1800})
	require.NoError(t, err)
	require.Len(t, timers, 1)

	dashboard, err := s.Dashboard(ctx, userID)
	require.NoError(t, err)
	require.Len(t, dashboard, 1)
	assert.Equal(t, "Cake", dashboard[0].Label)
	require.Len(t, dashboard[0].Timers, 1)

	timer := dashboard[0].Timers[0]
	assert.Equal(t, "Bake", timer.Label)
	assert.Equal(t, int64(1800), timer.Duration)
	assert.Equal(t, model.TimerStatusActive, timer.Status)
}

func TestPages_UnitConverterScenario(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newPagesWithAccount(t)

	page, _, err := s.AddPage(ctx, userID, aggregate.PageInput{Label: "Cake"})
	require.NoError(t, err)

	added, err := s.AddUnitConverter(ctx, userID, page.ID, aggregate.ConverterInput{
		Category: "volume", FromUnit: "cup", ToUnit: "ml", ConversionFactor: 236.588,
	})
	require.NoError(t, err)
	require.Len(t, added, 1)

	listed, err := s.ListUnitConverters(ctx, userID, page.ID)
	require.NoError(t, err)
	assert.Equal(t, added, listed)

	updated, err := s.UpdateUnitConverter(ctx, userID, page.ID, added[0].ID, aggregate.ConverterInput{
		Category: "volume", FromUnit: "tbsp", ToUnit: "ml", ConversionFactor: 14.79,
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, added[0].ID, updated[0].ID)
	assert.Equal(t, "tbsp", updated[0].FromUnit)
	assert.InDelta(t, 14.79, updated[0].ConversionFactor, 1e-9)

	remaining, err := s.DeleteUnitConverter(ctx, userID, page.ID, added[0].ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPages_DeleteMissingTimerLeavesTimers(t *testing.T) {
	ctx := context.Background()
	s, store, userID := newPagesWithAccount(t)

	page, _, err := s.AddPage(ctx, userID, aggregate.PageInput{Label: "Bread"})
	require.NoError(t, err)
	_, err = s.AddTimer(ctx, userID, aggregate.TimerInput{PageID: page.ID, Label: "Proof", Duration: 3600})
	require.NoError(t, err)

	before, err := store.GetByID(ctx, userID)
	require.NoError(t, err)

	_, err = s.DeleteTimer(ctx, userID, "", "missing")
	require.ErrorIs(t, err, model.ErrNotFound)

	after, err := store.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, before.Pages, after.Pages)
	assert.Equal(t, before.Version, after.Version)
}

func TestPages_DeletePage(t *testing.T) {
	ctx := context.Background()
	s, _, userID := newPagesWithAccount(t)

	first, _, err := s.AddPage(ctx, userID, aggregate.PageInput{Label: "Cake"})
	require.NoError(t, err)
	_, _, err = s.AddPage(ctx, userID, aggregate.PageInput{Label: "Bread"})
	require.NoError(t, err)

	pages, err := s.DeletePage(ctx, userID, first.ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Bread", pages[0].Label)

	_, err = s.GetPage(ctx, userID, first.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestPages_UnknownAccount(t *testing.T) {
	s, _, _ := newPagesWithAccount(t)

	_, err := s.Dashboard(context.Background(), uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)

	_, _, err = s.AddPage(context.Background(), uuid.New(), aggregate.PageInput{Label: "Cake"})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestPages_ConcurrentAddTimer(t *testing.T) {
	const n = 50
	ctx := context.Background()
	s, _, userID := newPagesWithAccount(t)

	page, _, err := s.AddPage(ctx, userID, aggregate.PageInput{Label: "Cake"})
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := s.AddTimer(ctx, userID, aggregate.TimerInput{
				PageID:   page.ID,
				Label:    fmt.Sprintf("timer-%d", i),
				Duration: int64(i + 1),
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := s.GetPage(ctx, userID, page.ID)
	require.NoError(t, err)
	require.Len(t, got.Timers, n)

	ids := make(map[string]struct{}, n)
	for _, timer := range got.Timers {
		ids[timer.ID] = struct{}{}
	}
	assert.Len(t, ids, n)
}

func TestPages_ConcurrentAcrossServices(t *testing.T) {
	const n = 20
	ctx := context.Background()
	store := memory.NewAccountStore()
	account, err := store.Create(ctx, model.Account{Username: "alice"})
	require.NoError(t, err)

	// two services share a store but not a lock, like two processes
	a := NewPages(store, 100, testutil.MakeNoopLogger())
	b := NewPages(store, 100, testutil.MakeNoopLogger())

	page, _, err := a.AddPage(ctx, account.ID, aggregate.PageInput{Label: "Cake"})
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		s := a
		if i%2 == 1 {
			s = b
		}
		g.Go(func() error {
			_, err := s.AddTimer(ctx, account.ID, aggregate.TimerInput{PageID: page.ID, Label: "t", Duration: 1})
			return err
		})
	}
	require.NoError(t, g.Wait())

	got, err := a.GetPage(ctx, account.ID, page.ID)
	require.NoError(t, err)
	assert.Len(t, got.Timers, n)
}

func TestPages_Mutate_RetriesVersionConflict(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	stored := model.Account{ID: userID, Username: "alice", Version: 3, Pages: []model.Page{}}

	store := servermocks.NewAccountStore(t)
	store.On("GetByID", mock.Anything, userID).Return(stored, nil).Times(2)
	store.On("Save", mock.Anything, mock.Anything).Return(model.Account{}, model.ErrVersionConflict).Once()
	store.On("Save", mock.Anything, mock.MatchedBy(func(a model.Account) bool {
		return a.Version == 3 && len(a.Pages) == 1
	})).Return(model.Account{Version: 4}, nil).Once()

	s := NewPages(store, 3, testutil.MakeNoopLogger())
	_, pages, err := s.AddPage(ctx, userID, aggregate.PageInput{Label: "Cake"})
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestPages_Mutate_Errors(t *testing.T) {
	userID := uuid.New()
	stored := model.Account{ID: userID, Username: "alice", Version: 1, Pages: []model.Page{}}
	dbErr := errors.New("connection refused")

	tests := []struct {
		name          string
		maxAttempts   int
		mockSetup     func(*servermocks.AccountStore)
		input         aggregate.PageInput
		wantErr       error
		wantPersist   bool
		wantValidated bool
	}{
		{
			name:        "conflicts exhaust attempts",
			maxAttempts: 2,
			mockSetup: func(store *servermocks.AccountStore) {
				store.On("GetByID", mock.Anything, userID).Return(stored, nil).Times(2)
				store.On("Save", mock.Anything, mock.Anything).Return(model.Account{}, model.ErrVersionConflict).Times(2)
			},
			input:       aggregate.PageInput{Label: "Cake"},
			wantErr:     model.ErrVersionConflict,
			wantPersist: true,
		},
		{
			name:        "save failure is not retried",
			maxAttempts: 5,
			mockSetup: func(store *servermocks.AccountStore) {
				store.On("GetByID", mock.Anything, userID).Return(stored, nil).Once()
				store.On("Save", mock.Anything, mock.Anything).Return(model.Account{}, dbErr).Once()
			},
			input:       aggregate.PageInput{Label: "Cake"},
			wantErr:     dbErr,
			wantPersist: true,
		},
		{
			name:        "load failure",
			maxAttempts: 5,
			mockSetup: func(store *servermocks.AccountStore) {
				store.On("GetByID", mock.Anything, userID).Return(model.Account{}, dbErr).Once()
			},
			input:       aggregate.PageInput{Label: "Cake"},
			wantErr:     dbErr,
			wantPersist: true,
		},
		{
			name:        "validation failure skips save",
			maxAttempts: 5,
			mockSetup: func(store *servermocks.AccountStore) {
				store.On("GetByID", mock.Anything, userID).Return(stored, nil).Once()
			},
			input:         aggregate.PageInput{Label: " "},
			wantValidated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := servermocks.NewAccountStore(t)
			tt.mockSetup(store)

			s := NewPages(store, tt.maxAttempts, testutil.MakeNoopLogger())
			_, _, err := s.AddPage(context.Background(), userID, tt.input)
			require.Error(t, err)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantPersist {
				var perr *model.PersistenceError
				require.ErrorAs(t, err, &perr)
			}
			if tt.wantValidated {
				var verr *model.ValidationError
				require.ErrorAs(t, err, &verr)
			}
		})
	}
}

func TestPages_CancelledContext(t *testing.T) {
	s, _, userID := newPagesWithAccount(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.AddPage(ctx, userID, aggregate.PageInput{Label: "Cake"})
	require.ErrorIs(t, err, context.Canceled)
}
