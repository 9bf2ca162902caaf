package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/recipebox-server/internal/aggregate"
	"github.com/dtroode/recipebox-server/internal/lock"
	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/metrics"
	"github.com/dtroode/recipebox-server/internal/model"
)

// DefaultMaxAttempts bounds the reload-and-retry loop on version conflicts.
const DefaultMaxAttempts = 5

// Pages runs the aggregate operations of one account: load, mutate a clone, save.
type Pages struct {
	accountStore model.AccountStore
	locks        *lock.Keyed
	maxAttempts  int
	logger       *logger.Logger
}

func NewPages(accountStore model.AccountStore, maxAttempts int, logger *logger.Logger) *Pages {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Pages{
		accountStore: accountStore,
		locks:        lock.NewKeyed(),
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// Dashboard returns every page of the account.
func (s *Pages) Dashboard(ctx context.Context, userID uuid.UUID) ([]model.Page, error) {
	account, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return account.Pages, nil
}

// GetPage returns a single page of the account.
func (s *Pages) GetPage(ctx context.Context, userID uuid.UUID, pageID string) (model.Page, error) {
	account, err := s.load(ctx, userID)
	if err != nil {
		return model.Page{}, err
	}

	idx, err := aggregate.FindPage(&account, pageID)
	if err != nil {
		return model.Page{}, err
	}
	return account.Pages[idx], nil
}

// ListUnitConverters returns the converters of a page.
func (s *Pages) ListUnitConverters(ctx context.Context, userID uuid.UUID, pageID string) ([]model.UnitConverter, error) {
	page, err := s.GetPage(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	return page.UnitConverters, nil
}

func (s *Pages) AddPage(ctx context.Context, userID uuid.UUID, in aggregate.PageInput) (model.Page, []model.Page, error) {
	var (
		page  model.Page
		pages []model.Page
	)
	err := s.mutate(ctx, userID, "add_page", func(account *model.Account) (err error) {
		page, pages, err = aggregate.AddPage(account, in)
		return err
	})
	return page, pages, err
}

func (s *Pages) DeletePage(ctx context.Context, userID uuid.UUID, pageID string) ([]model.Page, error) {
	var pages []model.Page
	err := s.mutate(ctx, userID, "delete_page", func(account *model.Account) (err error) {
		pages, err = aggregate.DeletePage(account, pageID)
		return err
	})
	return pages, err
}

func (s *Pages) AddTimer(ctx context.Context, userID uuid.UUID, in aggregate.TimerInput) ([]model.Timer, error) {
	var timers []model.Timer
	err := s.mutate(ctx, userID, "add_timer", func(account *model.Account) (err error) {
		timers, err = aggregate.AddTimer(account, in)
		return err
	})
	return timers, err
}

// DeleteTimer removes a timer. An empty pageID searches every page.
func (s *Pages) DeleteTimer(ctx context.Context, userID uuid.UUID, pageID, timerID string) ([]model.Timer, error) {
	var timers []model.Timer
	err := s.mutate(ctx, userID, "delete_timer", func(account *model.Account) (err error) {
		timers, err = aggregate.DeleteTimer(account, pageID, timerID)
		return err
	})
	return timers, err
}

func (s *Pages) AddUnitConverter(ctx context.Context, userID uuid.UUID, pageID string, in aggregate.ConverterInput) ([]model.UnitConverter, error) {
	var converters []model.UnitConverter
	err := s.mutate(ctx, userID, "add_unit_converter", func(account *model.Account) (err error) {
		converters, err = aggregate.AddUnitConverter(account, pageID, in)
		return err
	})
	return converters, err
}

func (s *Pages) UpdateUnitConverter(ctx context.Context, userID uuid.UUID, pageID, converterID string, in aggregate.ConverterInput) ([]model.UnitConverter, error) {
	var converters []model.UnitConverter
	err := s.mutate(ctx, userID, "update_unit_converter", func(account *model.Account) (err error) {
		converters, err = aggregate.UpdateUnitConverter(account, pageID, converterID, in)
		return err
	})
	return converters, err
}

func (s *Pages) DeleteUnitConverter(ctx context.Context, userID uuid.UUID, pageID, converterID string) ([]model.UnitConverter, error) {
	var converters []model.UnitConverter
	err := s.mutate(ctx, userID, "delete_unit_converter", func(account *model.Account) (err error) {
		converters, err = aggregate.DeleteUnitConverter(account, pageID, converterID)
		return err
	})
	return converters, err
}

func (s *Pages) load(ctx context.Context, userID uuid.UUID) (model.Account, error) {
	account, err := s.accountStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, err
		}
		s.logger.Error("Pages service: failed to load account",
			"user_id", userID,
			"error", err.Error())
		return model.Account{}, &model.PersistenceError{Op: "load account", Err: err}
	}
	return account, nil
}

// mutate applies op to a clone of the stored account and saves the whole aggregate.
// Writers of one account are serialised in-process; a version conflict with another
// process reloads and replays op, up to maxAttempts times.
func (s *Pages) mutate(ctx context.Context, userID uuid.UUID, opName string, op func(*model.Account) error) error {
	s.logger.Debug("Pages service: starting mutation",
		"op", opName,
		"user_id", userID)

	unlock := s.locks.Lock(userID.String())
	defer unlock()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		stored, err := s.load(ctx, userID)
		if err != nil {
			metrics.RecordMutation(opName, outcome(err))
			return err
		}

		account := stored.Clone()
		if err := op(&account); err != nil {
			metrics.RecordMutation(opName, outcome(err))
			s.logger.Info("Pages service: mutation rejected",
				"op", opName,
				"user_id", userID,
				"error", err.Error())
			return err
		}

		_, err = s.accountStore.Save(ctx, account)
		if err == nil {
			metrics.RecordMutation(opName, metrics.OutcomeOK)
			s.logger.Info("Pages service: mutation completed successfully",
				"op", opName,
				"user_id", userID,
				"attempt", attempt)
			return nil
		}

		if errors.Is(err, model.ErrVersionConflict) && attempt < s.maxAttempts {
			metrics.RecordVersionConflict(opName)
			s.logger.Warn("Pages service: version conflict, retrying",
				"op", opName,
				"user_id", userID,
				"attempt", attempt)
			continue
		}

		metrics.RecordMutation(opName, outcome(err))
		s.logger.Error("Pages service: failed to save account",
			"op", opName,
			"user_id", userID,
			"attempt", attempt,
			"error", err.Error())
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return &model.PersistenceError{Op: "save account", Err: fmt.Errorf("%s: %w", opName, err)}
	}
}

func outcome(err error) string {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return metrics.OutcomeInvalid
	case errors.Is(err, model.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, model.ErrVersionConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
