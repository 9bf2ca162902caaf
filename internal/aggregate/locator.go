// Package aggregate navigates and mutates the Account aggregate in memory.
// Nothing here touches storage; callers clone, mutate and persist.
package aggregate

import (
	"slices"

	"github.com/dtroode/recipebox-server/internal/model"
)

// FindPage returns the index of the page with pageID.
func FindPage(account *model.Account, pageID string) (int, error) {
	idx := slices.IndexFunc(account.Pages, func(p model.Page) bool {
		return p.ID == pageID
	})
	if idx == -1 {
		return -1, model.NewNotFoundError("page", pageID)
	}
	return idx, nil
}

// FindTimer locates a timer. With a non-empty pageID only that page is searched;
// with an empty pageID every page is scanned in order and the first match wins.
func FindTimer(account *model.Account, pageID, timerID string) (pageIdx, timerIdx int, err error) {
	if pageID != "" {
		pageIdx, err = FindPage(account, pageID)
		if err != nil {
			return -1, -1, err
		}
		timerIdx = indexTimer(account.Pages[pageIdx].Timers, timerID)
		if timerIdx == -1 {
			return -1, -1, model.NewNotFoundError("timer", timerID)
		}
		return pageIdx, timerIdx, nil
	}

	for i := range account.Pages {
		if j := indexTimer(account.Pages[i].Timers, timerID); j != -1 {
			return i, j, nil
		}
	}
	return -1, -1, model.NewNotFoundError("timer", timerID)
}

// FindConverter locates a unit converter inside the given page.
func FindConverter(account *model.Account, pageID, converterID string) (pageIdx, convIdx int, err error) {
	pageIdx, err = FindPage(account, pageID)
	if err != nil {
		return -1, -1, err
	}
	convIdx = slices.IndexFunc(account.Pages[pageIdx].UnitConverters, func(c model.UnitConverter) bool {
		return c.ID == converterID
	})
	if convIdx == -1 {
		return -1, -1, model.NewNotFoundError("unit converter", converterID)
	}
	return pageIdx, convIdx, nil
}

func indexTimer(timers []model.Timer, timerID string) int {
	return slices.IndexFunc(timers, func(t model.Timer) bool {
		return t.ID == timerID
	})
}
