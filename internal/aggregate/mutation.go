package aggregate

import (
	"slices"

	"github.com/google/uuid"

	"github.com/dtroode/recipebox-server/internal/model"
)

// newID is swapped in tests to force identifier collisions.
var newID = uuid.NewString

// uniqueID draws identifiers until one is not taken in the parent collection.
func uniqueID(taken func(id string) bool) string {
	for {
		id := newID()
		if !taken(id) {
			return id
		}
	}
}

// AddPage appends a new empty page. It returns the new page and the full page sequence.
func AddPage(account *model.Account, in PageInput) (model.Page, []model.Page, error) {
	in = in.normalized()
	if err := Validate(in); err != nil {
		return model.Page{}, nil, err
	}

	page := model.Page{
		ID: uniqueID(func(id string) bool {
			_, err := FindPage(account, id)
			return err == nil
		}),
		Label:          in.Label,
		Timers:         []model.Timer{},
		UnitConverters: []model.UnitConverter{},
	}
	account.Pages = append(account.Pages, page)

	return page, account.Pages, nil
}

// DeletePage removes the page with pageID together with its timers and converters.
func DeletePage(account *model.Account, pageID string) ([]model.Page, error) {
	idx, err := FindPage(account, pageID)
	if err != nil {
		return nil, err
	}
	account.Pages = slices.Delete(account.Pages, idx, idx+1)

	return account.Pages, nil
}

// AddTimer appends an active timer to the page and returns the page's timers.
func AddTimer(account *model.Account, in TimerInput) ([]model.Timer, error) {
	in = in.normalized()
	if err := Validate(in); err != nil {
		return nil, err
	}

	idx, err := FindPage(account, in.PageID)
	if err != nil {
		return nil, err
	}
	page := &account.Pages[idx]

	timer := model.Timer{
		ID: uniqueID(func(id string) bool {
			return indexTimer(page.Timers, id) != -1
		}),
		Label:    in.Label,
		Duration: in.Duration,
		Status:   model.TimerStatusActive,
	}
	page.Timers = append(page.Timers, timer)

	return page.Timers, nil
}

// DeleteTimer removes the first timer matching timerID (see FindTimer for the search scope)
// and returns the timers of the page it was removed from.
func DeleteTimer(account *model.Account, pageID, timerID string) ([]model.Timer, error) {
	pageIdx, timerIdx, err := FindTimer(account, pageID, timerID)
	if err != nil {
		return nil, err
	}
	page := &account.Pages[pageIdx]
	page.Timers = slices.Delete(page.Timers, timerIdx, timerIdx+1)

	return page.Timers, nil
}

// AddUnitConverter appends a converter to the page and returns the page's converters.
func AddUnitConverter(account *model.Account, pageID string, in ConverterInput) ([]model.UnitConverter, error) {
	in = in.normalized()
	if err := Validate(in); err != nil {
		return nil, err
	}

	idx, err := FindPage(account, pageID)
	if err != nil {
		return nil, err
	}
	page := &account.Pages[idx]

	converter := model.UnitConverter{
		ID: uniqueID(func(id string) bool {
			return slices.ContainsFunc(page.UnitConverters, func(c model.UnitConverter) bool {
				return c.ID == id
			})
		}),
		Category:         in.Category,
		FromUnit:         in.FromUnit,
		ToUnit:           in.ToUnit,
		ConversionFactor: in.ConversionFactor,
	}
	page.UnitConverters = append(page.UnitConverters, converter)

	return page.UnitConverters, nil
}

// UpdateUnitConverter replaces the converter's mutable fields, keeping its identifier.
func UpdateUnitConverter(account *model.Account, pageID, converterID string, in ConverterInput) ([]model.UnitConverter, error) {
	in = in.normalized()
	if err := Validate(in); err != nil {
		return nil, err
	}

	pageIdx, convIdx, err := FindConverter(account, pageID, converterID)
	if err != nil {
		return nil, err
	}
	page := &account.Pages[pageIdx]
	page.UnitConverters[convIdx] = model.UnitConverter{
		ID:               page.UnitConverters[convIdx].ID,
		Category:         in.Category,
		FromUnit:         in.FromUnit,
		ToUnit:           in.ToUnit,
		ConversionFactor: in.ConversionFactor,
	}

	return page.UnitConverters, nil
}

// DeleteUnitConverter removes the converter from the page and returns the page's converters.
func DeleteUnitConverter(account *model.Account, pageID, converterID string) ([]model.UnitConverter, error) {
	pageIdx, convIdx, err := FindConverter(account, pageID, converterID)
	if err != nil {
		return nil, err
	}
	page := &account.Pages[pageIdx]
	page.UnitConverters = slices.Delete(page.UnitConverters, convIdx, convIdx+1)

	return page.UnitConverters, nil
}
