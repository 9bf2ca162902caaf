package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/recipebox-server/internal/model"
)

func TestAddPage(t *testing.T) {
	account := fixtureAccount()
	before := len(account.Pages)

	page, pages, err := AddPage(account, PageInput{Label: "  Soup "})
	require.NoError(t, err)

	assert.Len(t, pages, before+1)
	assert.Equal(t, "Soup", page.Label)
	assert.NotEmpty(t, page.ID)
	assert.Empty(t, page.Timers)
	assert.NotNil(t, page.Timers)
	assert.NotNil(t, page.UnitConverters)
	assert.Equal(t, page, pages[len(pages)-1])
	for _, p := range pages[:before] {
		assert.NotEqual(t, page.ID, p.ID)
	}
}

func TestAddPage_EmptyLabel(t *testing.T) {
	for _, label := range []string{"", "   "} {
		account := fixtureAccount()
		snapshot := account.Clone()

		_, _, err := AddPage(account, PageInput{Label: label})

		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "label", verr.Field)
		assert.Equal(t, snapshot, *account)
	}
}

func TestUniqueID_SkipsTakenIdentifiers(t *testing.T) {
	ids := []string{"p1", "p2", "fresh"}
	orig := newID
	newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	t.Cleanup(func() { newID = orig })

	page, _, err := AddPage(fixtureAccount(), PageInput{Label: "Soup"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", page.ID)
}

func TestDeletePage(t *testing.T) {
	account := fixtureAccount()

	pages, err := DeletePage(account, "p1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "p2", pages[0].ID)

	_, err = FindPage(account, "p1")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, _, err = FindTimer(account, "", "t1")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeletePage_NotFound(t *testing.T) {
	account := fixtureAccount()
	snapshot := account.Clone()

	_, err := DeletePage(account, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, snapshot, *account)
}

func TestAddTimer(t *testing.T) {
	account := fixtureAccount()

	timers, err := AddTimer(account, TimerInput{PageID: "p1", Label: "Rest", Duration: 600})
	require.NoError(t, err)
	require.Len(t, timers, 2)

	added := timers[1]
	assert.Equal(t, "Rest", added.Label)
	assert.Equal(t, int64(600), added.Duration)
	assert.Equal(t, model.TimerStatusActive, added.Status)
	assert.NotEqual(t, "t1", added.ID)
	assert.Equal(t, timers, account.Pages[0].Timers)
}

func TestAddTimer_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     TimerInput
		wantField string
		notFound  bool
	}{
		{name: "missing label", input: TimerInput{PageID: "p1", Duration: 10}, wantField: "label"},
		{name: "zero duration", input: TimerInput{PageID: "p1", Label: "x"}, wantField: "duration"},
		{name: "negative duration", input: TimerInput{PageID: "p1", Label: "x", Duration: -5}, wantField: "duration"},
		{name: "missing page id", input: TimerInput{Label: "x", Duration: 10}, wantField: "pageId"},
		{name: "unknown page", input: TimerInput{PageID: "zzz", Label: "x", Duration: 10}, notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := fixtureAccount()
			snapshot := account.Clone()

			_, err := AddTimer(account, tt.input)
			require.Error(t, err)
			if tt.notFound {
				require.ErrorIs(t, err, model.ErrNotFound)
			} else {
				var verr *model.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			}
			assert.Equal(t, snapshot, *account)
		})
	}
}

func TestAddThenDeleteTimer_RestoresSequence(t *testing.T) {
	account := fixtureAccount()
	before := append([]model.Timer(nil), account.Pages[1].Timers...)

	timers, err := AddTimer(account, TimerInput{PageID: "p2", Label: "Cool", Duration: 900})
	require.NoError(t, err)
	added := timers[len(timers)-1]

	after, err := DeleteTimer(account, "", added.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteTimer(t *testing.T) {
	t.Run("unscoped removes from owning page", func(t *testing.T) {
		account := fixtureAccount()
		timers, err := DeleteTimer(account, "", "t2")
		require.NoError(t, err)
		require.Len(t, timers, 1)
		assert.Equal(t, "t3", timers[0].ID)
		assert.Len(t, account.Pages[0].Timers, 1)
	})

	t.Run("scoped", func(t *testing.T) {
		account := fixtureAccount()
		timers, err := DeleteTimer(account, "p1", "t1")
		require.NoError(t, err)
		assert.Empty(t, timers)
	})

	t.Run("missing timer leaves everything untouched", func(t *testing.T) {
		account := fixtureAccount()
		snapshot := account.Clone()
		_, err := DeleteTimer(account, "", "nope")
		require.ErrorIs(t, err, model.ErrNotFound)
		assert.Equal(t, snapshot, *account)
	})
}

func TestUnitConverterLifecycle(t *testing.T) {
	account := fixtureAccount()

	converters, err := AddUnitConverter(account, "p2", ConverterInput{
		Category: "volume", FromUnit: "cup", ToUnit: "ml", ConversionFactor: 236.588,
	})
	require.NoError(t, err)
	require.Len(t, converters, 1)
	id := converters[0].ID

	converters, err = UpdateUnitConverter(account, "p2", id, ConverterInput{
		Category: "volume", FromUnit: "tbsp", ToUnit: "ml", ConversionFactor: 14.79,
	})
	require.NoError(t, err)
	require.Len(t, converters, 1)
	assert.Equal(t, id, converters[0].ID)
	assert.Equal(t, "tbsp", converters[0].FromUnit)
	assert.InDelta(t, 14.79, converters[0].ConversionFactor, 1e-9)

	converters, err = DeleteUnitConverter(account, "p2", id)
	require.NoError(t, err)
	assert.Empty(t, converters)
}

func TestUnitConverter_Validation(t *testing.T) {
	valid := ConverterInput{Category: "mass", FromUnit: "oz", ToUnit: "g", ConversionFactor: 28.35}

	tests := []struct {
		name      string
		mutate    func(in *ConverterInput)
		wantField string
	}{
		{name: "category", mutate: func(in *ConverterInput) { in.Category = "" }, wantField: "category"},
		{name: "from unit", mutate: func(in *ConverterInput) { in.FromUnit = " " }, wantField: "fromUnit"},
		{name: "to unit", mutate: func(in *ConverterInput) { in.ToUnit = "" }, wantField: "toUnit"},
		{name: "zero factor", mutate: func(in *ConverterInput) { in.ConversionFactor = 0 }, wantField: "conversionFactor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			account := fixtureAccount()
			snapshot := account.Clone()

			_, err := AddUnitConverter(account, "p1", in)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)

			_, err = UpdateUnitConverter(account, "p1", "c1", in)
			require.ErrorAs(t, err, &verr)

			assert.Equal(t, snapshot, *account)
		})
	}
}

func TestUnitConverter_NotFound(t *testing.T) {
	in := ConverterInput{Category: "mass", FromUnit: "oz", ToUnit: "g", ConversionFactor: 28.35}
	account := fixtureAccount()

	_, err := AddUnitConverter(account, "missing", in)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = UpdateUnitConverter(account, "p1", "missing", in)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = DeleteUnitConverter(account, "p1", "missing")
	require.ErrorIs(t, err, model.ErrNotFound)

	assert.Len(t, account.Pages[0].UnitConverters, 1)
}
