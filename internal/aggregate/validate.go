package aggregate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dtroode/recipebox-server/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// PageInput carries the fields of a new page.
type PageInput struct {
	Label string `json:"label" validate:"required"`
}

// TimerInput carries the fields of a new timer.
type TimerInput struct {
	Label    string `json:"label" validate:"required"`
	Duration int64  `json:"duration" validate:"gt=0"`
	PageID   string `json:"pageId" validate:"required"`
}

// ConverterInput carries the mutable fields of a unit converter.
type ConverterInput struct {
	Category         string  `json:"category" validate:"required"`
	FromUnit         string  `json:"fromUnit" validate:"required"`
	ToUnit           string  `json:"toUnit" validate:"required"`
	ConversionFactor float64 `json:"conversionFactor" validate:"required"`
}

// Validate checks an input struct and converts the first violation into a *model.ValidationError.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewValidationError("", err.Error())
	}

	fe := verrs[0]
	switch {
	case fe.Tag() == "gt":
		return model.NewValidationError(fe.Field(), "must be a positive number")
	case fe.Tag() == "required" && fe.Kind() == reflect.Float64:
		return model.NewValidationError(fe.Field(), "must be a non-zero number")
	case fe.Tag() == "required":
		return model.NewValidationError(fe.Field(), "is required")
	default:
		return model.NewValidationError(fe.Field(), "is invalid")
	}
}

func (in PageInput) normalized() PageInput {
	in.Label = strings.TrimSpace(in.Label)
	return in
}

func (in TimerInput) normalized() TimerInput {
	in.Label = strings.TrimSpace(in.Label)
	return in
}

func (in ConverterInput) normalized() ConverterInput {
	in.Category = strings.TrimSpace(in.Category)
	in.FromUnit = strings.TrimSpace(in.FromUnit)
	in.ToUnit = strings.TrimSpace(in.ToUnit)
	return in
}
