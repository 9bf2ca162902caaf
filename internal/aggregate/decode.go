package aggregate

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts duration as a JSON number or a string holding one.
func (in *TimerInput) UnmarshalJSON(data []byte) error {
	type plain TimerInput
	var raw struct {
		plain
		Duration json.Number `json:"duration"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	duration, err := int64Of(raw.Duration)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}

	*in = TimerInput(raw.plain)
	in.Duration = duration
	return nil
}

// UnmarshalJSON accepts conversionFactor as a JSON number or a string holding one.
func (in *ConverterInput) UnmarshalJSON(data []byte) error {
	type plain ConverterInput
	var raw struct {
		plain
		ConversionFactor json.Number `json:"conversionFactor"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	factor, err := float64Of(raw.ConversionFactor)
	if err != nil {
		return fmt.Errorf("conversionFactor: %w", err)
	}

	*in = ConverterInput(raw.plain)
	in.ConversionFactor = factor
	return nil
}

// An absent number decodes as zero and is left to validation.
func int64Of(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	return n.Int64()
}

func float64Of(n json.Number) (float64, error) {
	if n == "" {
		return 0, nil
	}
	return n.Float64()
}
