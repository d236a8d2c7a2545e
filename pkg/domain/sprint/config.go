package sprint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
)

var validate = validator.New()

// Config is the default sprint configuration singleton.
type Config struct {
	SprintNumber         int  `json:"sprint_number" yaml:"sprint_number" validate:"gte=0"`
	Capacity             int  `json:"capacity" yaml:"capacity" validate:"gte=0"`
	PointsPerRequirement int  `json:"points_per_requirement" yaml:"points_per_requirement" validate:"gte=0"`
	TeamSize             int  `json:"team_size" yaml:"team_size" validate:"gte=0"`
	Duration             int  `json:"duration" yaml:"duration" validate:"gte=0"`
	IsDefault            bool `json:"is_default" yaml:"-"`
}

// DefaultConfig is returned when no configuration has been saved.
func DefaultConfig() Config {
	return Config{IsDefault: true}
}

// Params derives sprint parameters from the configuration.
func (c Config) Params() Params {
	return Params{
		Capacity:             c.Capacity,
		PointsPerRequirement: c.PointsPerRequirement,
		TeamSize:             c.TeamSize,
		Duration:             c.Duration,
	}
}

// Validate checks c with its struct tags.
func (c Config) Validate() error {
	return Check(c)
}

// Check validates any sprint payload against its struct tags. Failures wrap
// domain.ErrValidation.
func Check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}
