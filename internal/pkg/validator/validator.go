package validator

import (
	"fmt"
	"net/url"

	"github.com/futig/interview-flow/internal/config"
)

// Upper bound for years_of_experience
const maxYearsOfExperience = 70

// Validator checks incoming requests before they reach the use cases
type Validator struct {
	cfg config.FileUploadConfig
}

func NewValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL: %q", field, raw)
	}
	return nil
}
