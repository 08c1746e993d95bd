// Package phone validates outlet and representative phone numbers.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when numbers are written without a country code
const DefaultRegion = "BD"

// ValidationResult contains the result of phone number validation.
type ValidationResult struct {
	IsValid             bool   `json:"is_valid"`
	E164Format          string `json:"e164_format"`
	InternationalFormat string `json:"international_format"`
	NationalFormat      string `json:"national_format"`
	CountryCode         string `json:"country_code"`
}

// Validator checks numbers against a default region
type Validator struct {
	region string
}

// NewValidator creates a validator. An empty region falls back to DefaultRegion.
func NewValidator(region string) *Validator {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Validator{region: region}
}

// Region returns the default region in use
func (v *Validator) Region() string {
	return v.region
}

// Check returns an error unless phone parses and is a valid number
func (v *Validator) Check(phone string) error {
	res, err := ValidatePhone(phone, v.region)
	if err != nil {
		return err
	}
	if !res.IsValid {
		return fmt.Errorf("invalid phone number %q", phone)
	}
	return nil
}

// ValidatePhone validates a phone number and returns detailed information.
func ValidatePhone(phone, countryCode string) (*ValidationResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("phone number cannot be empty")
	}

	if countryCode == "" {
		countryCode = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(phone, countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse phone number: %w", err)
	}

	return &ValidationResult{
		IsValid:             phonenumbers.IsValidNumber(parsed),
		E164Format:          phonenumbers.Format(parsed, phonenumbers.E164),
		InternationalFormat: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		NationalFormat:      phonenumbers.Format(parsed, phonenumbers.NATIONAL),
		CountryCode:         phonenumbers.GetRegionCodeForNumber(parsed),
	}, nil
}

// NormalizePhone normalizes a phone number to E.164 format.
func NormalizePhone(phone, countryCode string) (string, error) {
	res, err := ValidatePhone(phone, countryCode)
	if err != nil {
		return "", err
	}
	if !res.IsValid {
		return "", fmt.Errorf("invalid phone number")
	}
	return res.E164Format, nil
}
