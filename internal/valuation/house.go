package valuation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidHouse is the sentinel behind every HouseInput validation failure.
var ErrInvalidHouse = errors.New("invalid house input")

// PropertyType is the kind of dwelling being valued.
type PropertyType string

const (
	Apartment        PropertyType = "Apartment"
	IndependentHouse PropertyType = "Independent House"
	Villa            PropertyType = "Villa"
)

// PropertyTypes lists the supported types in display order.
var PropertyTypes = []PropertyType{Apartment, IndependentHouse, Villa}

// ParsePropertyType accepts the display name case-insensitively, plus
// "house" and "independent-house" shorthands.
func ParsePropertyType(s string) (PropertyType, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("-", " ", "_", " ").Replace(n)
	switch n {
	case "apartment", "flat":
		return Apartment, nil
	case "independent house", "house":
		return IndependentHouse, nil
	case "villa":
		return Villa, nil
	}
	return "", fmt.Errorf("%w: unknown property type %q (use Apartment, Independent House or Villa)", ErrInvalidHouse, s)
}

// HouseInput describes the target property.
type HouseInput struct {
	Location     string       `json:"location"`
	SqFt         float64      `json:"sqFt"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    float64      `json:"bathrooms"`
	YearBuilt    int          `json:"yearBuilt"`
	Condition    int          `json:"condition"` // 1 (Poor) to 5 (Excellent)
	PropertyType PropertyType `json:"propertyType"`
}

// DefaultHouse mirrors the form defaults of the web demo.
func DefaultHouse() HouseInput {
	return HouseInput{
		Location:     "Bangalore, KA",
		SqFt:         1200,
		Bedrooms:     3,
		Bathrooms:    2,
		YearBuilt:    2018,
		Condition:    3,
		PropertyType: Apartment,
	}
}

// Validate checks the fields the prompt and the regression query depend on.
func (h HouseInput) Validate() error {
	if strings.TrimSpace(h.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidHouse)
	}
	if math.IsNaN(h.SqFt) || math.IsInf(h.SqFt, 0) || h.SqFt <= 0 {
		return fmt.Errorf("%w: sqFt must be a positive number", ErrInvalidHouse)
	}
	if h.Bedrooms < 0 || h.Bathrooms < 0 {
		return fmt.Errorf("%w: bedrooms and bathrooms must be >= 0", ErrInvalidHouse)
	}
	if h.YearBuilt < 1800 || h.YearBuilt > 2100 {
		return fmt.Errorf("%w: yearBuilt %d out of range", ErrInvalidHouse, h.YearBuilt)
	}
	if h.Condition < 1 || h.Condition > 5 {
		return fmt.Errorf("%w: condition must be between 1 and 5, got %d", ErrInvalidHouse, h.Condition)
	}
	if _, err := ParsePropertyType(string(h.PropertyType)); err != nil {
		return err
	}
	return nil
}

var conditionLabels = map[int]string{
	1: "Poor (Fixer Upper)",
	2: "Fair (Needs work)",
	3: "Average (Standard)",
	4: "Good (Well maintained)",
	5: "Excellent (Renovated/Luxury)",
}

// ConditionLabel returns the descriptive label for a 1-5 rating.
func ConditionLabel(c int) string {
	if l, ok := conditionLabels[c]; ok {
		return l
	}
	return "Average"
}
