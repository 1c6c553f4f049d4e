package domain

import (
	"fmt"
	"strings"
)

// FinderContact is what a finder leaves for the owner once a match is confirmed.
type FinderContact struct {
	Name           string
	Mobile         string
	PickupLocation string
}

// Normalize trims every field.
func (c FinderContact) Normalize() FinderContact {
	return FinderContact{
		Name:           strings.TrimSpace(c.Name),
		Mobile:         strings.TrimSpace(c.Mobile),
		PickupLocation: strings.TrimSpace(c.PickupLocation),
	}
}

// Validate requires mobile and pickup location. Name is optional.
func (c FinderContact) Validate() error {
	n := c.Normalize()
	var missing []string
	if n.Mobile == "" {
		missing = append(missing, "mobile")
	}
	if n.PickupLocation == "" {
		missing = append(missing, "pickupLocation")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required fields missing: %s", ErrValidationFailure, strings.Join(missing, ", "))
	}
	return nil
}
