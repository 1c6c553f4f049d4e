package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{fmt.Errorf("%w: 403", ErrAccessDenied), KindAccessDenied},
		{fmt.Errorf("%w: %w", ErrAccessDenied, ErrNetworkFailure), KindAccessDenied},
		{fmt.Errorf("fetch: %w", ErrNetworkFailure), KindNetworkFailure},
		{ErrMalformedResponse, KindMalformedResponse},
		{ErrModelLoadFailed, KindModelLoadFailed},
		{ErrProviderUnavailable, KindProviderUnavailable},
		{ErrValidationFailure, KindValidationFailure},
		{ErrPostingNotFound, KindNotFound},
		{ErrScoringInFlight, KindConflict},
		{errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}

func TestIsProviderError(t *testing.T) {
	assert.True(t, IsProviderError(ErrModelLoadFailed))
	assert.True(t, IsProviderError(fmt.Errorf("x: %w", ErrAccessDenied)))
	assert.False(t, IsProviderError(ErrValidationFailure))
	assert.False(t, IsProviderError(errors.New("other")))
}

func TestFinderContactValidate(t *testing.T) {
	assert.NoError(t, FinderContact{Mobile: "0800", PickupLocation: "Mall"}.Validate())

	err := FinderContact{Name: "Ann", Mobile: "  ", PickupLocation: "Mall"}.Validate()
	assert.ErrorIs(t, err, ErrValidationFailure)
	assert.Contains(t, err.Error(), "mobile")

	err = FinderContact{Mobile: "0800"}.Validate()
	assert.ErrorIs(t, err, ErrValidationFailure)
	assert.Contains(t, err.Error(), "pickupLocation")
}

func TestPostingDisplayDate(t *testing.T) {
	p := Posting{CreatedAt: time.Date(2024, time.March, 7, 15, 0, 0, 0, time.UTC)}
	assert.Equal(t, "07/03/2024", p.DisplayDate())
}

func TestAuthorOrGuest(t *testing.T) {
	assert.Equal(t, "anonymous", AuthorOrGuest("   "))
	assert.Equal(t, "maria", AuthorOrGuest(" maria "))
}
