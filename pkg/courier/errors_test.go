package courier_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mitrakirim/fulfillment/pkg/courier"
	"github.com/stretchr/testify/assert"
)

func TestProviderError_Error(t *testing.T) {
	err := courier.NewProviderError("biteship", courier.KindProviderUnavailable, "50001", "upstream timeout")
	assert.Contains(t, err.Error(), "biteship")
	assert.Contains(t, err.Error(), "provider_unavailable")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := courier.NewProviderError("biteship", courier.KindProviderUnavailable, "", "transport error").
		WithCause(cause)

	assert.ErrorIs(t, err, cause)
}

func TestProviderError_IsMatchesByKind(t *testing.T) {
	a := courier.NewProviderError("biteship", courier.KindCourierUnavailable, "40011001", "courier not available")
	b := courier.NewProviderError("other", courier.KindCourierUnavailable, "", "")

	assert.ErrorIs(t, a, b)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want courier.ErrorKind
	}{
		{
			name: "provider error carries its kind",
			err:  courier.NewProviderError("biteship", courier.KindCourierUnavailable, "", ""),
			want: courier.KindCourierUnavailable,
		},
		{
			name: "wrapped provider error",
			err:  fmt.Errorf("booking: %w", courier.NewProviderError("biteship", courier.KindProviderUnavailable, "", "")),
			want: courier.KindProviderUnavailable,
		},
		{
			name: "not configured sentinel",
			err:  courier.ErrNotConfigured,
			want: courier.KindConfigurationMissing,
		},
		{
			name: "location sentinel",
			err:  fmt.Errorf("%w: %q", courier.ErrLocationNotFound, "Atlantis"),
			want: courier.KindLocationNotFound,
		},
		{
			name: "area sentinel",
			err:  courier.ErrAreaNotFound,
			want: courier.KindLocationNotFound,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: courier.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, courier.KindOf(tt.err))
		})
	}
}

func TestIsCourierUnavailable(t *testing.T) {
	unavailable := courier.NewProviderError("biteship", courier.KindCourierUnavailable, "40011002", "route not serviceable")
	other := courier.NewProviderError("biteship", courier.KindProviderUnavailable, "", "timeout")

	assert.True(t, courier.IsCourierUnavailable(unavailable))
	assert.False(t, courier.IsCourierUnavailable(other))
	assert.False(t, courier.IsCourierUnavailable(errors.New("boom")))
}

func TestIsRetryableBooking(t *testing.T) {
	assert.True(t, courier.IsRetryableBooking(
		courier.NewProviderError("biteship", courier.KindProviderUnavailable, "", "timeout")))
	assert.True(t, courier.IsRetryableBooking(errors.New("unclassified")))

	assert.False(t, courier.IsRetryableBooking(
		courier.NewProviderError("biteship", courier.KindCourierUnavailable, "", "route not serviceable")))
	assert.False(t, courier.IsRetryableBooking(courier.ErrNotConfigured))
}
