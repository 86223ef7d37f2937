package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Annual Day":              "annual-day",
		"  Sports   Day 2024! ":   "sports-day-2024",
		"Parent-Teacher Meeting":  "parent-teacher-meeting",
		"Science & Maths -- Fair": "science-maths-fair",
		"!!!":                     "",
		"snake_case_title":        "snake_case_title",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"annual-day": true, "annual-day-1": true}
	exists := func(_ context.Context, s string) (bool, error) { return taken[s], nil }

	got, err := Unique(context.Background(), "annual-day", exists)
	require.NoError(t, err)
	assert.Equal(t, "annual-day-2", got)

	got, err = Unique(context.Background(), "sports-day", exists)
	require.NoError(t, err)
	assert.Equal(t, "sports-day", got)
}

func TestUniquePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Unique(context.Background(), "x", func(context.Context, string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestUniqueExhaustedIsDuplicateKey(t *testing.T) {
	always := func(context.Context, string) (bool, error) { return true, nil }
	_, err := Unique(context.Background(), "prize-day", always)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "slug", e.Field)
}
