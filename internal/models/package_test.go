package models

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPackagePatch_Apply(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p := Package{ID: "1", Name: "Old", Status: "s", Location: "Here"}

	name := "New"
	loc := ""
	PackagePatch{Name: &name, Location: &loc, LastUpdated: &now}.Apply(&p)

	require.Equal(t, "New", p.Name)
	require.Equal(t, "s", p.Status)
	require.Equal(t, "", p.Location)
	require.Equal(t, now, p.LastUpdated)
	require.Equal(t, "1", p.ID)
}

func TestPackagePatch_Empty(t *testing.T) {
	require.True(t, PackagePatch{}.Empty())
	s := "x"
	require.False(t, PackagePatch{Status: &s}.Empty())
}

func TestParseCollection(t *testing.T) {
	c, ok := ParseCollection("")
	require.True(t, ok)
	require.Equal(t, CollectionActive, c)

	c, ok = ParseCollection("archived")
	require.True(t, ok)
	require.Equal(t, CollectionArchived, c)

	_, ok = ParseCollection("trash")
	require.False(t, ok)
}

func TestErrors_Kinds(t *testing.T) {
	require.True(t, errors.Is(ErrEmptyTrackingNumber, ErrValidation))
	require.True(t, errors.Is(ErrDuplicateTrackingNumber, ErrValidation))
	require.False(t, errors.Is(ErrInvalidFormat, ErrValidation))
}
