package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.False(t, ee.GetTimestamp().IsZero())
}

func TestBuildWithContext(t *testing.T) {
	t.Parallel()

	ee := Newf("zone %s missing", "07").
		Component("reconcile").
		Category(CategoryNotFound).
		Context("zone_code", "07").
		Build()

	assert.Equal(t, "reconcile", ee.GetComponent())
	assert.Equal(t, "not-found", ee.GetCategory())
	assert.Equal(t, "07", ee.GetContext()["zone_code"])
	assert.True(t, IsNotFound(ee))
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Context("k", 1).Build()
	ctx := ee.GetContext()
	ctx["k"] = 2

	assert.Equal(t, 1, ee.GetContext()["k"])
}

func TestCategoryInheritedWhenWrapped(t *testing.T) {
	t.Parallel()

	inner := New(NewStd("duplicate capture")).Category(CategoryConflict).Build()
	outer := New(fmt.Errorf("submit: %w", inner)).Component("api").Build()

	assert.True(t, IsDuplicate(outer))
	assert.Equal(t, "api", outer.GetComponent())
}

func TestCategoryHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category ErrorCategory
		check    func(error) bool
	}{
		{"validation", CategoryValidation, IsValidation},
		{"duplicate", CategoryConflict, IsDuplicate},
		{"consistency", CategoryConsistency, IsConsistency},
		{"source io", CategoryFileIO, IsSourceIO},
		{"not found", CategoryNotFound, IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := New(NewStd(tt.name)).Category(tt.category).Build()
			assert.True(t, tt.check(err))
			assert.False(t, tt.check(NewStd(tt.name)))
		})
	}
}

func TestIsMatchesSentinel(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("polling place not found")
	ee := New(fmt.Errorf("lookup: %w", sentinel)).Category(CategoryNotFound).Build()

	require.ErrorIs(t, ee, sentinel)
}

func TestSourceErrorContext(t *testing.T) {
	t.Parallel()

	ee := SourceError(NewStd("open census.csv: no such file"), "/tmp/census.csv")

	assert.True(t, IsSourceIO(ee))
	assert.Equal(t, "csv", ee.GetContext()["file_extension"])
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
	assert.Equal(t, CategoryConsistency, CategoryOf(Newf("sum mismatch").Category(CategoryConsistency).Build()))
}
