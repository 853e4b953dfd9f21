package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrprouting/vrp-service/pkg/apperror"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New[int]()

	require.NoError(t, r.Register("Euclidean", func() (int, error) { return 42, nil }))

	v, err := r.Get("euclidean") // case-insensitive lookup
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRegistry_DuplicateRegisterFails(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register("haversine", func() (int, error) { return 1, nil }))

	err := r.Register("Haversine", func() (int, error) { return 2, nil })
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConflict, apperror.Code(err))
}

func TestRegistry_GetUnknownFails(t *testing.T) {
	r := New[int]()
	_, err := r.Get("missing")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeResourceNotFound, apperror.Code(err))
}

func TestRegistry_List(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register("b", func() (int, error) { return 1, nil }))
	require.NoError(t, r.Register("a", func() (int, error) { return 1, nil }))
	require.NoError(t, r.Register("c", func() (int, error) { return 1, nil }))

	assert.Equal(t, []string{"a", "b", "c"}, r.List())
}

func TestRegistry_FactoryErrorDoesNotAbortOthers(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Register("broken", func() (int, error) { return 0, errors.New("no api key configured") }))
	require.NoError(t, r.Register("ok", func() (int, error) { return 7, nil }))

	_, err := r.Get("broken")
	require.Error(t, err)

	v, err := r.Get("ok")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRegistry_Has(t *testing.T) {
	r := New[int]()
	assert.False(t, r.Has("x"))
	require.NoError(t, r.Register("x", func() (int, error) { return 1, nil }))
	assert.True(t, r.Has("X"))
}
