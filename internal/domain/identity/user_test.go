package identity

import (
	"testing"

	"github.com/mayavriksh/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user", func(t *testing.T) {
		u, err := NewUser("Green Roots Nursery", "Orders@GreenRoots.in", RoleSupplier)
		require.NoError(t, err)
		assert.True(t, u.IsActive)
		assert.True(t, u.IsSupplier())
		assert.Equal(t, "orders@greenroots.in", u.Email)
	})

	t.Run("rejects bad email", func(t *testing.T) {
		_, err := NewUser("x", "not-an-email", RoleSupplier)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := NewUser("x", "x@y.in", Role("GARDENER"))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("deactivated supplier is not a supplier", func(t *testing.T) {
		u, err := NewUser("x", "x@y.in", RoleSupplier)
		require.NoError(t, err)
		u.Deactivate()
		assert.False(t, u.IsSupplier())
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("warehouse_manager")
	require.NoError(t, err)
	assert.Equal(t, RoleWarehouseManager, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}
