package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireRole(t *testing.T) {
	customer := Actor{UserID: "u-1", Role: RoleCustomer}
	admin := Actor{UserID: "a-1", Role: RoleAdmin}

	assert.NoError(t, RequireRole(customer, RoleCustomer))
	assert.ErrorIs(t, RequireRole(customer, RoleAdmin), ErrForbidden)
	assert.NoError(t, RequireRole(admin, RoleAdmin))
	assert.NoError(t, RequireRole(admin, RoleCustomer))
	assert.NoError(t, RequireRole(System(), RoleAdmin))
	assert.ErrorIs(t, RequireRole(Actor{}, RoleCustomer), ErrUnauthenticated)
}

func TestActorContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{UserID: "u-1", Role: RoleCustomer})
	actor, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u-1", actor.UserID)
}
