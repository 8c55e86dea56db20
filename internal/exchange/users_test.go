package exchange

import (
	"testing"

	"rewear/internal/apperrors"
	"rewear/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestManageUserSuspendAndActivate(t *testing.T) {
	f := newFixture(t)
	admin := f.user("admin", domain.RoleAdmin, 0)
	member := f.user("member", domain.RoleMember, 20)
	owner := f.user("owner", domain.RoleMember, 0)
	item := f.item(owner, domain.ItemApproved)

	require.NoError(t, f.svc.ManageUser(f.ctx, callerOf(admin), member.ID, UserSuspend))
	require.True(t, f.reloadUser(member.ID).Suspended)

	_, err := f.svc.Redeem(f.ctx, callerOf(member), item.ID)
	require.ErrorIs(t, err, apperrors.ErrAuthorization)
	_, err = f.svc.Request(f.ctx, callerOf(member), item.ID)
	require.ErrorIs(t, err, apperrors.ErrAuthorization)

	require.NoError(t, f.svc.ManageUser(f.ctx, callerOf(admin), member.ID, UserActivate))
	require.False(t, f.reloadUser(member.ID).Suspended)

	_, err = f.svc.Redeem(f.ctx, callerOf(member), item.ID)
	require.NoError(t, err)
}

func TestManageUserDeletePolicy(t *testing.T) {
	f := newFixture(t)
	admin := f.user("admin", domain.RoleAdmin, 0)
	owner := f.user("owner", domain.RoleMember, 0)
	requester := f.user("requester", domain.RoleMember, 10)
	idle := f.user("idle", domain.RoleMember, 0)
	item := f.item(owner, domain.ItemApproved)

	_, err := f.svc.Request(f.ctx, callerOf(requester), item.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.ManageUser(f.ctx, callerOf(admin), owner.ID, UserDelete), apperrors.ErrConflict)
	require.ErrorIs(t, f.svc.ManageUser(f.ctx, callerOf(admin), requester.ID, UserDelete), apperrors.ErrConflict)
	require.Equal(t, int64(1), f.count(&domain.User{}, "id = ?", owner.ID))
	require.Equal(t, int64(1), f.count(&domain.User{}, "id = ?", requester.ID))

	require.NoError(t, f.svc.ManageUser(f.ctx, callerOf(admin), idle.ID, UserDelete))
	require.Zero(t, f.count(&domain.User{}, "id = ?", idle.ID))

	require.ErrorIs(t, f.svc.ManageUser(f.ctx, callerOf(admin), idle.ID, UserDelete), apperrors.ErrNotFound)
}

func TestManageUserErrors(t *testing.T) {
	f := newFixture(t)
	admin := f.user("admin", domain.RoleAdmin, 0)
	member := f.user("member", domain.RoleMember, 0)

	require.ErrorIs(t, f.svc.ManageUser(f.ctx, callerOf(member), admin.ID, UserSuspend), apperrors.ErrAuthorization)
	require.ErrorIs(t, f.svc.ManageUser(f.ctx, callerOf(admin), admin.ID, UserDelete), apperrors.ErrConflict)
	require.ErrorIs(t, f.svc.ManageUser(f.ctx, callerOf(admin), admin.ID, UserSuspend), apperrors.ErrConflict)
	require.ErrorIs(t, f.svc.ManageUser(f.ctx, callerOf(admin), member.ID, UserAction("PROMOTE")), apperrors.ErrValidation)
	require.False(t, f.reloadUser(member.ID).Suspended)
}
