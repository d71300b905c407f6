package service

import (
	"testing"
	"time"

	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Snapshot(t *testing.T) {
	e := newTestEnv(t)
	e.progress.Badges = nil
	journey := e.startJourney(1)

	snap, err := e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", snap.Date)
	assert.Equal(t, journey.ID, snap.JourneyID)
	assert.Equal(t, 1, snap.CurrentDay)
	assert.Equal(t, model.PillarCount, snap.TotalPillars)
	assert.Empty(t, snap.CompletedToday)
	assert.False(t, snap.Streak.AtRisk)

	e.complete(1, 3)
	e.complete(1, 1)

	snap, err = e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 3}, snap.CompletedToday)
	assert.Equal(t, 27, snap.KarmaTotal)
	assert.Equal(t, 1, snap.Streak.Current)
}

func TestDashboard_CacheInvalidation(t *testing.T) {
	e := newTestEnv(t)
	e.progress.Badges = nil
	e.startJourney(1)

	_, err := e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)

	// 绕过服务直接写库，缓存仍返回旧值
	_, err = e.progress.Award(e.ctx, 1, 40, model.KarmaBonus, nil, "manual")
	require.NoError(t, err)
	snap, err := e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.KarmaTotal)

	e.dashboard.Invalidate(e.ctx, 1)
	snap, err = e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, snap.KarmaTotal)

	// 打卡会清除缓存
	e.complete(1, 2)
	snap, err = e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.KarmaTotal)
}

func TestDashboard_AtRiskRecomputedOnRead(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	snap, err := e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.False(t, snap.Streak.AtRisk)

	// 同一天的缓存命中，但已过中午
	e.clock.Advance(4 * time.Hour)
	snap, err = e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.True(t, snap.Streak.AtRisk)
}

func TestDashboard_NoJourney(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.dashboard.Snapshot(e.ctx, 1)
	assert.ErrorIs(t, err, util.ErrJourneyNotFound)

	var nilService *DashboardService
	assert.NotPanics(t, func() { nilService.Invalidate(e.ctx, 1) })
}
