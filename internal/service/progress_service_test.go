package service

import (
	"sync"
	"testing"

	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func earnedPoints(t *testing.T, e *testEnv, userID uint) int {
	t.Helper()
	txns, err := e.progress.Transactions(e.ctx, userID, 1000)
	require.NoError(t, err)
	sum := 0
	for _, txn := range txns {
		if txn.Reason == model.KarmaEarned {
			sum += txn.Points
		}
	}
	return sum
}

func TestRecordCompletion_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	first := e.complete(1, 1)
	second := e.complete(1, 1)

	assert.Equal(t, 15, first.KarmaAwarded)
	assert.Equal(t, 0, second.KarmaAwarded)
	assert.Nil(t, second.Streak)

	n, err := e.checkins.CountByKey(e.ctx, repository.CheckinKey{UserID: 1, PillarID: 1, Date: "2026-03-02"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	refs, err := e.karma.CountByReference(e.ctx, 1, "checkin", "1:2026-03-02")
	require.NoError(t, err)
	assert.EqualValues(t, 1, refs)
	assert.Equal(t, 15, earnedPoints(t, e, 1))
}

func TestRecordCompletion_FirstDayBalance(t *testing.T) {
	e := newTestEnv(t)
	// 只看打卡账本本身
	e.progress.Badges = nil
	e.startJourney(1)

	res := e.complete(1, 1)
	require.NotNil(t, res.Streak)
	assert.Equal(t, 15, res.KarmaAwarded)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 15, e.balance(1))
	assert.True(t, res.Checkin.Completed)
	assert.Equal(t, 15, res.Checkin.KarmaEarned)
}

func TestRecordCompletion_FirstDayUnlocksFirstStep(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	res := e.complete(1, 1)
	require.Len(t, res.NewBadges, 1)
	assert.Equal(t, "day-1", res.NewBadges[0].Badge.Slug)
	assert.Equal(t, 15+50, e.balance(1))
}

func TestRecordCompletion_WeekWarrior(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	var unlockedOn int
	for day := 1; day <= 7; day++ {
		res := e.complete(1, 2)
		for _, b := range res.NewBadges {
			if b.Badge.Slug == "day-7" {
				unlockedOn = day
			}
		}
		if day == 7 {
			require.NotNil(t, res.Streak)
			assert.Equal(t, 7, res.Streak.CurrentStreak)
		}
		e.nextDay()
	}
	assert.Equal(t, 7, unlockedOn)

	// 再打一天也不会重复发放
	e.complete(1, 2)
	unlocked, err := e.badges.Evaluate(e.ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	refs, err := e.karma.CountByReference(e.ctx, 1, "badge", "day-7")
	require.NoError(t, err)
	assert.EqualValues(t, 1, refs)

	// 8 天 × 10 + First Step 50 + Week Warrior 100
	assert.Equal(t, 8*10+50+100, e.balance(1))
}

func TestRecordCompletion_GapResetsStreak(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	for day := 1; day <= 4; day++ {
		e.complete(1, 3)
		e.nextDay()
	}
	// 第 5 天没有打卡
	e.nextDay()

	snap, err := e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, snap.CurrentDay)
	assert.Equal(t, 0, snap.Streak.Current)
	assert.Equal(t, 4, snap.Streak.Longest)

	res := e.complete(1, 3)
	require.NotNil(t, res.Streak)
	assert.Equal(t, 1, res.Streak.CurrentStreak)
	assert.Equal(t, 4, res.Streak.LongestStreak)
}

func TestRecordCompletion_UnknownPillar(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	_, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 99})
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestRecordCompletion_NoJourney(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 1})
	assert.ErrorIs(t, err, util.ErrJourneyNotFound)
}

func TestRecordCompletion_DateValidation(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	tests := []struct {
		name string
		req  CompletionRequest
	}{
		{"bad format", CompletionRequest{PillarID: 1, Date: "03/02/2026"}},
		{"future", CompletionRequest{PillarID: 1, Date: "2026-03-03"}},
		{"before start", CompletionRequest{PillarID: 1, Date: "2026-03-01"}},
		{"negative duration", CompletionRequest{PillarID: 1, DurationMinutes: intPtr(-5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.progress.RecordCompletion(e.ctx, 1, tt.req)
			assert.ErrorIs(t, err, util.ErrInvalidInput)
		})
	}
}

func TestRecordCompletion_UncompleteKeepsKarma(t *testing.T) {
	e := newTestEnv(t)
	e.progress.Badges = nil
	e.startJourney(1)

	e.complete(1, 8)
	res, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 8, Completed: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, res.Checkin.Completed)
	require.NotNil(t, res.Streak)
	assert.Equal(t, 0, res.Streak.CurrentStreak)
	assert.Equal(t, 1, res.Streak.LongestStreak)
	assert.Equal(t, 20, e.balance(1))

	// 再次完成不重复发放
	again := e.complete(1, 8)
	assert.Equal(t, 0, again.KarmaAwarded)
	assert.True(t, again.Checkin.Completed)
	assert.Equal(t, 20, e.balance(1))
}

func TestRecordCompletion_UpdatesDetails(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)

	_, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 4, DurationMinutes: intPtr(20), Notes: "slow flow"})
	require.NoError(t, err)

	res, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 4, DurationMinutes: intPtr(35)})
	require.NoError(t, err)
	require.NotNil(t, res.Checkin.DurationMinutes)
	assert.Equal(t, 35, *res.Checkin.DurationMinutes)
	assert.Equal(t, "slow flow", res.Checkin.Notes)
}

func TestRecordCompletion_Backfill(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)
	e.nextDay()
	e.nextDay()

	res, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 1, Date: "2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", res.Checkin.CheckinDate)
	assert.Equal(t, 15, res.KarmaAwarded)
	// 今天和昨天都没有记录
	assert.Equal(t, 0, res.Streak.CurrentStreak)
}

func TestRecordCompletion_ConcurrentSameKey(t *testing.T) {
	e := newTestEnv(t)
	e.progress.Badges = nil
	e.startJourney(1)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	awarded := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 5})
			errs[i] = err
			if res != nil {
				awarded[i] = res.KarmaAwarded
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		total += awarded[i]
	}
	assert.Equal(t, 12, total)

	count, err := e.checkins.CountByKey(e.ctx, repository.CheckinKey{UserID: 1, PillarID: 5, Date: "2026-03-02"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 12, e.balance(1))
}

func TestListCheckins(t *testing.T) {
	e := newTestEnv(t)
	e.startJourney(1)
	e.complete(1, 1)
	e.nextDay()
	e.complete(1, 2)

	all, err := e.progress.ListCheckins(e.ctx, 1, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	first, err := e.progress.ListCheckins(e.ctx, 1, "2026-03-02", "2026-03-02")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.EqualValues(t, 1, first[0].PillarID)

	_, err = e.progress.ListCheckins(e.ctx, 1, "2026-03-05", "2026-03-02")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestAward(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.progress.Award(e.ctx, 1, 0, model.KarmaBonus, nil, "nothing")
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	txn, err := e.progress.Award(e.ctx, 1, 30, model.KarmaBonus, nil, "community challenge")
	require.NoError(t, err)
	assert.NotZero(t, txn.ID)
	assert.Equal(t, 30, e.balance(1))
}

func TestProgressService_RestartSameDayKeepsCompletion(t *testing.T) {
	e := newTestEnv(t)
	first := e.startJourney(1)
	e.complete(1, 1)
	require.Equal(t, 15+50, e.balance(1))

	second := e.startJourney(1)
	require.NotEqual(t, first.ID, second.ID)

	// 同一键已经完成过，不再发放积分，但记录归到新旅程
	res := e.complete(1, 1)
	assert.Equal(t, 0, res.KarmaAwarded)
	assert.Equal(t, second.ID, res.Checkin.JourneyID)
	assert.Equal(t, 15+50, e.balance(1))

	e.dashboard.Invalidate(e.ctx, 1)
	snap, err := e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, snap.JourneyID)
	assert.Equal(t, []uint{1}, snap.CompletedToday)
	assert.Equal(t, 1, snap.Streak.Current)
	assert.Equal(t, 1, snap.Streak.Longest)

	report, err := e.reports.Build(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalCompletions)
	assert.Equal(t, 1, report.Summary.UniqueDaysActive)
	assert.Equal(t, 1, report.Summary.CurrentStreak)
}

func TestProgressService_BackdatedRestartCountsOverlap(t *testing.T) {
	e := newTestEnv(t)
	e.progress.Badges = nil
	e.startJourney(1)
	for day := 1; day <= 3; day++ {
		e.complete(1, 2)
		if day < 3 {
			e.nextDay()
		}
	}

	// 第 3 天重新开始，起点往前推两天，旧旅程的三天都落在新窗口内
	view, err := e.journeys.Start(e.ctx, 1, "2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, 5, view.CurrentDay)

	e.dashboard.Invalidate(e.ctx, 1)
	snap, err := e.dashboard.Snapshot(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, snap.CompletedToday)
	assert.Equal(t, 3, snap.Streak.Current)

	stats, err := e.badges.Stats(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DaysCompleted)
	assert.Equal(t, 3, stats.LongestStreak)

	h, err := e.insights.LoadHistory(e.ctx, 1)
	require.NoError(t, err)
	assert.Len(t, h.Checkins, 3)

	report, err := e.reports.Build(e.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.TotalCompletions)
	assert.Equal(t, 3, report.Summary.UniqueDaysActive)
	assert.Equal(t, 3, report.Summary.LongestStreak)

	// 之前的完成重新提交不会触发新的积分
	res, err := e.progress.RecordCompletion(e.ctx, 1, CompletionRequest{PillarID: 2, Date: "2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.KarmaAwarded)
	assert.Equal(t, view.Journey.ID, res.Checkin.JourneyID)
	assert.Equal(t, 3*10, e.balance(1))
}
