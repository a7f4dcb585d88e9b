package service

import (
	"exam_admin_backend/internal/model"
	"time"
)

// 状态迁移表。终态没有出边，所有写路径在 CAS 更新前先核对此表。
var legalTransitions = map[model.AttemptStatus][]model.AttemptStatus{
	model.AttemptNotStarted: {model.AttemptInProgress, model.AttemptCancelled},
	model.AttemptInProgress: {
		model.AttemptPaused,
		model.AttemptSubmitted,
		model.AttemptExpired,
		model.AttemptCancelled,
		model.AttemptForceSubmitted,
	},
	model.AttemptPaused: {
		model.AttemptInProgress,
		model.AttemptSubmitted,
		model.AttemptExpired,
		model.AttemptCancelled,
		model.AttemptForceSubmitted,
	},
}

func CanTransition(from, to model.AttemptStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ConsumedSecondsAt 截至 now 已消耗的答题秒数：已结算部分加上进行中的区间
func ConsumedSecondsAt(a *model.ExamAttempt, now time.Time) int64 {
	consumed := a.ConsumedSeconds
	if a.Status == model.AttemptInProgress && a.LastResumedAt != nil {
		elapsed := int64(now.Sub(*a.LastResumedAt).Seconds())
		if elapsed > 0 {
			consumed += elapsed
		}
	}
	return consumed
}

// RemainingSeconds 剩余答题秒数，恒不为负；为 0 即应过期
func RemainingSeconds(a *model.ExamAttempt, now time.Time) int64 {
	if a.Status.IsTerminal() {
		return 0
	}
	remaining := a.BaseDurationSeconds + a.ExtraTimeSeconds - ConsumedSecondsAt(a, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsStale 进行中但心跳失联超过宽限期。暂停中的不算失联。
func IsStale(a *model.ExamAttempt, now time.Time, grace time.Duration) bool {
	if a.Status != model.AttemptInProgress || a.LastActivityAt == nil {
		return false
	}
	return now.Sub(*a.LastActivityAt) > grace
}

// ShouldExpire 巡检判据：计时耗尽或心跳失联
func ShouldExpire(a *model.ExamAttempt, now time.Time, grace time.Duration) bool {
	if a.Status.IsTerminal() {
		return false
	}
	return RemainingSeconds(a, now) <= 0 || IsStale(a, now, grace)
}
