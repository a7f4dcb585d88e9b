package service

import (
	"exam_admin_backend/internal/model"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from model.AttemptStatus
		to   model.AttemptStatus
		want bool
	}{
		{"start", model.AttemptNotStarted, model.AttemptInProgress, true},
		{"cancel before start", model.AttemptNotStarted, model.AttemptCancelled, true},
		{"pause", model.AttemptInProgress, model.AttemptPaused, true},
		{"submit", model.AttemptInProgress, model.AttemptSubmitted, true},
		{"expire in progress", model.AttemptInProgress, model.AttemptExpired, true},
		{"force submit", model.AttemptInProgress, model.AttemptForceSubmitted, true},
		{"resume", model.AttemptPaused, model.AttemptInProgress, true},
		{"submit from paused", model.AttemptPaused, model.AttemptSubmitted, true},
		{"expire while paused", model.AttemptPaused, model.AttemptExpired, true},

		{"skip straight to paused", model.AttemptNotStarted, model.AttemptPaused, false},
		{"submit before start", model.AttemptNotStarted, model.AttemptSubmitted, false},
		{"reopen submitted", model.AttemptSubmitted, model.AttemptInProgress, false},
		{"resume expired", model.AttemptExpired, model.AttemptInProgress, false},
		{"cancel cancelled", model.AttemptCancelled, model.AttemptCancelled, false},
		{"revive force submitted", model.AttemptForceSubmitted, model.AttemptPaused, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	all := []model.AttemptStatus{
		model.AttemptNotStarted, model.AttemptInProgress, model.AttemptPaused,
		model.AttemptSubmitted, model.AttemptExpired, model.AttemptCancelled,
		model.AttemptForceSubmitted,
	}
	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal status %s must not transition to %s", from, to)
			}
		}
	}
}

func TestRemainingSeconds(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		attempt model.ExamAttempt
		now     time.Time
		want    int64
	}{
		{
			name: "running, clock ticks from last resume",
			attempt: model.ExamAttempt{
				Status:              model.AttemptInProgress,
				BaseDurationSeconds: 3600,
				LastResumedAt:       &t0,
			},
			now:  t0.Add(100 * time.Second),
			want: 3500,
		},
		{
			name: "paused, clock frozen",
			attempt: model.ExamAttempt{
				Status:              model.AttemptPaused,
				BaseDurationSeconds: 3600,
				ConsumedSeconds:     600,
			},
			now:  t0.Add(24 * time.Hour),
			want: 3000,
		},
		{
			name: "extra time extends the budget",
			attempt: model.ExamAttempt{
				Status:              model.AttemptInProgress,
				BaseDurationSeconds: 3600,
				ExtraTimeSeconds:    600,
				ConsumedSeconds:     1000,
				LastResumedAt:       &t0,
			},
			now:  t0.Add(200 * time.Second),
			want: 3000,
		},
		{
			name: "overrun clamps at zero",
			attempt: model.ExamAttempt{
				Status:              model.AttemptInProgress,
				BaseDurationSeconds: 3600,
				LastResumedAt:       &t0,
			},
			now:  t0.Add(3700 * time.Second),
			want: 0,
		},
		{
			name: "terminal always zero",
			attempt: model.ExamAttempt{
				Status:              model.AttemptSubmitted,
				BaseDurationSeconds: 3600,
				ConsumedSeconds:     100,
			},
			now:  t0,
			want: 0,
		},
		{
			name: "consumed plus running interval",
			attempt: model.ExamAttempt{
				Status:              model.AttemptInProgress,
				BaseDurationSeconds: 3600,
				ConsumedSeconds:     1800,
				LastResumedAt:       &t0,
			},
			now:  t0.Add(300 * time.Second),
			want: 1500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingSeconds(&tt.attempt, tt.now); got != tt.want {
				t.Errorf("RemainingSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingSecondsNeverNegative(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	a := model.ExamAttempt{
		Status:              model.AttemptInProgress,
		BaseDurationSeconds: 60,
		ConsumedSeconds:     50,
		LastResumedAt:       &t0,
	}
	for _, offset := range []time.Duration{0, time.Minute, time.Hour, 48 * time.Hour} {
		if got := RemainingSeconds(&a, t0.Add(offset)); got < 0 {
			t.Fatalf("RemainingSeconds went negative (%d) at offset %v", got, offset)
		}
	}
}

func TestIsStale(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	grace := 5 * time.Minute

	active := t0
	tests := []struct {
		name    string
		attempt model.ExamAttempt
		now     time.Time
		want    bool
	}{
		{
			name:    "fresh heartbeat",
			attempt: model.ExamAttempt{Status: model.AttemptInProgress, LastActivityAt: &active},
			now:     t0.Add(time.Minute),
			want:    false,
		},
		{
			name:    "heartbeat lost beyond grace",
			attempt: model.ExamAttempt{Status: model.AttemptInProgress, LastActivityAt: &active},
			now:     t0.Add(6 * time.Minute),
			want:    true,
		},
		{
			name:    "paused never stale",
			attempt: model.ExamAttempt{Status: model.AttemptPaused, LastActivityAt: &active},
			now:     t0.Add(time.Hour),
			want:    false,
		},
		{
			name:    "no activity recorded",
			attempt: model.ExamAttempt{Status: model.AttemptInProgress},
			now:     t0.Add(time.Hour),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(&tt.attempt, tt.now, grace); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldExpire(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	grace := 5 * time.Minute
	active := t0

	tests := []struct {
		name    string
		attempt model.ExamAttempt
		now     time.Time
		want    bool
	}{
		{
			name: "time exhausted",
			attempt: model.ExamAttempt{
				Status:              model.AttemptInProgress,
				BaseDurationSeconds: 60,
				LastResumedAt:       &t0,
				LastActivityAt:      &active,
			},
			now:  t0.Add(2 * time.Minute),
			want: true,
		},
		{
			name: "stale with time left",
			attempt: model.ExamAttempt{
				Status:              model.AttemptInProgress,
				BaseDurationSeconds: 3600,
				LastResumedAt:       &t0,
				LastActivityAt:      &active,
			},
			now:  t0.Add(10 * time.Minute),
			want: true,
		},
		{
			name: "healthy and within budget",
			attempt: model.ExamAttempt{
				Status:              model.AttemptInProgress,
				BaseDurationSeconds: 3600,
				LastResumedAt:       &t0,
				LastActivityAt:      &active,
			},
			now:  t0.Add(time.Minute),
			want: false,
		},
		{
			name: "paused with budget left survives",
			attempt: model.ExamAttempt{
				Status:              model.AttemptPaused,
				BaseDurationSeconds: 3600,
				ConsumedSeconds:     600,
			},
			now:  t0.Add(48 * time.Hour),
			want: false,
		},
		{
			name: "paused with budget gone expires",
			attempt: model.ExamAttempt{
				Status:              model.AttemptPaused,
				BaseDurationSeconds: 600,
				ConsumedSeconds:     600,
			},
			now:  t0,
			want: true,
		},
		{
			name: "terminal never expires again",
			attempt: model.ExamAttempt{
				Status:              model.AttemptExpired,
				BaseDurationSeconds: 60,
			},
			now:  t0.Add(time.Hour),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldExpire(&tt.attempt, tt.now, grace); got != tt.want {
				t.Errorf("ShouldExpire() = %v, want %v", got, tt.want)
			}
		})
	}
}
