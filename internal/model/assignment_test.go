package model

import (
	"testing"
	"time"
)

func TestAssignmentCovers(t *testing.T) {
	from := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	to := from.Add(4 * time.Hour)

	tests := []struct {
		name       string
		assignment ExamAssignment
		now        time.Time
		want       bool
	}{
		{"inside window", ExamAssignment{ScheduleFrom: from, ScheduleTo: to, IsActive: true}, from.Add(time.Hour), true},
		{"at window start", ExamAssignment{ScheduleFrom: from, ScheduleTo: to, IsActive: true}, from, true},
		{"at window end", ExamAssignment{ScheduleFrom: from, ScheduleTo: to, IsActive: true}, to, true},
		{"before window", ExamAssignment{ScheduleFrom: from, ScheduleTo: to, IsActive: true}, from.Add(-time.Second), false},
		{"after window", ExamAssignment{ScheduleFrom: from, ScheduleTo: to, IsActive: true}, to.Add(time.Second), false},
		{"deactivated window never covers", ExamAssignment{ScheduleFrom: from, ScheduleTo: to, IsActive: false}, from.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.assignment.Covers(tt.now); got != tt.want {
				t.Errorf("Covers(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestAttemptStatusIsTerminal(t *testing.T) {
	terminal := []AttemptStatus{AttemptSubmitted, AttemptExpired, AttemptCancelled, AttemptForceSubmitted}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []AttemptStatus{AttemptNotStarted, AttemptInProgress, AttemptPaused}
	for _, s := range live {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestQuestionTypeIsObjective(t *testing.T) {
	objective := []QuestionType{SingleChoice, MultiChoice, TrueFalse}
	for _, typ := range objective {
		if !typ.IsObjective() {
			t.Errorf("%s should be objective", typ)
		}
	}
	subjective := []QuestionType{ShortAnswer, Essay}
	for _, typ := range subjective {
		if typ.IsObjective() {
			t.Errorf("%s should be subjective", typ)
		}
	}
}
