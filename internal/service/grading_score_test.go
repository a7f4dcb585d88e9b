package service

import (
	"encoding/json"
	"errors"
	"exam_admin_backend/internal/model"
	"exam_admin_backend/internal/util"
	"testing"
)

func objective(id uint, typ model.QuestionType, points float64, keys string) model.Question {
	q := model.Question{Type: typ, Points: points, CorrectKeys: json.RawMessage(keys)}
	q.ID = id
	return q
}

func subjective(id uint, typ model.QuestionType, points float64) model.Question {
	q := model.Question{Type: typ, Points: points}
	q.ID = id
	return q
}

func TestAutoScore(t *testing.T) {
	tests := []struct {
		name        string
		question    model.Question
		payload     string
		wantScore   float64
		wantCorrect *bool
	}{
		{
			name:        "single choice correct",
			question:    objective(1, model.SingleChoice, 5, `["A"]`),
			payload:     `{"selected":"A"}`,
			wantScore:   5,
			wantCorrect: boolPtr(true),
		},
		{
			name:        "single choice wrong",
			question:    objective(1, model.SingleChoice, 5, `["A"]`),
			payload:     `{"selected":"B"}`,
			wantScore:   0,
			wantCorrect: boolPtr(false),
		},
		{
			name:        "multi choice exact set matches regardless of order",
			question:    objective(2, model.MultiChoice, 4, `["A","C"]`),
			payload:     `{"selected":["C","A"]}`,
			wantScore:   4,
			wantCorrect: boolPtr(true),
		},
		{
			name:        "multi choice partial selection scores zero",
			question:    objective(2, model.MultiChoice, 4, `["A","C"]`),
			payload:     `{"selected":["A"]}`,
			wantScore:   0,
			wantCorrect: boolPtr(false),
		},
		{
			name:        "multi choice superset scores zero",
			question:    objective(2, model.MultiChoice, 4, `["A","C"]`),
			payload:     `{"selected":["A","B","C"]}`,
			wantScore:   0,
			wantCorrect: boolPtr(false),
		},
		{
			name:        "true false with bare string key",
			question:    objective(3, model.TrueFalse, 2, `"true"`),
			payload:     `{"selected":"true"}`,
			wantScore:   2,
			wantCorrect: boolPtr(true),
		},
		{
			name:        "unanswered leaves correctness open",
			question:    objective(1, model.SingleChoice, 5, `["A"]`),
			payload:     "",
			wantScore:   0,
			wantCorrect: nil,
		},
		{
			name:        "empty selection counts as unanswered",
			question:    objective(2, model.MultiChoice, 4, `["A","C"]`),
			payload:     `{"selected":[]}`,
			wantScore:   0,
			wantCorrect: nil,
		},
		{
			name:        "malformed payload counts as unanswered",
			question:    objective(1, model.SingleChoice, 5, `["A"]`),
			payload:     `not json`,
			wantScore:   0,
			wantCorrect: nil,
		},
		{
			name:        "duplicate selections collapse",
			question:    objective(2, model.MultiChoice, 4, `["A","C"]`),
			payload:     `{"selected":["A","A","C"]}`,
			wantScore:   4,
			wantCorrect: boolPtr(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AutoScore(&tt.question, json.RawMessage(tt.payload))

			if result.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", result.Score, tt.wantScore)
			}
			if tt.wantCorrect == nil {
				if result.IsCorrect != nil {
					t.Errorf("IsCorrect = %v, want nil", *result.IsCorrect)
				}
				if result.Answered {
					t.Error("Answered = true, want false")
				}
			} else {
				if result.IsCorrect == nil {
					t.Fatal("IsCorrect is nil, want value")
				}
				if *result.IsCorrect != *tt.wantCorrect {
					t.Errorf("IsCorrect = %v, want %v", *result.IsCorrect, *tt.wantCorrect)
				}
			}
		})
	}
}

func TestStatusAfterAutoGrade(t *testing.T) {
	allObjective := []model.Question{
		objective(1, model.SingleChoice, 5, `["A"]`),
		objective(2, model.TrueFalse, 2, `"true"`),
	}
	if got := StatusAfterAutoGrade(allObjective); got != model.GradingAutoGraded {
		t.Errorf("all objective: got %s, want %s", got, model.GradingAutoGraded)
	}

	mixed := []model.Question{
		objective(1, model.SingleChoice, 5, `["A"]`),
		objective(2, model.MultiChoice, 4, `["A","C"]`),
		objective(3, model.TrueFalse, 2, `"false"`),
		subjective(4, model.Essay, 20),
	}
	if got := StatusAfterAutoGrade(mixed); got != model.GradingManualPending {
		t.Errorf("mixed paper: got %s, want %s", got, model.GradingManualPending)
	}
}

func TestStatusAfterManualGrade(t *testing.T) {
	questions := []model.Question{
		objective(1, model.SingleChoice, 5, `["A"]`),
		subjective(2, model.ShortAnswer, 10),
		subjective(3, model.Essay, 20),
	}

	partial := map[uint]bool{1: true, 2: true}
	if got := StatusAfterManualGrade(questions, partial); got != model.GradingManualPending {
		t.Errorf("partial grading: got %s, want %s", got, model.GradingManualPending)
	}
	if AllGraded(questions, partial) {
		t.Error("AllGraded = true with an ungraded essay")
	}

	full := map[uint]bool{1: true, 2: true, 3: true}
	if got := StatusAfterManualGrade(questions, full); got != model.GradingCompleted {
		t.Errorf("full grading: got %s, want %s", got, model.GradingCompleted)
	}
	if !AllGraded(questions, full) {
		t.Error("AllGraded = false with every question graded")
	}
}

func TestTotalScoreAndIsPassed(t *testing.T) {
	answers := []model.GradedAnswer{
		{Score: 5},
		{Score: 0},
		{Score: 12.5},
	}
	total := TotalScore(answers)
	if total != 17.5 {
		t.Errorf("TotalScore = %v, want 17.5", total)
	}

	if !IsPassed(60, 60) {
		t.Error("score equal to threshold must pass")
	}
	if IsPassed(59.9, 60) {
		t.Error("score below threshold must not pass")
	}
}

func TestSettleTotalsTracksPartialProgress(t *testing.T) {
	// 三道客观题已机判、一道问答题待人工：总分先反映已判部分，及格与否悬置
	graded := []model.GradedAnswer{
		{Score: 5},
		{Score: 4},
		{Score: 2},
	}

	pending := &model.GradingSession{Status: model.GradingManualPending}
	SettleTotals(pending, graded, 60)
	if pending.TotalScore == nil || *pending.TotalScore != 11 {
		t.Fatalf("TotalScore = %v, want 11 while manual grading pending", pending.TotalScore)
	}
	if pending.IsPassed != nil {
		t.Errorf("IsPassed = %v, want nil before the essay is graded", *pending.IsPassed)
	}

	done := &model.GradingSession{Status: model.GradingCompleted}
	SettleTotals(done, append(graded, model.GradedAnswer{Score: 50}), 60)
	if done.TotalScore == nil || *done.TotalScore != 61 {
		t.Fatalf("TotalScore = %v, want 61 after completion", done.TotalScore)
	}
	if done.IsPassed == nil || !*done.IsPassed {
		t.Error("IsPassed should be true once 61 >= 60")
	}

	auto := &model.GradingSession{Status: model.GradingAutoGraded}
	SettleTotals(auto, graded, 60)
	if auto.IsPassed == nil || *auto.IsPassed {
		t.Error("auto graded 11 < 60 should fail the threshold")
	}
}

func TestCanAcceptManualGrade(t *testing.T) {
	tests := []struct {
		status model.GradingStatus
		want   bool
	}{
		{model.GradingPending, true},
		{model.GradingAutoGraded, true},
		{model.GradingManualPending, true},
		{model.GradingCompleted, false},
	}
	for _, tt := range tests {
		if got := CanAcceptManualGrade(tt.status); got != tt.want {
			t.Errorf("CanAcceptManualGrade(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestGradingEligible(t *testing.T) {
	tests := []struct {
		status model.AttemptStatus
		want   bool
	}{
		{model.AttemptSubmitted, true},
		{model.AttemptForceSubmitted, true},
		{model.AttemptExpired, true},
		{model.AttemptCancelled, false},
		{model.AttemptInProgress, false},
		{model.AttemptPaused, false},
		{model.AttemptNotStarted, false},
	}
	for _, tt := range tests {
		if got := GradingEligible(tt.status); got != tt.want {
			t.Errorf("GradingEligible(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestInitiateRejectsNonGraders(t *testing.T) {
	svc := &GradingService{Policy: NewPolicy()}
	_, err := svc.Initiate(1, &util.Claims{UserID: 9, Role: model.Candidate})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("candidate initiating grading: err = %v, want %v", err, util.ErrPermissionDenied)
	}
}

func TestValidScore(t *testing.T) {
	tests := []struct {
		score, max float64
		want       bool
	}{
		{0, 10, true},
		{10, 10, true},
		{5.5, 10, true},
		{-0.5, 10, false},
		{10.1, 10, false},
	}
	for _, tt := range tests {
		if got := ValidScore(tt.score, tt.max); got != tt.want {
			t.Errorf("ValidScore(%v, %v) = %v, want %v", tt.score, tt.max, got, tt.want)
		}
	}
}

func boolPtr(b bool) *bool { return &b }
