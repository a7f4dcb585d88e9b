package service

import (
	"encoding/json"
	"exam_admin_backend/internal/model"
	"sort"
	"strings"
)

// AutoScoreResult 客观题机判结果
type AutoScoreResult struct {
	Answered  bool
	IsCorrect *bool
	Score     float64
}

// AutoScore 客观题精确匹配判分：选中项集合与标准答案集合完全一致得满分，
// 否则 0 分。未作答的 IsCorrect 为空。
func AutoScore(q *model.Question, payload json.RawMessage) AutoScoreResult {
	correct := decodeKeys(q.CorrectKeys)
	selected := extractSelectedKeys(payload)

	if len(selected) == 0 {
		return AutoScoreResult{Answered: false}
	}

	isCorrect := len(correct) > 0 && equalSet(selected, correct)
	score := 0.0
	if isCorrect {
		score = q.Points
	}
	return AutoScoreResult{Answered: true, IsCorrect: &isCorrect, Score: score}
}

// GradingEligible 可进入阅卷的考次终态：交卷、强制收卷与超时。
// 作废的考次不判分。
func GradingEligible(status model.AttemptStatus) bool {
	switch status {
	case model.AttemptSubmitted, model.AttemptForceSubmitted, model.AttemptExpired:
		return true
	}
	return false
}

// CanAcceptManualGrade 人工判分只允许在未定稿的会话上进行，
// 定稿后的改分一律走重判留痕。
func CanAcceptManualGrade(status model.GradingStatus) bool {
	return status != model.GradingCompleted
}

// StatusAfterAutoGrade 机判后的会话状态：存在主观题则进入人工阅卷，
// 否则全部机判完成。
func StatusAfterAutoGrade(questions []model.Question) model.GradingStatus {
	for _, q := range questions {
		if !q.Type.IsObjective() {
			return model.GradingManualPending
		}
	}
	return model.GradingAutoGraded
}

// StatusAfterManualGrade 人工判分后的会话状态：全部题目都有判分记录即完成
func StatusAfterManualGrade(questions []model.Question, graded map[uint]bool) model.GradingStatus {
	for _, q := range questions {
		if !graded[q.ID] {
			return model.GradingManualPending
		}
	}
	return model.GradingCompleted
}

func AllGraded(questions []model.Question, graded map[uint]bool) bool {
	for _, q := range questions {
		if !graded[q.ID] {
			return false
		}
	}
	return true
}

func TotalScore(answers []model.GradedAnswer) float64 {
	total := 0.0
	for _, a := range answers {
		total += a.Score
	}
	return total
}

func IsPassed(total, threshold float64) bool {
	return total >= threshold
}

// SettleTotals 把已判得分累计回会话。总分随每次判分实时更新，
// 未判完（manual_pending / pending）时只是已判部分的累计，
// 是否及格要等会话定论后才能判定，在此之前保持为空。
func SettleTotals(session *model.GradingSession, graded []model.GradedAnswer, passingScore float64) {
	total := TotalScore(graded)
	session.TotalScore = &total
	switch session.Status {
	case model.GradingAutoGraded, model.GradingCompleted:
		passed := IsPassed(total, passingScore)
		session.IsPassed = &passed
	default:
		session.IsPassed = nil
	}
}

// ValidScore 判分范围校验：0 ≤ score ≤ 题目满分
func ValidScore(score, maxPoints float64) bool {
	return score >= 0 && score <= maxPoints
}

func decodeKeys(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err == nil {
		return normalizeKeys(keys)
	}
	// 兼容单值答案键
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return normalizeKeys([]string{single})
	}
	return nil
}

// extractSelectedKeys 作答载荷形如 {"selected":"A"} 或 {"selected":["A","C"]}
func extractSelectedKeys(payload json.RawMessage) []string {
	if len(payload) == 0 {
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil
	}

	v, ok := obj["selected"]
	if !ok {
		return nil
	}

	var keys []string
	switch t := v.(type) {
	case string:
		keys = []string{t}
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				keys = append(keys, s)
			}
		}
	}
	return normalizeKeys(keys)
}

func normalizeKeys(keys []string) []string {
	set := map[string]struct{}{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func equalSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	aa := append([]string(nil), a...)
	bb := append([]string(nil), b...)
	sort.Strings(aa)
	sort.Strings(bb)
	for i := range aa {
		if aa[i] != bb[i] {
			return false
		}
	}
	return true
}
