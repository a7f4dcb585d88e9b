package util

import "errors"

// 领域错误按六类收敛：NotFound / Conflict / NotEligible / Incomplete /
// ValidationFailed / Unauthorized，controller 层统一映射为 HTTP 状态码。
var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailRegistered = errors.New("该邮箱已被注册")

	ErrExamNotFound       = errors.New("exam not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrSessionNotFound    = errors.New("grading session not found")
	ErrAssignmentNotFound = errors.New("assignment not found")

	ErrAttemptTerminal    = errors.New("attempt already in terminal status")
	ErrIllegalTransition  = errors.New("illegal attempt status transition")
	ErrSessionExists      = errors.New("grading session already exists for attempt")
	ErrSessionCompleted   = errors.New("grading session already completed, use regrade")
	ErrAttemptStarted     = errors.New("attempt already started, assignment cannot be removed")
	ErrAssignmentOverlap  = errors.New("an active assignment window already overlaps")
	ErrConcurrentConflict = errors.New("concurrent modification, please retry")

	ErrNoActiveWindow    = errors.New("no active assignment window covers current time")
	ErrAttemptsExhausted = errors.New("max attempts exhausted and no override granted")
	ErrWrongAccessCode   = errors.New("准考码错误")
	ErrExamNotPublished  = errors.New("exam not published")

	ErrGradingIncomplete = errors.New("some questions still lack a grade")
	ErrAttemptNotFinal   = errors.New("attempt not submitted yet")

	ErrScoreOutOfRange = errors.New("score out of range for question")

	ErrMediaNotFound        = errors.New("media file not found")
	ErrUnsupportedMediaType = errors.New("不支持的文件类型")

	ErrPermissionDenied = errors.New("permission denied")
)

// IsConflict Conflict 类错误：状态机拒绝、重复会话、并发冲突
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptTerminal) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrSessionExists) ||
		errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrAttemptStarted) ||
		errors.Is(err, ErrAssignmentOverlap) ||
		errors.Is(err, ErrConcurrentConflict) ||
		errors.Is(err, ErrAttemptNotFinal)
}

// IsNotEligible NotEligible 类错误：无生效排考窗口、次数用尽、准考码错误
func IsNotEligible(err error) bool {
	return errors.Is(err, ErrNoActiveWindow) ||
		errors.Is(err, ErrAttemptsExhausted) ||
		errors.Is(err, ErrWrongAccessCode) ||
		errors.Is(err, ErrExamNotPublished)
}

// IsNotFound NotFound 类错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrMediaNotFound)
}
