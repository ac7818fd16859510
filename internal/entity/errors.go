package entity

import "errors"

var (
	ErrForbidden        = errors.New("forbidden: access denied")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrTaskNotFound     = errors.New("task not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidTaskData  = errors.New("invalid task data")
	ErrInvalidUserData  = errors.New("invalid user data")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrTaskNotEditable  = errors.New("task can only be edited while open")
	ErrValidation       = errors.New("validation failed")
)

// Ошибки жизненного цикла задачи и заявок
var (
	ErrUnauthorized         = errors.New("not allowed to perform this transition")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrOwnTaskForbidden     = errors.New("cannot volunteer for own task")
	ErrTaskNotOpen          = errors.New("task is not open")
	ErrDuplicateApplication = errors.New("already volunteered for this task")
	ErrSlotsFull            = errors.New("all volunteer slots are taken")
)

var (
	ErrApplicationNotFound = errors.New("volunteer application not found")
	ErrReviewNotFound      = errors.New("review not found")
	ErrInvalidReview       = errors.New("invalid review")
	ErrNotParticipant      = errors.New("user did not participate in this task")
	ErrTaskNotCompleted    = errors.New("task is not completed")
	ErrDuplicateReview     = errors.New("review already submitted")
	ErrSelfReview          = errors.New("cannot review yourself")
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// машинные коды ошибок для клиентов API
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrOwnTaskForbidden, "own_task"},
	{ErrTaskNotOpen, "task_not_open"},
	{ErrDuplicateApplication, "duplicate_application"},
	{ErrSlotsFull, "slots_full"},
	{ErrForbidden, "forbidden"},
	{ErrNoFieldsToUpdate, "no_fields_to_update"},
	{ErrTaskNotFound, "task_not_found"},
	{ErrUserNotFound, "user_not_found"},
	{ErrApplicationNotFound, "application_not_found"},
	{ErrReviewNotFound, "review_not_found"},
	{ErrInvalidTaskData, "invalid_task_data"},
	{ErrInvalidUserData, "invalid_user_data"},
	{ErrInvalidStatus, "invalid_status"},
	{ErrTaskNotEditable, "task_not_editable"},
	{ErrValidation, "validation_failed"},
	{ErrInvalidReview, "invalid_review"},
	{ErrNotParticipant, "not_participant"},
	{ErrTaskNotCompleted, "task_not_completed"},
	{ErrDuplicateReview, "duplicate_review"},
	{ErrSelfReview, "self_review"},
	{ErrEmailTaken, "email_taken"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrInvalidToken, "invalid_token"},
}

// ErrorCode возвращает машинный код для известной ошибки, иначе "internal"
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
