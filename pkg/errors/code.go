package errors

import "net/http"

// ErrorCode identifies a failure class across the HTTP and websocket surfaces.
//
// 10000-10999: system and common
// 11000-11999: users and auth
// 12000-12999: problems and testcases
// 13000-13999: execution and judging
// 14000-14999: duels and matchmaking
type ErrorCode int

const (
	Success             ErrorCode = 10000
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	ServiceUnavailable  ErrorCode = 10007

	DatabaseError ErrorCode = 10100
	CacheError    ErrorCode = 10200

	ValidationFailed ErrorCode = 10300

	UserNotFound ErrorCode = 11001
	TokenInvalid ErrorCode = 11004

	ProblemNotFound  ErrorCode = 12000
	TestCaseNotFound ErrorCode = 12100
	TestCaseInvalid  ErrorCode = 12102

	LanguageNotSupported ErrorCode = 13003
	JudgeBusy            ErrorCode = 13100
	ExecutionFailed      ErrorCode = 13101

	RoomNotFound      ErrorCode = 14000
	NotAuthorized     ErrorCode = 14001
	RoomFull          ErrorCode = 14002
	RoomNotActive     ErrorCode = 14003
	AlreadyQueued     ErrorCode = 14100
	NotQueued         ErrorCode = 14101
	AlreadyInRoom     ErrorCode = 14102
	ProblemDrawFailed ErrorCode = 14200
)

var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	ServiceUnavailable:  "Service temporarily unavailable",

	DatabaseError: "Database operation failed",
	CacheError:    "Cache operation failed",

	ValidationFailed: "Validation failed",

	UserNotFound: "User not found",
	TokenInvalid: "Invalid token",

	ProblemNotFound:  "Problem not found",
	TestCaseNotFound: "Test case not found",
	TestCaseInvalid:  "Invalid test case reference",

	LanguageNotSupported: "Programming language not supported",
	ExecutionFailed:      "Code execution failed",
	JudgeBusy:            "Judge is busy, please try again later",

	RoomNotFound:      "Room not found",
	NotAuthorized:     "You are not a participant of this room",
	RoomFull:          "Room is full",
	RoomNotActive:     "Duel is not active",
	AlreadyQueued:     "Already searching for a match",
	NotQueued:         "Not in matchmaking queue",
	AlreadyInRoom:     "Already seated in a room",
	ProblemDrawFailed: "Could not assign a problem",
}

// Message returns the default message for the code.
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus maps the code onto an HTTP status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case Success:
		return http.StatusOK
	case InvalidParams, ValidationFailed, LanguageNotSupported, TestCaseInvalid:
		return http.StatusBadRequest
	case Unauthorized, TokenInvalid:
		return http.StatusUnauthorized
	case Forbidden, NotAuthorized:
		return http.StatusForbidden
	case NotFound, UserNotFound, ProblemNotFound, TestCaseNotFound, RoomNotFound, NotQueued:
		return http.StatusNotFound
	case RoomFull, AlreadyQueued, AlreadyInRoom, RoomNotActive:
		return http.StatusConflict
	case ExecutionFailed:
		return http.StatusUnprocessableEntity
	case JudgeBusy, ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
