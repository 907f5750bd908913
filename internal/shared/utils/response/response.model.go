package response

// Envelope is the uniform API response shape. Success responses carry
// message/data/meta; failures carry a machine-readable code plus a
// human-readable suggestion, never stack traces or raw driver errors.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Meta       interface{} `json:"meta,omitempty"`
	Code       string      `json:"code,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
	Error      interface{} `json:"error,omitempty"`
}

// Machine-readable failure codes.
const (
	CodeTokenMissing        = "TOKEN_MISSING"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodePasswordsDoNotMatch = "PASSWORDS_DO_NOT_MATCH"
	CodeUserDisabled        = "USER_DISABLED"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeUserAlreadyExists   = "USER_ALREADY_EXISTS"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeCSRFFailed          = "CSRF_FAILED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL"
)
