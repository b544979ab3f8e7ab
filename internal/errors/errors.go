package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidToken is returned when a bearer token is malformed, expired or revoked.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is returned when the caller lacks the role for an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable wraps unexpected persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Reason identifies a business rejection.
type Reason string

const (
	ReasonCredentialsRequired    Reason = "CREDENTIALS_REQUIRED"
	ReasonInvalidCredentials     Reason = "INVALID_CREDENTIALS"
	ReasonAccountInactive        Reason = "ACCOUNT_INACTIVE"
	ReasonUserNotFound           Reason = "USER_NOT_FOUND"
	ReasonNoWorkplaceAssigned    Reason = "NO_WORKPLACE_ASSIGNED"
	ReasonNoGeofenceConfigured   Reason = "NO_GEOFENCE_CONFIGURED"
	ReasonOutsideGeofence        Reason = "OUTSIDE_GEOFENCE"
	ReasonAlreadyRegisteredToday Reason = "ALREADY_REGISTERED_TODAY"
)

// Messages shown to the user for each rejection.
const (
	MsgCredentialsRequired    = "username and password are required"
	MsgInvalidCredentials     = "incorrect username or password"
	MsgAccountInactive        = "account is disabled, contact your administrator"
	MsgUserNotFound           = "user not found"
	MsgNoWorkplaceAssigned    = "you have no workplace assigned, contact your administrator"
	MsgNoGeofenceConfigured   = "there is no geofence configured for your workplace"
	MsgAlreadyRegisteredToday = "you already registered your attendance today"
)

// Rejection is an expected negative outcome. It is returned as data and
// never logged at error severity.
type Rejection struct {
	Reason   Reason
	Message  string
	Distance *float64
}

func (r *Rejection) Error() string {
	return r.Message
}

// Reject builds a rejection with the given reason and message.
func Reject(reason Reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// RejectOutside builds an OutsideGeofence rejection carrying the distance.
func RejectOutside(distance float64) *Rejection {
	d := distance
	return &Rejection{
		Reason:   ReasonOutsideGeofence,
		Message:  fmt.Sprintf("location outside the allowed area, distance: %.0fm", distance),
		Distance: &d,
	}
}

// AsRejection returns the rejection wrapped in err, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps non-business errors to HTTP errors. Anything unknown
// becomes a generic transient fault without internals.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrStoreUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable, try again", "TRY_AGAIN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error, try again", "INTERNAL_ERROR")
	}
}
