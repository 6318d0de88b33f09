package transport

// Kind classifies an api failure the way the dashboard reacts to it. The
// classification is part of the client contract: callers branch on the kind,
// never on raw status codes or response bodies.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindServer     Kind = "server"
	KindNetwork    Kind = "network"
)

type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ApiError is the normalized failure shape every layer above the transport
// sees. Message is always safe for direct display.
type ApiError struct {
	Kind        Kind
	StatusCode  int
	Message     string
	FieldErrors []FieldError
}

func (e *ApiError) Error() string {
	return e.Message
}

// Retryable reports whether retrying the request could help: only server and
// network failures qualify, every 4xx is deterministic.
func (e *ApiError) Retryable() bool {
	return e.Kind == KindServer || e.Kind == KindNetwork
}

func IsKind(err error, kind Kind) bool {
	apiErr, ok := AsApiError(err)
	return ok && apiErr.Kind == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

func IsValidation(err error) bool {
	return IsKind(err, KindValidation)
}

func IsRetryable(err error) bool {
	apiErr, ok := AsApiError(err)
	return ok && apiErr.Retryable()
}

// AsApiError unwraps pkg/errors chains down to the transport failure, if any.
func AsApiError(err error) (*ApiError, bool) {
	type causer interface {
		Cause() error
	}

	for err != nil {
		if apiErr, ok := err.(*ApiError); ok {
			return apiErr, true
		}
		cause, ok := err.(causer)
		if !ok {
			return nil, false
		}
		err = cause.Cause()
	}
	return nil, false
}

// NewValidationError builds the failure shape used for client-side rejection
// of a write payload, mirroring what the backend would answer with a 400.
func NewValidationError(fieldErrors ...FieldError) *ApiError {
	message := "Validation error."
	if len(fieldErrors) > 0 {
		message = fieldErrors[0].Message
	}
	return &ApiError{
		Kind:        KindValidation,
		StatusCode:  400,
		Message:     message,
		FieldErrors: fieldErrors,
	}
}
