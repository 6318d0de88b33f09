package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Tabitha-Home/THMS-CLIENT/authentication"
	"github.com/Tabitha-Home/THMS-CLIENT/shared"

	"github.com/pkg/errors"
)

// Client is the single http entry point of the dashboard. Every request gets
// the configured base url, the stored bearer token and a request id; every
// response is funnelled through one status to error mapping so no caller
// ever sees a raw http failure.
type Client interface {
	Get(ctx context.Context, apiPath string, params url.Values, out interface{}) error
	Post(ctx context.Context, apiPath string, body interface{}, out interface{}) error
	Patch(ctx context.Context, apiPath string, body interface{}, out interface{}) error
	Delete(ctx context.Context, apiPath string) error
}

type DefaultClient struct {
	Config          *shared.AppConfig       `inject:""`
	Logger          *shared.Logger          `inject:""`
	Notifier        shared.Notifier         `inject:""`
	Session         *authentication.Session `inject:""`
	StringGenerator interface {
		GenerateUuid() string
	} `inject:""`

	initOnce   sync.Once
	httpClient *http.Client
}

func (c *DefaultClient) Get(ctx context.Context, apiPath string, params url.Values, out interface{}) error {
	return c.performRequest(ctx, http.MethodGet, apiPath, params, nil, out)
}

func (c *DefaultClient) Post(ctx context.Context, apiPath string, body interface{}, out interface{}) error {
	return c.performRequest(ctx, http.MethodPost, apiPath, nil, body, out)
}

func (c *DefaultClient) Patch(ctx context.Context, apiPath string, body interface{}, out interface{}) error {
	return c.performRequest(ctx, http.MethodPatch, apiPath, nil, body, out)
}

func (c *DefaultClient) Delete(ctx context.Context, apiPath string) error {
	return c.performRequest(ctx, http.MethodDelete, apiPath, nil, nil, nil)
}

func (c *DefaultClient) performRequest(ctx context.Context, method, apiPath string, params url.Values, body, out interface{}) error {
	c.initOnce.Do(func() {
		c.httpClient = &http.Client{Timeout: c.Config.RequestTimeout}
	})

	requestUrl, err := c.buildUrl(apiPath, params)
	if err != nil {
		return errors.Wrap(err, "failed to build request url")
	}

	var requestBody []byte
	if body != nil {
		requestBody, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to json encode the request body")
		}
	}

	req, err := http.NewRequest(method, requestUrl, bytes.NewReader(requestBody))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	requestId := c.StringGenerator.GenerateUuid()
	ctx = context.WithValue(ctx, shared.RequestIdKey, requestId)
	req = req.WithContext(ctx)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", requestId)
	if token := c.Session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// covers connectivity failures, the fixed timeout and context
		// cancellation alike: no response means a network failure
		c.Logger.Warn(ctx, "request failed without response", "method", method, "path", apiPath, "error", err.Error())
		c.Notifier.Error(ctx, "Network error. Please check your internet connection.")
		return &ApiError{Kind: KindNetwork, Message: "Network error. Please check your internet connection."}
	}
	defer resp.Body.Close()

	responseBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		c.Notifier.Error(ctx, "Network error. Please check your internet connection.")
		return &ApiError{Kind: KindNetwork, Message: "Network error. Please check your internet connection."}
	}

	c.Logger.Debug(ctx, "request completed",
		"method", method,
		"path", apiPath,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
	)

	// 304 carries no body, the caller keeps whatever it already has
	if resp.StatusCode >= 200 && resp.StatusCode < 300 || resp.StatusCode == http.StatusNotModified {
		if out == nil || len(responseBody) == 0 || resp.StatusCode == http.StatusNotModified {
			return nil
		}
		if err := json.Unmarshal(responseBody, out); err != nil {
			return errors.Wrap(err, "failed to decode json response")
		}
		return nil
	}

	return c.mapStatusError(ctx, resp.StatusCode, responseBody)
}

func (c *DefaultClient) buildUrl(apiPath string, params url.Values) (string, error) {
	base, err := url.Parse(c.Config.ApiBaseUrl)
	if err != nil {
		return "", err
	}
	base.Path = strings.TrimSuffix(base.Path, "/") + apiPath
	if params != nil {
		base.RawQuery = params.Encode()
	}
	return base.String(), nil
}

// errorEnvelope matches the two failure body dialects of the backend: a
// single message, or an express-validator style list of field errors.
type errorEnvelope struct {
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Param   string `json:"param"`
		Msg     string `json:"msg"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e errorEnvelope) fieldErrors() []FieldError {
	fieldErrors := make([]FieldError, 0, len(e.Errors))
	for _, raw := range e.Errors {
		field := raw.Field
		if field == "" {
			field = raw.Param
		}
		message := raw.Msg
		if message == "" {
			message = raw.Message
		}
		if message == "" {
			continue
		}
		fieldErrors = append(fieldErrors, FieldError{Field: field, Message: message})
	}
	return fieldErrors
}

func (c *DefaultClient) mapStatusError(ctx context.Context, statusCode int, responseBody []byte) error {
	envelope := errorEnvelope{}
	// a failure body that is not json still maps on the status code alone
	_ = json.Unmarshal(responseBody, &envelope)
	fieldErrors := envelope.fieldErrors()

	apiErr := &ApiError{StatusCode: statusCode, FieldErrors: fieldErrors}

	switch {
	case statusCode == http.StatusBadRequest:
		apiErr.Kind = KindValidation
		apiErr.Message = firstNonEmpty(firstFieldMessage(fieldErrors), envelope.Message, "Bad request. Please check your input.")
		c.Notifier.Error(ctx, apiErr.Message)

	case statusCode == http.StatusUnprocessableEntity:
		apiErr.Kind = KindValidation
		apiErr.Message = firstNonEmpty(firstFieldMessage(fieldErrors), envelope.Message, "Validation error.")
		if len(fieldErrors) > 0 {
			for _, fieldError := range fieldErrors {
				c.Notifier.Error(ctx, fieldError.Message)
			}
		} else {
			c.Notifier.Error(ctx, apiErr.Message)
		}

	case statusCode == http.StatusUnauthorized:
		apiErr.Kind = KindAuth
		apiErr.Message = "Your session has expired. Please login again."
		if c.Session.HandleUnauthorized(ctx) {
			c.Notifier.Error(ctx, apiErr.Message)
		}

	case statusCode == http.StatusForbidden:
		apiErr.Kind = KindPermission
		apiErr.Message = "You do not have permission to perform this action."
		c.Notifier.Error(ctx, apiErr.Message)

	case statusCode == http.StatusNotFound:
		// deliberately silent, absence is not always an error
		apiErr.Kind = KindNotFound
		apiErr.Message = firstNonEmpty(envelope.Message, "Resource not found.")

	case statusCode == http.StatusConflict:
		apiErr.Kind = KindConflict
		apiErr.Message = firstNonEmpty(envelope.Message, "This record already exists.")
		c.Notifier.Error(ctx, apiErr.Message)

	case statusCode == http.StatusServiceUnavailable:
		apiErr.Kind = KindServer
		apiErr.Message = "Service temporarily unavailable. Please try again later."
		c.Notifier.Error(ctx, apiErr.Message)

	case statusCode >= 500:
		apiErr.Kind = KindServer
		apiErr.Message = "Server error. Please try again later or contact support."
		c.Notifier.Error(ctx, apiErr.Message)

	default:
		apiErr.Kind = KindServer
		apiErr.Message = firstNonEmpty(envelope.Message, "An unexpected error occurred.")
		c.Notifier.Error(ctx, apiErr.Message)
	}

	return apiErr
}

func firstFieldMessage(fieldErrors []FieldError) string {
	if len(fieldErrors) == 0 {
		return ""
	}
	return fieldErrors[0].Message
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
