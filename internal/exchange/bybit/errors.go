package bybit

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-zero retCode returned by the Bybit API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	desc := e.Message
	if desc == "" {
		desc = Describe(e.Code)
	}
	return fmt.Sprintf("bybit API error %d: %s", e.Code, desc)
}

// Bybit retCodes relevant to market data.
const (
	ErrCodeInvalidAPIKey     = 10003
	ErrCodeRateLimitExceeded = 10006
	ErrCodeInvalidParameter  = 10001
	ErrCodeSymbolNotFound    = 110009
	ErrCodeServerTimeout     = 10016
)

var errorDescriptions = map[int]string{
	ErrCodeInvalidAPIKey:     "invalid API key",
	ErrCodeRateLimitExceeded: "rate limit exceeded",
	ErrCodeInvalidParameter:  "invalid request parameter",
	ErrCodeSymbolNotFound:    "symbol not found",
	ErrCodeServerTimeout:     "server timeout",
}

// Describe returns a readable description for a retCode.
func Describe(code int) string {
	if desc, ok := errorDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("unknown error code %d", code)
}

// ParseAPIError turns a response retCode into an error; zero is success.
func ParseAPIError(retCode int, retMsg string) error {
	if retCode == 0 {
		return nil
	}
	return &APIError{Code: retCode, Message: retMsg}
}

// IsRetryableError reports whether err is a rate limit or server side failure.
func IsRetryableError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case ErrCodeRateLimitExceeded, ErrCodeServerTimeout,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
