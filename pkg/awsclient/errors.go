package awsclient

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// APIError extracts the service error code and message from err.
func APIError(err error) (code, message string, ok bool) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode(), apiErr.ErrorMessage(), true
	}
	return "", "", false
}

// HTTPStatus returns the HTTP status code of the response that produced err.
func HTTPStatus(err error) (int, bool) {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode(), true
	}
	return 0, false
}

// notFoundCodes are the API error codes that mean the resource does not exist.
var notFoundCodes = map[string]bool{
	"NoSuchKey":        true,
	"NoSuchBucket":     true,
	"NoSuchUpload":     true,
	"NoSuchVersion":    true,
	"NotFound":         true,
	"NoSuchEntity":     true,
	"ResourceNotFound": true,
}

// IsNotFound reports whether err means the requested resource does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if code, _, ok := APIError(err); ok && notFoundCodes[code] {
		return true
	}

	if status, ok := HTTPStatus(err); ok && status == http.StatusNotFound {
		return true
	}

	// Some S3-compatible servers only put the code in the message.
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound")
}
