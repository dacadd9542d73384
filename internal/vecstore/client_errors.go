package vecstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

// ErrNotFound marks operations against objects or associations that no
// longer exist remotely. The coordinator treats these as successful
// cleanup rather than failures.
var ErrNotFound = errors.New("vecstore: not found")

// APIError is the error envelope the index API returns on non-2xx
// responses.
type APIError struct {
	Status int `json:"-"`
	Detail struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Detail.Code, e.Detail.Message)
}

// IsNotFound reports whether err represents a missing remote object,
// association, or index.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// handleAPIError folds the transport error and the API error state of a
// response into a single wrapped error.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", operation, requestErr)
	}

	// got a response, but api returned an error
	if resp.IsErrorState() {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%s: %w", operation, ErrNotFound)
		}

		if apiErr, ok := resp.ErrorResult().(*APIError); ok {
			apiErr.Status = resp.StatusCode
			return fmt.Errorf("%s: %w", operation, apiErr)
		}

		return fmt.Errorf("api error: %s: %s", operation, resp.Status)
	}

	return nil
}
