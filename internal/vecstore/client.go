// Package vecstore is the HTTP client for the remote vector index. It
// covers the object lifecycle the sync engine needs: create an index,
// upload an object, attach/detach it, and delete it.
package vecstore

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"

	"github.com/econbot/docsync/internal/version"
)

const (
	v1VectorStores = "/v1/vector_stores"
	v1Files        = "/v1/files"

	HeaderRequestID = "X-Request-Id"
)

var userAgent = fmt.Sprintf("DocSync/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Client talks to the vector index API. All operations are idempotent
// from the caller's perspective; transient failures are retried by the
// underlying http client before surfacing.
type Client struct {
	http *req.Client
}

func New(baseURL, apiKey string) *Client {
	client := req.C().
		SetBaseURL(baseURL).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1 * time.Second).
		SetUserAgent(userAgent).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal).
		AddCommonRetryCondition(func(resp *req.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		}).
		OnBeforeRequest(func(client *req.Client, r *req.Request) error {
			r.SetHeader(HeaderRequestID, uuid.NewString())
			return nil
		})

	if apiKey != "" {
		client.SetCommonBearerAuthToken(apiKey)
	}

	return &Client{http: client}
}

// CreateIndex creates a new vector index and returns its identity.
func (c *Client) CreateIndex(ctx context.Context, name string) (string, error) {
	var out IndexResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&createIndexRequest{Name: name}).
		SetSuccessResult(&out).
		Post(v1VectorStores)

	if err := handleAPIError(resp, err, "create index"); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateObject uploads the file at filePath and returns the new remote
// object id. The object is not searchable until attached to an index.
func (c *Client) CreateObject(ctx context.Context, filePath, name string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer file.Close()

	var out ObjectResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetRetryCount(0). // multipart bodies are not replayable
		SetFileReader("file", name, file).
		SetFormData(map[string]string{"purpose": "assistants"}).
		SetSuccessResult(&out).
		Post(v1Files)

	if err := handleAPIError(resp, err, "create object"); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Attach associates an uploaded object with the index.
func (c *Client) Attach(ctx context.Context, indexID, objectID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&attachRequest{FileID: objectID}).
		Post(fmt.Sprintf("%s/%s/files", v1VectorStores, indexID))

	return handleAPIError(resp, err, "attach object")
}

// Detach removes the object's association with the index. The object
// itself survives until DeleteObject.
func (c *Client) Detach(ctx context.Context, indexID, objectID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("%s/%s/files/%s", v1VectorStores, indexID, objectID))

	return handleAPIError(resp, err, "detach object")
}

// DeleteObject permanently removes the object.
func (c *Client) DeleteObject(ctx context.Context, objectID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("%s/%s", v1Files, objectID))

	return handleAPIError(resp, err, "delete object")
}
