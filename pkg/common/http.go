package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrResponseTooLarge is returned when the body exceeds the limit passed to ReadAllFromURL.
var ErrResponseTooLarge = errors.New("response too large")

// HTTPResponse is the fully read body of a successful GET request.
type HTTPResponse struct {
	Body        []byte
	ContentType string
	// FinalURL the URL after redirects.
	FinalURL string
}

// ReadAllFromURL reads all content from the URL. At most `maxSize` bytes are read (no limit if `maxSize` <= 0),
// so that a dynamic page which infinitely streams output can't crash us with an OOM. Non-2xx responses are errors.
// `headers` are added to the request as is (for example, an authorization header).
func ReadAllFromURL(ctx context.Context, client *http.Client, url string, maxSize int64, headers map[string]string) (*HTTPResponse, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, res.Status)
	}
	var reader io.Reader = res.Body
	if maxSize > 0 {
		reader = io.LimitReader(res.Body, maxSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return nil, fmt.Errorf("GET %s: %w (limit is %d bytes)", url, ErrResponseTooLarge, maxSize)
	}
	return &HTTPResponse{
		Body:        content,
		ContentType: res.Header.Get("Content-Type"),
		FinalURL:    res.Request.URL.String(),
	}, nil
}
