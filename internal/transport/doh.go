package transport

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// doHClient is shared across Resolve calls to reuse connections; it sets
// no deadline of its own, matching the canonical no-timeout behavior.
var doHClient = &http.Client{}

// Resolve issues one HTTPS GET against baseURL carrying the base64url,
// unpadded encoding of query in the "dns" parameter, and returns the
// concatenated response body. Any transport failure is returned as-is; the
// caller decides whether that is fatal or merely logged.
func Resolve(ctx context.Context, baseURL string, query []byte) ([]byte, error) {
	encoded := base64.RawURLEncoding.EncodeToString(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("doh resolve: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("dns", encoded)
	req.URL.RawQuery = q.Encode()

	resp, err := doHClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doh resolve: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("doh resolve: read body: %w", err)
	}
	return body, nil
}
