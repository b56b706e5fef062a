// Package http provides the retrying fetcher used to download media assets.
//
// This package handles:
//   - Connection pooling shared by all download workers
//   - A per-attempt timeout covering the request and the body
//   - Linear backoff between attempts (RetryDelay * attempt)
//   - A uniform retry policy: every non-200 status, timeout or transport
//     error is retried until the attempt budget is spent
//
// # Usage
//
//	client := http.NewClient(http.Options{
//	    Timeout:     30 * time.Second,
//	    MaxAttempts: 3,
//	    RetryDelay:  2 * time.Second,
//	})
//
//	data, err := client.Fetch(ctx, url)
//	var fe *http.FetchError
//	if errors.As(err, &fe) {
//	    // asset is absent; fe.Attempts, fe.StatusCode
//	}
//
// The worst case time spent on one asset is bounded by
// MaxAttempts*Timeout + RetryDelay*(1+2+...+MaxAttempts-1).
package http
