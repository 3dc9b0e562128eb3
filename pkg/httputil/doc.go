// Package httputil provides HTTP plumbing shared by remote layout engines.
//
//   - [Retry]: retry with exponential backoff for transient failures
//   - [StatusError]: a non-2xx response, retryable when the server failed
//   - [Transport]: an http.RoundTripper that reports requests to the
//     [observability.HTTP] hooks
//
// Only errors wrapped in [RetryableError] are retried:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// An attempts value of 1 disables retrying.
package httputil
