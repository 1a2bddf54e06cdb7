// Package http is the REST transport shared by the agdt integration
// clients. It adds JSON encoding, authentication hooks, retries with
// backoff on 429 and 5xx responses, typed API errors, and a lazy page
// iterator for offset-paginated endpoints.
package http
