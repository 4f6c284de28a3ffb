// Package api is the fetch layer between opsdash and the dashboard backend.
//
// Every backend endpoint has one typed method on Client. A method either
// returns the decoded payload or one of four error kinds:
//
//   - ErrNetwork: the request never got a response
//   - *HTTPError: a 4xx or 5xx status, carrying the server's error text
//   - ErrMalformedPayload (as *PayloadError): wrong content type, undecodable
//     JSON, or an empty download
//   - *DomainError: a 2xx reply with "success": false
//
// UserMessage converts any of them into the text shown next to the control
// that triggered the request.
//
// Design decision: the client never retries. Every retry in opsdash is an
// explicit user action, and a retried upload would start a second job.
package api
