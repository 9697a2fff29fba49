// Package pinning provides an HTTP client for the remote pinning service and
// its session endpoint.
//
// # Endpoints
//
//   - GET  <session_path>: {valid, token} for the current session cookie
//   - POST <logout_path>: ends the session
//   - GET  <pins_path>?timestamp=<ms>: {success, images: [{ipfsHash, createdAt}]}
//   - POST <pins_path>: multipart upload, field "file"
//   - DELETE <pins_path>?hash=<cid>: unpin
//
// The list, upload and delete calls carry a bearer token from a TokenSource.
// When the service answers 401 or 403 the client invalidates the token,
// fetches a fresh one and retries exactly once; a second rejection is
// reported as auth.ErrAuthRequired.
//
// # Mapping
//
// List entries without an ipfsHash, or whose hash is not a valid CID, are
// dropped and never reach the gallery. A list body that is not the
// {success: true, images: [...]} wrapper is ErrUnexpectedResponse.
//
// # Errors
//
//   - ErrNetwork: the request never produced a response
//   - ErrUnexpectedResponse: a 2xx body that does not match the contract
//   - *APIError: any status >= 400, with the decoded body in Payload
//
// Every request carries an X-Request-ID so log lines can be matched with the
// service's own logs.
package pinning
