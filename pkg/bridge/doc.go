// Package bridge is the request/response layer every remote call goes
// through. Get issues an HTTP GET with the call arguments JSON-encoded into a
// single "args" query parameter; Put issues an HTTP PUT with the arguments as
// a JSON or multipart body. Responses are decoded according to the declared
// ResponseType and every non-2xx answer becomes a *RemoteCallError carrying
// the response body verbatim.
//
// A Codec captures its origin once at construction and holds no other state,
// so it is safe for concurrent use. Calls are never retried.
package bridge
