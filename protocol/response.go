package protocol

import "fmt"

// Response status codes used by the resolver.
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
)

// Response is built once per request, serialized once, and discarded after
// the write.
type Response struct {
	Version string
	Status  int
	Body    string
}

// StatusText returns the reason phrase for the status codes this server
// emits.
func StatusText(code int) string {
	switch code {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusMethodNotAllowed:
		return "Method Not Allowed"
	case StatusInternalServerError:
		return "Internal Server Error"
	case StatusNotImplemented:
		return "Not Implemented"
	default:
		return "Unknown"
	}
}

// Serialize renders the response wire form:
//
//	VERSION STATUS-CODE STATUS-TEXT\r\n\r\nBODY
//
// No headers and no content-length are emitted. That is the wire contract,
// not an omission.
func (r *Response) Serialize() []byte {
	return []byte(fmt.Sprintf("%s %d %s\r\n\r\n%s", r.Version, r.Status, StatusText(r.Status), r.Body))
}
