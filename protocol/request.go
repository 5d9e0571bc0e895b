// Package protocol parses raw request bytes and serializes responses for
// the server's minimal HTTP-like wire format.
//
// A request is read from a single bounded buffer: a request line of exactly
// three tokens, optional key:value header lines, a blank line, and an
// optional body. Requests larger than the buffer are truncated silently.
package protocol

import (
	"errors"
	"regexp"
)

// ReadBufferSize is the default bound on a single connection read.
const ReadBufferSize = 512

// Parse errors
var (
	ErrEmptyRequest         = errors.New("empty request")
	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrUnknownMethod        = errors.New("unrecognized request method")
	ErrUnsupportedVersion   = errors.New("unsupported protocol version")
	ErrMalformedHeader      = errors.New("malformed header line")
)

// Patterns are compiled once at process start and shared read-only across
// worker goroutines.
var (
	requestLineRE = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)$`)
	headerRE      = regexp.MustCompile(`^([^:]+):(.*)$`)
	lineSplitRE   = regexp.MustCompile(`\r?\n`)
	blankLineRE   = regexp.MustCompile(`\r?\n\r?\n`)
)

// knownMethods is the set of HTTP method tokens the parser recognizes.
// Recognition is not support: the resolver still rejects most of these.
var knownMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
	"PATCH":   true,
	"TRACE":   true,
	"CONNECT": true,
}

// knownVersions is the set of recognized protocol version tokens.
var knownVersions = map[string]bool{
	"HTTP/0.9": true,
	"HTTP/1.0": true,
	"HTTP/1.1": true,
	"HTTP/2.0": true,
	"HTTP/3.0": true,
}

// Header is a single key:value header entry. Entries keep wire order.
type Header struct {
	Key   string
	Value string
}

// Request is the structured form of one wire request. It is built once per
// connection and never mutated afterward.
type Request struct {
	Method  string
	Path    string
	Version string
	Headers []Header
	Body    []byte
}

// Parse builds a Request from the bytes read off a connection.
func Parse(buf []byte) (*Request, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyRequest
	}

	head := buf
	var body []byte
	if loc := blankLineRE.FindIndex(buf); loc != nil {
		head = buf[:loc[0]]
		body = buf[loc[1]:]
	}

	lines := lineSplitRE.Split(string(head), -1)

	m := requestLineRE.FindStringSubmatch(lines[0])
	if m == nil {
		return nil, ErrMalformedRequestLine
	}

	method, path, version := m[1], m[2], m[3]
	if !knownMethods[method] {
		return nil, ErrUnknownMethod
	}
	if !knownVersions[version] {
		return nil, ErrUnsupportedVersion
	}

	req := &Request{
		Method:  method,
		Path:    path,
		Version: version,
		Body:    body,
	}

	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		h := headerRE.FindStringSubmatch(line)
		if h == nil {
			return nil, ErrMalformedHeader
		}
		req.Headers = append(req.Headers, Header{Key: h[1], Value: h[2]})
	}

	return req, nil
}
