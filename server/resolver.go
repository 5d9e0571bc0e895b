package server

import (
	"fmt"
	"os"

	"github.com/nqduc/minihttpd/protocol"
)

// resolve maps a parsed request to a response using the route table.
//
//	GET/POST, path in table   -> 200, contents of the mapped file
//	GET/POST, path not found  -> 404, contents of the fallback document
//	HEAD/OPTIONS              -> 501, message naming the method
//	any other method          -> 405, message naming the method
//
// File reads happen synchronously on the worker handling the request. A
// read failure (mapped file or fallback document) is an error for this
// request only.
func (s *Server) resolve(req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case "GET", "POST":
		if file, ok := s.routes[req.Path]; ok {
			body, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", req.Path, err)
			}
			return &protocol.Response{Version: req.Version, Status: protocol.StatusOK, Body: string(body)}, nil
		}

		body, err := os.ReadFile(s.config.FallbackFile)
		if err != nil {
			return nil, fmt.Errorf("fallback document: %w", err)
		}
		return &protocol.Response{Version: req.Version, Status: protocol.StatusNotFound, Body: string(body)}, nil

	case "HEAD", "OPTIONS":
		return &protocol.Response{
			Version: req.Version,
			Status:  protocol.StatusNotImplemented,
			Body:    fmt.Sprintf("Server does not support %s requests", req.Method),
		}, nil

	default:
		return &protocol.Response{
			Version: req.Version,
			Status:  protocol.StatusMethodNotAllowed,
			Body:    fmt.Sprintf("Server does not allow %s requests", req.Method),
		}, nil
	}
}
