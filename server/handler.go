package server

import (
	"log"
	"net"
	"strconv"
	"time"

	"github.com/nqduc/minihttpd/protocol"
	"github.com/nqduc/minihttpd/telemetry"
)

// handleConn serves one connection end-to-end on the worker that picked it
// up: bounded read, parse, resolve, write, close. Every failure is
// contained here; nothing propagates to the worker or the accept loop.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	start := time.Now()

	buf := make([]byte, s.config.ReadBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		log.Printf("server: %s: read error: %v", conn.RemoteAddr(), err)
		if s.metrics != nil {
			s.metrics.ConnectionErrors.Inc()
		}
		return
	}

	req, err := protocol.Parse(buf[:n])
	if err != nil {
		log.Printf("server: %s: rejected request: %v", conn.RemoteAddr(), err)
		if s.metrics != nil {
			s.metrics.ParseFailures.Inc()
		}
		// Best-effort rejection; the client may also just see the close.
		s.write(conn, &protocol.Response{
			Version: "HTTP/1.1",
			Status:  protocol.StatusBadRequest,
			Body:    err.Error(),
		})
		return
	}

	resp, err := s.resolve(req)
	if err != nil {
		log.Printf("server: %s: %s %s: %v", conn.RemoteAddr(), req.Method, req.Path, err)
		if s.metrics != nil {
			s.metrics.ConnectionErrors.Inc()
		}
		s.write(conn, &protocol.Response{
			Version: req.Version,
			Status:  protocol.StatusInternalServerError,
		})
		return
	}

	if err := s.write(conn, resp); err != nil {
		log.Printf("server: %s: write error: %v", conn.RemoteAddr(), err)
		if s.metrics != nil {
			s.metrics.ConnectionErrors.Inc()
		}
		return
	}

	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordRequest(req.Method, strconv.Itoa(resp.Status), duration)
	}
	if s.publisher != nil {
		s.publisher.Record(telemetry.AccessRecord{
			Timestamp:  start,
			RemoteAddr: conn.RemoteAddr().String(),
			Method:     req.Method,
			Path:       req.Path,
			Version:    req.Version,
			Status:     resp.Status,
			BodyBytes:  len(resp.Body),
			Duration:   duration,
		})
	}
}

// write serializes and sends a response on the connection.
func (s *Server) write(conn net.Conn, resp *protocol.Response) error {
	_, err := conn.Write(resp.Serialize())
	return err
}
