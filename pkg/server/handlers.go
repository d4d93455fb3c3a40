package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	errs "github.com/vango-dev/moqwire/internal/errors"
	"github.com/vango-dev/moqwire/pkg/capture"
	"github.com/vango-dev/moqwire/pkg/inspect"
)

// Stream kinds accepted by /v1/decode.
const (
	KindControl  = "control"
	KindData     = "data"
	KindDatagram = "datagram"
)

// decodeResponse is the body of a decode response.
type decodeResponse struct {
	*inspect.Report
	Error error `json:"error,omitempty"`
}

type errorResponse struct {
	Error error `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// coded returns err as a structured error, classifying it with the
// decoder's codes or, failing that, under fallback.
func coded(err error, fallback string) *errs.Error {
	var e *errs.Error
	if !errors.As(errs.FromDecode(err, -1), &e) {
		e = errs.New(fallback).Wrap(err)
	}
	return e
}

// writeError answers with a structured error. Errors the decoder does not
// classify are reported under fallback.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error, fallback string) {
	e := coded(err, fallback)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: e})
}

// statusFor maps capture and body errors to HTTP status codes.
func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig), errors.Is(err, capture.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, capture.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, capture.ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// isHex reports whether the request body is hex text.
func isHex(r *http.Request) bool {
	switch r.URL.Query().Get("hex") {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "text/plain"
}

// DecodeHex decodes hex text, ignoring whitespace.
func DecodeHex(text []byte) ([]byte, error) {
	b, err := hex.DecodeString(strings.Join(strings.Fields(string(text)), ""))
	if err != nil {
		return nil, errs.New("E400").Wrap(err)
	}
	return b, nil
}

// readInput reads the request body, bounded by the read limit, and decodes
// it from hex when asked to.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.ReadLimit))
	if err != nil {
		return nil, err
	}
	if isHex(r) {
		return DecodeHex(body)
	}
	return body, nil
}

// decode runs the decoder for kind over b.
func (s *Server) decode(ctx context.Context, kind string, b []byte) (*inspect.Report, error) {
	switch kind {
	case "", KindControl:
		return inspect.DecodeControl(ctx, b, s.config.Observer), nil
	case KindData:
		return inspect.DecodeData(ctx, b, s.config.Observer, s.config.MaxPayloadPreview), nil
	case KindDatagram:
		return inspect.DecodeDatagram(ctx, b, s.config.Observer, s.config.MaxPayloadPreview), nil
	default:
		return nil, errs.New("E401").WithDetail(fmt.Sprintf("Got %q; use control, data or datagram.", kind))
	}
}

// respondReport writes a decode report, with 422 when decoding stopped on
// an error.
func respondReport(w http.ResponseWriter, rep *inspect.Report) {
	resp := decodeResponse{Report: rep}
	status := http.StatusOK
	if rep.Err != nil {
		resp.Error = errs.FromDecode(rep.Err, rep.Consumed)
		var e *errs.Error
		if !errors.As(resp.Error, &e) {
			resp.Error = errs.New("E200").Wrap(rep.Err).WithOffset(rep.Consumed)
		}
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	b, err := s.readInput(w, r)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		s.writeError(w, r, status, err, "E400")
		return
	}
	rep, err := s.decode(r.Context(), r.URL.Query().Get("kind"), b)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err, "E401")
		return
	}
	respondReport(w, rep)
}

// handleEncode accepts one envelope or an array of envelopes and answers
// with their concatenated wire encoding.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.ReadLimit))
	if err != nil {
		s.writeError(w, r, statusFor(err), err, "E400")
		return
	}

	var items []json.RawMessage
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err, "E210")
			return
		}
	} else {
		items = []json.RawMessage{body}
	}

	var out []byte
	for i, item := range items {
		b, err := inspect.Encode(item)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("item %d: %w", i, err), "E210")
			return
		}
		out = append(out, b...)
	}

	if isHex(r) || strings.Contains(r.Header.Get("Accept"), "text/plain") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, hex.EncodeToString(out))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(out)
}

func (s *Server) captures(w http.ResponseWriter) (capture.Store, bool) {
	if s.config.Captures == nil {
		http.Error(w, "captures are disabled", http.StatusNotFound)
		return nil, false
	}
	return s.config.Captures, true
}

func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	store, ok := s.captures(w)
	if !ok {
		return
	}
	list, err := store.List(r.Context())
	if err != nil {
		s.writeError(w, r, statusFor(err), err, "E300")
		return
	}
	if list == nil {
		list = []capture.Info{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveCapture(w http.ResponseWriter, r *http.Request) {
	store, ok := s.captures(w)
	if !ok {
		return
	}
	var body io.Reader = http.MaxBytesReader(w, r.Body, s.config.ReadLimit)
	if isHex(r) {
		text, err := io.ReadAll(body)
		if err != nil {
			s.writeError(w, r, statusFor(err), err, "E302")
			return
		}
		b, err := DecodeHex(text)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err, "E400")
			return
		}
		body = bytes.NewReader(b)
	}

	info, err := store.Save(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.writeError(w, r, statusFor(err), err, "E302")
		return
	}
	s.logger.Info("capture saved", "id", info.ID, "size", info.Size)
	writeJSON(w, http.StatusCreated, info)
}

// handleGetCapture returns the raw capture, or its decoding with ?decode=1.
func (s *Server) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	store, ok := s.captures(w)
	if !ok {
		return
	}
	rc, err := store.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, statusFor(err), err, "E300")
		return
	}
	defer rc.Close()

	q := r.URL.Query()
	if q.Get("decode") == "" || q.Get("decode") == "0" {
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := io.Copy(w, rc); err != nil {
			s.logger.Warn("capture copy failed", "error", err)
		}
		return
	}

	b, err := io.ReadAll(rc)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err, "E300")
		return
	}
	rep, err := s.decode(r.Context(), q.Get("kind"), b)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err, "E401")
		return
	}
	respondReport(w, rep)
}
