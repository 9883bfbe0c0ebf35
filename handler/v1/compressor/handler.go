package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/imgsqueeze/controller"
	"github.com/imgsqueeze/model"
	"github.com/imgsqueeze/session"
	"github.com/imgsqueeze/ui"
	"github.com/imgsqueeze/web/dataurl"
)

// Service represents handler service.
type Service struct {
	sessions       *session.Store
	renderer       *ui.Renderer
	maxUploadBytes int64
	log            *zap.Logger
}

// NewService returns new handler service.
func NewService(sessions *session.Store, renderer *ui.Renderer, maxUploadBytes int64, log *zap.Logger) *Service {
	return &Service{sessions: sessions, renderer: renderer, maxUploadBytes: maxUploadBytes, log: log}
}

// Upload replaces session image with multipart "file" and compresses it.
func (s *Service) Upload(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	data, statusCode := func(w http.ResponseWriter, r *http.Request) ([]byte, int) {
		tooLarge := []byte(fmt.Sprintf("file exceeds %d bytes", s.maxUploadBytes))
		if r.ContentLength > s.maxUploadBytes {
			return tooLarge, http.StatusRequestEntityTooLarge
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

		file, h, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return nil, http.StatusNoContent
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return tooLarge, http.StatusRequestEntityTooLarge
		}
		if err != nil {
			return []byte(fmt.Sprintf("error reading multipart form: %v", err)),
				http.StatusBadRequest
		}
		defer file.Close()

		b, err := io.ReadAll(file)
		if err != nil {
			return []byte(fmt.Sprintf("error reading file %s with error: %v", h.Filename, err)),
				http.StatusBadRequest
		}
		if len(b) == 0 {
			return nil, http.StatusNoContent
		}

		mimeType, err := dataurl.Sniff(b)
		if err != nil {
			return []byte(fmt.Sprintf("file %s is rejected: %v", h.Filename, err)),
				http.StatusBadRequest
		}

		err = ctrl.Upload(r.Context(), &model.File{Name: h.Filename, MIME: mimeType, Data: b})
		return s.view(ctrl, err)
	}(w, r)
	response(w, data, statusCode)
}

// ChangeQuality sets compression quality from "value" query param and recompresses.
func (s *Service) ChangeQuality(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	data, statusCode := func(w http.ResponseWriter, r *http.Request) ([]byte, int) {
		quality, err := strconv.Atoi(r.URL.Query().Get("value"))
		if err != nil {
			return []byte("invalid value param"), http.StatusBadRequest
		}
		err = ctrl.ChangeQuality(r.Context(), quality)
		if errors.Is(err, controller.ErrQualityOutOfRange) {
			return []byte(err.Error()), http.StatusBadRequest
		}
		return s.view(ctrl, err)
	}(w, r)
	response(w, data, statusCode)
}

// Recompress compresses session original with current quality.
func (s *Service) Recompress(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	data, statusCode := s.view(ctrl, ctrl.Recompress(r.Context()))
	response(w, data, statusCode)
}

// State returns session view as json.
func (s *Service) State(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	data, statusCode := s.view(ctrl, nil)
	response(w, data, statusCode)
}

// Download sends last compressed image as attachment.
func (s *Service) Download(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	ok, err := ctrl.Download(r.Context(), attachment{w})
	if !ok {
		response(w, []byte("nothing to download"), http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("error sending attachment", zap.Error(err))
	}
}

// Page renders the whole compressor page.
func (s *Service) Page(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	s.render(w, ctrl.View(), s.renderer.Page)
}

// Fragment renders the compressor content area.
func (s *Service) Fragment(w http.ResponseWriter, r *http.Request) {
	ctrl := s.sessions.Controller(w, r)
	s.render(w, ctrl.View(), s.renderer.Fragment)
}

// Health reports service liveness.
func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	response(w, []byte(`{"status":"ok"}`), http.StatusOK)
}

func (s *Service) render(w http.ResponseWriter, v controller.View, render func(io.Writer, controller.View) error) {
	buf := new(bytes.Buffer)
	if err := render(buf, v); err != nil {
		s.log.Error("error rendering view", zap.Error(err))
		http.Error(w, "error rendering view", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// view marshals session view, status code follows operation error.
// Failure detail stays in logs, view carries the fixed message.
func (s *Service) view(ctrl *controller.Controller, opErr error) ([]byte, int) {
	statusCode := http.StatusOK
	switch {
	case opErr == nil:
	case errors.Is(opErr, controller.ErrSuperseded):
		statusCode = http.StatusConflict
	case errors.Is(opErr, context.Canceled), errors.Is(opErr, context.DeadlineExceeded):
		statusCode = http.StatusServiceUnavailable
	default:
		statusCode = http.StatusUnprocessableEntity
	}

	res, err := json.Marshal(ctrl.View())
	if err != nil {
		return []byte(fmt.Sprintf("error marshaling view: %v", err)),
			http.StatusInternalServerError
	}
	return res, statusCode
}

func response(w http.ResponseWriter, data []byte, statusCode int) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

// attachment saves file into http response. It implements model.Saver.
type attachment struct {
	w http.ResponseWriter
}

func (a attachment) SaveFile(_ context.Context, data []byte, name string) error {
	h := a.w.Header()
	h.Set("Content-Type", dataurl.Detect(data))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	a.w.WriteHeader(http.StatusOK)
	if _, err := a.w.Write(data); err != nil {
		return fmt.Errorf("writing attachment %s: %w", name, err)
	}
	return nil
}
