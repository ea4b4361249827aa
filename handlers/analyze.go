package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"cyberguard/models"
	"cyberguard/services"
)

// multipart parts above this spill to temp files
const formMemory = 32 << 20

// Analyze handles POST /analyze/{kind}. Form posts are answered with a redirect to
// the page (result or toast in the session); ?format=json returns the view.
func (v *Viewer) Analyze(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseKind(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown analysis kind")
		return
	}
	sess := v.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxVideoBytes+formMemory)

	ctx, release := v.submitter.Begin(r.Context(), sess.ID, kind)
	defer release()

	start := time.Now()
	raw, err := v.submit(ctx, kind, r)
	var view *models.View
	if err == nil {
		view, err = v.renderer.Render(kind, raw)
	}
	v.metrics.ObserveSubmission(kind, services.Outcome(ctx, err), time.Since(start))

	if err == nil && services.Superseded(ctx) {
		err = services.ErrSuperseded
	}
	if err != nil {
		v.failSubmission(ctx, w, r, sess, err)
		return
	}

	sess.Publish(view, raw)
	log.Printf("[VIEWER] ✓ %s result for %s: %s", kind, sess.ID, view.Risk.DisplayLabel)
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	http.Redirect(w, r, "/#results", http.StatusSeeOther)
}

func (v *Viewer) submit(ctx context.Context, kind models.Kind, r *http.Request) (json.RawMessage, error) {
	if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &services.ValidationError{Field: "file", Message: "Upload too large"}
		}
		return nil, &services.ValidationError{Field: "form", Message: "Could not read the submitted form"}
	}

	if kind == models.KindText {
		return v.client.AnalyzeText(ctx, r.FormValue("text"))
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		return nil, services.ValidateUpload(kind, nil)
	}
	defer f.Close()

	upload, err := services.NewUpload(fh.Filename, fh.Size, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return nil, err
	}
	return v.client.Analyze(ctx, kind, "", upload)
}

func (v *Viewer) failSubmission(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *services.Session, err error) {
	notice, show := services.NoticeFor(ctx, err)
	if show {
		log.Printf("[VIEWER] ⚠ Submission failed for %s: %v", sess.ID, err)
	}
	if wantsJSON(r) {
		if !show {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "superseded"})
			return
		}
		writeJSON(w, statusFor(err), map[string]any{"notice": notice})
		return
	}
	if show {
		sess.Notify(notice)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func statusFor(err error) int {
	var ve *services.ValidationError
	var ae *services.APIError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// RenderPayload handles POST /api/render/{kind}: renders a raw backend payload
// without contacting the backend.
func (v *Viewer) RenderPayload(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseKind(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown analysis kind")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	view, err := v.renderer.Render(kind, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}
