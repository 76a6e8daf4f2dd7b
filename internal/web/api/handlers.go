package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/report"
	webctx "github.com/fieldradar/fieldradar/internal/web/context"
	"github.com/fieldradar/fieldradar/internal/web/response"
)

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			webctx.Logger(r.Context()).Warn("health check failed", zap.Error(err))
			response.RenderServiceUnavailable(w, "database unreachable")
			return
		}
	}
	response.OK(w, map[string]string{"status": "ok"})
}

func (h *Handler) contentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ContentTypes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, map[string]interface{}{"content_types": types})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	req := report.ParseRequest(r.URL.Query(), h.defaults)

	rep, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, rep)
}

func (h *Handler) keys(w http.ResponseWriter, r *http.Request) {
	contentType := pathParam(r, "type")

	keys, err := h.service.Keys(r.Context(), contentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"content_type": contentType,
		"keys":         keys,
	})
}

func (h *Handler) posts(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "key")
	if key == "" {
		response.RenderBadRequest(w, "metadata key is required")
		return
	}

	list, err := h.service.ShowPosts(r.Context(), pathParam(r, "type"), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	key := pathParam(r, "key")
	if key == "" {
		response.RenderBadRequest(w, "metadata key is required")
		return
	}

	// paging parameters follow the same parsing rules as /api/report
	req := report.ParseRequest(r.URL.Query(), h.defaults)

	page, err := h.service.ShowMeta(r.Context(), pathParam(r, "type"), key, req.Page, req.PerPage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *Handler) routes(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]interface{}{"routes": h.router.Routes()})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	webctx.Logger(r.Context()).Error("report request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	response.RenderFailure(w, err)
}

func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	return strings.TrimSpace(v)
}
