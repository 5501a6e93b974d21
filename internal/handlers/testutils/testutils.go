package testutils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"bidmarket/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// WithChiURLParams подставляет параметры пути в контекст chi запроса для тестов.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

// AsCaller кладет в контекст личность, которую обычно ставит middleware.Auth.
func AsCaller(req *http.Request, userID int64, role middleware.Role) *http.Request {
	id := middleware.Identity{UserID: userID, Role: role}
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

// JSONRequest builds a request with a JSON body; an empty body sends none.
func JSONRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
