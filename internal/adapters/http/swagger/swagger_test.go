package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the swagger handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should handle /openapi.yaml route", func() {
				req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/api/predict")
			})

			convey.Convey("And it should handle /api-docs route", func() {
				req := httptest.NewRequest("GET", "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/openapi.yaml")
			})
		})
	})
}

func TestSwaggerHandlerMethods(t *testing.T) {
	convey.Convey("Given registered docs routes", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		convey.Convey("When they receive a write method", func() {
			for _, path := range []string{"/api-docs", "/openapi.yaml"} {
				for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))

					convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
					convey.So(w.Header().Get("Allow"), convey.ShouldEqual, "GET, HEAD")
				}
			}
		})

		convey.Convey("When they receive HEAD", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/openapi.yaml", http.NoBody))

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestSwaggerHandlerRedocScript(t *testing.T) {
	convey.Convey("Given the default docs page", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody))

		convey.So(w.Body.String(), convey.ShouldContainSubstring, DefaultRedocScript)
	})

	convey.Convey("Given a locally hosted ReDoc bundle", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux, WithRedocScript("/static/redoc.standalone.js"))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody))

		convey.So(w.Body.String(), convey.ShouldContainSubstring, `src="/static/redoc.standalone.js"`)
		convey.So(w.Body.String(), convey.ShouldNotContainSubstring, "cdn.redoc.ly")
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("Given the embedded OpenAPI document", t, func() {
		doc, err := yaml.Parser().Unmarshal(OpenAPI)

		convey.Convey("Then it parses and lists every served path", func() {
			convey.So(err, convey.ShouldBeNil)
			paths, ok := doc["paths"].(map[string]any)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(paths, convey.ShouldContainKey, "/api/predict")
			convey.So(paths, convey.ShouldContainKey, "/healthz")
			convey.So(paths, convey.ShouldContainKey, "/metrics")
		})
	})
}

func TestSwaggerHandlerWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		convey.So(func() {
			Register(context.Background(), nil)
		}, convey.ShouldPanic)
	})
}
