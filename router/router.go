package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	handler "github.com/imgsqueeze/handler/v1/compressor"
)

// New returns router serving compressor page and api.
func New(compressorSvcV1 *handler.Service, log *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(logging(log))

	router.HandleFunc("/", compressorSvcV1.Page).Methods("GET")
	router.HandleFunc("/fragment", compressorSvcV1.Fragment).Methods("GET")
	router.HandleFunc("/health", compressorSvcV1.Health).Methods("GET")

	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	apiV1.HandleFunc("/compressor/upload", compressorSvcV1.Upload).Methods("POST")
	apiV1.HandleFunc("/compressor/quality", compressorSvcV1.ChangeQuality).Methods("PUT").Queries("value", "{value}")
	apiV1.HandleFunc("/compressor/recompress", compressorSvcV1.Recompress).Methods("POST")
	apiV1.HandleFunc("/compressor/state", compressorSvcV1.State).Methods("GET")
	apiV1.HandleFunc("/compressor/download", compressorSvcV1.Download).Methods("GET")
	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logging(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
