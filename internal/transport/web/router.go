package web

import (
	"log"
	"net/http"

	_ "github.com/SymoHTL/CloudCord/internal/docs"
	"github.com/SymoHTL/CloudCord/internal/transport/web/mw"
	"github.com/SymoHTL/CloudCord/internal/transport/web/v1/file"
	"github.com/SymoHTL/CloudCord/internal/transport/web/v1/health"
	httpSwagger "github.com/swaggo/http-swagger"
)

func newRouter(hh *health.Handler, fh *file.Handler, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /api/healthz", hh.Liveness)
	mux.HandleFunc("GET /api/readyz", hh.Readiness)

	// files; размер загрузки не ограничиваем — движок сам режет на сегменты.
	// "chunked" как литерал специфичнее {passphrase} и выигрывает маршрутизацию.
	mux.HandleFunc("POST /api/files", fh.Upload)
	mux.HandleFunc("POST /api/files/chunked", limitBody(32<<20, fh.UploadChunked)) // кусок + оверхед формы
	mux.HandleFunc("POST /api/files/{passphrase}", fh.UploadSecure)
	mux.HandleFunc("GET /api/files/{fileId}", fh.Download)
	mux.HandleFunc("GET /api/files/{fileId}/{passphrase}", fh.DownloadSecure)
	mux.HandleFunc("DELETE /api/files/{fileId}", fh.Delete)

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mux))
}

func limitBody(n int64, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		h(w, r)
	}
}
