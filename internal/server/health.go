package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/plugfox/helpdesk-server/api"
)

// healthRoute reports the state of the database together with basic
// runtime figures.
func healthRoute(check func(ctx context.Context) error) http.HandlerFunc {
	const bytesInMb = 1024 * 1024

	startedAt := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				api.NewResponse().SetError("One or more services are not healthy").InternalServerError(w)
				return
			}
		}

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		api.NewResponse().
			Set("status", map[string]string{"database": "ok"}).
			Set("uptime", time.Since(startedAt).String()).
			// Allocated memory / Reserved program memory
			Set("memory", fmt.Sprintf("%v Mb / %v Mb", memStats.Alloc/bytesInMb, memStats.Sys/bytesInMb)).
			Set("goroutines", runtime.NumGoroutine()).
			Ok(w)
	}
}
