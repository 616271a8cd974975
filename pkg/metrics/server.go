package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"
)

// Server serves /metrics until the context is done.
type Server struct {
	Addr     string
	Recorder *Recorder
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Recorder.Handler())
	srv := &http.Server{Addr: s.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof("metrics listening on %s", s.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Warningf("metrics shutdown: %v", err)
		}
		<-errCh
		return ctx.Err()
	}
}
