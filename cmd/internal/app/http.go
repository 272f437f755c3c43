package app

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	authapi "ozran/cmd/internal/auth/api"
	"ozran/cmd/internal/metrics"
	"ozran/cmd/internal/phishing"
)

type routes struct {
	log      Logger
	cfg      Config
	dbPool   *pgxpool.Pool
	metrics  *metrics.Metrics
	auth     *authapi.Handler
	phishing *phishing.Handler
}

func registerHTTP(mux *http.ServeMux, rt routes) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if rt.cfg.ReadinessRequireDB && rt.dbPool == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if rt.dbPool != nil {
			if err := PingDB(r.Context(), rt.dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				rt.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("/metrics", rt.metrics.Handler())

	if rt.auth != nil {
		rt.auth.Register(mux)
		if rt.phishing != nil {
			rt.phishing.Register(mux, rt.auth.RequireAuth)
		}
	}

	if static := newStaticSite(rt.cfg.PublicDir); static != nil {
		mux.Handle("/", static)
	}
}

// staticSite serves the public directory with clean URLs:
// "/about.html" redirects to "/about", "/about" serves about.html,
// and unknown non-API paths fall back to index.html.
type staticSite struct {
	root string
}

// newStaticSite returns nil when dir does not exist.
func newStaticSite(dir string) *staticSite {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil
	}
	return &staticSite{root: dir}
}

func (s *staticSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p := path.Clean("/" + r.URL.Path)

	if strings.HasSuffix(p, ".html") {
		target := strings.TrimSuffix(p, ".html")
		if path.Base(target) == "index" {
			target = path.Dir(target)
		}
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	if p != "/" {
		if name, ok := s.file(p); ok {
			s.serve(w, r, name)
			return
		}
		if name, ok := s.file(p + ".html"); ok {
			s.serve(w, r, name)
			return
		}
		if name, ok := s.file(path.Join(p, "index.html")); ok {
			s.serve(w, r, name)
			return
		}
	}

	if strings.HasPrefix(p, "/api/") {
		http.NotFound(w, r)
		return
	}

	index, ok := s.file("/index.html")
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.serve(w, r, index)
}

func (s *staticSite) serve(w http.ResponseWriter, r *http.Request, name string) {
	f, err := os.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// file resolves a cleaned URL path to a regular file under root.
func (s *staticSite) file(urlPath string) (string, bool) {
	name := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+urlPath)))
	fi, err := os.Stat(name)
	if err != nil || fi.IsDir() {
		return "", false
	}
	return name, true
}
