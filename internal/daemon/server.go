package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rsdocs/docseek/internal/cache"
	"github.com/rsdocs/docseek/internal/config"
	"github.com/rsdocs/docseek/internal/docsrs"
	"github.com/rsdocs/docseek/internal/index"
	"github.com/rsdocs/docseek/internal/rpc"
	"github.com/rsdocs/docseek/internal/simplepath"
	"github.com/rsdocs/docseek/internal/store"
)

type versionCacheEntry struct {
	version  string // resolved real version; empty for 404s
	notFound bool
	expiry   time.Time
}

type Server struct {
	db         *store.DB
	fetcher    *docsrs.Client
	cfg        *config.Config
	socketPath string
	httpServer *http.Server
	listener   net.Listener

	mu         sync.Mutex
	expTimer   *time.Timer
	expiration time.Duration

	versionCache   map[string]versionCacheEntry
	versionCacheMu sync.RWMutex
	addCrateGroup  singleflight.Group
}

func NewServer(cfg *config.Config, database *store.DB, socketPath string) *Server {
	timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	fetcher := docsrs.NewClient(timeout)
	if cfg.Fetch.DocsBaseURL != "" {
		fetcher.DocsBase = strings.TrimSuffix(cfg.Fetch.DocsBaseURL, "/")
	}
	if cfg.Fetch.StdlibBaseURL != "" {
		fetcher.StdlibBase = strings.TrimSuffix(cfg.Fetch.StdlibBaseURL, "/")
	}

	expSec := cfg.Daemon.ExpirationSeconds
	if expSec <= 0 {
		expSec = 600
	}

	return &Server{
		db:           database,
		fetcher:      fetcher,
		cfg:          cfg,
		socketPath:   socketPath,
		expiration:   time.Duration(expSec) * time.Second,
		versionCache: make(map[string]versionCacheEntry),
	}
}

func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("POST /add-crates", s.withExpReset(s.handleAddCrates))
	mux.HandleFunc("POST /resolve", s.withExpReset(s.handleResolve))
	mux.HandleFunc("GET /status", s.withExpReset(s.handleStatus))
	mux.HandleFunc("POST /search-crates", s.withExpReset(s.handleSearchCrates))
	mux.HandleFunc("POST /clear-cache", s.withExpReset(s.handleClearCache))
	mux.HandleFunc("POST /shutdown", s.handleShutdown)

	s.httpServer = &http.Server{Handler: mux}

	s.mu.Lock()
	s.expTimer = time.AfterFunc(s.expiration, s.expire)
	s.mu.Unlock()

	log.Printf("daemon: listening on %s (expires after %s of inactivity)", s.socketPath, s.expiration)

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("daemon: shutdown error: %v", err)
			errs = append(errs, err)
		}
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			log.Printf("daemon: listener close error: %v", err)
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Printf("daemon: socket remove error: %v", err)
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		log.Printf("daemon: db close error: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) expire() {
	log.Printf("daemon: expiring due to inactivity")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	os.Exit(0)
}

func (s *Server) resetExpiration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expTimer != nil {
		s.expTimer.Stop()
		s.expTimer.Reset(s.expiration)
	}
}

func (s *Server) withExpReset(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resetExpiration()
		handler(w, r)
	}
}

func (s *Server) handleAddCrates(w http.ResponseWriter, r *http.Request) {
	var req rpc.AddCratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		if line.Message != "" {
			log.Printf("daemon: %s", line.Message)
		}
		if err := enc.Encode(line); err != nil {
			log.Printf("daemon: client disconnected: %v", err)
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	for _, spec := range req.Crates {
		progress := func(msg string) {
			send(rpc.ProgressLine{Type: "progress", Message: msg})
		}
		result := s.addCrate(spec, progress)
		if !send(rpc.ProgressLine{Type: "result", Result: &result}) {
			return
		}
	}
}

const versionCacheTTL = 10 * time.Minute

func (s *Server) getCachedVersion(name string) (versionCacheEntry, bool) {
	s.versionCacheMu.RLock()
	defer s.versionCacheMu.RUnlock()
	entry, ok := s.versionCache[name]
	if !ok || time.Now().After(entry.expiry) {
		return versionCacheEntry{}, false
	}
	return entry, true
}

func (s *Server) setCachedVersion(name, version string, notFound bool) {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache[name] = versionCacheEntry{
		version:  version,
		notFound: notFound,
		expiry:   time.Now().Add(versionCacheTTL),
	}
}

func (s *Server) clearVersionCache() {
	s.versionCacheMu.Lock()
	defer s.versionCacheMu.Unlock()
	s.versionCache = make(map[string]versionCacheEntry)
}

func (s *Server) addCrate(spec rpc.CrateSpec, progress func(string)) rpc.CrateResult {
	version, err := docsrs.NormalizeVersion(spec.Version)
	if err != nil {
		return rpc.CrateResult{Name: spec.Name, Version: spec.Version, Error: err.Error()}
	}

	result := rpc.CrateResult{Name: spec.Name, Version: version}

	// Check version cache for "latest" requests
	if version == docsrs.Latest {
		if entry, ok := s.getCachedVersion(spec.Name); ok {
			if entry.notFound {
				result.Error = fmt.Sprintf("crate %s not found (cached)", spec.Name)
				return result
			}
			existing, err := s.db.GetCrate(spec.Name, entry.version)
			if err != nil {
				result.Error = err.Error()
				return result
			}
			if existing != nil && existing.IndexedAt != nil {
				return s.existingResult(existing)
			}
		}

		existing, err := s.db.GetLatestCrate(spec.Name)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil {
			return s.existingResult(existing)
		}
	} else {
		existing, err := s.db.GetCrate(spec.Name, version)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.IndexedAt != nil {
			return s.existingResult(existing)
		}
	}

	// Singleflight: dedup concurrent fetch+decode for the same crate@version
	key := spec.Name + "@" + version
	v, _, _ := s.addCrateGroup.Do(key, func() (interface{}, error) {
		return s.addCrateWork(spec.Name, version, progress), nil
	})
	return v.(rpc.CrateResult)
}

func (s *Server) existingResult(c *store.Crate) rpc.CrateResult {
	result := rpc.CrateResult{Name: c.Name, Version: c.Version, Epoch: index.Epoch(c.Epoch).String()}
	result.Items, _ = s.db.CountItems(c.ID)
	return result
}

// addCrateWork fetches, decodes and stores one crate's index. The stdlib
// crates share a single index document, so indexing any of them stores all
// of them.
func (s *Server) addCrateWork(name, version string, progress func(string)) rpc.CrateResult {
	result := rpc.CrateResult{Name: name, Version: version}

	raw, realVersion, err := s.fetchIndex(name, version, progress)
	if err != nil {
		if version == docsrs.Latest {
			s.setCachedVersion(name, "", true)
		}
		result.Error = err.Error()
		return result
	}
	result.Version = realVersion
	s.setCachedVersion(name, realVersion, false)

	// The resolved version may already be stored from an earlier run.
	if realVersion != version {
		existing, err := s.db.GetCrate(name, realVersion)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		if existing != nil && existing.IndexedAt != nil {
			return s.existingResult(existing)
		}
	}

	progress(fmt.Sprintf("decoding search index for %s@%s", name, realVersion))
	ix, err := index.Decode(raw)
	if err != nil {
		result.Error = fmt.Sprintf("decoding index: %v", err)
		return result
	}
	result.Epoch = ix.Epoch.String()
	for crateName, decodeErr := range ix.Errors {
		log.Printf("daemon: crate %s failed to decode: %v", crateName, decodeErr)
	}

	for _, crateName := range ix.Names() {
		decoded := ix.Crates[crateName]
		entries := decoded.Entries()

		crate, err := s.db.UpsertCrate(crateName, realVersion)
		if err != nil {
			result.Error = fmt.Sprintf("upserting crate: %v", err)
			return result
		}

		items := make([]store.Item, len(entries))
		for i, e := range entries {
			items[i] = store.Item{
				Path:        e.Path,
				URL:         e.URL,
				Kind:        e.Kind,
				Name:        e.Name,
				Description: e.Description,
			}
		}
		progress(fmt.Sprintf("storing %d items for %s@%s", len(items), crateName, realVersion))
		if err := s.db.ReplaceItems(crate.ID, items); err != nil {
			result.Error = fmt.Sprintf("storing items: %v", err)
			return result
		}
		if err := s.db.MarkCrateIndexed(crate.ID, int(ix.Epoch)); err != nil {
			result.Error = fmt.Sprintf("marking crate indexed: %v", err)
			return result
		}

		if crateName == name {
			result.Items = len(items)
		}
	}

	if _, err := ix.Crate(name); err != nil {
		result.Error = err.Error()
		return result
	}

	progress(fmt.Sprintf("finished indexing %s@%s (%d items)", name, realVersion, result.Items))
	return result
}

// fetchIndex returns the raw index text for a crate, from the disk cache
// when possible.
func (s *Server) fetchIndex(name, version string, progress func(string)) (raw, realVersion string, err error) {
	if version != docsrs.Latest && cache.HasIndex(name, version) {
		progress(fmt.Sprintf("using cached index for %s@%s", name, version))
		raw, err := cache.LoadIndex(name, version)
		if err == nil {
			return raw, version, nil
		}
		log.Printf("daemon: reading cached index for %s@%s failed: %v", name, version, err)
	}

	var res *docsrs.FetchResult
	if simplepath.IsStdCrate(name) {
		progress("fetching stdlib search index")
		res, err = s.fetcher.FetchStd()
	} else {
		progress(fmt.Sprintf("fetching search index for %s@%s", name, version))
		res, err = s.fetcher.FetchCrate(name, version)
	}
	if err != nil {
		return "", "", fmt.Errorf("fetching index: %w", err)
	}

	if err := cache.SaveIndex(res.Index, name, res.Version); err != nil {
		log.Printf("daemon: caching index for %s@%s failed: %v", name, res.Version, err)
	}
	return res.Index, res.Version, nil
}

// resolveOrFetchCrate looks up a crate, resolving "latest" and auto-fetching
// if needed.
func (s *Server) resolveOrFetchCrate(name, version string) (*store.Crate, error) {
	if version == docsrs.Latest || version == "" {
		existing, err := s.db.GetLatestCrate(name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	} else {
		existing, err := s.db.GetCrate(name, version)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.IndexedAt != nil {
			return existing, nil
		}
	}

	// Not found, auto-fetch
	result := s.addCrate(rpc.CrateSpec{Name: name, Version: version}, func(msg string) {
		log.Printf("auto-fetch: %s", msg)
	})
	if result.Error != "" {
		return nil, fmt.Errorf("%s", result.Error)
	}

	return s.db.GetCrate(name, result.Version)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req rpc.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := simplepath.Parse(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	crate, err := s.resolveOrFetchCrate(path.CrateName(), req.Version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if crate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("crate %s@%s not found", path.CrateName(), req.Version))
		return
	}
	s.db.TouchCrate(crate.ID)

	resp := rpc.ResolveResponse{Crate: crate.Name, Version: crate.Version}

	if path.IsCrateOnly() {
		url := crate.Name + "/index.html"
		resp.Item = &rpc.ResolvedItem{
			Path:      crate.Name,
			URL:       url,
			Permalink: s.permalink(crate, url),
			Kind:      "mod",
			Name:      crate.Name,
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	item, err := s.db.GetItemByPath(crate.ID, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if item != nil {
		resolved := s.resolvedItem(crate, item)
		resp.Item = &resolved
		writeJSON(w, http.StatusOK, resp)
		return
	}

	// Exact miss: offer near matches on the last path segment.
	segments := strings.Split(req.Path, "::")
	fragment := segments[len(segments)-1]
	matches, err := s.db.SearchItemsByPath(crate.ID, fragment, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, m := range matches {
		resp.Alternatives = append(resp.Alternatives, s.resolvedItem(crate, &m))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolvedItem(crate *store.Crate, item *store.Item) rpc.ResolvedItem {
	return rpc.ResolvedItem{
		Path:        item.Path,
		URL:         item.URL,
		Permalink:   s.permalink(crate, item.URL),
		Kind:        item.Kind,
		Name:        item.Name,
		Description: item.Description,
	}
}

// permalink turns a docs-root-relative URL into an absolute one. Stdlib
// crates live on the stdlib docs host, everything else on docs.rs under
// /<crate>/<version>/.
func (s *Server) permalink(crate *store.Crate, rel string) string {
	if simplepath.IsStdCrate(crate.Name) {
		return s.fetcher.StdlibBase + "/" + rel
	}
	return fmt.Sprintf("%s/%s/%s/%s", s.fetcher.DocsBase, crate.Name, crate.Version, rel)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	crates, err := s.db.ListCrates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var status []rpc.CrateStatus
	for _, c := range crates {
		items, _ := s.db.CountItems(c.ID)
		cs := rpc.CrateStatus{
			Name:    c.Name,
			Version: c.Version,
			Items:   items,
			Indexed: c.IndexedAt != nil,
		}
		if c.Epoch > 0 {
			cs.Epoch = index.Epoch(c.Epoch).String()
		}
		status = append(status, cs)
	}

	writeJSON(w, http.StatusOK, rpc.StatusResponse{Crates: status})
}

func (s *Server) handleSearchCrates(w http.ResponseWriter, r *http.Request) {
	var req rpc.SearchCratesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing query")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	summaries, err := s.fetcher.SearchCrates(req.Query, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]rpc.CrateSearchResult, len(summaries))
	for i, c := range summaries {
		results[i] = rpc.CrateSearchResult{
			Name:        c.Name,
			Description: c.Description,
			MaxVersion:  c.MaxVersion,
			Downloads:   c.Downloads,
		}
		if indexed, err := s.db.GetLatestCrate(c.Name); err == nil && indexed != nil {
			results[i].IndexedVersion = indexed.Version
		}
	}

	writeJSON(w, http.StatusOK, rpc.SearchCratesResponse{Results: results})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.clearVersionCache()
	if err := cache.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("daemon: caches cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		os.Exit(0)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
