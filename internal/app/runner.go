package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samvad-hq/samvad-request-manager/internal/config"
	"github.com/samvad-hq/samvad-request-manager/internal/domain"
	"github.com/samvad-hq/samvad-request-manager/internal/inspect"
	"github.com/samvad-hq/samvad-request-manager/internal/logger"
	"github.com/samvad-hq/samvad-request-manager/internal/storage"
	"github.com/samvad-hq/samvad-request-manager/pkg/httpclient"
	"github.com/samvad-hq/samvad-request-manager/pkg/publishers"
	"github.com/samvad-hq/samvad-request-manager/pkg/request"
	"github.com/samvad-hq/samvad-request-manager/pkg/requests"
)

// Runner executes request definitions and hands each response to storage,
// inspection and publishers.
type Runner struct {
	cfg      *config.Config
	requests *requests.Registry
	client   httpclient.Client
	fanout   *publishers.Fanout
	store    storage.Store
	log      logger.Logger
	out      io.Writer
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClient replaces the default resty client.
func WithClient(c httpclient.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithOutput sets where response bodies are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// NewRunner builds a runner from config files.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := &Runner{cfg: cfg, log: log, out: os.Stdout}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	reg, err := requests.LoadRegistry(cfg.RequestsFile)
	if err != nil {
		return nil, fmt.Errorf("load requests registry: %w", err)
	}
	r.requests = reg
	ids := make([]string, 0, len(reg.All()))
	for _, def := range reg.All() {
		ids = append(ids, def.ID)
	}
	log.InfoObj("requests registry loaded", "requests_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	if r.client == nil {
		r.client = defaultClient(cfg)
	}

	fanout, err := buildFanout(ctx, cfg, reg, log)
	if err != nil {
		return nil, err
	}
	r.fanout = fanout

	storeOpts := storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	r.store = store
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return r, nil
}

func defaultClient(cfg *config.Config) httpclient.Client {
	opts := []httpclient.Option{
		httpclient.WithHTTPErrors(cfg.HTTPErrors),
		httpclient.WithUserAgent(cfg.UserAgent),
	}
	if logger.S != nil {
		opts = append(opts, httpclient.WithLogger(logger.S))
	}
	return httpclient.NewRestyClient(cfg.HTTPTimeout, opts...)
}

// buildFanout loads the optional publishers file. Without one, events are not sent.
func buildFanout(ctx context.Context, cfg *config.Config, reqs *requests.Registry, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; events disabled", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		for _, id := range pubCfg.Route.Requests {
			if _, ok := reqs.ByID(id); !ok {
				log.WarnObj("publisher route names an unknown request", "publisher_route", map[string]any{
					"publisher_id": pubCfg.ID,
					"request_id":   id,
				})
			}
		}
		summaries = append(summaries, map[string]any{
			"id":           pubCfg.ID,
			"type":         pubCfg.Type,
			"requests":     pubCfg.Route.Requests,
			"only_changed": pubCfg.Route.OnlyChanged,
		})
	}

	fanout, err := publishers.BuildFanout(ctx, publishers.DefaultBuilders(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return fanout, nil
}

// Run executes the configured request, or every enabled one when no request
// id is set. A failed request does not stop the remaining ones.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.requests == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()

	defs, err := r.selectDefinitions()
	if err != nil {
		return err
	}

	var errs []error
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.runOne(ctx, def); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) selectDefinitions() ([]requests.Definition, error) {
	if r.cfg.RequestID != "" {
		def, ok := r.requests.ByID(r.cfg.RequestID)
		if !ok {
			return nil, fmt.Errorf("unknown request id %q", r.cfg.RequestID)
		}
		return []requests.Definition{def}, nil
	}
	defs := r.requests.Enabled()
	if len(defs) == 0 {
		return nil, fmt.Errorf("no enabled requests in %s", r.cfg.RequestsFile)
	}
	return defs, nil
}

// runOne performs a single request definition end to end.
func (r *Runner) runOne(ctx context.Context, def requests.Definition) error {
	m, err := request.New(def.URL, request.SuppliedClient(r.client))
	if err != nil {
		return fmt.Errorf("request %s: %w", def.ID, err)
	}
	if err := def.Apply(m); err != nil {
		return err
	}

	start := time.Now()
	resp, err := m.Make(ctx, def.Body)
	if err != nil {
		var reqErr *request.RequestError
		code := 0
		if errors.As(err, &reqErr) {
			code = reqErr.Code
		}
		r.log.ErrorObj("request failed", "request_error", map[string]any{
			"request_id": def.ID,
			"method":     m.Method(),
			"url":        m.Target(),
			"code":       code,
			"error":      err.Error(),
		})
		return fmt.Errorf("request %s: %w", def.ID, err)
	}

	body, err := m.ResponseContents()
	if err != nil {
		return fmt.Errorf("request %s: read body: %w", def.ID, err)
	}

	snap := domain.Snapshot{
		RequestID:  def.ID,
		Method:     m.Method(),
		URL:        m.Target(),
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       body,
		FetchedAt:  time.Now().UTC(),
	}

	meta := r.inspectMeta(def.ID, resp, body)
	change := r.compare(def.ID, body)

	if err := r.store.Save(snap); err != nil {
		r.log.WarnObj("snapshot save failed", "storage_error", map[string]any{
			"request_id": def.ID,
			"error":      err.Error(),
		})
	}

	r.log.InfoObj("request completed", "request_result", map[string]any{
		"request_id":  def.ID,
		"method":      snap.Method,
		"url":         snap.URL,
		"status_code": snap.StatusCode,
		"body_bytes":  len(body),
		"changed":     change.Changed,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})

	if r.fanout.Size() > 0 {
		delivered, err := r.fanout.Publish(ctx, publishers.NewEvent(snap, meta, change))
		if err != nil {
			r.log.WarnObj("event publish failed", "publish_error", map[string]any{
				"request_id": def.ID,
				"delivered":  delivered,
				"error":      err.Error(),
			})
		}
	}

	if r.cfg.PrintBody {
		if _, err := fmt.Fprintln(r.out, body); err != nil {
			return fmt.Errorf("request %s: write body: %w", def.ID, err)
		}
	}
	return nil
}

func (r *Runner) inspectMeta(requestID string, resp httpclient.Response, body string) *domain.PageMeta {
	if !inspect.IsHTML(resp.Header().Get("Content-Type")) {
		return nil
	}
	meta, err := inspect.ParseMeta([]byte(body))
	if err != nil {
		r.log.WarnObj("response metadata parse failed", "metadata_error", map[string]any{
			"request_id": requestID,
			"error":      err.Error(),
		})
		return nil
	}
	return &meta
}

func (r *Runner) compare(requestID, body string) domain.Change {
	prev, found, err := r.store.Latest(requestID)
	if err != nil {
		r.log.WarnObj("snapshot lookup failed", "storage_error", map[string]any{
			"request_id": requestID,
			"error":      err.Error(),
		})
		return domain.Change{}
	}
	if !found {
		return domain.Change{}
	}
	change := inspect.Diff(&prev, body)
	if change.Changed {
		r.log.DebugObj("response changed", "response_diff", map[string]any{
			"request_id": requestID,
			"diff":       inspect.PrettyDiff(prev.Body, body),
		})
	}
	return change
}

// close safely releases storage and publishers, logging any errors encountered.
func (r *Runner) close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err)
	}
}
