package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"github.com/prizeloop/backend/config"
	"github.com/prizeloop/backend/pkg/logger"
	"github.com/prizeloop/backend/pkg/xcontext"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. Returning an error aborts the
// request with that error. The returned context is passed down the chain.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the handler, regardless of its result.
type CloserFunc func(ctx context.Context)

type Router struct {
	mux *http.ServeMux

	cfg    config.Configs
	logger logger.Logger
	db     *gorm.DB

	befores []MiddlewareFunc
	closers []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
}

// Branch returns a router sharing the same mux but with an independent
// middleware chain.
func (r *Router) Branch() *Router {
	return &Router{
		mux:     r.mux,
		cfg:     r.cfg,
		logger:  r.logger,
		db:      r.db,
		befores: append([]MiddlewareFunc{}, r.befores...),
		closers: append([]CloserFunc{}, r.closers...),
	}
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

func (r *Router) AddCloser(c CloserFunc) {
	r.closers = append(r.closers, c)
}

func (r *Router) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: r.cfg.ApiServer.AllowCORS,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r.mux)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodPost, handler))
}

func wrapHandler[Request, Response any](
	r *Router, method string, handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		ctx = xcontext.WithConfigs(ctx, r.cfg)
		ctx = xcontext.WithLogger(ctx, r.logger)
		ctx = xcontext.WithDB(ctx, r.db)
		ctx = xcontext.WithHTTPRequest(ctx, req)

		if req.Method != method {
			writeJSON(w, r.logger, newErrorResponse(
				errNotSupportedMethod, http.StatusMethodNotAllowed))
			return
		}

		request := new(Request)
		if err := decodeRequest(req, method, request); err != nil {
			r.logger.Debugf("Cannot decode the request: %v", err)
			writeJSON(w, r.logger, newErrorResponse(errBadRequestBody, http.StatusBadRequest))
			return
		}

		for _, closer := range r.closers {
			defer closer(ctx)
		}

		var err error
		for _, before := range r.befores {
			if ctx, err = before(ctx); err != nil {
				writeJSON(w, r.logger, newErrorResponse(err, http.StatusOK))
				return
			}
		}

		resp, err := handler(ctx, request)
		if err != nil {
			writeJSON(w, r.logger, newErrorResponse(err, http.StatusOK))
			return
		}

		writeJSON(w, r.logger, newResponse(resp))
	}
}

func decodeRequest(req *http.Request, method string, v any) error {
	if method == http.MethodPost {
		if req.Body == nil {
			return nil
		}

		defer req.Body.Close()
		return json.NewDecoder(req.Body).Decode(v)
	}

	query := map[string]string{}
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(query)
}
