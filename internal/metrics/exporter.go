package metrics

import (
	"fmt"
	"net"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"go-raidguard/internal/logging"
)

// Exporter serves the health endpoint and Prometheus metrics.
type Exporter struct {
	addr    string
	ready   func() bool
	metrics fasthttp.RequestHandler
	server  *fasthttp.Server
}

// NewExporter listens on host:port once started. ready may be nil, in which
// case /healthz always reports ok.
func NewExporter(host string, port int, ready func() bool) *Exporter {
	e := &Exporter{
		addr:    fmt.Sprintf("%s:%d", host, port),
		ready:   ready,
		metrics: fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()),
	}
	e.server = &fasthttp.Server{
		Handler: e.Handle,
		Name:    "raidguard",
	}
	return e
}

func (e *Exporter) Addr() string {
	return e.addr
}

func (e *Exporter) Handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("Hello World!")
	case "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		if e.ready != nil && !e.ready() {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString("degraded")
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	case "/metrics":
		e.metrics(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

// Start listens in the background. Listen errors are returned synchronously.
func (e *Exporter) Start() error {
	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return fmt.Errorf("health listener: %w", err)
	}
	go e.Serve(ln)
	return nil
}

func (e *Exporter) Serve(ln net.Listener) {
	logging.Info("[METRICS] Health endpoint listening on %s", ln.Addr())
	if err := e.server.Serve(ln); err != nil {
		logging.Error("[METRICS] Health server stopped: %v", err)
	}
}

func (e *Exporter) Shutdown() error {
	return e.server.Shutdown()
}
