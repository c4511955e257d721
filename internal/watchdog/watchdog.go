package watchdog

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
)

// Probe reports whether a component is reachable.
type Probe func(ctx context.Context) error

// Watchdog pings registered components on an interval and tracks their
// health. It only observes; a failing component is never taken out of the
// pipeline.
type Watchdog struct {
	mu            sync.RWMutex
	components    map[string]*ComponentHealth
	checkInterval time.Duration
	probeTimeout  time.Duration
	running       uint32
	stop          chan struct{}
	done          chan struct{}
}

type ComponentHealth struct {
	Name      string
	LastCheck int64
	LastError string
	IsHealthy uint32
	probe     Probe
}

func NewWatchdog(checkInterval time.Duration) *Watchdog {
	if checkInterval <= 0 {
		checkInterval = 5 * time.Second
	}
	return &Watchdog{
		components:    make(map[string]*ComponentHealth),
		checkInterval: checkInterval,
		probeTimeout:  checkInterval / 2,
	}
}

// RegisterComponent adds a component that starts out healthy.
func (w *Watchdog) RegisterComponent(name string, probe Probe) {
	w.mu.Lock()
	w.components[name] = &ComponentHealth{
		Name:      name,
		IsHealthy: 1,
		probe:     probe,
	}
	w.mu.Unlock()
	metrics.ComponentUp.WithLabelValues(name).Set(1)
}

func (w *Watchdog) Start() {
	if !atomic.CompareAndSwapUint32(&w.running, 0, 1) {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.monitorLoop()
}

func (w *Watchdog) monitorLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.CheckAll(context.Background())
		}
	}
}

// CheckAll probes every component once.
func (w *Watchdog) CheckAll(ctx context.Context) {
	w.mu.RLock()
	comps := make([]*ComponentHealth, 0, len(w.components))
	for _, c := range w.components {
		comps = append(comps, c)
	}
	w.mu.RUnlock()

	for _, comp := range comps {
		w.check(ctx, comp)
	}
}

func (w *Watchdog) check(ctx context.Context, comp *ComponentHealth) {
	pctx, cancel := context.WithTimeout(ctx, w.probeTimeout)
	err := comp.probe(pctx)
	cancel()

	atomic.StoreInt64(&comp.LastCheck, time.Now().UnixNano())

	if err != nil {
		w.mu.Lock()
		comp.LastError = err.Error()
		w.mu.Unlock()
		if atomic.SwapUint32(&comp.IsHealthy, 0) == 1 {
			logging.Error("[WATCHDOG] %s unhealthy: %v", comp.Name, err)
		}
		metrics.ComponentUp.WithLabelValues(comp.Name).Set(0)
		return
	}

	if atomic.SwapUint32(&comp.IsHealthy, 1) == 0 {
		logging.Info("[WATCHDOG] %s recovered", comp.Name)
	}
	metrics.ComponentUp.WithLabelValues(comp.Name).Set(1)
}

func (w *Watchdog) IsHealthy(name string) bool {
	w.mu.RLock()
	comp, exists := w.components[name]
	w.mu.RUnlock()
	if exists {
		return atomic.LoadUint32(&comp.IsHealthy) == 1
	}
	return false
}

// Healthy reports whether every registered component is healthy.
func (w *Watchdog) Healthy() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, comp := range w.components {
		if atomic.LoadUint32(&comp.IsHealthy) == 0 {
			return false
		}
	}
	return true
}

// Unhealthy lists the components currently failing, sorted by name.
func (w *Watchdog) Unhealthy() []string {
	var out []string
	for name, ok := range w.GetStatus() {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watchdog) Stop() {
	if !atomic.CompareAndSwapUint32(&w.running, 1, 0) {
		return
	}
	close(w.stop)
	<-w.done
}

func (w *Watchdog) GetStatus() map[string]bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	status := make(map[string]bool, len(w.components))
	for name, comp := range w.components {
		status[name] = atomic.LoadUint32(&comp.IsHealthy) == 1
	}
	return status
}
