// Package monitoring turns a running dialysis simulation into a web server
// that reports the latest cycle and lets an operator pause the engine.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/hemosim/dialysis"
	"github.com/sarchlab/hemosim/monitoring/web"
	"github.com/sarchlab/hemosim/sim"
)

// A MonitoredLoop is a control loop that reports its cycles through hooks.
type MonitoredLoop interface {
	sim.Named
	sim.Hookable
	MaxCycles() int
}

// Monitor can turn a simulation into a server and allows external monitoring
// and controlling of the simulation. It is also a hook on the control loop.
type Monitor struct {
	engine          sim.Engine
	portNumber      int
	profileDuration time.Duration

	server   *http.Server
	listener net.Listener

	lock        sync.Mutex
	hasCycle    bool
	snapshot    dialysis.CycleSnapshot
	controllers []dialysis.ControllerStatus
	leak        bool
	paused      bool
	cycleBar    *ProgressBar

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	metrics *metrics
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
		metrics:         newMetrics(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithProfileDuration sets how long /api/profile samples the CPU.
func (m *Monitor) WithProfileDuration(d time.Duration) *Monitor {
	m.profileDuration = d
	return m
}

// RegisterEngine registers the engine that is used in the simulation.
func (m *Monitor) RegisterEngine(e sim.Engine) {
	m.engine = e
}

// RegisterLoop attaches the monitor to a control loop and tracks its cycles
// with a progress bar.
func (m *Monitor) RegisterLoop(l MonitoredLoop) {
	bar := m.CreateProgressBar(l.Name(), uint64(l.MaxCycles()))

	m.lock.Lock()
	m.cycleBar = bar
	m.lock.Unlock()

	l.AcceptHook(m)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Func records the cycle information reported by the control loop.
func (m *Monitor) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case dialysis.HookPosCycleStart:
		if bar := m.currentBar(); bar != nil {
			bar.IncrementInProgress(1)
		}
	case dialysis.HookPosCycleEnd:
		snapshot := ctx.Item.(dialysis.CycleSnapshot)
		controllers, _ := ctx.Detail.([]dialysis.ControllerStatus)
		m.recordCycle(snapshot, controllers)
	case dialysis.HookPosLeak:
		m.lock.Lock()
		m.leak = true
		m.lock.Unlock()
	}
}

func (m *Monitor) currentBar() *ProgressBar {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.cycleBar
}

func (m *Monitor) recordCycle(
	snapshot dialysis.CycleSnapshot,
	controllers []dialysis.ControllerStatus,
) {
	m.lock.Lock()
	m.hasCycle = true
	m.snapshot = snapshot
	m.controllers = append([]dialysis.ControllerStatus(nil), controllers...)
	bar := m.cycleBar
	m.lock.Unlock()

	if bar != nil {
		bar.MoveInProgressToFinished(1)
	}

	m.metrics.observeCycle(snapshot, controllers)
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/controller/{name}", m.controllerDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.Handle("/metrics", promhttp.HandlerFor(
		m.metrics.registry, promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("starting monitoring server: %w", err)
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("monitoring server stopped: %v", err)
		}
	}()

	return url, nil
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engine.Pause()

	m.lock.Lock()
	m.paused = true
	m.lock.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	m.paused = false
	m.lock.Unlock()

	m.engine.Continue()

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%.10f}", m.engine.CurrentTime())
}

type statusRsp struct {
	Status      string                      `json:"status"`
	Now         float64                     `json:"now"`
	Snapshot    *dialysis.CycleSnapshot     `json:"snapshot"`
	Controllers []dialysis.ControllerStatus `json:"controllers"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	rsp := statusRsp{
		Now: float64(m.engine.CurrentTime()),
	}

	m.lock.Lock()
	rsp.Status = m.statusString()
	if m.hasCycle {
		snapshot := m.snapshot
		rsp.Snapshot = &snapshot
	}
	rsp.Controllers = append(rsp.Controllers, m.controllers...)
	m.lock.Unlock()

	writeJSON(w, rsp)
}

// statusString must be called with m.lock held.
func (m *Monitor) statusString() string {
	switch {
	case m.leak:
		return dialysis.StatusLeakDetected.String()
	case m.cycleBar != nil && m.cycleBar.IsDone():
		return dialysis.StatusCompleted.String()
	case m.paused:
		return "Paused"
	default:
		return dialysis.StatusRunning.String()
	}
}

func (m *Monitor) controllerDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var (
		found  bool
		status dialysis.ControllerStatus
	)

	m.lock.Lock()
	for _, c := range m.controllers {
		if c.Name == name {
			found = true
			status = c
		}
	}
	m.lock.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Controller not found"))
		dieOnErr(err)

		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&status)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := append([]*ProgressBar{}, m.progressBars...)
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := process.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := process.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
