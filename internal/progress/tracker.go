package progress

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/logging"
)

const (
	// activityLimit caps the rolling feed served to the dashboard.
	activityLimit = 15

	probeTimeout = 3 * time.Second
)

// IndicatorStatus is one evaluated completion signal inside a phase.
type IndicatorStatus struct {
	Type     string `json:"type"`
	Target   string `json:"target"`
	Message  string `json:"message"`
	Complete bool   `json:"complete"`
}

// PhaseStatus is the evaluated state of a setup phase.
type PhaseStatus struct {
	Name       string            `json:"name"`
	Percent    float64           `json:"percent"`
	Complete   bool              `json:"complete"`
	Indicators []IndicatorStatus `json:"indicators"`
}

// ServiceStatus is the result of probing one service health URL.
type ServiceStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Activity is one line in the rolling activity feed.
type Activity struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Snapshot is the document served at /progress.json.
type Snapshot struct {
	UpdatedAt    time.Time       `json:"timestamp"`
	Overall      float64         `json:"overall_progress"`
	Status       string          `json:"status"`
	CurrentPhase string          `json:"current_phase"`
	Phases       []PhaseStatus   `json:"phases"`
	Services     []ServiceStatus `json:"services"`
	Activities   []Activity      `json:"recent_activities"`
}

// statusComplete replaces the configured status line once every phase is
// done.
const statusComplete = "Deployment Complete"

// Tracker evaluates configured phase indicators and service probes into
// dashboard snapshots. It is safe for concurrent use.
type Tracker struct {
	phases []config.Phase
	probes []config.Probe
	status string
	logger *logging.Logger
	httpc  *http.Client

	// now is swappable for tests.
	now func() time.Time

	mu         sync.Mutex
	activities []Activity
	last       Snapshot
	// seen tracks indicator completion between evaluations so newly
	// completed indicators land in the activity feed exactly once.
	seen map[string]bool
}

// NewTracker builds a tracker over the configured dashboard phases and
// service probes.
func NewTracker(cfg config.DashboardConfig, logger *logging.Logger) *Tracker {
	status := cfg.Status
	if status == "" {
		status = "Active"
	}
	return &Tracker{
		phases: cfg.Phases,
		probes: cfg.Services,
		status: status,
		logger: logger,
		httpc:  &http.Client{Timeout: probeTimeout},
		now:    time.Now,
		seen:   make(map[string]bool),
	}
}

// Record appends a message to the activity feed, evicting the oldest entry
// once the feed is full.
func (t *Tracker) Record(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.activities = append(t.activities, Activity{Time: t.now().UTC(), Message: fmt.Sprintf(format, args...)})
	if len(t.activities) > activityLimit {
		t.activities = t.activities[len(t.activities)-activityLimit:]
	}
}

// Evaluate probes every indicator and service and returns a fresh snapshot.
func (t *Tracker) Evaluate(ctx context.Context) Snapshot {
	phases := make([]PhaseStatus, 0, len(t.phases))
	var sum float64
	current := ""
	var completed []string

	for _, phase := range t.phases {
		status := t.evaluatePhase(ctx, phase)
		if !status.Complete && current == "" {
			current = status.Name
		}
		sum += status.Percent
		phases = append(phases, status)

		for _, ind := range status.Indicators {
			key := status.Name + "/" + ind.Target
			t.mu.Lock()
			fresh := ind.Complete && !t.seen[key]
			t.seen[key] = ind.Complete
			t.mu.Unlock()
			if fresh {
				msg := ind.Message
				if msg == "" {
					msg = fmt.Sprintf("%s: %s completed", status.Name, ind.Target)
				}
				completed = append(completed, msg)
			}
		}
	}
	for _, msg := range completed {
		t.Record("%s", msg)
	}

	overall := 0.0
	if len(phases) > 0 {
		overall = sum / float64(len(phases))
	}
	if overall > 100 {
		overall = 100
	}
	if current == "" && len(phases) > 0 {
		current = phases[len(phases)-1].Name
	}

	services := make([]ServiceStatus, 0, len(t.probes))
	for _, probe := range t.probes {
		services = append(services, t.probeService(ctx, probe))
	}

	status := t.status
	if len(phases) > 0 && overall >= 100 {
		status = statusComplete
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := Snapshot{
		UpdatedAt:    t.now().UTC(),
		Overall:      overall,
		Status:       status,
		CurrentPhase: current,
		Phases:       phases,
		Services:     services,
		Activities:   append([]Activity(nil), t.activities...),
	}
	t.last = snapshot
	return snapshot
}

// Last returns the most recently evaluated snapshot without re-probing.
func (t *Tracker) Last() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

func (t *Tracker) evaluatePhase(ctx context.Context, phase config.Phase) PhaseStatus {
	status := PhaseStatus{Name: phase.Name}
	if len(phase.Indicators) == 0 {
		status.Percent = 100
		status.Complete = true
		return status
	}

	completed := 0
	for _, ind := range phase.Indicators {
		done := t.checkIndicator(ctx, ind)
		if done {
			completed++
		}
		status.Indicators = append(status.Indicators, IndicatorStatus{
			Type:     ind.Type,
			Target:   ind.Target,
			Message:  ind.Message,
			Complete: done,
		})
	}

	status.Percent = float64(completed) / float64(len(phase.Indicators)) * 100
	status.Complete = completed == len(phase.Indicators)
	return status
}

func (t *Tracker) checkIndicator(ctx context.Context, ind config.Indicator) bool {
	switch ind.Type {
	case "file":
		info, err := os.Stat(ind.Target)
		return err == nil && !info.IsDir()
	case "process":
		return processRunning(ctx, ind.Target)
	case "url":
		return t.urlHealthy(ctx, ind.Target)
	default:
		t.logger.Warn("Unknown indicator type '%s' for target '%s'", ind.Type, ind.Target)
		return false
	}
}

func (t *Tracker) probeService(ctx context.Context, probe config.Probe) ServiceStatus {
	status := ServiceStatus{Name: probe.Name}
	if t.urlHealthy(ctx, probe.URL) {
		status.Healthy = true
		return status
	}
	status.Detail = fmt.Sprintf("%s did not answer", probe.URL)
	return status
}

func (t *Tracker) urlHealthy(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := t.httpc.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode < 400
}

// processRunning shells out to pgrep, matching against the full command line
// so compound invocations like "vault server" are found.
func processRunning(ctx context.Context, pattern string) bool {
	cmd := exec.CommandContext(ctx, "pgrep", "-f", pattern)
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) != ""
}
