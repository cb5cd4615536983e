package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	apperrors "github.com/khanhnv2901/securitytxt/internal/shared/errors"
)

// Job statuses.
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobError   = "error"
)

const maxHostsPerJob = 500

type Job struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"`
	Status     string                `json:"status"`
	Hosts      []string              `json:"hosts"`
	Options    CheckOptions          `json:"options"`
	CreatedAt  time.Time             `json:"created_at"`
	StartedAt  *time.Time            `json:"started_at,omitempty"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	Completed  int                   `json:"completed"`
	Valid      int                   `json:"valid"`
	Results    []checker.CheckResult `json:"results,omitempty"`
	Error      string                `json:"error,omitempty"`
}

type JobRequest struct {
	Hosts []string `json:"hosts"`
	CheckOptions
}

// JobGauge tracks running jobs.
type JobGauge interface {
	Inc()
	Dec()
}

type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[chan Job]struct{}
	maxJobs     int // Maximum number of jobs to keep in memory

	checks  *Checks
	runner  *checker.Runner
	gauge   JobGauge
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// NewJobManager runs batch checks through runner. Call Close to stop
// running jobs and the cleanup loop.
func NewJobManager(checks *Checks, runner *checker.Runner, gauge JobGauge, logger *zap.Logger) *JobManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &JobManager{
		jobs:        make(map[string]*Job),
		subscribers: make(map[chan Job]struct{}),
		maxJobs:     1000, // Default: keep last 1000 jobs
		checks:      checks,
		runner:      runner,
		gauge:       gauge,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
	// Start cleanup goroutine to remove old completed jobs
	go m.cleanupLoop(5 * time.Minute)
	return m
}

// StartJob validates the request and starts checking its hosts in the
// background. ctx only bounds validation; the job outlives the request.
func (m *JobManager) StartJob(_ context.Context, req JobRequest) (*Job, error) {
	hosts := make([]string, 0, len(req.Hosts))
	for _, h := range req.Hosts {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: hosts", apperrors.ErrMissingRequired)
	}
	if len(hosts) > maxHostsPerJob {
		return nil, fmt.Errorf("%w: at most %d hosts per job", apperrors.ErrValidation, maxHostsPerJob)
	}

	job := m.CreateJob("check_hosts", hosts, req.CheckOptions)
	m.running.Add(1)
	go m.run(job.ID, hosts, req.CheckOptions)
	return job, nil
}

func (m *JobManager) run(id string, hosts []string, opts CheckOptions) {
	defer m.running.Done()
	if m.gauge != nil {
		m.gauge.Inc()
		defer m.gauge.Dec()
	}

	m.UpdateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.Status = JobRunning
		j.StartedAt = &now
	})

	report := func(target string, result checker.CheckResult, _ float64) error {
		m.UpdateJob(id, func(j *Job) {
			j.Completed++
			if result.Valid {
				j.Valid++
			}
		})
		return nil
	}
	results := m.runner.RunChecks(m.ctx, hosts, hostChecker{checks: m.checks, opts: opts}, report)

	m.UpdateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.FinishedAt = &now
		j.Results = results
		j.Status = JobDone
		if err := m.ctx.Err(); err != nil {
			j.Status = JobError
			j.Error = err.Error()
		}
	})
	m.logger.Info("batch job finished", zap.String("job_id", id), zap.Int("hosts", len(hosts)))
}

// CreateJob stores a pending job and returns a copy of it.
func (m *JobManager) CreateJob(jobType string, hosts []string, opts CheckOptions) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobPending,
		Hosts:     hosts,
		Options:   opts,
		CreatedAt: time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	m.broadcast(*job)
	c := *job
	return &c
}

// UpdateJob applies update under the lock and returns a copy of the result.
func (m *JobManager) UpdateJob(id string, update func(*Job)) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	update(job)
	m.broadcast(*job)
	c := *job
	return &c
}

// GetJob returns a copy of the job or apperrors.ErrJobNotFound.
func (m *JobManager) GetJob(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job, ok := m.jobs[id]; ok {
		copy := *job
		return &copy, nil
	}
	return nil, apperrors.ErrJobNotFound
}

// ListJobs returns up to limit jobs, newest first, without their results.
func (m *JobManager) ListJobs(_ context.Context, limit int) ([]Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.jobs) {
		limit = len(m.jobs)
	}
	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		summary := *job
		summary.Results = nil
		jobs = append(jobs, summary)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return jobs[:limit], nil
}

func (m *JobManager) Subscribe() (chan Job, func()) {
	ch := make(chan Job, 10)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
}

func (m *JobManager) broadcast(job Job) {
	job.Results = nil
	for ch := range m.subscribers {
		select {
		case ch <- job:
		default:
			m.logger.Debug("dropping job update for slow subscriber", zap.String("job_id", job.ID))
		}
	}
}

// Close cancels running jobs and waits for them to record their state.
func (m *JobManager) Close() {
	m.cancel()
	m.running.Wait()
}

// cleanupLoop removes old finished jobs to prevent unbounded memory growth
func (m *JobManager) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.prune()
		}
	}
}

func (m *JobManager) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.jobs) <= m.maxJobs {
		return
	}

	type finished struct {
		id   string
		time time.Time
	}
	var done []finished
	for id, job := range m.jobs {
		if job.Status != JobDone && job.Status != JobError {
			continue
		}
		at := job.CreatedAt
		if job.FinishedAt != nil {
			at = *job.FinishedAt
		}
		done = append(done, finished{id: id, time: at})
	}

	// Oldest first
	sort.Slice(done, func(i, j int) bool {
		return done[i].time.Before(done[j].time)
	})

	toRemove := min(len(m.jobs)-m.maxJobs, len(done))
	for i := 0; i < toRemove; i++ {
		delete(m.jobs, done[i].id)
	}
}

// SetMaxJobs configures the maximum number of jobs to retain in memory
func (m *JobManager) SetMaxJobs(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max > 0 {
		m.maxJobs = max
	}
}
