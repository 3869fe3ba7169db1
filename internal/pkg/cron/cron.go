package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
)

// JobStatus represents the last known state of a job.
type JobStatus string

const (
	StatusIdle    JobStatus = "idle"
	StatusRunning JobStatus = "running"
	StatusFulfill JobStatus = "fulfill"
	StatusReject  JobStatus = "reject"
)

// Job defines a scheduled background task. Spec uses robfig/cron syntax,
// e.g. "@every 1h" or "0 3 * * *".
type Job struct {
	Name        string
	Description string
	Spec        string
	Fn          func(ctx context.Context) error
}

// JobState holds runtime state for a registered job.
type JobState struct {
	Job
	Status    JobStatus
	Message   string
	LastRunAt *time.Time
	entryID   robfig.EntryID
	mu        sync.Mutex
}

// ListItem is the serializable representation of a job.
type ListItem struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      JobStatus  `json:"status"`
	NextDate    *time.Time `json:"next_date"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
}

// Scheduler manages a collection of named cron jobs.
type Scheduler struct {
	mu   sync.RWMutex
	c    *robfig.Cron
	ctx  context.Context
	jobs map[string]*JobState
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		c:    robfig.New(),
		ctx:  context.Background(),
		jobs: make(map[string]*JobState),
	}
}

// Register adds a job to the scheduler.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	js := &JobState{Job: job, Status: StatusIdle}
	id, err := s.c.AddFunc(job.Spec, func() { s.execute(s.context(), js) })
	if err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}
	js.entryID = id
	s.jobs[job.Name] = js
	return nil
}

// Start runs the scheduler in the background. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.c.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

func (s *Scheduler) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

func (s *Scheduler) execute(ctx context.Context, js *JobState) {
	js.mu.Lock()
	if js.Status == StatusRunning {
		js.mu.Unlock()
		return
	}
	js.Status = StatusRunning
	js.mu.Unlock()

	now := time.Now()
	err := js.Fn(ctx)

	js.mu.Lock()
	js.LastRunAt = &now
	if err != nil {
		js.Status = StatusReject
		js.Message = err.Error()
	} else {
		js.Status = StatusFulfill
		js.Message = ""
	}
	js.mu.Unlock()
}

// RunNow executes a job synchronously by name.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	js, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	s.execute(ctx, js)

	js.mu.Lock()
	defer js.mu.Unlock()
	if js.Status == StatusReject {
		return fmt.Errorf("job %q: %s", name, js.Message)
	}
	return nil
}

// List returns a summary of all registered jobs ordered by name.
func (s *Scheduler) List() []ListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ListItem, 0, len(s.jobs))
	for _, js := range s.jobs {
		entry := s.c.Entry(js.entryID)
		js.mu.Lock()
		item := ListItem{
			Name:        js.Name,
			Description: js.Description,
			Status:      js.Status,
			LastRunAt:   js.LastRunAt,
		}
		js.mu.Unlock()
		if !entry.Next.IsZero() {
			next := entry.Next
			item.NextDate = &next
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}
