// internal/scheduler/scheduler.go
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInitialized = errors.New("reminder scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
	ErrDuplicateJob   = errors.New("job already registered")
)

// The server runs one reminder scheduler; Init builds it and Start/Stop
// drive it from the app lifecycle.
var (
	service     *Service
	serviceOnce sync.Once
	serviceErr  error
)

// Service runs named cron jobs for event reminders. A name can be
// registered once, so a reminder job never fires twice per tick.
type Service struct {
	scheduler gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]gocron.Job

	stopOnce sync.Once
	stopErr  error
}

func Init() error {
	serviceOnce.Do(func() {
		service, serviceErr = NewService()
		if serviceErr == nil {
			log.Info().Str("component", "scheduler").Msg("Reminder scheduler initialized")
		}
	})
	return serviceErr
}

// NewService builds a scheduler outside the singleton. A panicking job is
// logged and the next tick still runs.
func NewService() (*Service, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("component", "scheduler").
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Reminder job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Service{scheduler: sched, jobs: make(map[string]gocron.Job)}, nil
}

func ServiceInstance() (*Service, error) {
	if service == nil && serviceErr == nil {
		return nil, ErrNotInitialized
	}
	return service, serviceErr
}

func Start() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	svc.Start()
	return nil
}

func Stop() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	return svc.Stop()
}

func (s *Service) Start() {
	if s == nil {
		log.Error().Msg("Reminder scheduler started before Init")
		return
	}
	log.Info().Strs("jobs", s.JobNames()).Msg("Reminder scheduler starting")
	s.scheduler.Start()
}

// Stop is safe to call more than once; later calls return the first result.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		log.Info().Msg("Reminder scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// JobNames lists registered jobs in name order.
func (s *Service) JobNames() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddJob schedules task on a five-field cron expression.
func (s *Service) AddJob(name, cronExpr string, task func(), opts ...gocron.JobOption) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	jobLogger := log.With().Str("job_name", name).Str("cron", cronExpr).Logger()
	run := func() {
		jobLogger.Debug().Msg("Reminder job tick")
		task()
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(run),
		append([]gocron.JobOption{gocron.WithName(name)}, opts...)...,
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Reminder job rejected")
		return nil, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs[name] = job
	jobLogger.Debug().Msg("Reminder job scheduled")
	return job, nil
}
