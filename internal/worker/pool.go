package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studynotes-dashboard/internal/content"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/poller"
	"studynotes-dashboard/internal/services"
)

// Broker is the queue, lock, pub/sub and cache surface the pool needs.
// database.RedisClients implements it.
type Broker interface {
	Enqueue(ctx context.Context, job models.WatchJob) error
	Dequeue(ctx context.Context, timeout time.Duration) (*models.WatchJob, error)
	Lock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string)
	Publish(ctx context.Context, userKey string, msg models.WSMessage) (int64, error)
	CacheView(ctx context.Context, userKey, noteID string, view any, ttl time.Duration) error
}

// Backend is everything a watcher polls.
type Backend interface {
	services.NoteBackend
	services.LearningAidBackend
	services.StudyPlanBackend
}

// BackendFor returns a backend acting with the given bearer token.
type BackendFor func(token string) Backend

const (
	lockTTL = 15 * time.Minute
	// maxWatch keeps every watch inside its lock.
	maxWatch = lockTTL - time.Minute
	// idleSamples is how many consecutive updates may go unheard before
	// a watch gives up on the user.
	idleSamples = 3
)

var errNoListeners = errors.New("no dashboard is listening")

// Pool runs one poller per watched resource on behalf of the dashboard
// tabs. Generation triggers enqueue a WatchJob; a worker claims it, polls
// the backend until the resource settles and pushes every sample to the
// user's channel.
type Pool struct {
	broker      Broker
	backendFor  BackendFor
	workerCount int
	cacheTTL    time.Duration

	noteOpts  poller.Options
	aidOpts   poller.Options
	planOpts  poller.Options
	dequeueIn time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(broker Broker, backendFor BackendFor, workerCount int, cacheTTL time.Duration) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	noteOpts := poller.NoteOptions()
	noteOpts.MaxDuration = maxWatch
	planOpts := poller.StudyPlanOptions()
	planOpts.MaxDuration = maxWatch
	return &Pool{
		broker:      broker,
		backendFor:  backendFor,
		workerCount: workerCount,
		cacheTTL:    cacheTTL,
		noteOpts:    noteOpts,
		aidOpts:     poller.AidOptions(),
		planOpts:    planOpts,
		dequeueIn:   5 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d watch workers", p.workerCount)
}

// Stop cancels every running poll and waits for the workers to exit.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Watch queues a watcher for a resource the user just triggered.
func (p *Pool) Watch(ctx context.Context, kind models.WatchKind, resourceID, userKey, token string) error {
	job := models.WatchJob{
		ID:         uuid.NewString(),
		Kind:       kind,
		ResourceID: resourceID,
		UserKey:    userKey,
		Token:      token,
	}
	if err := p.broker.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to queue watcher: %w", err)
	}
	return nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		if p.ctx.Err() != nil {
			log.Printf("Watch worker %d shutting down", id)
			return
		}

		job, err := p.broker.Dequeue(p.ctx, p.dequeueIn)
		if err != nil {
			if p.ctx.Err() == nil {
				log.Printf("Watch worker %d: dequeue failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if job == nil {
			continue
		}

		p.process(p.ctx, job)
	}
}

func lockKey(job *models.WatchJob) string {
	return fmt.Sprintf("watch_lock:%s:%s:%s", job.UserKey, job.Kind, job.ResourceID)
}

// watch is one running job. It stops the poll once the user's channel has
// gone unheard for idleSamples updates in a row.
type watch struct {
	*models.WatchJob
	idle int
	stop context.CancelCauseFunc
}

func (w *watch) heard(receivers int64) {
	switch {
	case receivers > 0:
		w.idle = 0
	case receivers == 0:
		w.idle++
		if w.idle >= idleSamples {
			w.stop(errNoListeners)
		}
	}
}

// process runs one watch job. A resource already being watched for the
// same user is skipped so repeated triggers share one poller.
func (p *Pool) process(ctx context.Context, job *models.WatchJob) {
	key := lockKey(job)
	locked, err := p.broker.Lock(ctx, key, job.ID, lockTTL)
	if err != nil || !locked {
		return
	}
	defer p.broker.Unlock(context.Background(), key, job.ID)

	log.Printf("Watching %s %s for %s", job.Kind, job.ResourceID, job.UserKey)

	ctx, stop := context.WithCancelCause(ctx)
	defer stop(nil)
	w := &watch{WatchJob: job, stop: stop}

	backend := p.backendFor(job.Token)
	switch job.Kind {
	case models.WatchNote:
		err = p.watchNote(ctx, w, backend)
	case models.WatchLearningAids:
		err = p.watchAids(ctx, w, backend)
	case models.WatchStudyPlan:
		err = p.watchPlan(ctx, w, backend)
	default:
		err = fmt.Errorf("unknown watch kind: %s", job.Kind)
	}

	switch {
	case err == nil:
	case errors.Is(context.Cause(ctx), errNoListeners):
		log.Printf("Watch of %s %s stopped: %v", job.Kind, job.ResourceID, errNoListeners)
	case errors.Is(err, context.Canceled):
		log.Printf("Watch of %s %s cancelled", job.Kind, job.ResourceID)
	default:
		p.handleFailure(job, err)
	}
}

func (p *Pool) watchNote(ctx context.Context, job *watch, backend Backend) error {
	attempt := 0
	view, err := services.NewNoteService(backend, nil).Wait(ctx, job.ResourceID, p.noteOpts, func(v content.NoteView) {
		attempt++
		status := v.Processing.Status
		if status == "" {
			status = content.StatusCompleted
		}
		p.publishStatus(job, models.StatusUpdate{
			Kind:       job.Kind,
			ResourceID: job.ResourceID,
			Status:     status,
			Stage:      v.Processing.Stage,
			Progress:   v.Progress,
			Attempt:    attempt,
		})
	})
	if errors.Is(err, poller.ErrTimeout) {
		p.publishError(job.WatchJob, "TIMEOUT", "This note is taking longer than expected. Refresh to check its status.")
		return nil
	}
	if err != nil {
		return err
	}

	if v := view.Processing; v.IsFailed() {
		msg := v.Error
		if msg == "" {
			msg = "Note generation failed"
		}
		p.publishError(job.WatchJob, errorCode(v.ErrorType, "GENERATION_FAILED"), msg)
		return nil
	}

	if p.cacheTTL > 0 {
		if err := p.broker.CacheView(ctx, job.UserKey, job.ResourceID, view, p.cacheTTL); err != nil {
			log.Printf("failed to cache note view %s: %v", job.ResourceID, err)
		}
	}
	p.publishCompleted(job.WatchJob)
	return nil
}

func (p *Pool) watchAids(ctx context.Context, job *watch, backend Backend) error {
	opts := p.aidOpts
	opts.OnPoll = func(attempt int) {
		p.publishStatus(job, models.StatusUpdate{
			Kind:       job.Kind,
			ResourceID: job.ResourceID,
			Status:     content.StatusProcessing,
			Progress:   content.StageProgress(""),
			Attempt:    attempt,
		})
	}

	aids, err := services.NewLearningAidService(backend).WaitForAids(ctx, job.ResourceID, opts)
	if errors.Is(err, poller.ErrTimeout) {
		p.publishError(job.WatchJob, "TIMEOUT", "Learning aids are taking longer than expected. Try again shortly.")
		return nil
	}
	if err != nil {
		return err
	}
	if aids.Failed() {
		p.publishError(job.WatchJob, "GENERATION_FAILED", "Learning aid generation failed")
		return nil
	}
	p.publishCompleted(job.WatchJob)
	return nil
}

func (p *Pool) watchPlan(ctx context.Context, job *watch, backend Backend) error {
	attempt := 0
	plan, err := services.NewStudyPlanService(backend).Wait(ctx, job.ResourceID, p.planOpts, func(plan *models.StudyPlan) {
		attempt++
		p.publishStatus(job, models.StatusUpdate{
			Kind:       job.Kind,
			ResourceID: job.ResourceID,
			Status:     plan.Status,
			Progress:   plan.ProgressPercent(),
			Attempt:    attempt,
		})
	})
	if errors.Is(err, poller.ErrTimeout) {
		p.publishError(job.WatchJob, "TIMEOUT", "This study plan is taking longer than expected. Refresh to check its status.")
		return nil
	}
	if err != nil {
		return err
	}
	if plan.Status == content.StatusFailed {
		msg := plan.Error
		if msg == "" {
			msg = "Study plan generation failed"
		}
		p.publishError(job.WatchJob, "GENERATION_FAILED", msg)
		return nil
	}
	p.publishCompleted(job.WatchJob)
	return nil
}

func (p *Pool) handleFailure(job *models.WatchJob, err error) {
	log.Printf("Watch of %s %s failed: %v", job.Kind, job.ResourceID, err)

	var unauthorized *services.UnauthorizedError
	if errors.As(err, &unauthorized) {
		p.publishError(job, "UNAUTHORIZED", unauthorized.Message)
		return
	}
	p.publishError(job, "WATCH_FAILED", "Lost track of this item. Refresh to check its status.")
}

func (p *Pool) publishCompleted(job *models.WatchJob) {
	p.publish(job, "completed", models.CompletedEvent{Kind: job.Kind, ResourceID: job.ResourceID})
	log.Printf("Watch of %s %s completed", job.Kind, job.ResourceID)
}

func (p *Pool) publishError(job *models.WatchJob, code, message string) {
	p.publish(job, "error", models.ErrorEvent{
		Kind:         job.Kind,
		ResourceID:   job.ResourceID,
		ErrorCode:    code,
		ErrorMessage: message,
	})
}

func (p *Pool) publishStatus(w *watch, update models.StatusUpdate) {
	w.heard(p.publish(w.WatchJob, "status_update", update))
}

// publish returns the number of receivers, or -1 when the publish failed.
// A failure only costs a live update; the dashboard can still refresh.
func (p *Pool) publish(job *models.WatchJob, msgType string, payload any) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := p.broker.Publish(ctx, job.UserKey, models.WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("failed to publish %s for %s: %v", msgType, job.UserKey, err)
		return -1
	}
	return n
}

func errorCode(errorType, fallback string) string {
	if errorType == "" {
		return fallback
	}
	return strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToUpper(errorType))
}
