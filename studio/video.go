// studio/video.go
package studio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/store"
)

// KeySelector is the "selected key" mechanism of the video module: the key
// is chosen once and cleared when the service rejects it.
type KeySelector interface {
	SelectedKey(ctx context.Context) string
	SelectKey(ctx context.Context, key string) error
	ClearSelection(ctx context.Context)
}

// StoredKeySelector keeps the selected key as the video module credential.
type StoredKeySelector struct {
	creds *Credentials
}

func (s *StoredKeySelector) SelectedKey(ctx context.Context) string {
	return s.creds.key(ctx, domain.ModuleVideo)
}

func (s *StoredKeySelector) SelectKey(ctx context.Context, key string) error {
	return s.creds.Set(ctx, domain.ModuleVideo, strings.TrimSpace(key))
}

func (s *StoredKeySelector) ClearSelection(ctx context.Context) {
	_ = s.creds.Clear(ctx, domain.ModuleVideo)
}

type JobState string

const (
	JobRunning  JobState = "running"
	JobDone     JobState = "done"
	JobFailed   JobState = "failed"
	JobCanceled JobState = "canceled"
)

// Job is a snapshot of one video generation.
type Job struct {
	ID         string    `json:"id"`
	Prompt     string    `json:"prompt"`
	State      JobState  `json:"state"`
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	Progress   int       `json:"progress"`
	ClipID     string    `json:"clip_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

type job struct {
	Job
	cancel context.CancelFunc
	done   chan struct{}
}

// Video is the timeline editor: clips in generation order, user-reorderable,
// produced by cancellable background jobs.
type Video struct {
	deps
	gate
	keys     KeySelector
	clipsDir string

	mu        sync.RWMutex
	clips     []domain.TimelineClip
	activeID  string
	reference string
	jobs      map[string]*job
	wg        sync.WaitGroup
}

func newVideo(ctx context.Context, d deps, keys KeySelector, clipsDir string) *Video {
	v := &Video{
		deps:     d,
		keys:     keys,
		clipsDir: clipsDir,
		clips:    []domain.TimelineClip{},
		jobs:     make(map[string]*job),
	}
	v.store.Load(ctx, store.KeyVideoClips, &v.clips)
	return v
}

func (v *Video) HasSelectedKey(ctx context.Context) bool {
	return v.keys.SelectedKey(ctx) != ""
}

func (v *Video) SelectKey(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidInput)
	}
	return v.keys.SelectKey(ctx, key)
}

func (v *Video) Clips() []domain.TimelineClip {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.clips)
}

// Active returns the clip in the player. Without an explicit choice the
// first clip plays.
func (v *Video) Active() (domain.TimelineClip, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if i := v.indexLocked(v.activeID); i >= 0 {
		return v.clips[i], true
	}
	if len(v.clips) > 0 {
		return v.clips[0], true
	}
	return domain.TimelineClip{}, false
}

func (v *Video) SetActive(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.indexLocked(id) < 0 {
		return fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	v.activeID = id
	return nil
}

// Reorder moves the clip at from so it ends up at index to.
func (v *Video) Reorder(ctx context.Context, from, to int) ([]domain.TimelineClip, error) {
	v.mu.Lock()
	if from < 0 || from >= len(v.clips) || to < 0 || to >= len(v.clips) {
		n := len(v.clips)
		v.mu.Unlock()
		return nil, fmt.Errorf("%w: reorder %d -> %d with %d clips", ErrInvalidInput, from, to, n)
	}
	dragged := v.clips[from]
	clips := slices.Delete(slices.Clone(v.clips), from, from+1)
	v.clips = slices.Insert(clips, to, dragged)
	snapshot := slices.Clone(v.clips)
	v.mu.Unlock()

	v.store.Save(ctx, store.KeyVideoClips, snapshot)
	v.publish(events.RecordUpdated, domain.ModuleVideo, dragged.ID, snapshot)
	return snapshot, nil
}

// Remove deletes the clip and its media file.
func (v *Video) Remove(ctx context.Context, id string) error {
	v.mu.Lock()
	i := v.indexLocked(id)
	if i < 0 {
		v.mu.Unlock()
		return fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	v.clips = slices.Delete(v.clips, i, i+1)
	if v.activeID == id {
		v.activeID = ""
	}
	snapshot := slices.Clone(v.clips)
	v.mu.Unlock()

	if err := os.Remove(v.mediaPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		v.log.Warn().Err(err).Str("clip", id).Msg("failed to remove clip media")
	}
	v.store.Save(ctx, store.KeyVideoClips, snapshot)
	v.publish(events.RecordUpdated, domain.ModuleVideo, id, snapshot)
	return nil
}

// SetReference sets the image the next clip starts from. "" clears it.
func (v *Video) SetReference(imageDataURI string) error {
	if imageDataURI != "" && !strings.HasPrefix(imageDataURI, "data:image") {
		return fmt.Errorf("%w: reference must be an image data URI", ErrInvalidInput)
	}
	v.mu.Lock()
	v.reference = imageDataURI
	v.mu.Unlock()
	return nil
}

// UseClipAsReference takes the clip thumbnail as the next reference.
func (v *Video) UseClipAsReference(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	if v.clips[i].Thumbnail == "" {
		return fmt.Errorf("%w: clip %s has no thumbnail", ErrInvalidInput, id)
	}
	v.reference = v.clips[i].Thumbnail
	return nil
}

func (v *Video) Reference() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.reference
}

// MediaPath locates the downloaded file of clip id.
func (v *Video) MediaPath(id string) (string, error) {
	v.mu.RLock()
	known := v.indexLocked(id) >= 0
	v.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("clip %s: %w", id, ErrNotFound)
	}
	path := v.mediaPath(id)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("clip %s media: %w", id, ErrNotFound)
	}
	return path, nil
}

// Start launches a video generation in the background. referenceImage
// overrides the stored reference when set. The job outlives ctx; use Cancel
// to stop it.
func (v *Video) Start(ctx context.Context, prompt, referenceImage string) (Job, error) {
	if strings.TrimSpace(prompt) == "" {
		return Job{}, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	key := v.keys.SelectedKey(ctx)
	if key == "" {
		return Job{}, ErrKeyNotSelected
	}
	if err := v.enter(); err != nil {
		return Job{}, err
	}

	v.mu.Lock()
	if referenceImage == "" {
		referenceImage = v.reference
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{
		Job: Job{
			ID:        v.newID(),
			Prompt:    prompt,
			State:     JobRunning,
			Stage:     gateway.StageSubmitted,
			Progress:  -1,
			StartedAt: v.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	v.jobs[j.ID] = j
	snapshot := j.Job
	v.wg.Add(1)
	v.mu.Unlock()

	go v.run(jobCtx, j, key, referenceImage)
	return snapshot, nil
}

func (v *Video) run(ctx context.Context, j *job, key, referenceImage string) {
	defer v.wg.Done()
	defer close(j.done)
	defer v.leave()
	defer j.cancel()

	log := v.log.With().Str("job", j.ID).Logger()
	result, err := v.gw.Video(ctx, key, j.Prompt, referenceImage, func(st gateway.VideoStatus) {
		v.mu.Lock()
		j.Stage, j.Message, j.Progress = st.Stage, st.Message, st.Progress
		v.mu.Unlock()
		v.notify.Broadcast(events.Message{
			Type:     events.VideoProgress,
			Module:   string(domain.ModuleVideo),
			ID:       j.ID,
			Status:   st.Message,
			Progress: st.Progress,
		})
	})
	if err != nil {
		state := JobFailed
		switch {
		case ctx.Err() != nil:
			state = JobCanceled
		case errors.Is(err, gateway.ErrAPIKeyNotFound):
			v.keys.ClearSelection(context.WithoutCancel(ctx))
		}
		log.Error().Err(err).Str("state", string(state)).Msg("video generation did not complete")
		v.finish(j, state, "", err)
		return
	}

	clipID := v.newID()
	if err := v.writeMedia(clipID, result.Data); err != nil {
		log.Error().Err(err).Msg("failed to store video clip")
		v.finish(j, JobFailed, "", err)
		return
	}

	clip := domain.TimelineClip{
		ID:        clipID,
		Src:       "/api/video/clips/" + clipID + "/media",
		Prompt:    j.Prompt,
		Thumbnail: referenceImage,
	}
	v.mu.Lock()
	v.clips = append(v.clips, clip)
	v.activeID = clip.ID
	v.reference = ""
	snapshot := slices.Clone(v.clips)
	v.mu.Unlock()

	v.store.Save(context.WithoutCancel(ctx), store.KeyVideoClips, snapshot)
	v.finish(j, JobDone, clip.ID, nil)
}

func (v *Video) finish(j *job, state JobState, clipID string, err error) {
	v.mu.Lock()
	j.State = state
	j.ClipID = clipID
	j.FinishedAt = v.now()
	if err != nil {
		j.Error = err.Error()
	}
	if state == JobCanceled {
		j.Stage, j.Message = gateway.StageFailed, "Geração de vídeo cancelada."
	}
	snapshot := j.Job
	v.mu.Unlock()

	msgType := events.VideoDone
	if state != JobDone {
		msgType = events.VideoFailed
	}
	v.notify.Broadcast(events.Message{
		Type:     msgType,
		Module:   string(domain.ModuleVideo),
		ID:       j.ID,
		Status:   string(state),
		Progress: snapshot.Progress,
		Payload:  snapshot,
	})
}

func (v *Video) Job(id string) (Job, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	j, ok := v.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return j.Job, nil
}

// Jobs lists every job of this process, oldest first.
func (v *Video) Jobs() []Job {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Job, 0, len(v.jobs))
	for _, j := range v.jobs {
		out = append(out, j.Job)
	}
	slices.SortFunc(out, func(a, b Job) int { return a.StartedAt.Compare(b.StartedAt) })
	return out
}

// Cancel stops a running job. Cancelling a finished job is a no-op.
func (v *Video) Cancel(id string) error {
	v.mu.RLock()
	j, ok := v.jobs[id]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	j.cancel()
	return nil
}

// Wait blocks until job id finishes or ctx is done.
func (v *Video) Wait(ctx context.Context, id string) (Job, error) {
	v.mu.RLock()
	j, ok := v.jobs[id]
	v.mu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	select {
	case <-j.done:
		return v.Job(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

func (v *Video) cancelAll() {
	v.mu.RLock()
	for _, j := range v.jobs {
		j.cancel()
	}
	v.mu.RUnlock()
	v.wg.Wait()
}

func (v *Video) writeMedia(id string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("clip %s: %w", id, ErrGenerationFailed)
	}
	if err := os.MkdirAll(v.clipsDir, 0o755); err != nil {
		return fmt.Errorf("create clips dir: %w", err)
	}
	return os.WriteFile(v.mediaPath(id), data, 0o644)
}

func (v *Video) mediaPath(id string) string {
	return filepath.Join(v.clipsDir, filepath.Base(id)+".mp4")
}

func (v *Video) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(v.clips, func(c domain.TimelineClip) bool { return c.ID == id })
}
