// Package sync moves guest-mode records into a user's account on sign-in.
package sync

import (
	"context"
	stdsync "sync"

	"github.com/sirupsen/logrus"

	"github.com/lingonote/lingonote/internal/record"
)

// Status is the authentication status reported by the session.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// SessionState is one observation of the session.
type SessionState struct {
	Status Status
	UserID string
}

// State is the coordinator's state.
type State int

const (
	StateIdle State = iota
	StateSynced
)

func (s State) String() string {
	if s == StateSynced {
		return "synced"
	}
	return "idle"
}

// LocalStore is the guest-mode storage drained by a sync.
type LocalStore interface {
	ListTranslations() []record.Translation
	ListVocabulary() []record.Vocabulary
	Clear(kind record.Kind) error
}

// Uploader submits records to the user's account.
type Uploader interface {
	CreateTranslation(ctx context.Context, in record.TranslationInput) (*record.Translation, error)
	CreateVocabulary(ctx context.Context, in record.VocabularyInput) (*record.Vocabulary, error)
}

// KindReport summarises the upload of one record kind.
type KindReport struct {
	Attempted int
	Uploaded  int
	Failed    int
	// Cleared is false when clearing local storage failed.
	Cleared bool
}

// Report is the outcome of one Observe call.
type Report struct {
	// Ran is true when this observation performed a sync.
	Ran   bool
	Kinds map[record.Kind]KindReport
}

// Dropped returns the number of local records that were cleared without
// reaching the server.
func (r Report) Dropped() int {
	n := 0
	for _, k := range r.Kinds {
		if k.Cleared {
			n += k.Failed
		}
	}
	return n
}

// Coordinator runs the one-time sync of local records on sign-in. Syncing
// is best effort: records that fail to upload are logged and then cleared
// with the rest.
type Coordinator struct {
	mu       stdsync.Mutex
	state    State
	local    LocalStore
	uploader Uploader
	logger   *logrus.Logger
}

// NewCoordinator creates an idle Coordinator.
func NewCoordinator(local LocalStore, uploader Uploader, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{
		local:    local,
		uploader: uploader,
		logger:   logger,
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetUploader replaces the uploader, typically after the client obtains a
// new session token.
func (c *Coordinator) SetUploader(u Uploader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploader = u
}

// Observe feeds a session observation to the coordinator. The first
// authenticated observation with a user id drains local storage; later ones
// are no-ops until an unauthenticated observation re-arms the coordinator.
func (c *Coordinator) Observe(ctx context.Context, s SessionState) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch s.Status {
	case StatusUnauthenticated:
		if c.state != StateIdle {
			c.logger.Debug("Session ended, sync re-armed")
		}
		c.state = StateIdle
		return Report{}
	case StatusAuthenticated:
		if s.UserID == "" || c.state == StateSynced {
			return Report{}
		}
	default:
		return Report{}
	}

	report := Report{
		Ran:   true,
		Kinds: make(map[record.Kind]KindReport, len(record.Kinds)),
	}
	fields := logrus.Fields{"user_id": s.UserID}
	for _, kind := range record.Kinds {
		k := c.syncKind(ctx, kind, s.UserID)
		report.Kinds[kind] = k
		fields[string(kind)+"_uploaded"] = k.Uploaded
		fields[string(kind)+"_failed"] = k.Failed
	}
	c.state = StateSynced

	if dropped := report.Dropped(); dropped > 0 {
		c.logger.WithFields(fields).Warnf("Synced local data with %d records dropped", dropped)
	} else {
		c.logger.WithFields(fields).Info("Synced local data with user account")
	}

	return report
}

func (c *Coordinator) syncKind(ctx context.Context, kind record.Kind, userID string) KindReport {
	if kind == record.KindVocabulary {
		return c.syncVocabulary(ctx, userID)
	}
	return c.syncTranslations(ctx, userID)
}

func (c *Coordinator) syncTranslations(ctx context.Context, userID string) KindReport {
	items := c.local.ListTranslations()
	rep := KindReport{Attempted: len(items)}
	if len(items) == 0 {
		rep.Cleared = true
		return rep
	}

	for _, t := range items {
		in := record.TranslationInputFrom(t)
		in.UserID = userID
		if _, err := c.uploader.CreateTranslation(ctx, in); err != nil {
			rep.Failed++
			c.logger.WithError(err).WithField("local_id", t.LocalID).Error("Failed to sync translation")
			continue
		}
		rep.Uploaded++
	}

	rep.Cleared = c.clear(record.KindTranslation)
	return rep
}

func (c *Coordinator) syncVocabulary(ctx context.Context, userID string) KindReport {
	items := c.local.ListVocabulary()
	rep := KindReport{Attempted: len(items)}
	if len(items) == 0 {
		rep.Cleared = true
		return rep
	}

	for _, v := range items {
		in := record.VocabularyInputFrom(v)
		in.UserID = userID
		if _, err := c.uploader.CreateVocabulary(ctx, in); err != nil {
			rep.Failed++
			c.logger.WithError(err).WithField("local_id", v.LocalID).Error("Failed to sync vocabulary note")
			continue
		}
		rep.Uploaded++
	}

	rep.Cleared = c.clear(record.KindVocabulary)
	return rep
}

func (c *Coordinator) clear(kind record.Kind) bool {
	if err := c.local.Clear(kind); err != nil {
		c.logger.WithError(err).WithField("kind", kind).Error("Failed to clear local records after sync")
		return false
	}
	return true
}
