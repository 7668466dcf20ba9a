// Package recorder owns the per-message pipeline: normalize, dedup,
// classify, clamp against the daily caps, persist, and emit feedback. One
// message is one atomic unit of work keyed by its reference; the whole
// sequence runs under a single mutex so at most one classifier call is in
// flight and cap checks never race across messages.
package recorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lakeshore-ultimate/tally/internal/activity"
	"github.com/lakeshore-ultimate/tally/internal/chat"
	"github.com/lakeshore-ultimate/tally/internal/classifier"
	"github.com/lakeshore-ultimate/tally/internal/metrics"
	"github.com/lakeshore-ultimate/tally/internal/normalize"
	"github.com/lakeshore-ultimate/tally/internal/policy"
)

// Ledger is the slice of the store the recorder writes through.
type Ledger interface {
	Insert(ctx context.Context, rec activity.Record) (uuid.UUID, error)
	SumPoints(ctx context.Context, t activity.Type, date, userID string) (int, error)
}

// Classifier produces candidates for one normalized message.
type Classifier interface {
	Classify(ctx context.Context, sess *classifier.Session, msg activity.Message) (*classifier.Response, error)
}

// Guard is the dedup surface: replay suppression plus the near-duplicate
// window.
type Guard interface {
	AlreadyProcessed(ctx context.Context, messageRef string) (bool, error)
	RecentDuplicate(user, text, date string, now time.Time) bool
	Remember(user, text, date string, now time.Time)
}

// Feedback attaches visual markers and replies to messages. Best-effort;
// failures never affect persisted state.
type Feedback interface {
	AddReaction(ctx context.Context, messageRef, emoji string) error
	Reply(ctx context.Context, messageRef, text string) error
}

type Config struct {
	Channel         string
	BotHandle       string
	Timezone        *time.Location
	ClassifyTimeout time.Duration
}

type Recorder struct {
	cfg      Config
	ledger   Ledger
	classify Classifier
	guard    Guard
	feedback Feedback
	logger   *slog.Logger

	// mu serializes the whole normalize→dedup→classify→record sequence.
	// The classifier session chains context between calls and the cap
	// check is a read-then-write, so neither tolerates concurrency.
	mu   sync.Mutex
	sess classifier.Session
}

func New(cfg Config, ledger Ledger, cl Classifier, guard Guard, fb Feedback, logger *slog.Logger) *Recorder {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.ClassifyTimeout <= 0 {
		cfg.ClassifyTimeout = 60 * time.Second
	}
	return &Recorder{
		cfg:      cfg,
		ledger:   ledger,
		classify: cl,
		guard:    guard,
		feedback: fb,
		logger:   logger,
	}
}

// HandleMessageEvent is the NATS handler for chat.message.created.
func (r *Recorder) HandleMessageEvent(subject string, data []byte) {
	var evt chat.MessageEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		r.logger.Error("failed to parse message event", "error", err)
		return
	}
	if err := r.Process(context.Background(), evt.Message()); err != nil {
		r.logger.Error("message processing failed", "message_ref", evt.ID, "error", err)
	}
}

// Process runs one message through the pipeline. A nil return means the
// message reached a terminal state (recorded, or deliberately skipped). A
// non-nil return means nothing was persisted and the message remains
// eligible for a later replay.
func (r *Recorder) Process(ctx context.Context, raw activity.Message) error {
	if raw.Author == r.cfg.BotHandle {
		metrics.MessageSkipped("self")
		return nil
	}
	if raw.Channel != r.cfg.Channel {
		metrics.MessageSkipped("wrong_channel")
		return nil
	}
	if strings.TrimSpace(raw.Content) == "" {
		metrics.MessageSkipped("empty")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := normalize.Message(raw, r.cfg.Timezone)

	seen, err := r.guard.AlreadyProcessed(ctx, msg.Ref)
	if err != nil {
		return err
	}
	if seen {
		metrics.MessageSkipped("replayed")
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, r.cfg.ClassifyTimeout)
	resp, err := r.classify.Classify(cctx, &r.sess, msg)
	cancel()
	if err != nil {
		// No partial writes: the message stays unseen and will be
		// picked up again on the next delivery or history replay.
		return err
	}

	markers, err := r.record(ctx, msg, resp.Activities)
	if err != nil {
		return err
	}
	metrics.MessageProcessed()

	// Markers and replies are best-effort and must not hold the lock's
	// critical path open; failures are logged and swallowed.
	go r.emitFeedback(msg.Ref, markers, resp.TextResponse)

	return nil
}

// record persists every candidate and returns the distinct activity types
// that earned a marker. Each capped candidate re-reads the prior sum, so a
// batch of same-type candidates in one message accumulates correctly. The
// near-duplicate window is consulted for every candidate but only updated
// after the whole batch: candidates from the same message must never
// suppress each other. A non-nil error means no candidate was persisted.
func (r *Recorder) record(ctx context.Context, msg activity.Message, candidates []activity.Candidate) ([]activity.Type, error) {
	var markers []activity.Type
	seenType := make(map[activity.Type]bool)
	remember := make(map[string]bool)
	persisted := 0
	var firstErr error

	for _, cand := range candidates {
		if cand.Date == "" {
			cand.Date = normalize.Date(msg)
		}
		if !cand.Type.Known() {
			r.logger.Warn("unrecognized activity type",
				"message_ref", msg.Ref,
				"activity_type", cand.Type,
			)
		}

		// The window is keyed on the poster, not the candidate's
		// beneficiary: a bonding record credits the mentioned user, but
		// it is the author repeating the message that gets suppressed.
		if cand.Type != activity.TypeNone &&
			r.guard.RecentDuplicate(msg.Author, msg.Content, cand.Date, msg.Timestamp) {
			r.logger.Info("near-duplicate collapsed",
				"message_ref", msg.Ref,
				"user", cand.UserID,
				"activity_type", cand.Type,
			)
			cand = activity.Candidate{
				Type:   activity.TypeNone,
				UserID: cand.UserID,
				Date:   cand.Date,
				Reason: "duplicate",
			}
		}

		if cand.Type == activity.TypeNone {
			r.logger.Info("no activity",
				"message_ref", msg.Ref,
				"user", cand.UserID,
				"reason", cand.Reason,
			)
			if err := r.persist(ctx, msg.Ref, cand, 0); err != nil {
				r.logger.Error("failed to persist none record", "message_ref", msg.Ref, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			persisted++
			continue
		}

		awarded, err := r.award(ctx, msg.Ref, cand)
		if err != nil {
			r.logger.Error("failed to record activity",
				"message_ref", msg.Ref,
				"user", cand.UserID,
				"activity_type", cand.Type,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		persisted++
		remember[cand.Date] = true
		metrics.RecordPersisted(cand.Type, awarded)
		r.logger.Info("activity logged",
			"message_ref", msg.Ref,
			"user", cand.UserID,
			"date", cand.Date,
			"activity_type", cand.Type,
			"points", awarded,
			"reason", cand.Reason,
		)

		if !seenType[cand.Type] {
			seenType[cand.Type] = true
			markers = append(markers, cand.Type)
		}
	}

	if persisted == 0 && firstErr != nil {
		return nil, firstErr
	}
	for date := range remember {
		r.guard.Remember(msg.Author, msg.Content, date, msg.Timestamp)
	}
	return markers, nil
}

// award clamps the candidate's base points against the daily cap and
// persists the result. A user at or over the cap still gets a zero-point
// record: the message stays marked processed and the attempt is audited.
func (r *Recorder) award(ctx context.Context, messageRef string, cand activity.Candidate) (int, error) {
	base := policy.BasePoints(cand.Type)
	limit := policy.DailyCap(cand.Type)

	awarded := base
	if limit != policy.Unlimited {
		prior, err := r.ledger.SumPoints(ctx, cand.Type, cand.Date, cand.UserID)
		if err != nil {
			return 0, err
		}
		awarded = min(base, limit-prior)
		if awarded < 0 {
			awarded = 0
		}
	}

	if err := r.persist(ctx, messageRef, cand, awarded); err != nil {
		return 0, err
	}
	return awarded, nil
}

func (r *Recorder) persist(ctx context.Context, messageRef string, cand activity.Candidate, points int) error {
	_, err := r.ledger.Insert(ctx, activity.Record{
		UserID:     cand.UserID,
		Date:       cand.Date,
		MessageRef: messageRef,
		Type:       cand.Type,
		Points:     points,
	})
	return err
}

func (r *Recorder) emitFeedback(messageRef string, markers []activity.Type, reply string) {
	if r.feedback == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, t := range markers {
		if err := r.feedback.AddReaction(ctx, messageRef, markerFor(t)); err != nil {
			r.logger.Error("failed to add reaction",
				"message_ref", messageRef,
				"activity_type", t,
				"error", err,
			)
		}
	}

	if reply != "" {
		if err := r.feedback.Reply(ctx, messageRef, reply); err != nil {
			r.logger.Error("failed to post reply", "message_ref", messageRef, "error", err)
		}
	}
}

// markerFor maps an activity type to its reaction emoji.
func markerFor(t activity.Type) string {
	switch t {
	case activity.TypeWorkout:
		return "🏋️"
	case activity.TypeThrowing:
		return "🥏"
	case activity.TypeWatching:
		return "📺"
	case activity.TypeBonding:
		return "🤝"
	}
	return "❓"
}
