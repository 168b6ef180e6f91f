package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NextMind-AI/marlie/booking"
	"github.com/NextMind-AI/marlie/catalog"
	"github.com/NextMind-AI/marlie/metrics"

	"github.com/rs/zerolog/log"
)

// ServiceResolver maps free text to a catalog service.
type ServiceResolver interface {
	Resolve(ctx context.Context, tenantID, name string) (catalog.Result, error)
}

// ServiceCatalog is the local catalog consulted before committing.
type ServiceCatalog interface {
	Exists(ctx context.Context, tenantID string, serviceID int) (bool, error)
	Suggest(ctx context.Context, tenantID, query string, limit int) ([]catalog.Service, error)
}

// Booker is satisfied by *booking.Committer.
type Booker interface {
	CheckAvailability(ctx context.Context, q booking.Query) booking.Availability
	Commit(ctx context.Context, req booking.Request) booking.Result
	Fail(ctx context.Context, req booking.Request, cause error) booking.Result
	FindOrCreateCustomer(ctx context.Context, c booking.Customer) (string, error)
	FindProfessional(ctx context.Context, name string) (booking.Professional, bool, error)
}

// Locker serializes turns that share a key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Deps struct {
	Store     StateStore
	Extractor Extractor
	Resolver  ServiceResolver
	Catalog   ServiceCatalog
	Booker    Booker
	Locker    Locker
}

type Options struct {
	TenantID      string
	HistoryLimit  int
	ContextTurns  int
	Location      *time.Location
	BusinessHours string
	Metrics       *metrics.Metrics
	Now           func() time.Time
}

// Turn is one inbound customer message.
type Turn struct {
	Text        string
	Phone       string
	ContactName string
}

type Orchestrator struct {
	deps Deps
	opts Options
}

// maxTransitions bounds a single turn's walk through the steps.
const maxTransitions = 12

func NewOrchestrator(deps Deps, opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = 8
	}
	if opts.Location == nil {
		opts.Location = LoadLocation("America/Sao_Paulo")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{deps: deps, opts: opts}
}

func (o *Orchestrator) now() time.Time {
	return o.opts.Now().In(o.opts.Location)
}

// HandleTurn processes one customer message and returns the reply. Turns for
// the same conversation run one at a time, in arrival order of the lock.
// Only state persistence failures are returned as errors; every other
// failure becomes a reply.
func (o *Orchestrator) HandleTurn(ctx context.Context, turn Turn) (string, error) {
	started := time.Now()
	key := NormalizePhone(turn.Phone)
	text := strings.TrimSpace(turn.Text)
	if text == "" {
		return replyEmpty, nil
	}

	release, err := o.deps.Locker.Acquire(ctx, o.opts.TenantID+":"+key)
	if err != nil {
		return "", fmt.Errorf("dialog: acquire turn lock: %w", err)
	}
	defer release()

	st, err := o.deps.Store.Get(ctx, o.opts.TenantID, key)
	if err != nil {
		return "", fmt.Errorf("dialog: load state: %w", err)
	}
	if st == nil {
		st = NewState(o.opts.TenantID, key, o.now())
	}

	if turn.ContactName != "" {
		st.ContactInfo.Name = turn.ContactName
	}
	st.LastText = text
	prior := st.MessageHistory
	st.MessageHistory = AppendMessage(prior, Message{Role: RoleUser, Content: text, Timestamp: o.now()}, o.opts.HistoryLimit)

	reply := o.respond(ctx, st, text, prior)

	st.MessageHistory = AppendMessage(st.MessageHistory, Message{Role: RoleAssistant, Content: reply, Timestamp: o.now()}, o.opts.HistoryLimit)

	if err := o.persist(ctx, st, key); err != nil {
		return "", err
	}

	log.Info().
		Str("tenant_id", o.opts.TenantID).
		Str("phone", st.Phone).
		Str("step", string(st.Step)).
		Msg("Turn handled")
	o.opts.Metrics.ObserveTurn(string(st.Step), time.Since(started).Seconds())

	return reply, nil
}

func (o *Orchestrator) persist(ctx context.Context, st *State, key string) error {
	now := o.now()
	if st.Phone == key {
		if err := o.deps.Store.Patch(ctx, o.opts.TenantID, key, PatchFrom(st)); err != nil {
			return fmt.Errorf("dialog: save state: %w", err)
		}
		return nil
	}

	// The customer told us their number: the conversation moves to the real
	// key, merged with whatever is already stored there, and the placeholder
	// record starts over.
	if err := o.moveConversation(ctx, st); err != nil {
		return err
	}
	fresh := NewState(o.opts.TenantID, key, now)
	fresh.Stamp(now)
	if err := o.deps.Store.Replace(ctx, fresh); err != nil {
		return fmt.Errorf("dialog: reset state %s: %w", key, err)
	}
	return nil
}

// moveConversation stores st under its real phone. The destination is locked
// like any other turn so a WhatsApp message from that number cannot
// interleave with the merge.
func (o *Orchestrator) moveConversation(ctx context.Context, st *State) error {
	release, err := o.deps.Locker.Acquire(ctx, o.opts.TenantID+":"+st.Phone)
	if err != nil {
		return fmt.Errorf("dialog: acquire lock for %s: %w", st.Phone, err)
	}
	defer release()

	existing, err := o.deps.Store.Get(ctx, o.opts.TenantID, st.Phone)
	if err != nil {
		return fmt.Errorf("dialog: load state %s: %w", st.Phone, err)
	}
	if existing != nil {
		st.mergeHistory(existing, o.opts.HistoryLimit)
	}

	if err := o.deps.Store.Patch(ctx, o.opts.TenantID, st.Phone, PatchFrom(st)); err != nil {
		return fmt.Errorf("dialog: move state to %s: %w", st.Phone, err)
	}
	return nil
}

// respond decides the reply for the message. An awaited slot takes the raw
// text as its value and the extractor is skipped. history holds the turns
// before text.
func (o *Orchestrator) respond(ctx context.Context, st *State, text string, history []Message) string {
	if slot := st.Step.Awaiting(); slot != SlotNone {
		if reply, stop := o.fillAwaited(ctx, st, slot, text); stop {
			return reply
		}
		return o.resume(ctx, st)
	}

	ext := o.deps.Extractor.Extract(ctx, text, RecentTurns(history, o.opts.ContextTurns))
	intent := ext.Intent
	if !intent.Known() {
		intent = IntentOther
	}
	if intent == IntentOther && ext.HasBookingSlots() {
		intent = IntentSchedule
	}

	o.mergeIdentity(st, ext)

	switch intent {
	case IntentSchedule:
		o.startSchedule(ctx, st, ext)
		return o.advance(ctx, st)
	case IntentCreateUser:
		if st.Step.Terminal() {
			st.Slots.resetAttempt()
			st.Step = StepInitial
		}
		return o.register(ctx, st)
	case IntentHours:
		if o.opts.BusinessHours != "" {
			return o.opts.BusinessHours
		}
		return replyFAQ
	case IntentFAQ:
		return replyFAQ
	default:
		return replyGeneric
	}
}

// fillAwaited stores text as the awaited slot. stop is true when the text
// could not be used and reply asks again.
func (o *Orchestrator) fillAwaited(ctx context.Context, st *State, slot Slot, text string) (reply string, stop bool) {
	switch slot {
	case SlotServiceName:
		if options := st.Slots.ServiceSuggestions; len(options) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
				if n < 1 || n > len(options) {
					return replyInvalidOption + "\n" + numberedOptions(options), true
				}
				st.Slots.selectService(options[n-1])
				return "", false
			}
		}
		st.Slots.ServiceName = text
		st.Slots.SelectedService = nil
		st.Slots.ServiceSuggestions = nil

	case SlotDate:
		date, err := ParseDate(text, o.now())
		if errors.Is(err, ErrPastDate) {
			return replyPastDate, true
		}
		if err != nil {
			return replyBadDate, true
		}
		st.Slots.Date = date
		if clock, err := ParseTime(text); err == nil {
			st.Slots.Time = clock
		}

	case SlotTime:
		clock, err := ParseTime(text)
		if err != nil {
			st.Slots.Time = ""
			return replyBadTime, true
		}
		st.Slots.Time = clock
		if date, err := ParseDate(text, o.now()); err == nil {
			st.Slots.Date = date
		}

	case SlotPhone:
		digits := NormalizePhone(text)
		if !validPhone(digits) {
			return replyBadPhone, true
		}
		st.Slots.Phone = digits
		if st.Phone == UnknownPhone {
			st.Phone = digits
		}

	case SlotName:
		name := strings.TrimSpace(text)
		if len([]rune(name)) < 2 {
			return replyAskName, true
		}
		st.Slots.Name = name
	}
	return "", false
}

// resume continues whichever flow owns the current step after a slot was
// filled.
func (o *Orchestrator) resume(ctx context.Context, st *State) string {
	switch st.Step {
	case StepRegisteringName, StepRegisteringPhone:
		return o.register(ctx, st)
	case StepCollectingPhone:
		st.Step = StepConfirming
	}
	return o.advance(ctx, st)
}

// mergeIdentity keeps customer details mentioned in any message.
func (o *Orchestrator) mergeIdentity(st *State, ext Extraction) {
	if name := strings.TrimSpace(ext.Name); name != "" {
		st.Slots.Name = name
	}
	if ext.Phone != "" {
		if digits := NormalizePhone(ext.Phone); validPhone(digits) {
			st.Slots.Phone = digits
			if st.Phone == UnknownPhone {
				st.Phone = digits
			}
		}
	}
	if email := strings.TrimSpace(ext.Email); email != "" {
		st.Slots.Email = email
	}
}

// startSchedule merges extracted booking fields and rewinds to the first
// step; advance then skips every step whose slot is already filled.
func (o *Orchestrator) startSchedule(ctx context.Context, st *State, ext Extraction) {
	switch st.Step {
	case StepDone:
		st.Slots.resetAttempt()
	case StepError:
		st.Slots.resetSchedule()
	}

	if name := strings.TrimSpace(ext.ServiceName); name != "" && catalog.Fold(name) != catalog.Fold(st.Slots.ServiceName) {
		st.Slots.ServiceName = name
		st.Slots.SelectedService = nil
		st.Slots.ServiceSuggestions = nil
	}
	if ext.Date != "" {
		st.Slots.Date = ext.Date
	}
	if ext.Time != "" {
		st.Slots.Time = ext.Time
	}
	if ext.ProfessionalName != "" {
		o.resolveProfessional(ctx, st, ext.ProfessionalName)
	}

	st.Slots.AvailabilityConfirmed = false
	st.Step = StepInitial
}

func (o *Orchestrator) resolveProfessional(ctx context.Context, st *State, name string) {
	prof, ok, err := o.deps.Booker.FindProfessional(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("professional", name).Msg("Professional lookup failed")
		return
	}
	if !ok {
		log.Info().Str("professional", name).Msg("Professional not found, ignoring preference")
		return
	}
	st.Slots.ProfessionalID = prof.ID
	st.Slots.ProfessionalName = prof.Name
}

func customerPhone(st *State) string {
	if st.Slots.Phone != "" {
		return st.Slots.Phone
	}
	if st.Phone != UnknownPhone {
		return st.Phone
	}
	return ""
}

func customerName(st *State) string {
	if st.Slots.Name != "" {
		return st.Slots.Name
	}
	return st.ContactInfo.Name
}
