// README: Conversation engine, the single state machine behind SMS, WhatsApp and voice.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ridesafe/internal/ai"
	"ridesafe/internal/modules/address"
	"ridesafe/internal/modules/profile"
	"ridesafe/internal/modules/ride"
	"ridesafe/internal/types"
)

var ErrInvalidEvent = errors.New("invalid inbound event")

// maxCommitAttempts bounds how often one inbound event is re-decided after
// losing a version race.
const maxCommitAttempts = 3

type AddressResolver interface {
	Resolve(ctx context.Context, partial, refZip string) (string, error)
}

type TravelEstimator interface {
	Estimate(ctx context.Context, origin, destination string) (string, error)
}

// Notifier delivers an out-of-band SMS. It must not block on delivery.
type Notifier interface {
	Dispatch(ctx context.Context, phone types.Phone, body string)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type Options struct {
	// MaxRetries resets the conversation after this many consecutive invalid
	// inputs in one state. Zero keeps re-prompting forever.
	MaxRetries int
	// Extractor, when set, recovers pickup and destination from booking
	// messages that do not follow the address formats.
	Extractor ai.TripExtractor
	Clock     Clock
	Logger    *slog.Logger
}

type Engine struct {
	store      Store
	locker     Locker
	resolver   AddressResolver
	travel     TravelEstimator
	notifier   Notifier
	extractor  ai.TripExtractor
	clock      Clock
	maxRetries int
	logger     *slog.Logger
}

func NewEngine(store Store, locker Locker, resolver AddressResolver, travel TravelEstimator, notifier Notifier, opts Options) *Engine {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:      store,
		locker:     locker,
		resolver:   resolver,
		travel:     travel,
		notifier:   notifier,
		extractor:  opts.Extractor,
		clock:      opts.Clock,
		maxRetries: opts.MaxRetries,
		logger:     opts.Logger,
	}
}

// Handle runs one conversational step for the sender of ev and returns the
// reply to render. Recoverable problems (bad input, unresolvable addresses,
// oracle failures) are replies, not errors; an error means nothing was applied.
func (e *Engine) Handle(ctx context.Context, ev Event) (Reply, error) {
	ev = ev.normalized()
	if !ev.Phone.Valid() || !ev.Channel.Valid() {
		return Reply{}, fmt.Errorf("%w: phone %q channel %q", ErrInvalidEvent, ev.Phone, ev.Channel)
	}

	for attempt := 1; ; attempt++ {
		out, err := e.step(ctx, ev)
		if errors.Is(err, ErrConflict) && attempt < maxCommitAttempts {
			e.logger.Warn("conversation conflict, retrying", "phone", ev.Phone, "attempt", attempt)
			continue
		}
		if err != nil {
			return Reply{}, err
		}
		if e.notifier != nil {
			for _, body := range out.notices {
				e.notifier.Dispatch(ctx, ev.Phone, body)
			}
		}
		return out.reply, nil
	}
}

type outcome struct {
	reply    Reply
	mutation *Mutation
	notices  []string
}

func (e *Engine) step(ctx context.Context, ev Event) (outcome, error) {
	unlock, err := e.locker.Lock(ctx, ev.Phone.String())
	if err != nil {
		return outcome{}, fmt.Errorf("lock %s: %w", ev.Phone, err)
	}
	defer unlock()

	snap, err := e.store.Load(ctx, ev.Phone)
	if err != nil {
		return outcome{}, fmt.Errorf("load conversation: %w", err)
	}

	t := e.newTurn(ev, snap)
	out, err := t.decide(ctx)
	if err != nil {
		return outcome{}, err
	}
	if out.mutation == nil {
		return out, nil
	}

	to := StateNone
	if out.mutation.Put != nil {
		to = out.mutation.Put.State
	}
	if !CanTransition(t.from, to) {
		return outcome{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.from, to)
	}
	if err := e.store.Commit(ctx, *out.mutation); err != nil {
		return outcome{}, fmt.Errorf("commit conversation: %w", err)
	}
	e.logger.Info("conversation step", "phone", ev.Phone, "channel", ev.Channel, "from", t.from, "to", to)
	return out, nil
}

// turn is the decision context for one step.
type turn struct {
	e       *Engine
	ev      Event
	script  Script
	profile *profile.Profile
	// conv is nil when nothing usable is stored; version is still the stored
	// row's version so the write is checked against it.
	conv    *Conversation
	version int
	from    State
	now     time.Time
}

func (e *Engine) newTurn(ev Event, snap Snapshot) *turn {
	t := &turn{
		e:       e,
		ev:      ev,
		script:  ScriptFor(ev.Channel),
		profile: snap.Profile,
		conv:    snap.Conversation,
		version: snap.Version(),
		from:    StateNone,
		now:     e.clock.Now(),
	}
	if c := t.conv; c != nil {
		switch {
		case !c.State.Valid():
			e.logger.Warn("discarding conversation in unknown state", "phone", ev.Phone, "state", c.State)
			t.conv = nil
		case t.profile != nil && c.State.Registration(), t.profile == nil && !c.State.Registration():
			t.conv = nil
		default:
			t.from = c.State
		}
	}
	return t
}

func (t *turn) decide(ctx context.Context) (outcome, error) {
	if t.ev.voice() && t.ev.empty() && t.conv != nil {
		if r, ok := t.repeatPrompt(); ok {
			return outcome{reply: r}, nil
		}
	}
	if t.profile == nil {
		return t.register()
	}
	if t.conv != nil && t.conv.SuggestedZip != "" && t.ev.requestsSuggestedZip() {
		return t.applySuggestedZip(), nil
	}
	if t.ev.requestsZipChange() {
		return outcome{reply: t.script.AskNewZip(), mutation: t.put(t.fresh(StateUpdatingZip))}, nil
	}

	switch t.from {
	case StateNone, StateAwaitingRideBooking:
		if t.ev.voice() {
			return t.menu(), nil
		}
		return t.book(ctx)
	case StateMenuChoice:
		if !t.ev.voice() {
			return t.book(ctx)
		}
		return t.menuChoice(), nil
	case StateAwaitingPickup:
		if !t.ev.voice() {
			return t.book(ctx)
		}
		return t.collectPickup(ctx), nil
	case StateAwaitingDestination:
		if !t.ev.voice() {
			return t.book(ctx)
		}
		return t.collectDestination(ctx), nil
	case StateAwaitingConfirmation:
		return t.confirm(), nil
	case StateAwaitingNewPickup:
		return t.replaceLeg(ctx, LegPickup), nil
	case StateAwaitingNewDest:
		return t.replaceLeg(ctx, LegDestination), nil
	case StateUpdatingZip:
		return t.updateZip(), nil
	case StateAwaitingProfileName, StateAwaitingGender, StateAwaitingZip:
		return outcome{}, fmt.Errorf("%w: %s with an existing profile", ErrInvalidTransition, t.from)
	default:
		return outcome{}, fmt.Errorf("%w: %q", ErrUnknownState, t.from)
	}
}

// repeatPrompt re-asks the current question; used when a call resumes
// without input.
func (t *turn) repeatPrompt() (Reply, bool) {
	switch t.from {
	case StateAwaitingProfileName:
		return t.script.Welcome(), true
	case StateAwaitingGender:
		return t.script.AskGender(), true
	case StateAwaitingZip:
		return t.script.AskZip(), true
	case StateMenuChoice:
		return t.script.Menu(), true
	case StateAwaitingPickup:
		return t.script.AskPickup(), true
	case StateAwaitingDestination:
		return t.script.AskDestination(), true
	case StateAwaitingConfirmation:
		return t.script.Confirm(t.conv.Pickup, t.conv.Destination, t.conv.TravelTime), true
	case StateAwaitingNewPickup:
		return t.script.AskNewAddress(LegPickup), true
	case StateAwaitingNewDest:
		return t.script.AskNewAddress(LegDestination), true
	case StateUpdatingZip:
		return t.script.AskNewZip(), true
	default:
		return Reply{}, false
	}
}

func (t *turn) register() (outcome, error) {
	in := t.ev.choice()
	switch t.from {
	case StateNone:
		return outcome{reply: t.script.Welcome(), mutation: t.put(t.fresh(StateAwaitingProfileName))}, nil

	case StateAwaitingProfileName:
		if !profile.ValidToken(in) {
			return t.invalid(t.script.InvalidToken()), nil
		}
		c := t.fresh(StateAwaitingGender)
		c.Token = in
		return outcome{reply: t.script.AskGender(), mutation: t.put(c)}, nil

	case StateAwaitingGender:
		g, ok := profile.ParseGender(in)
		if !ok {
			return t.invalid(t.script.InvalidGender()), nil
		}
		c := t.fresh(StateAwaitingZip)
		c.Token = t.conv.Token
		c.Gender = g
		return outcome{reply: t.script.AskZip(), mutation: t.put(c)}, nil

	case StateAwaitingZip:
		if !profile.ValidZip(in) {
			return t.invalid(t.script.InvalidZip()), nil
		}
		p := profile.Profile{
			Phone:     t.ev.Phone,
			Token:     t.conv.Token,
			Gender:    t.conv.Gender,
			Zip:       in,
			CreatedAt: t.now,
		}
		m := t.put(t.fresh(t.bookingEntry()))
		m.SaveProfile = &p
		out := outcome{reply: t.script.ProfileCreated(p), mutation: m}
		if t.ev.voice() {
			out.notices = []string{profileCreatedNotice(p)}
		}
		return out, nil

	default:
		return outcome{}, fmt.Errorf("%w: %s without a profile", ErrInvalidTransition, t.from)
	}
}

// bookingEntry is where a channel starts collecting a trip.
func (t *turn) bookingEntry() State {
	if t.ev.voice() {
		return StateAwaitingPickup
	}
	return StateAwaitingRideBooking
}

func (t *turn) applySuggestedZip() outcome {
	zip := t.conv.SuggestedZip
	m := t.del()
	m.UpdateZip = zip
	return outcome{reply: t.script.SuggestedZipApplied(zip), mutation: m}
}

func (t *turn) menu() outcome {
	return outcome{reply: t.script.Menu(), mutation: t.put(t.fresh(StateMenuChoice))}
}

func (t *turn) menuChoice() outcome {
	switch t.ev.choice() {
	case "1":
		return outcome{reply: t.script.AskPickup(), mutation: t.put(t.fresh(StateAwaitingPickup))}
	case "2":
		return outcome{reply: t.script.AskNewZip(), mutation: t.put(t.fresh(StateUpdatingZip))}
	default:
		return t.invalid(t.script.InvalidMenu())
	}
}

func (t *turn) book(ctx context.Context) (outcome, error) {
	addrs := address.ParseAddresses(t.ev.Text)
	if len(addrs) != 2 {
		addrs = t.extract(ctx)
	}
	if len(addrs) != 2 {
		return outcome{reply: t.script.BookingFormat()}, nil
	}

	pickup, err := t.resolve(ctx, addrs[0])
	if err != nil {
		return t.addressFailure(LegPickup, err), nil
	}
	destination, err := t.resolve(ctx, addrs[1])
	if err != nil {
		return t.addressFailure(LegDestination, err), nil
	}
	return t.summarize(ctx, pickup, destination), nil
}

func (t *turn) extract(ctx context.Context) []string {
	if t.e.extractor == nil || t.ev.Text == "" {
		return nil
	}
	res, err := t.e.extractor.ExtractTrip(ctx, t.ev.Text)
	if err != nil {
		t.e.logger.Warn("trip extraction failed", "phone", t.ev.Phone, "error", err)
		return nil
	}
	if !res.Complete() {
		return nil
	}
	return []string{res.Pickup, res.Destination}
}

func (t *turn) collectPickup(ctx context.Context) outcome {
	speech := t.ev.utterance()
	if speech == "" {
		return outcome{reply: t.script.AskPickup()}
	}
	pickup, err := t.resolve(ctx, speech)
	if err != nil {
		return t.addressFailure(LegPickup, err)
	}
	c := t.fresh(StateAwaitingDestination)
	c.Pickup = pickup
	return outcome{reply: t.script.PickupReceived(), mutation: t.put(c)}
}

func (t *turn) collectDestination(ctx context.Context) outcome {
	speech := t.ev.utterance()
	if speech == "" {
		return outcome{reply: t.script.AskDestination()}
	}
	destination, err := t.resolve(ctx, speech)
	if err != nil {
		return t.addressFailure(LegDestination, err)
	}
	return t.summarize(ctx, t.conv.Pickup, destination)
}

func (t *turn) confirm() outcome {
	switch t.ev.choice() {
	case "1":
		r := ride.Ride{
			Phone:       t.ev.Phone,
			Pickup:      t.conv.Pickup,
			Destination: t.conv.Destination,
			TravelTime:  t.conv.TravelTime,
			CreatedAt:   t.now,
		}
		m := t.del()
		m.AppendRide = &r
		return outcome{reply: t.script.RideConfirmed(r), mutation: m, notices: []string{rideConfirmedNotice(r)}}
	case "2", "3":
		state, leg := StateAwaitingNewPickup, LegPickup
		if t.ev.choice() == "3" {
			state, leg = StateAwaitingNewDest, LegDestination
		}
		c := t.fresh(state)
		c.Pickup = t.conv.Pickup
		c.Destination = t.conv.Destination
		c.TravelTime = t.conv.TravelTime
		return outcome{reply: t.script.AskNewAddress(leg), mutation: t.put(c)}
	default:
		return t.invalid(t.script.InvalidConfirmation())
	}
}

func (t *turn) replaceLeg(ctx context.Context, leg Leg) outcome {
	in := t.ev.utterance()
	if in == "" {
		return outcome{reply: t.script.AskNewAddress(leg)}
	}
	resolved, err := t.resolve(ctx, in)
	if err != nil {
		return t.addressFailure(leg, err)
	}
	pickup, destination := t.conv.Pickup, t.conv.Destination
	if leg == LegPickup {
		pickup = resolved
	} else {
		destination = resolved
	}
	return t.summarize(ctx, pickup, destination)
}

func (t *turn) updateZip() outcome {
	zip := t.ev.choice()
	if !profile.ValidZip(zip) {
		return t.invalid(t.script.InvalidZip())
	}
	p := *t.profile
	p.Zip = zip
	m := t.put(t.fresh(t.bookingEntry()))
	m.UpdateZip = zip
	return outcome{reply: t.script.ZipUpdated(p), mutation: m, notices: []string{zipUpdatedNotice(p)}}
}

// summarize computes travel time and moves to confirmation.
func (t *turn) summarize(ctx context.Context, pickup, destination string) outcome {
	travelTime, err := t.e.travel.Estimate(ctx, pickup, destination)
	if err != nil {
		t.e.logger.Warn("travel time failed", "phone", t.ev.Phone, "error", err)
		return outcome{reply: t.script.TravelTimeError()}
	}
	c := t.fresh(StateAwaitingConfirmation)
	c.Pickup = pickup
	c.Destination = destination
	c.TravelTime = travelTime
	return outcome{reply: t.script.Confirm(pickup, destination, travelTime), mutation: t.put(c)}
}

func (t *turn) resolve(ctx context.Context, partial string) (string, error) {
	return t.e.resolver.Resolve(ctx, partial, t.profile.Zip)
}

// addressFailure reports a resolution problem and leaves the state as it is.
// A too-far match with a usable zip suggestion is remembered so a later
// "UPDATE ZIP" can apply it.
func (t *turn) addressFailure(leg Leg, err error) outcome {
	out := outcome{reply: t.script.AddressError(leg, describeAddressError(err))}

	var tooFar *address.TooFarError
	var oracle *address.OracleError
	switch {
	case errors.As(err, &tooFar):
		if !profile.ValidZip(tooFar.SuggestedZip) {
			break
		}
		var c Conversation
		if t.conv != nil {
			c = *t.conv
		} else {
			c = t.fresh(StateAwaitingRideBooking)
		}
		c.SuggestedZip = tooFar.SuggestedZip
		out.mutation = t.put(c)
	case errors.As(err, &oracle):
		t.e.logger.Warn("geocoding failed", "phone", t.ev.Phone, "leg", leg, "error", err)
	}
	return out
}

// invalid re-prompts after bad input, enforcing the retry ceiling when one is set.
func (t *turn) invalid(r Reply) outcome {
	if t.e.maxRetries <= 0 || t.conv == nil {
		return outcome{reply: r}
	}
	if t.conv.Retries+1 >= t.e.maxRetries {
		t.e.logger.Info("retry limit reached, resetting conversation", "phone", t.ev.Phone, "state", t.from)
		return outcome{reply: t.script.RetriesExhausted(), mutation: t.del()}
	}
	c := *t.conv
	c.Retries++
	return outcome{reply: r, mutation: t.put(c)}
}

func (t *turn) fresh(state State) Conversation {
	return Conversation{Phone: t.ev.Phone, State: state}
}

func (t *turn) put(c Conversation) *Mutation {
	c.Phone = t.ev.Phone
	c.Channel = t.ev.Channel
	c.UpdatedAt = t.now
	return &Mutation{Phone: t.ev.Phone, ExpectedVersion: t.version, Put: &c}
}

func (t *turn) del() *Mutation {
	return &Mutation{Phone: t.ev.Phone, ExpectedVersion: t.version, Delete: true}
}
