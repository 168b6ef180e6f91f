package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/NextMind-AI/marlie/booking"
	"github.com/NextMind-AI/marlie/catalog"

	"github.com/rs/zerolog/log"
)

// advance walks the booking steps until one needs input from the customer
// or the attempt finishes.
func (o *Orchestrator) advance(ctx context.Context, st *State) string {
	for i := 0; i < maxTransitions; i++ {
		var (
			reply string
			next  bool
		)

		switch st.Step {
		case StepInitial:
			st.Step = StepCollectingService
			continue
		case StepCollectingService:
			reply, next = o.collectService(ctx, st)
		case StepCollectingDate:
			reply, next = o.collectDate(st)
		case StepCollectingTime:
			reply, next = o.collectTime(st)
		case StepVerifyingAvailability:
			reply, next = o.verifyAvailability(ctx, st)
		case StepConfirming:
			reply, next = o.confirm(ctx, st)
		case StepCollectingPhone:
			return replyAskPhone
		default:
			return replyGeneric
		}

		if !next {
			return reply
		}
	}

	log.Error().
		Str("phone", st.Phone).
		Str("step", string(st.Step)).
		Msg("Booking flow did not settle")
	return replyCommitFailed
}

func (o *Orchestrator) collectService(ctx context.Context, st *State) (string, bool) {
	if sel := st.Slots.SelectedService; sel != nil && sel.DurationMinutes > 0 {
		st.Step = StepCollectingDate
		return "", true
	}

	if st.Slots.ServiceName == "" {
		if len(st.Slots.ServiceSuggestions) > 0 {
			return optionsReply(replyAskService, st.Slots.ServiceSuggestions), false
		}
		return replyAskService, false
	}

	res, err := o.deps.Resolver.Resolve(ctx, o.opts.TenantID, st.Slots.ServiceName)
	if err != nil {
		log.Error().
			Err(err).
			Str("phone", st.Phone).
			Str("service", st.Slots.ServiceName).
			Msg("Service resolution failed")
		return replyCatalogError, false
	}

	switch res.Kind {
	case catalog.Found:
		st.Slots.selectService(res.Service)
		st.Step = StepCollectingDate
		return "", true
	case catalog.Ambiguous:
		st.Slots.offerServices(res.Suggestions)
		return optionsReply(fmt.Sprintf(replyServiceOptions, st.Slots.ServiceName), res.Suggestions), false
	default:
		st.Slots.offerServices(nil)
		return fmt.Sprintf(replyServiceNotFound, st.Slots.ServiceName), false
	}
}

func (o *Orchestrator) collectDate(st *State) (string, bool) {
	if st.Slots.SelectedService == nil {
		st.Step = StepCollectingService
		return "", true
	}
	if st.Slots.Date == "" {
		return fmt.Sprintf(replyAskDate, st.Slots.SelectedService.Name), false
	}

	date, err := ParseDate(st.Slots.Date, o.now())
	if errors.Is(err, ErrPastDate) {
		st.Slots.Date = ""
		return replyPastDate, false
	}
	if err != nil {
		st.Slots.Date = ""
		return replyBadDate, false
	}

	st.Slots.Date = date
	st.Step = StepCollectingTime
	return "", true
}

func (o *Orchestrator) collectTime(st *State) (string, bool) {
	if st.Slots.Date == "" {
		st.Step = StepCollectingDate
		return "", true
	}
	if st.Slots.Time == "" {
		return replyAskTime, false
	}

	clock, err := ParseTime(st.Slots.Time)
	if err != nil {
		st.Slots.Time = ""
		return replyBadTime, false
	}
	start, err := CombineDateTime(st.Slots.Date, clock, o.opts.Location)
	if err != nil {
		st.Slots.Time = ""
		return replyBadTime, false
	}
	if !start.After(o.now()) {
		st.Slots.Time = ""
		return replyPastTime, false
	}

	st.Slots.Time = clock
	st.Step = StepVerifyingAvailability
	return "", true
}

func (o *Orchestrator) verifyAvailability(ctx context.Context, st *State) (string, bool) {
	sel := st.Slots.SelectedService
	if sel == nil {
		st.Step = StepCollectingService
		return "", true
	}

	avail := o.deps.Booker.CheckAvailability(ctx, booking.Query{
		TenantID:        o.opts.TenantID,
		Date:            st.Slots.Date,
		Time:            st.Slots.Time,
		ServiceID:       sel.ID,
		DurationMinutes: sel.DurationMinutes,
		ProfessionalID:  st.Slots.ProfessionalID,
	})
	if avail.Available {
		st.Slots.AvailabilityConfirmed = true
		st.Step = StepConfirming
		return "", true
	}

	reason := avail.Reason
	if reason == "" {
		reason = "horário ocupado"
	}
	st.Slots.Time = ""
	st.Slots.AvailabilityConfirmed = false
	st.Step = StepCollectingTime
	return fmt.Sprintf(replyUnavailable, reason), false
}

func (o *Orchestrator) confirm(ctx context.Context, st *State) (string, bool) {
	phone := customerPhone(st)
	if phone == "" {
		st.Step = StepCollectingPhone
		return replyAskPhone, false
	}

	sel := st.Slots.SelectedService
	if sel == nil {
		st.Step = StepCollectingService
		return "", true
	}

	exists, err := o.deps.Catalog.Exists(ctx, o.opts.TenantID, sel.ID)
	if err != nil || !exists {
		log.Warn().
			Err(err).
			Str("phone", st.Phone).
			Int("service_id", sel.ID).
			Msg("Selected service no longer in catalog")
		return o.regressService(ctx, st, *sel), false
	}

	start, err := CombineDateTime(st.Slots.Date, st.Slots.Time, o.opts.Location)
	if err != nil {
		st.Slots.Time = ""
		st.Step = StepCollectingTime
		return replyBadTime, false
	}

	req := booking.Request{
		TenantID:        o.opts.TenantID,
		Phone:           phone,
		CustomerID:      st.Slots.CustomerID,
		ServiceID:       sel.ID,
		ServiceName:     sel.Name,
		DurationMinutes: sel.DurationMinutes,
		Price:           sel.Price,
		Start:           start,
		ProfessionalID:  st.Slots.ProfessionalID,
	}

	if req.CustomerID == "" {
		id, err := o.deps.Booker.FindOrCreateCustomer(ctx, booking.Customer{
			Name:  customerName(st),
			Phone: phone,
			Email: st.Slots.Email,
		})
		if err != nil {
			o.deps.Booker.Fail(ctx, req, fmt.Errorf("dialog: find or create customer: %w", err))
			st.Slots.AvailabilityConfirmed = false
			st.Step = StepError
			return replyCommitFailed, false
		}
		st.Slots.CustomerID = id
		req.CustomerID = id
	}

	res := o.deps.Booker.Commit(ctx, req)
	if !res.Confirmed {
		st.Slots.AvailabilityConfirmed = false
		st.Step = StepError
		return replyCommitFailed, false
	}

	st.Slots.LastBookingID = res.BookingID
	st.Step = StepDone
	return fmt.Sprintf(replyConfirmed, sel.Name, displayDate(st.Slots.Date), st.Slots.Time, res.BookingID), false
}

// regressService sends the customer back to service selection with fresh
// options when the chosen service disappeared from the catalog.
func (o *Orchestrator) regressService(ctx context.Context, st *State, gone catalog.Service) string {
	st.Step = StepCollectingService

	query := st.Slots.ServiceName
	if query == "" {
		query = gone.Name
	}
	candidates, err := o.deps.Catalog.Suggest(ctx, o.opts.TenantID, query, 5)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Catalog suggestions failed")
	}

	var options []catalog.Service
	for _, c := range candidates {
		if c.ID != gone.ID {
			options = append(options, c)
		}
	}
	st.Slots.offerServices(options)

	header := fmt.Sprintf(replyServiceGone, gone.Name)
	if len(options) == 0 {
		st.Slots.ServiceName = ""
		return header + " " + replyAskService
	}
	return optionsReply(header+" Escolha uma das opções:", options)
}

// register runs the customer sign-up flow: name, then phone, then the
// backend lookup or creation.
func (o *Orchestrator) register(ctx context.Context, st *State) string {
	name := st.Slots.Name
	if name == "" {
		st.Step = StepRegisteringName
		return replyAskName
	}

	phone := customerPhone(st)
	if phone == "" {
		st.Step = StepRegisteringPhone
		return replyAskPhone
	}

	id, err := o.deps.Booker.FindOrCreateCustomer(ctx, booking.Customer{
		Name:  name,
		Phone: phone,
		Email: st.Slots.Email,
	})
	st.Step = StepInitial
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("Customer registration failed")
		return replyRegisterFailed
	}

	st.Slots.CustomerID = id
	return fmt.Sprintf(replyRegistered, firstName(name))
}
