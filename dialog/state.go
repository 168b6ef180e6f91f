// Package dialog implements the booking conversation: the per-customer
// state document, its capped message history, and the slot-filling
// orchestrator that drives a customer from "quero agendar" to a confirmed
// appointment.
package dialog

import (
	"context"
	"time"

	"github.com/NextMind-AI/marlie/catalog"
)

// StateVersion is bumped whenever the persisted layout changes.
const StateVersion = 1

// UnknownPhone keys conversations whose sender could not be identified.
const UnknownPhone = "unknown"

// Step is the single source of truth for where a conversation is.
type Step string

const (
	StepInitial               Step = "initial"
	StepCollectingService     Step = "collecting_service"
	StepCollectingDate        Step = "collecting_date"
	StepCollectingTime        Step = "collecting_time"
	StepVerifyingAvailability Step = "verifying_availability"
	StepConfirming            Step = "confirming"
	StepDone                  Step = "done"
	StepError                 Step = "error"
	StepCollectingPhone       Step = "collecting_phone"
	StepRegisteringName       Step = "registering_name"
	StepRegisteringPhone      Step = "registering_phone"
)

// Slot names the piece of information a step is waiting for.
type Slot string

const (
	SlotNone        Slot = ""
	SlotServiceName Slot = "serviceName"
	SlotDate        Slot = "date"
	SlotTime        Slot = "time"
	SlotPhone       Slot = "phone"
	SlotName        Slot = "name"
)

// Awaiting derives the awaited slot from the step.
func (s Step) Awaiting() Slot {
	switch s {
	case StepCollectingService:
		return SlotServiceName
	case StepCollectingDate:
		return SlotDate
	case StepCollectingTime:
		return SlotTime
	case StepCollectingPhone, StepRegisteringPhone:
		return SlotPhone
	case StepRegisteringName:
		return SlotName
	default:
		return SlotNone
	}
}

// Terminal reports whether the booking attempt has finished.
func (s Step) Terminal() bool {
	return s == StepDone || s == StepError
}

// Slots are the booking fields filled across turns.
type Slots struct {
	ServiceName           string            `json:"nomeServico,omitempty"`
	Date                  string            `json:"data,omitempty"`
	Time                  string            `json:"hora,omitempty"`
	Name                  string            `json:"nome,omitempty"`
	Phone                 string            `json:"telefone,omitempty"`
	Email                 string            `json:"email,omitempty"`
	ServiceSuggestions    []catalog.Service `json:"serviceSuggestions,omitempty"`
	SelectedService       *catalog.Service  `json:"servicoSelecionado,omitempty"`
	AvailabilityConfirmed bool              `json:"disponibilidadeConfirmada"`
	LastBookingID         string            `json:"lastAgendamentoId,omitempty"`
	CustomerID            string            `json:"clienteId,omitempty"`
	ProfessionalName      string            `json:"profissional,omitempty"`
	ProfessionalID        int               `json:"profissionalId,omitempty"`

	// Awaiting mirrors Step.Awaiting for readers of the stored document. It is
	// written on save and never read back.
	Awaiting Slot `json:"awaiting,omitempty"`
}

// selectService stores the chosen service and drops any pending options.
func (s *Slots) selectService(svc catalog.Service) {
	selected := svc
	s.SelectedService = &selected
	s.ServiceSuggestions = nil
	s.ServiceName = svc.Name
	s.AvailabilityConfirmed = false
}

// offerServices stores options for the customer and drops any selection.
func (s *Slots) offerServices(options []catalog.Service) {
	s.ServiceSuggestions = options
	s.SelectedService = nil
	s.AvailabilityConfirmed = false
}

// resetAttempt clears what belongs to a single booking attempt. Customer
// identity survives so a returning customer is not asked again.
func (s *Slots) resetAttempt() {
	s.ServiceName = ""
	s.Date = ""
	s.Time = ""
	s.ServiceSuggestions = nil
	s.SelectedService = nil
	s.AvailabilityConfirmed = false
	s.ProfessionalName = ""
	s.ProfessionalID = 0
}

// resetSchedule clears the date and time of a failed attempt. The service
// the customer already chose is kept for the retry.
func (s *Slots) resetSchedule() {
	s.Date = ""
	s.Time = ""
	s.AvailabilityConfirmed = false
}

// mergeHistory keeps what an earlier conversation under the same phone
// already knew: its history comes first and its booking and customer ids
// fill the gaps.
func (s *State) mergeHistory(earlier *State, limit int) {
	history := earlier.MessageHistory
	for _, msg := range s.MessageHistory {
		history = AppendMessage(history, msg, limit)
	}
	s.MessageHistory = history

	if s.Slots.LastBookingID == "" {
		s.Slots.LastBookingID = earlier.Slots.LastBookingID
	}
	if s.Slots.CustomerID == "" {
		s.Slots.CustomerID = earlier.Slots.CustomerID
	}
	if s.Slots.Name == "" {
		s.Slots.Name = earlier.Slots.Name
	}
	if s.Slots.Email == "" {
		s.Slots.Email = earlier.Slots.Email
	}
	if s.ContactInfo.Name == "" {
		s.ContactInfo = earlier.ContactInfo
	}
}

type ContactInfo struct {
	Name string `json:"name,omitempty"`
}

// State is the persisted conversation, one per (tenant, phone).
type State struct {
	Version        int         `json:"version"`
	TenantID       string      `json:"tenantId"`
	Phone          string      `json:"phone"`
	Step           Step        `json:"etapaAtual"`
	Slots          Slots       `json:"slots"`
	MessageHistory []Message   `json:"messageHistory"`
	ContactInfo    ContactInfo `json:"contactInfo"`
	LastText       string      `json:"lastText,omitempty"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func NewState(tenantID, phone string, now time.Time) *State {
	return &State{
		Version:   StateVersion,
		TenantID:  tenantID,
		Phone:     phone,
		Step:      StepInitial,
		UpdatedAt: now,
	}
}

// Stamp prepares the state for storage.
func (s *State) Stamp(now time.Time) {
	s.Version = StateVersion
	s.UpdatedAt = now
	s.Slots.Awaiting = s.Step.Awaiting()
}

// StatePatch carries the fields to merge into a stored state. Nil fields are
// left untouched.
type StatePatch struct {
	Step           *Step
	Slots          *Slots
	MessageHistory []Message
	ContactInfo    *ContactInfo
	LastText       *string
}

// PatchFrom builds a patch that carries every mutable field of st.
func PatchFrom(st *State) StatePatch {
	step := st.Step
	slots := st.Slots
	contact := st.ContactInfo
	lastText := st.LastText
	return StatePatch{
		Step:           &step,
		Slots:          &slots,
		MessageHistory: st.MessageHistory,
		ContactInfo:    &contact,
		LastText:       &lastText,
	}
}

// Apply merges the patch into st.
func (p StatePatch) Apply(st *State, now time.Time) {
	if p.Step != nil {
		st.Step = *p.Step
	}
	if p.Slots != nil {
		st.Slots = *p.Slots
	}
	if p.MessageHistory != nil {
		st.MessageHistory = p.MessageHistory
	}
	if p.ContactInfo != nil {
		st.ContactInfo = *p.ContactInfo
	}
	if p.LastText != nil {
		st.LastText = *p.LastText
	}
	st.Stamp(now)
}

// StateStore persists conversation states. Get returns nil, nil when the
// conversation does not exist yet; Patch upserts.
type StateStore interface {
	Get(ctx context.Context, tenantID, phone string) (*State, error)
	Patch(ctx context.Context, tenantID, phone string, patch StatePatch) error
	Replace(ctx context.Context, st *State) error
}
