package dialog

import "context"

// Intent is what the customer wants from the current message.
type Intent string

const (
	IntentFAQ        Intent = "faq"
	IntentHours      Intent = "hours"
	IntentCreateUser Intent = "create_user"
	IntentSchedule   Intent = "schedule"
	IntentOther      Intent = "other"
)

// Known reports whether the intent is one the orchestrator routes.
func (i Intent) Known() bool {
	switch i {
	case IntentFAQ, IntentHours, IntentCreateUser, IntentSchedule, IntentOther:
		return true
	}
	return false
}

// Extraction is the structured reading of a single customer message. Empty
// strings mean the field was not mentioned.
type Extraction struct {
	Intent           Intent `json:"intent" jsonschema:"enum=faq,enum=hours,enum=create_user,enum=schedule,enum=other" jsonschema_description:"What the customer wants: faq, hours, create_user, schedule or other"`
	Question         string `json:"question" jsonschema_description:"The customer's question when intent is faq, otherwise empty"`
	Name             string `json:"name" jsonschema_description:"Customer full name if mentioned"`
	Phone            string `json:"phone" jsonschema_description:"Customer phone number with area code if mentioned"`
	Email            string `json:"email" jsonschema_description:"Customer e-mail if mentioned"`
	ServiceName      string `json:"serviceName" jsonschema_description:"Salon service the customer wants, exactly as written"`
	Date             string `json:"date" jsonschema_description:"Requested date as YYYY-MM-DD, resolved from relative words like amanhã"`
	Time             string `json:"time" jsonschema_description:"Requested time as HH:MM in 24h format"`
	ProfessionalName string `json:"professionalName" jsonschema_description:"Preferred professional if mentioned"`
}

// HasBookingSlots reports whether the message carried any booking field.
func (e Extraction) HasBookingSlots() bool {
	return e.ServiceName != "" || e.Date != "" || e.Time != ""
}

// Extractor reads intent and slots from free text. Implementations never
// fail: on any problem they return an Extraction with IntentOther.
type Extractor interface {
	Extract(ctx context.Context, text string, history []Message) Extraction
}
