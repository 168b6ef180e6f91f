package server

// ConversationSummary represents a conversation summary for the CRM API
type ConversationSummary struct {
	UserID             string `json:"user_id"`
	ContactName        string `json:"contact_name,omitempty"`
	Step               string `json:"step"`
	Service            string `json:"service,omitempty"`
	LastMessageTime    string `json:"last_message_time"`
	LastMessagePreview string `json:"last_message_preview"`
	MessageCount       int    `json:"message_count"`
}

// ConversationListResponse is one page of conversation summaries, newest first.
type ConversationListResponse struct {
	Conversations   []ConversationSummary `json:"conversations"`
	Total           int                   `json:"total"`
	Page            int                   `json:"page"`
	TotalPages      int                   `json:"total_pages"`
	HasNextPage     bool                  `json:"has_next_page"`
	HasPreviousPage bool                  `json:"has_previous_page"`
}

// ConversationMessage represents a message in a conversation for the CRM API
type ConversationMessage struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
}

// BookingSnapshot is the booking progress shown next to the messages.
type BookingSnapshot struct {
	Service      string `json:"service,omitempty"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	Professional string `json:"professional,omitempty"`
	Awaiting     string `json:"awaiting,omitempty"`
	BookingID    string `json:"booking_id,omitempty"`
}

// ConversationResponse represents the paginated response for conversation messages
type ConversationResponse struct {
	UserID          string                `json:"user_id"`
	Step            string                `json:"step"`
	Booking         BookingSnapshot       `json:"booking"`
	Messages        []ConversationMessage `json:"messages"`
	TotalMessages   int                   `json:"total_messages"`
	Page            int                   `json:"page"`
	TotalPages      int                   `json:"total_pages"`
	HasNextPage     bool                  `json:"has_next_page"`
	HasPreviousPage bool                  `json:"has_previous_page"`
}

type CatalogRefreshResponse struct {
	TenantID string `json:"tenant_id"`
	Services int    `json:"services"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
