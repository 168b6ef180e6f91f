package processor

type InboundMessage struct {
	Channel       string  `json:"channel"`
	ContextStatus string  `json:"context_status"`
	From          string  `json:"from"`
	MessageType   string  `json:"message_type"`
	MessageUUID   string  `json:"message_uuid"`
	Profile       Profile `json:"profile"`
	Text          string  `json:"text"`
	Timestamp     string  `json:"timestamp"`
	To            string  `json:"to"`
	Audio         *Audio  `json:"audio,omitempty"`
}

type Profile struct {
	Name string `json:"name"`
}

type Audio struct {
	URL string `json:"url"`
}

type ProcessedMessage struct {
	Text string
	UUID string
}

// LocalTestMessage is the body accepted by the local chat endpoint.
type LocalTestMessage struct {
	Text   string `json:"text"`
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

type LocalTestResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// ConvertToInboundMessage builds the text message the webhook would have delivered.
func (ltm LocalTestMessage) ConvertToInboundMessage() InboundMessage {
	userID := ltm.UserID
	if userID == "" {
		userID = "5563900000000"
	}
	name := ltm.Name
	if name == "" {
		name = "Test User"
	}

	return InboundMessage{
		MessageUUID:   "test-message-" + userID,
		From:          userID,
		Text:          ltm.Text,
		MessageType:   "text",
		Channel:       "whatsapp",
		ContextStatus: "none",
		To:            "marlie",
		Profile: Profile{
			Name: name,
		},
	}
}
