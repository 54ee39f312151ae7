package types

// AuthRequest exchanges an API key for a JWT token pair.
type AuthRequest struct {
	APIKey string `json:"api_key"`
}

// RefreshRequest exchanges a refresh token for a fresh token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SendTextRequest carries a plain text message.
type SendTextRequest struct {
	To        string                 `json:"to"`
	Message   string                 `json:"message"`
	Options   map[string]interface{} `json:"options,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

// SendTemplateRequest renders a server-side template.
type SendTemplateRequest struct {
	To        string                 `json:"to"`
	Template  string                 `json:"template"`
	Data      map[string]interface{} `json:"data,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

// SendMediaRequest carries any media message referenced by URL.
type SendMediaRequest struct {
	To        string `json:"to"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Filename  string `json:"filename,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// SendLocationRequest carries a geographic location.
type SendLocationRequest struct {
	To        string  `json:"to"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Title     string  `json:"title,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
}

// SendContactRequest carries a contact card.
type SendContactRequest struct {
	To        string                 `json:"to"`
	Contact   map[string]interface{} `json:"contact"`
	SessionID string                 `json:"session_id,omitempty"`
}

// SendButtonsRequest carries an interactive button message.
type SendButtonsRequest struct {
	To        string                   `json:"to"`
	Body      string                   `json:"body"`
	Buttons   []map[string]interface{} `json:"buttons"`
	SessionID string                   `json:"session_id,omitempty"`
}

// SendListRequest carries an interactive list message.
type SendListRequest struct {
	To          string                   `json:"to"`
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	ButtonText  string                   `json:"button_text"`
	Sections    []map[string]interface{} `json:"sections"`
	SessionID   string                   `json:"session_id,omitempty"`
}

// SendPollRequest carries a poll.
type SendPollRequest struct {
	To          string   `json:"to"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	MultiSelect bool     `json:"multi_select,omitempty"`
	SessionID   string   `json:"session_id,omitempty"`
}

// SendProductRequest carries a single catalog product.
type SendProductRequest struct {
	To        string `json:"to"`
	CatalogID string `json:"catalog_id"`
	ProductID string `json:"product_id"`
	SessionID string `json:"session_id,omitempty"`
}

// SendCatalogRequest carries a product catalog.
type SendCatalogRequest struct {
	To        string   `json:"to"`
	CatalogID string   `json:"catalog_id"`
	Products  []string `json:"products,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
}

// SendOrderRequest carries an order summary.
type SendOrderRequest struct {
	To        string                 `json:"to"`
	Order     map[string]interface{} `json:"order"`
	SessionID string                 `json:"session_id,omitempty"`
}

// SendReactionRequest reacts to a message. An empty emoji removes the
// reaction.
type SendReactionRequest struct {
	To        string `json:"to"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	SessionID string `json:"session_id,omitempty"`
}

// ScheduleMessageRequest schedules a message for later delivery.
type ScheduleMessageRequest struct {
	To         string                 `json:"to"`
	Message    string                 `json:"message"`
	ScheduleAt string                 `json:"schedule_at"`
	Options    map[string]interface{} `json:"options,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
}

// CreateSessionRequest names a new session.
type CreateSessionRequest struct {
	SessionID string `json:"session_id"`
}

// BeginTransactionRequest opens a transaction, optionally with a caller
// provided id and options.
type BeginTransactionRequest struct {
	TransactionID string                 `json:"transaction_id,omitempty"`
	Options       map[string]interface{} `json:"options,omitempty"`
}

// CreateSubscriptionRequest registers a consumer endpoint for forwarded
// webhook events.
type CreateSubscriptionRequest struct {
	URL    string   `json:"url"`
	Secret string   `json:"secret,omitempty"`
	Events []string `json:"events,omitempty"`
}
