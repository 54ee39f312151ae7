package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/forPelevin/gomoji"
)

// Sender is the message delivery capability of the gateway client.
type Sender interface {
	SendText(ctx context.Context, to, message string, options map[string]interface{}, sessionID string) (Result, error)
	SendTemplate(ctx context.Context, to, templateName string, data map[string]interface{}, sessionID string) (Result, error)
	SendMedia(ctx context.Context, to, mediaURL, mediaType, caption, sessionID string) (Result, error)
	SendLocation(ctx context.Context, to string, latitude, longitude float64, title, sessionID string) (Result, error)
	SendContact(ctx context.Context, to string, contact map[string]interface{}, sessionID string) (Result, error)
	SendButtons(ctx context.Context, to, bodyText string, buttons []map[string]interface{}, sessionID string) (Result, error)
	SendList(ctx context.Context, to, title, description, buttonText string, sections []map[string]interface{}, sessionID string) (Result, error)
	SendPoll(ctx context.Context, to, question string, options []string, multiSelect bool, sessionID string) (Result, error)
	SendProduct(ctx context.Context, to, catalogID, productID, sessionID string) (Result, error)
	SendCatalog(ctx context.Context, to, catalogID string, productItems []string, sessionID string) (Result, error)
	SendOrder(ctx context.Context, to string, orderData map[string]interface{}, sessionID string) (Result, error)
	SendSticker(ctx context.Context, to, url, sessionID string) (Result, error)
	SendReaction(ctx context.Context, to, messageID, emoji, sessionID string) (Result, error)
}

var _ Sender = (*Client)(nil)

// SendText sends a plain text message. Options may carry priority, delay and
// quoted_message_id and are merged into the payload as-is.
func (c *Client) SendText(ctx context.Context, to, message string, options map[string]interface{}, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if message == "" {
		return nil, &ValidationError{Field: "message", Reason: "message cannot be empty"}
	}

	fields := map[string]interface{}{
		"to":      c.normalize(to),
		"message": message,
	}
	for k, v := range options {
		fields[k] = v
	}
	return c.send(ctx, "SendText", "/messages/send-text", c.normalize(to), c.payload(sessionID, fields))
}

// SendTemplate sends a message rendered from a server-side template.
func (c *Client) SendTemplate(ctx context.Context, to, templateName string, data map[string]interface{}, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if templateName == "" {
		return nil, &ValidationError{Field: "templateName", Reason: "template name cannot be empty"}
	}

	return c.send(ctx, "SendTemplate", "/messages/send-template", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":           c.normalize(to),
		"templateName": templateName,
		"data":         data,
	}))
}

// SendImage sends an image by URL with an optional caption.
func (c *Client) SendImage(ctx context.Context, to, imageURL, caption, sessionID string) (Result, error) {
	return c.SendMedia(ctx, to, imageURL, "image", caption, sessionID)
}

// SendFile sends a document by URL. Caption carries the filename.
func (c *Client) SendFile(ctx context.Context, to, fileURL, filename, sessionID string) (Result, error) {
	return c.SendMedia(ctx, to, fileURL, "document", filename, sessionID)
}

// SendAudio sends an audio file by URL.
func (c *Client) SendAudio(ctx context.Context, to, audioURL, sessionID string) (Result, error) {
	return c.SendMedia(ctx, to, audioURL, "audio", "", sessionID)
}

// SendVideo sends a video by URL with an optional caption.
func (c *Client) SendVideo(ctx context.Context, to, videoURL, caption, sessionID string) (Result, error) {
	return c.SendMedia(ctx, to, videoURL, "video", caption, sessionID)
}

// SendMedia sends any media kind by URL. The remote server fetches and
// transcodes; this layer only shapes the request.
func (c *Client) SendMedia(ctx context.Context, to, mediaURL, mediaType, caption, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if mediaURL == "" {
		return nil, &ValidationError{Field: "mediaUrl", Reason: "media url cannot be empty"}
	}
	switch mediaType {
	case "image", "document", "audio", "video":
	default:
		return nil, &ValidationError{Field: "mediaType", Reason: "unsupported media type " + strconv.Quote(mediaType)}
	}

	return c.send(ctx, "SendMedia", "/messages/send-media", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":        c.normalize(to),
		"mediaUrl":  mediaURL,
		"mediaType": mediaType,
		"caption":   caption,
	}))
}

// SendLocation sends a geographic location.
func (c *Client) SendLocation(ctx context.Context, to string, latitude, longitude float64, title, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, &ValidationError{Field: "location", Reason: "latitude/longitude out of range"}
	}

	return c.send(ctx, "SendLocation", "/messages/send-location", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":        c.normalize(to),
		"latitude":  latitude,
		"longitude": longitude,
		"title":     title,
	}))
}

// SendContact sends a contact card.
func (c *Client) SendContact(ctx context.Context, to string, contact map[string]interface{}, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if len(contact) == 0 {
		return nil, &ValidationError{Field: "contact", Reason: "contact data cannot be empty"}
	}

	return c.send(ctx, "SendContact", "/messages/send-contact", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":      c.normalize(to),
		"contact": contact,
	}))
}

// SendButtons sends an interactive button message.
func (c *Client) SendButtons(ctx context.Context, to, bodyText string, buttons []map[string]interface{}, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if len(buttons) == 0 {
		return nil, &ValidationError{Field: "buttons", Reason: "at least one button is required"}
	}

	return c.send(ctx, "SendButtons", "/messages/send-buttons", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":       c.normalize(to),
		"bodyText": bodyText,
		"buttons":  buttons,
	}))
}

// SendList sends an interactive list message.
func (c *Client) SendList(ctx context.Context, to, title, description, buttonText string, sections []map[string]interface{}, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, &ValidationError{Field: "sections", Reason: "at least one section is required"}
	}

	return c.send(ctx, "SendList", "/messages/send-list", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":          c.normalize(to),
		"title":       title,
		"description": description,
		"buttonText":  buttonText,
		"sections":    sections,
	}))
}

// SendPoll sends a poll message.
func (c *Client) SendPoll(ctx context.Context, to, question string, options []string, multiSelect bool, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if question == "" {
		return nil, &ValidationError{Field: "question", Reason: "question cannot be empty"}
	}
	if len(options) < 2 {
		return nil, &ValidationError{Field: "options", Reason: "a poll needs at least two options"}
	}

	return c.send(ctx, "SendPoll", "/messages/send-poll", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":            c.normalize(to),
		"question":      question,
		"options":       options,
		"isMultiSelect": multiSelect,
	}))
}

// SendProduct sends a single catalog product.
func (c *Client) SendProduct(ctx context.Context, to, catalogID, productID, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if catalogID == "" || productID == "" {
		return nil, &ValidationError{Field: "product", Reason: "catalogId and productId are required"}
	}

	return c.send(ctx, "SendProduct", "/messages/send-product", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":        c.normalize(to),
		"catalogId": catalogID,
		"productId": productID,
	}))
}

// SendCatalog sends a product catalog, optionally narrowed to specific items.
func (c *Client) SendCatalog(ctx context.Context, to, catalogID string, productItems []string, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if catalogID == "" {
		return nil, &ValidationError{Field: "catalogId", Reason: "catalogId is required"}
	}

	return c.send(ctx, "SendCatalog", "/messages/send-catalog", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":           c.normalize(to),
		"catalogId":    catalogID,
		"productItems": productItems,
	}))
}

// SendOrder sends an order summary.
func (c *Client) SendOrder(ctx context.Context, to string, orderData map[string]interface{}, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if len(orderData) == 0 {
		return nil, &ValidationError{Field: "orderData", Reason: "order data cannot be empty"}
	}

	return c.send(ctx, "SendOrder", "/messages/send-order", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":        c.normalize(to),
		"orderData": orderData,
	}))
}

// SendSticker sends a sticker by URL.
func (c *Client) SendSticker(ctx context.Context, to, url, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if url == "" {
		return nil, &ValidationError{Field: "url", Reason: "sticker url cannot be empty"}
	}

	return c.send(ctx, "SendSticker", "/messages/send-sticker", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":  c.normalize(to),
		"url": url,
	}))
}

// SendReaction reacts to an existing message with a single emoji.
func (c *Client) SendReaction(ctx context.Context, to, messageID, emoji, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if messageID == "" {
		return nil, &ValidationError{Field: "message_id", Reason: "message id is required"}
	}
	// Empty emoji removes an existing reaction, anything else must be emoji.
	if emoji != "" && !gomoji.ContainsEmoji(emoji) {
		return nil, &ValidationError{Field: "emoji", Reason: "reaction must be an emoji"}
	}

	return c.send(ctx, "SendReaction", "/messages/send-reaction", c.normalize(to), c.payload(sessionID, map[string]interface{}{
		"to":         c.normalize(to),
		"message_id": messageID,
		"emoji":      emoji,
	}))
}

// ScheduleMessage registers a message for future delivery on the remote server.
func (c *Client) ScheduleMessage(ctx context.Context, to, message, scheduleAt string, options map[string]interface{}, sessionID string) (Result, error) {
	if err := ValidatePhone(to); err != nil {
		return nil, err
	}
	if message == "" {
		return nil, &ValidationError{Field: "message", Reason: "message is required"}
	}
	if scheduleAt == "" {
		return nil, &ValidationError{Field: "schedule_at", Reason: "schedule time is required"}
	}

	fields := map[string]interface{}{
		"to":         c.normalize(to),
		"message":    message,
		"scheduleAt": scheduleAt,
	}
	for k, v := range options {
		fields[k] = v
	}
	return c.do(ctx, "ScheduleMessage", http.MethodPost, "/schedule", c.normalize(to), c.payload(sessionID, fields))
}

// CancelScheduledMessage removes a scheduled message.
func (c *Client) CancelScheduledMessage(ctx context.Context, messageID string) (Result, error) {
	if messageID == "" {
		return nil, &ValidationError{Field: "message_id", Reason: "message id is required"}
	}
	return c.do(ctx, "CancelScheduledMessage", http.MethodDelete, "/schedule/"+messageID, "", nil)
}

// GetMessages fetches message history for a number from the remote server.
func (c *Client) GetMessages(ctx context.Context, number string, limit int, sessionID string) (Result, error) {
	if err := ValidatePhone(number); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	path := "/messages?sessionId=" + c.session(sessionID) +
		"&phone=" + c.normalize(number) +
		"&limit=" + strconv.Itoa(limit)
	return c.do(ctx, "GetMessages", http.MethodGet, path, c.normalize(number), nil)
}
