package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Embed colors
const (
	colorBlue = 3447003
)

// bangkok is the business's local time zone for notification timestamps
var bangkok = time.FixedZone("ICT", 7*60*60)

// WebhookPayload is the chat webhook message body
type WebhookPayload struct {
	Content *string        `json:"content"`
	Embeds  []WebhookEmbed `json:"embeds,omitempty"`
}

// WebhookEmbed is one rich card in a webhook message
type WebhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []WebhookField `json:"fields"`
	Image       *WebhookImage  `json:"image,omitempty"`
}

// WebhookField is a name/value row inside an embed
type WebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// WebhookImage attaches an image to an embed
type WebhookImage struct {
	URL string `json:"url"`
}

// WebhookTestResult reports the outcome of a webhook self-test
type WebhookTestResult struct {
	Success      bool   `json:"success"`
	Status       int    `json:"status,omitempty"`
	StatusText   string `json:"status_text,omitempty"`
	ResponseText string `json:"response_text,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Notifier delivers messages to the operators' chat channel.
// Delivery failures are logged and reported as false, never returned as errors.
type Notifier interface {
	Post(ctx context.Context, payload WebhookPayload) bool
	NotifyPaymentReceived(ctx context.Context, orderID, orderType, customerName string, amount int, paymentSlipURL string) bool
	Test(ctx context.Context) WebhookTestResult
}

var notifierInstance Notifier

// InitNotifier sets the process-wide notifier
func InitNotifier(notifier Notifier) Notifier {
	notifierInstance = notifier
	return notifierInstance
}

// GetNotifier returns the initialized notifier
func GetNotifier() Notifier {
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(notifier Notifier) {
	notifierInstance = notifier
}

// DiscordNotifier posts to a Discord-compatible webhook
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewDiscordNotifier creates a webhook notifier
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Post sends the payload; true means the webhook answered 2xx
func (n *DiscordNotifier) Post(ctx context.Context, payload WebhookPayload) bool {
	status, body, err := n.send(ctx, payload)
	if err != nil {
		log.Printf("Error sending Discord notification: %v", err)
		return false
	}
	if status < 200 || status >= 300 {
		log.Printf("Discord notification failed: %d %s", status, body)
		return false
	}
	log.Println("Discord notification sent successfully")
	return true
}

// NotifyPaymentReceived announces a newly attached payment slip
func (n *DiscordNotifier) NotifyPaymentReceived(ctx context.Context, orderID, orderType, customerName string, amount int, paymentSlipURL string) bool {
	return n.Post(ctx, PaymentReceivedPayload(orderID, orderType, customerName, amount, paymentSlipURL, n.now()))
}

// Test posts a plain text message to verify the webhook configuration
func (n *DiscordNotifier) Test(ctx context.Context) WebhookTestResult {
	content := "🧪 นี่คือข้อความทดสอบจากระบบจิตอาสาออนไลน์"
	status, body, err := n.send(ctx, WebhookPayload{Content: &content})
	if err != nil {
		log.Printf("Error testing Discord webhook: %v", err)
		return WebhookTestResult{Success: false, Error: err.Error()}
	}

	result := WebhookTestResult{
		Success:    status >= 200 && status < 300,
		Status:     status,
		StatusText: http.StatusText(status),
	}
	if !result.Success {
		log.Printf("Discord webhook test failed: %d %s", status, body)
		result.ResponseText = body
	}
	return result
}

func (n *DiscordNotifier) send(ctx context.Context, payload WebhookPayload) (int, string, error) {
	if n.webhookURL == "" {
		return 0, "", fmt.Errorf("webhook URL is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to call webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(respBody), nil
}

// PaymentReceivedPayload builds the operator notification for a received payment
func PaymentReceivedPayload(orderID, orderType, customerName string, amount int, paymentSlipURL string, at time.Time) WebhookPayload {
	shortID := orderID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	embed := WebhookEmbed{
		Title:       "💰 มีการชำระเงิน!",
		Description: fmt.Sprintf("ได้รับการชำระเงินสำหรับคำสั่งซื้อ #%s", shortID),
		Color:       colorBlue,
		Fields: []WebhookField{
			{Name: "ชื่อลูกค้า", Value: customerName, Inline: true},
			{Name: "ประเภทบริการ", Value: orderType, Inline: true},
			{Name: "จำนวนเงิน", Value: fmt.Sprintf("%d บาท", amount), Inline: true},
			{Name: "เวลา", Value: at.In(bangkok).Format("2/1/2006 15:04:05"), Inline: false},
		},
	}

	// data: URIs and other schemes are rejected by the chat service
	if strings.HasPrefix(paymentSlipURL, "http://") || strings.HasPrefix(paymentSlipURL, "https://") {
		embed.Image = &WebhookImage{URL: paymentSlipURL}
	}

	return WebhookPayload{Embeds: []WebhookEmbed{embed}}
}
