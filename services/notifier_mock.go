package services

import (
	"context"
	"sync"
)

// PaymentNotification is one recorded NotifyPaymentReceived call
type PaymentNotification struct {
	OrderID        string
	OrderType      string
	CustomerName   string
	Amount         int
	PaymentSlipURL string
}

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	payloads      []WebhookPayload
	notifications []PaymentNotification
	deliver       bool
	mu            sync.Mutex
}

// NewMockNotifier creates a mock notifier that reports successful delivery
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{deliver: true}
}

// SetAsMockForTesting sets this mock as the global notifier for testing
func (m *MockNotifier) SetAsMockForTesting() {
	SetNotifier(m)
}

// FailDelivery makes every following post report failure
func (m *MockNotifier) FailDelivery(fail bool) {
	m.mu.Lock()
	m.deliver = !fail
	m.mu.Unlock()
}

// Post records the payload
func (m *MockNotifier) Post(_ context.Context, payload WebhookPayload) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return m.deliver
}

// NotifyPaymentReceived records the notification
func (m *MockNotifier) NotifyPaymentReceived(_ context.Context, orderID, orderType, customerName string, amount int, paymentSlipURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, PaymentNotification{
		OrderID:        orderID,
		OrderType:      orderType,
		CustomerName:   customerName,
		Amount:         amount,
		PaymentSlipURL: paymentSlipURL,
	})
	return m.deliver
}

// Test reports the configured delivery outcome
func (m *MockNotifier) Test(_ context.Context) WebhookTestResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.deliver {
		return WebhookTestResult{Success: false, Status: 404, StatusText: "Not Found"}
	}
	return WebhookTestResult{Success: true, Status: 204, StatusText: "No Content"}
}

// PaymentNotifications returns a copy of the recorded notifications
func (m *MockNotifier) PaymentNotifications() []PaymentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PaymentNotification(nil), m.notifications...)
}
