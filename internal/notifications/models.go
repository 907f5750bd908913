package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationType enumerates the auth events that produce email.
type NotificationType string

const (
	NotificationWelcome       NotificationType = "WELCOME"
	NotificationPasswordReset NotificationType = "PASSWORD_RESET"
)

// NotificationStatus tracks a notification through the pipeline.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusQueued  NotificationStatus = "QUEUED"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// AuthNotification is the message published for auth events. The reset token
// travels raw here exactly once, on its way to the user's inbox; only its
// hash lives in the database.
type AuthNotification struct {
	ID         string             `json:"id"`
	Type       NotificationType   `json:"type"`
	Recipient  string             `json:"recipient"`
	Name       string             `json:"name"`
	ResetToken string             `json:"reset_token,omitempty"`
	Status     NotificationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func NewAuthNotification(t NotificationType, recipient, name string) *AuthNotification {
	now := time.Now().UTC()
	return &AuthNotification{
		ID:        uuid.New().String(),
		Type:      t,
		Recipient: recipient,
		Name:      name,
		Status:    NotificationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (n *AuthNotification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

func FromJSON(data []byte) (*AuthNotification, error) {
	var n AuthNotification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetPartitionKey keeps all notifications for one recipient on one partition
// so they are delivered in order.
func (n *AuthNotification) GetPartitionKey() string {
	return n.Recipient
}
