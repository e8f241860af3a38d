package models

// SubscriptionRequest is the upsert payload for a subscriber's daily
// notification settings.
type SubscriptionRequest struct {
	NotifyTime string `json:"notify_time" validate:"required"`
	Timezone   string `json:"timezone" validate:"required"`
	Enabled    *bool  `json:"enabled"`
	Language   string `json:"language" validate:"omitempty,oneof=en zh" default:"en"`
}

// BroadcastRequest is the operator broadcast payload.
type BroadcastRequest struct {
	Text string `json:"text" validate:"required,min=1,max=4096"`
}
