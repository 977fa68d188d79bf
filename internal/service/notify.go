package service

import (
	"Go_Vault/config"
	"Go_Vault/internal/mq"
	"context"
	"encoding/json"
	"log"
)

// ShareNotification is the queue payload consumed by the notification worker.
type ShareNotification struct {
	PermissionID   uint64 `json:"permission_id"`
	RecipientEmail string `json:"recipient_email"`
	SharedBy       string `json:"shared_by"`
	FileName       string `json:"file_name"`
	Permission     string `json:"permission"`
	Message        string `json:"message,omitempty"`
	Reshare        bool   `json:"reshare"`
	Attempt        int    `json:"attempt"`
}

// notifyPublisher is swapped in tests.
var notifyPublisher = func(ctx context.Context, body []byte) error {
	client, err := mq.GetPublisher()
	if err != nil {
		return err
	}
	return client.PublishNotify(ctx, body)
}

// publishShareNotification enqueues an email for the recipient. Best-effort.
func publishShareNotification(ctx context.Context, n ShareNotification) {
	if !config.AppConfig.ShareNotifyEnabled {
		return
	}
	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("notify: encode share %d: %v", n.PermissionID, err)
		return
	}
	if err := notifyPublisher(context.WithoutCancel(ctx), body); err != nil {
		log.Printf("notify: publish share %d: %v", n.PermissionID, err)
	}
}
