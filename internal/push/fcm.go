package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMSender delivers notifications through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender initializes the Firebase app from the given service-account
// credentials file and returns a Sender backed by its messaging client.
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return &FCMSender{client: client}, nil
}

// Send delivers one message to one token and classifies the outcome.
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: title,
				Body:  body,
			},
		},
	}

	if _, err := s.client.Send(ctx, msg); err != nil {
		return classifyFCMError(err)
	}
	return nil
}

// classifyFCMError folds the provider's error surface into the bridge
// taxonomy. Only errors the provider marks as permanently-dead recipients
// become ErrInvalidToken; everything else, including context timeouts, is
// transient.
func classifyFCMError(err error) error {
	switch {
	case messaging.IsUnregistered(err):
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case messaging.IsSenderIDMismatch(err):
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
}
