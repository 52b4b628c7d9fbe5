// Package push sends Web Push notifications to subscribed devices when
// something worth celebrating happens in the household.
package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/store"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// VAPIDKeys identify this server to push services.
type VAPIDKeys struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

type sendFunc func(message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

type Service struct {
	keys    VAPIDKeys
	subject string
	send    sendFunc
}

// NewService returns a sender signing with keys. subject is the contact
// URI push services see, usually a mailto: address.
func NewService(keys VAPIDKeys, subject string) *Service {
	if subject == "" {
		subject = "mailto:admin@kidpoints.local"
	}
	return &Service{
		keys:    keys,
		subject: subject,
		send:    webpush.SendNotification,
	}
}

// VAPIDPublicKey returns the key browsers need to subscribe.
func (s *Service) VAPIDPublicKey() string {
	return s.keys.PublicKey
}

func (s *Service) Send(sub model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := s.send(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.keys.PublicKey,
		VAPIDPrivateKey: s.keys.PrivateKey,
		Subscriber:      s.subject,
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (VAPIDKeys, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("generate ECDSA key: %w", err)
	}

	pub, err := key.PublicKey.ECDH()
	if err != nil {
		return VAPIDKeys{}, fmt.Errorf("convert public key: %w", err)
	}
	priv := make([]byte, 32)
	key.D.FillBytes(priv)

	return VAPIDKeys{
		PublicKey:  base64.RawURLEncoding.EncodeToString(pub.Bytes()),
		PrivateKey: base64.RawURLEncoding.EncodeToString(priv),
	}, nil
}

// LoadOrCreateKeys returns the key pair stored in kv, generating and saving
// one on first use. A corrupt slot is replaced, which invalidates existing
// subscriptions.
func LoadOrCreateKeys(kv store.KV) (VAPIDKeys, error) {
	var keys VAPIDKeys
	found, err := store.LoadJSON(kv, store.KeyPushVAPID, &keys)
	if err != nil && !errors.Is(err, store.ErrCorrupt) {
		return VAPIDKeys{}, fmt.Errorf("load vapid keys: %w", err)
	}
	if found && err == nil && keys.PublicKey != "" && keys.PrivateKey != "" {
		return keys, nil
	}

	keys, err = GenerateVAPIDKeys()
	if err != nil {
		return VAPIDKeys{}, err
	}
	if err := store.SaveJSON(kv, store.KeyPushVAPID, keys); err != nil {
		return VAPIDKeys{}, fmt.Errorf("save vapid keys: %w", err)
	}
	return keys, nil
}
