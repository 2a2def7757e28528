package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dogepandaCodes/PokinPokin/internal/domain/enums"
)

const testWebhookSecret = "whsec_test_secret"

func TestVerifyEventDecodesCompletedSession(t *testing.T) {
	payload := []byte(`{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "amount_total": 2000,
      "payment_status": "paid",
      "metadata": {"userId": "u1", "packageId": "popular", "coins": "20", "bonus": "2"}
    }
  }
}`)

	client, err := NewClient(Config{SecretKey: "sk_test_x", WebhookSecret: testWebhookSecret})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	event, err := client.VerifyEvent(payload, sign(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("verify event: %v", err)
	}

	if event.ID != "evt_1" || event.Type != enums.EventCheckoutSessionCompleted {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Session == nil {
		t.Fatalf("expected decoded session")
	}
	if event.Session.ID != "cs_test_1" || event.Session.AmountTotal != 2000 {
		t.Fatalf("unexpected session: %+v", event.Session)
	}
	if event.Session.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("unexpected payment status: %s", event.Session.PaymentStatus)
	}
	if event.Session.Metadata["userId"] != "u1" || event.Session.Metadata["bonus"] != "2" {
		t.Fatalf("unexpected metadata: %+v", event.Session.Metadata)
	}
}

func TestVerifyEventRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_2"}}}`)

	_, err := verifyEvent(payload, sign(payload, "whsec_other", time.Now()), testWebhookSecret, 0)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyEventRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_3"}}}`)
	header := sign(payload, testWebhookSecret, time.Now())

	tampered := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_4"}}}`)
	if _, err := verifyEvent(tampered, header, testWebhookSecret, 0); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyEventRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_5","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_5"}}}`)
	header := sign(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	if _, err := verifyEvent(payload, header, testWebhookSecret, 5*time.Minute); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for stale timestamp, got %v", err)
	}
}

func TestVerifyEventSeparatesDecodeFailures(t *testing.T) {
	payload := []byte(`{"id":"evt_7","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_7","object":"checkout.session","amount_total":"not-a-number"}}}`)

	_, err := verifyEvent(payload, sign(payload, testWebhookSecret, time.Now()), testWebhookSecret, 0)
	if !errors.Is(err, ErrEventDecode) {
		t.Fatalf("expected ErrEventDecode, got %v", err)
	}
	if errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("signed payload must not be reported as a signature failure")
	}
}

func TestVerifyEventSkipsSessionForOtherTypes(t *testing.T) {
	payload := []byte(`{"id":"evt_6","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`)

	event, err := verifyEvent(payload, sign(payload, testWebhookSecret, time.Now()), testWebhookSecret, 0)
	if err != nil {
		t.Fatalf("verify event: %v", err)
	}
	if event.Session != nil {
		t.Fatalf("session must be nil for non checkout events")
	}
}

func TestNewClientRequiresSecrets(t *testing.T) {
	if _, err := NewClient(Config{WebhookSecret: testWebhookSecret}); err == nil {
		t.Fatalf("expected error without secret key")
	}
	if _, err := NewClient(Config{SecretKey: "sk_test_x"}); err == nil {
		t.Fatalf("expected error without webhook secret")
	}
}

func sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
