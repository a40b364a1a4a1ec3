package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookSender_Send(t *testing.T) {
	var receivedBody []byte
	var receivedSig string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		receivedBody = buf
		receivedSig = r.Header.Get("X-Duressd-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender(5 * time.Second)
	payload := []byte(`{"username":"demo","level":"immediate"}`)

	err := sender.Send(context.Background(), Channel{URL: server.URL, Secret: "topsecret"}, payload)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if string(receivedBody) != string(payload) {
		t.Errorf("payload mismatch: got %s", receivedBody)
	}

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(payload)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if receivedSig != want {
		t.Errorf("signature mismatch: got %s want %s", receivedSig, want)
	}
}

func TestWebhookSender_NoSecretNoSignature(t *testing.T) {
	var receivedSig string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSig = r.Header.Get("X-Duressd-Signature")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewWebhookSender(5 * time.Second)
	if err := sender.Send(context.Background(), Channel{URL: server.URL}, []byte(`{}`)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if receivedSig != "" {
		t.Errorf("expected no signature header, got %s", receivedSig)
	}
}

func TestWebhookSender_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	sender := NewWebhookSender(5 * time.Second)
	if err := sender.Send(context.Background(), Channel{URL: server.URL}, []byte(`{}`)); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
