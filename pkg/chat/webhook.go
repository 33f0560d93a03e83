package chat

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const signatureVersion = "v0"

// VerifySignature checks the webhook signature header against an HMAC-SHA256
// of "v0:<timestamp>:<body>" and rejects deliveries whose timestamp is
// further than maxSkew from now (replay protection).
func VerifySignature(signingSecret, timestamp, signature string, body []byte, maxSkew time.Duration) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid signature timestamp: %w", err)
	}

	skew := time.Since(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return fmt.Errorf("signature timestamp outside allowed skew")
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// ParseEventPayload decodes an events webhook body.
func ParseEventPayload(body []byte) (*EventPayload, error) {
	var payload EventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	return &payload, nil
}

// ParseActionPayload decodes a decision-control click body.
func ParseActionPayload(body []byte) (*ActionPayload, error) {
	var payload ActionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action payload: %w", err)
	}
	return &payload, nil
}

// ParseSocketEnvelope decodes one socket-mode frame.
func ParseSocketEnvelope(data []byte) (*SocketEnvelope, error) {
	var env SocketEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal socket envelope: %w", err)
	}
	return &env, nil
}
