// callsim drives the relay with a scripted call: call-start, a short
// user/assistant exchange, and call-end, posted to the webhook endpoint
// the way the provider would. Useful for exercising dashboards locally.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"
)

type utterance struct {
	role string
	text string
}

func main() {
	target := flag.String("target", "http://localhost:8000/vapi/webhook", "webhook endpoint")
	callID := flag.String("call-id", "sim-call-1", "call id to simulate")
	delay := flag.Duration("delay", 500*time.Millisecond, "delay between events")
	flag.Parse()

	script := []utterance{
		{"assistant", "Hello, thanks for calling. How can I help you today?"},
		{"user", "Hi, I'd like to check on my order."},
		{"assistant", "Sure, can you give me the order number?"},
		{"user", "It's four two seven one."},
		{"assistant", "Order 4271 shipped this morning."},
	}

	post(*target, map[string]any{
		"message": map[string]any{
			"type": "call-start",
			"call": map[string]any{"id": *callID},
		},
	})
	time.Sleep(*delay)

	for _, u := range script {
		post(*target, map[string]any{
			"message": map[string]any{
				"type":       "transcript",
				"role":       u.role,
				"transcript": u.text,
				"confidence": 0.95,
				"call":       map[string]any{"id": *callID},
			},
		})
		time.Sleep(*delay)
	}

	post(*target, map[string]any{
		"message": map[string]any{
			"type":        "call-end",
			"endedReason": "customer-ended-call",
			"call":        map[string]any{"id": *callID},
		},
	})

	log.Printf("Simulated call %s complete", *callID)
}

func post(target string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("failed to marshal payload: %v", err)
	}

	resp, err := http.Post(target, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("failed to post webhook: %v", err)
	}
	defer resp.Body.Close()

	log.Printf("Sent %s: status %d", payload["message"].(map[string]any)["type"], resp.StatusCode)
}
