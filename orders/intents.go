package orders

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SimulatedIntentClient mints provider-shaped intent ids and client secrets
// locally. It stands in for the real provider API in demos and tests; the ids
// it produces round-trip through the webhook pipeline like real ones.
type SimulatedIntentClient struct {
	mu      sync.Mutex
	intents map[string]IntentInput
}

func NewSimulatedIntentClient() *SimulatedIntentClient {
	return &SimulatedIntentClient{intents: map[string]IntentInput{}}
}

func (c *SimulatedIntentClient) CreateIntent(_ context.Context, input IntentInput) (Intent, error) {
	if c == nil {
		return Intent{}, ordersInternal("orders: intent client is nil", nil)
	}
	if input.Amount <= 0 {
		return Intent{}, ordersBadInput("orders: intent amount must be positive", map[string]any{
			"amount": input.Amount,
		})
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := Intent{
		ID:           "pi_" + token[:24],
		ClientSecret: fmt.Sprintf("pi_%s_secret_%s", token[:24], token[24:]),
	}

	c.mu.Lock()
	c.intents[intent.ID] = input
	c.mu.Unlock()
	return intent, nil
}

// Intent returns the recorded input for an issued intent id.
func (c *SimulatedIntentClient) Intent(intentID string) (IntentInput, bool) {
	if c == nil {
		return IntentInput{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	input, ok := c.intents[intentID]
	return input, ok
}

var _ IntentClient = (*SimulatedIntentClient)(nil)
