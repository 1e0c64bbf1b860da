package dispatch

import (
	"context"
	"testing"
	"time"

	"offermarket_backend/internal/delivery"
	"offermarket_backend/platform/logger"
)

type testDispatchConfig struct {
	batchSize int
	retries   int
	delay     time.Duration
}

func (c testDispatchConfig) GetDispatchMaxBatchSize() int {
	if c.batchSize == 0 {
		return 100
	}
	return c.batchSize
}

func (c testDispatchConfig) GetDispatchMaxRetries() int {
	if c.retries == 0 {
		return 3
	}
	return c.retries
}

func (c testDispatchConfig) GetDispatchInterBatchDelay() time.Duration {
	if c.delay == 0 {
		return time.Second
	}
	return c.delay
}

// fakeProvider records batch sizes and fails according to a script: each
// entry is the error returned for that call, nil meaning success.
type fakeProvider struct {
	batchSizes []int
	script     []error
	calls      int
}

func (p *fakeProvider) SendOne(ctx context.Context, msg delivery.Message) error {
	return p.next()
}

func (p *fakeProvider) SendBatch(ctx context.Context, msgs []delivery.Message) error {
	p.batchSizes = append(p.batchSizes, len(msgs))
	return p.next()
}

func (p *fakeProvider) next() error {
	var err error
	if p.calls < len(p.script) {
		err = p.script[p.calls]
	}
	p.calls++
	return err
}

func recipients(n int) []delivery.Message {
	msgs := make([]delivery.Message, n)
	for i := range msgs {
		msgs[i] = delivery.Message{ToEmail: "partner@example.com", Subject: "s", HTML: "b"}
	}
	return msgs
}

func newTestEngine(p delivery.Provider, cfg testDispatchConfig) (*Engine, *[]time.Duration) {
	e := New(p, cfg, logger.New("development"))
	var sleeps []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return e, &sleeps
}

func TestDispatchPartitionsIntoProviderSizedBatches(t *testing.T) {
	p := &fakeProvider{}
	e, _ := newTestEngine(p, testDispatchConfig{})

	result := e.Dispatch(context.Background(), "partner_opportunity_broadcast", recipients(250))

	if len(p.batchSizes) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(p.batchSizes))
	}
	if p.batchSizes[0] != 100 || p.batchSizes[1] != 100 || p.batchSizes[2] != 50 {
		t.Fatalf("expected batch sizes [100 100 50], got %v", p.batchSizes)
	}
	if result.Notified != 250 || result.Total != 250 {
		t.Fatalf("expected 250/250 notified, got %d/%d", result.Notified, result.Total)
	}
}

func TestDispatchWaitsBetweenBatchesButNotAfterLast(t *testing.T) {
	p := &fakeProvider{}
	e, sleeps := newTestEngine(p, testDispatchConfig{})

	e.Dispatch(context.Background(), "partner_opportunity_broadcast", recipients(250))

	// Two inter-batch delays for three batches.
	if len(*sleeps) != 2 {
		t.Fatalf("expected 2 inter-batch delays, got %d (%v)", len(*sleeps), *sleeps)
	}
	for _, d := range *sleeps {
		if d != time.Second {
			t.Fatalf("expected 1s inter-batch delay, got %v", d)
		}
	}
}

func TestDispatchRetriesRateLimitedBatchWithBackoff(t *testing.T) {
	rateLimited := &delivery.Error{StatusCode: 429, Message: "too many requests", RateLimited: true}
	p := &fakeProvider{script: []error{rateLimited, rateLimited, nil}}
	e, sleeps := newTestEngine(p, testDispatchConfig{})

	result := e.Dispatch(context.Background(), "partner_opportunity_broadcast", recipients(10))

	if result.Notified != 10 {
		t.Fatalf("expected batch to succeed on third attempt, notified=%d", result.Notified)
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls)
	}
	if len(*sleeps) != 2 {
		t.Fatalf("expected 2 backoff waits, got %d", len(*sleeps))
	}
	if (*sleeps)[0] != 2*time.Second {
		t.Fatalf("expected first backoff of 2s, got %v", (*sleeps)[0])
	}
	if (*sleeps)[1] != 4*time.Second {
		t.Fatalf("expected second backoff of 4s, got %v", (*sleeps)[1])
	}
}

func TestDispatchExhaustedBatchDegradesWithoutError(t *testing.T) {
	boom := &delivery.Error{StatusCode: 500, Message: "upstream down"}
	// First batch fails all 3 attempts, second and third succeed.
	p := &fakeProvider{script: []error{boom, boom, boom, nil, nil}}
	e, _ := newTestEngine(p, testDispatchConfig{})

	result := e.Dispatch(context.Background(), "partner_opportunity_broadcast", recipients(250))

	if result.Notified != 150 {
		t.Fatalf("expected 150 notified after one exhausted batch, got %d", result.Notified)
	}
	if result.Total != 250 {
		t.Fatalf("expected total 250, got %d", result.Total)
	}
	if p.calls != 5 {
		t.Fatalf("expected 5 provider calls (3 failed + 2 ok), got %d", p.calls)
	}
}

func TestDispatchEmptyBroadcastIsNoop(t *testing.T) {
	p := &fakeProvider{}
	e, _ := newTestEngine(p, testDispatchConfig{})

	result := e.Dispatch(context.Background(), "partner_opportunity_broadcast", nil)

	if result.Notified != 0 || result.Total != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if p.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", p.calls)
	}
}

func TestSendRetriesSingleRecipient(t *testing.T) {
	boom := &delivery.Error{StatusCode: 503, Message: "unavailable"}
	p := &fakeProvider{script: []error{boom, nil}}
	e, sleeps := newTestEngine(p, testDispatchConfig{})

	err := e.Send(context.Background(), delivery.Message{ToEmail: "customer@example.com"})
	if err != nil {
		t.Fatalf("expected success on second attempt, got %v", err)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 2*time.Second {
		t.Fatalf("expected one 2s backoff, got %v", *sleeps)
	}
}

func TestSendReturnsErrorAfterExhaustion(t *testing.T) {
	boom := &delivery.Error{StatusCode: 500, Message: "upstream down"}
	p := &fakeProvider{script: []error{boom, boom, boom}}
	e, _ := newTestEngine(p, testDispatchConfig{})

	err := e.Send(context.Background(), delivery.Message{ToEmail: "customer@example.com"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if p.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls)
	}
}
