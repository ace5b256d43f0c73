package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetrier(maxRetries int) Retrier {
	return Retrier{MaxRetries: maxRetries, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestCallRetriesRetryableStatus(t *testing.T) {
	calls := 0
	out, err := Call(context.Background(), fastRetrier(2), "test", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &HTTPError{StatusCode: 503}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out != "ok" || calls != 3 {
		t.Fatalf("out=%q calls=%d", out, calls)
	}
}

func TestCallStopsOnPermanentStatus(t *testing.T) {
	calls := 0
	_, err := Call(context.Background(), fastRetrier(3), "test", func(ctx context.Context) (string, error) {
		calls++
		return "", &HTTPError{StatusCode: 401, Body: "bad key"}
	})
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != 401 {
		t.Fatalf("err=%v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestCallReturnsLastErrorWhenBudgetSpent(t *testing.T) {
	calls := 0
	_, err := Call(context.Background(), fastRetrier(1), "test", func(ctx context.Context) (string, error) {
		calls++
		return "", &HTTPError{StatusCode: 429, RetryAfter: time.Millisecond}
	})
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != 429 {
		t.Fatalf("err=%v", err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d", calls)
	}
}
