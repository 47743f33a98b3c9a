// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNow(t *testing.T) {
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if !fake.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", fake.Now(), start)
	}

	fake.Advance(time.Minute)
	if !fake.Now().Equal(start.Add(time.Minute)) {
		t.Errorf("Now() after Advance = %v", fake.Now())
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	ch := fake.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("After fired before Advance")
	default:
	}

	fake.Advance(30 * time.Second)
	select {
	case <-ch:
		t.Fatal("After fired before its deadline")
	default:
	}

	fake.Advance(30 * time.Second)
	select {
	case fired := <-ch:
		if !fired.Equal(time.Unix(60, 0)) {
			t.Errorf("fired at %v, want %v", fired, time.Unix(60, 0))
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
}

func TestFakeAfterImmediate(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	second := fake.After(2 * time.Second)
	first := fake.After(time.Second)

	fake.Advance(5 * time.Second)

	firstFired := <-first
	secondFired := <-second
	if !firstFired.Before(secondFired) {
		t.Errorf("waiters fired out of order: %v then %v", firstFired, secondFired)
	}
}

func TestBlockUntilWaiters(t *testing.T) {
	fake := Fake(time.Unix(0, 0))

	done := make(chan time.Time)
	go func() {
		done <- <-fake.After(time.Minute)
	}()

	fake.BlockUntilWaiters(1)
	fake.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never fired")
	}
}
