// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"testing"
)

func TestNewFromBytesZeroesSource(t *testing.T) {
	source := []byte("syt_access_token")
	buffer, err := NewFromBytes(bytes.Clone(source))
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	original := []byte("syt_access_token")
	wiped := bytes.Clone(original)
	wipedBuffer, err := NewFromBytes(wiped)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer wipedBuffer.Close()

	if !bytes.Equal(wiped, make([]byte, len(original))) {
		t.Error("source slice was not zeroed")
	}
	if wipedBuffer.String() != string(original) {
		t.Errorf("buffer content = %q, want %q", wipedBuffer.String(), original)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	buffer, err := NewFromBytes([]byte("tok"))
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	if buffer.Len() != 3 {
		t.Errorf("Len() = %d, want 3", buffer.Len())
	}
	if string(buffer.Bytes()) != "tok" {
		t.Errorf("Bytes() = %q", buffer.Bytes())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	buffer, err := NewFromBytes([]byte("tok"))
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestAccessAfterClosePanics(t *testing.T) {
	buffer, err := NewFromBytes([]byte("tok"))
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Error("Bytes() on closed buffer did not panic")
		}
	}()
	buffer.Bytes()
}

func TestEmptySourceRejected(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) succeeded, want error")
	}
}
