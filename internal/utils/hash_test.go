// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

func TestInitHasherPoolAndHash(t *testing.T) {
	key := "secret-key"
	InitHasherPool(key)

	data := []byte("test-data")

	sum1 := Hash(data)
	sum2 := Hash(data)

	if len(sum1) == 0 {
		t.Fatal("hash result is empty")
	}

	if !bytes.Equal(sum1, sum2) {
		t.Fatal("hash must be deterministic for the same input")
	}

	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	expected := h.Sum(nil)

	if !bytes.Equal(sum1, expected) {
		t.Fatalf("unexpected hash value\nwant: %x\ngot:  %x", expected, sum1)
	}
}

const testHashKey = "test-secret-key"

func testChanges() []models.ChangeEntry {
	return []models.ChangeEntry{
		{
			ChangeKey:       "0f3c",
			Table:           "tasks",
			Operation:       models.OperationUpdate,
			PrimaryKey:      models.Row{"id": int64(7)},
			Row:             models.Row{"id": int64(7), "title": "write <docs>", "meta": json.RawMessage(`{"a":1}`)},
			BaseSyncVersion: 2,
			SyncVersion:     3,
			LastModifiedAt:  time.Date(2026, 4, 1, 10, 0, 0, 123000000, time.UTC),
		},
	}
}

func TestHash_WithPushBatch(t *testing.T) {
	InitHasherPool(testHashKey)

	payloadBytes, err := json.Marshal(testChanges())
	if err != nil {
		t.Fatalf("failed to marshal changes: %v", err)
	}

	got := hex.EncodeToString(Hash(payloadBytes))

	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write(payloadBytes)
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("Hash mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}

func TestHash_DifferentKeys(t *testing.T) {
	payloadBytes, _ := json.Marshal(testChanges())

	InitHasherPool("key-one")
	hash1 := hex.EncodeToString(Hash(payloadBytes))

	InitHasherPool("key-two")
	hash2 := hex.EncodeToString(Hash(payloadBytes))

	if hash1 == hash2 {
		t.Error("different keys must produce different hashes for the same payload")
	}
}

func TestHashJSON_MatchesPool(t *testing.T) {
	InitHasherPool(testHashKey)

	payloadBytes, _ := json.Marshal(testChanges())
	want := hex.EncodeToString(Hash(payloadBytes))

	got, err := HashJSON(testChanges(), testHashKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("HashJSON mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}

// The server decodes the batch with UseNumber and re-encodes it before
// hashing, so the hash must survive that round trip.
func TestHashJSON_SurvivesDecodeReencode(t *testing.T) {
	clientHash, err := HashJSON(testChanges(), testHashKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wire, _ := json.Marshal(testChanges())

	dec := json.NewDecoder(bytes.NewReader(wire))
	dec.UseNumber()
	var decoded []models.ChangeEntry
	if err = dec.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	serverHash, err := HashJSON(decoded, testHashKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clientHash != serverHash {
		t.Errorf("hash changed after decode/re-encode:\n  client: %s\n  server: %s", clientHash, serverHash)
	}
}

func TestHashJSON_Unencodable(t *testing.T) {
	if _, err := HashJSON(make(chan int), testHashKey); err == nil {
		t.Fatal("expected error for non-serializable data")
	}
}

func TestVerifyJSON(t *testing.T) {
	InitHasherPool(testHashKey)

	changes := []models.ChangeEntry{{ChangeKey: "d:1", Table: "tasks", Operation: models.OperationInsert}}
	good, err := HashJSON(changes, testHashKey)
	if err != nil {
		t.Fatal(err)
	}
	other, err := HashJSON(changes, "other-key")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		sum  string
		want bool
	}{
		{name: "signed with the pool key", sum: good, want: true},
		{name: "signed with another key", sum: other},
		{name: "empty", sum: ""},
		{name: "not hex", sum: "zz" + good[2:]},
		{name: "truncated", sum: good[:len(good)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyJSON(changes, tt.sum)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("VerifyJSON() = %v, want %v", ok, tt.want)
			}
		})
	}

	if _, err = VerifyJSON(make(chan int), good); err == nil {
		t.Fatal("expected error for non-serializable data")
	}
}
