package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gobahrain/gobahrain/internal/db"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	incErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(v), nil
}

func (f *fakeKV) IncrByWithExpire(_ context.Context, key string, val int64, ttl time.Duration) (int64, error) {
	if f.incErr != nil {
		return 0, f.incErr
	}
	f.ttls[key] = ttl
	f.values[key] = "42"
	return val, nil
}

func TestStore_GetMissingIsZero(t *testing.T) {
	s := New(newFakeKV(), 0, 0)
	v, err := s.Get(context.Background(), "gobahrain:budget:openai:daily:2026-05-02")
	if err != nil || v != 0 {
		t.Fatalf("Get = %d, %v", v, err)
	}
}

func TestStore_GetParsesValue(t *testing.T) {
	kv := newFakeKV()
	kv.values["k"] = "1500"
	v, err := New(kv, 0, 0).Get(context.Background(), "k")
	if err != nil || v != 1500 {
		t.Fatalf("Get = %d, %v", v, err)
	}
}

func TestStore_GetCorruptValue(t *testing.T) {
	kv := newFakeKV()
	kv.values["k"] = "abc"
	if _, err := New(kv, 0, 0).Get(context.Background(), "k"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStore_GetPropagatesStoreError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	if _, err := New(kv, 0, 0).Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}

func TestStore_IncrByPicksTTLFromKey(t *testing.T) {
	kv := newFakeKV()
	s := New(kv, time.Hour, 24*time.Hour)

	daily := "gobahrain:budget:openai:daily:2026-05-02"
	monthly := "gobahrain:budget:openai:monthly:2026-05"
	if err := s.IncrBy(context.Background(), daily, 10); err != nil {
		t.Fatal(err)
	}
	if err := s.IncrBy(context.Background(), monthly, 10); err != nil {
		t.Fatal(err)
	}

	if kv.ttls[daily] != time.Hour {
		t.Errorf("daily ttl = %v", kv.ttls[daily])
	}
	if kv.ttls[monthly] != 24*time.Hour {
		t.Errorf("monthly ttl = %v", kv.ttls[monthly])
	}
}

func TestNew_DefaultTTLs(t *testing.T) {
	s := New(newFakeKV(), 0, -1)
	if s.dailyTTL != DefaultDailyTTL || s.monthTTL != DefaultMonthlyTTL {
		t.Errorf("ttls = %v/%v", s.dailyTTL, s.monthTTL)
	}
}
