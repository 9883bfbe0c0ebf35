package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/imgsqueeze/controller"
)

const cookieName = "test_session"

func newTestStore() *Store {
	return NewStore(func() *controller.Controller {
		return controller.New(nil, nil, zap.NewNop())
	}, cookieName, time.Minute, zap.NewNop())
}

func TestStoreGet(t *testing.T) {
	s := newTestStore()
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected unknown session")
	}
	id, ctrl := s.Create()
	got, ok := s.Get(id)
	if !ok || got != ctrl {
		t.Fatal("expected created controller")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session but got: %d", s.Len())
	}
}

func TestStoreEvict(t *testing.T) {
	s := newTestStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	idle, _ := s.Create()
	now = now.Add(45 * time.Second)
	active, _ := s.Create()
	now = now.Add(30 * time.Second)

	if n := s.Evict(); n != 1 {
		t.Fatalf("expected 1 evicted session but got: %d", n)
	}
	if _, ok := s.Get(idle); ok {
		t.Fatal("idle session must be evicted")
	}
	if _, ok := s.Get(active); !ok {
		t.Fatal("active session must survive")
	}
}

func TestStoreRun(t *testing.T) {
	s := newTestStore()
	s.ttl = time.Nanosecond
	s.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for s.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not evict session")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestStoreController(t *testing.T) {
	s := newTestStore()

	wr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	first := s.Controller(wr, r)

	cookies := wr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cookieName {
		t.Fatalf("expected session cookie but got: %v", cookies)
	}

	wr = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	if got := s.Controller(wr, r); got != first {
		t.Fatal("expected the same controller for the same session")
	}
	if len(wr.Result().Cookies()) != 0 {
		t.Fatal("known session must not reset cookie")
	}

	wr = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "not-a-uuid"})
	if got := s.Controller(wr, r); got == first {
		t.Fatal("invalid session id must start a new session")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 sessions but got: %d", s.Len())
	}
}
