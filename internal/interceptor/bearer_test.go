package interceptor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/salesdash/internal/tokenstore"
)

// --- モック定義 ---

type mockStore struct {
	readFn func(ctx context.Context) (string, bool, error)
}

func (m *mockStore) Save(ctx context.Context, value string) error { return nil }
func (m *mockStore) Clear(ctx context.Context) error              { return nil }
func (m *mockStore) Read(ctx context.Context) (string, bool, error) {
	return m.readFn(ctx)
}

type recordingMetrics struct {
	mu       sync.Mutex
	statuses []int
}

func (r *recordingMetrics) RecordAPIRequest(_ string, statusCode int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, statusCode)
}
func (r *recordingMetrics) RecordLogin(bool)                   {}
func (r *recordingMetrics) RecordLogout(bool)                  {}
func (r *recordingMetrics) RecordGuardDecision(string, string) {}
func (r *recordingMetrics) RecordRateLimited(string)           {}

// --- テスト ---

func TestBearerTransport_WithToken_SetsAuthorization(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := tokenstore.NewMemoryStore()
	if err := store.Save(context.Background(), "abc123"); err != nil {
		t.Fatal(err)
	}

	client := &http.Client{Transport: NewBearerTransport(nil, store, nil, nil)}
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/sales", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer abc123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer abc123")
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("呼び出し元のリクエストは変更されてはならない")
	}
}

func TestBearerTransport_WithoutToken_SendsUnauthenticated(t *testing.T) {
	var gotAuth string
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewBearerTransport(nil, tokenstore.NewMemoryStore(), nil, nil)}
	resp, err := client.Get(server.URL + "/login")
	if err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	resp.Body.Close()

	if !called {
		t.Fatal("トークンがなくてもリクエストは送信されるべき")
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestBearerTransport_ReadsTokenAtCallTime(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	client := &http.Client{Transport: NewBearerTransport(nil, store, nil, nil)}

	for _, token := range []string{"first", "second", ""} {
		if token == "" {
			store.Clear(ctx)
		} else {
			store.Save(ctx, token)
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	want := []string{"Bearer first", "Bearer second", ""}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d: Authorization = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestBearerTransport_InFlightRequestKeepsOriginalToken(t *testing.T) {
	release := make(chan struct{})
	received := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Header.Get("Authorization")
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	store.Save(ctx, "old")
	client := &http.Client{Transport: NewBearerTransport(nil, store, nil, nil)}

	done := make(chan error, 1)
	go func() {
		resp, err := client.Get(server.URL)
		if err == nil {
			resp.Body.Close()
		}
		done <- err
	}()

	got := <-received
	store.Save(ctx, "new")
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	if got != "Bearer old" {
		t.Errorf("in-flight Authorization = %q, want %q", got, "Bearer old")
	}
}

func TestBearerTransport_UnauthorizedResponse_ReturnedUntouched(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	store.Save(ctx, "stale")

	rec := &recordingMetrics{}
	client := &http.Client{Transport: NewBearerTransport(nil, store, rec, nil)}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("401 はエラーではなくレスポンスとして返るべき: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if calls != 1 {
		t.Errorf("リトライしてはならない: calls = %d", calls)
	}
	if tok, ok, _ := store.Read(ctx); !ok || tok != "stale" {
		t.Error("インターセプタはトークンを変更してはならない")
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusUnauthorized {
		t.Errorf("metrics statuses = %v, want [401]", rec.statuses)
	}
}

func TestBearerTransport_ResponseCarriesSentRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	store.Save(ctx, "t1")
	client := &http.Client{Transport: NewBearerTransport(nil, store, nil, nil)}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
	resp.Body.Close()

	if got := resp.Request.Header.Get("Authorization"); got != "Bearer t1" {
		t.Errorf("resp.Request Authorization = %q, want %q", got, "Bearer t1")
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("呼び出し元のリクエストは変更してはならない")
	}
}

func TestBearerTransport_StoreError_FailsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	storeErr := errors.New("disk unavailable")
	store := &mockStore{readFn: func(ctx context.Context) (string, bool, error) {
		return "", false, storeErr
	}}

	client := &http.Client{Transport: NewBearerTransport(nil, store, nil, nil)}
	_, err := client.Get(server.URL)
	if !errors.Is(err, storeErr) {
		t.Errorf("err = %v, want wrapping %v", err, storeErr)
	}
	if called {
		t.Error("トークン読み込み失敗時はリクエストを送信してはならない")
	}
}

func TestBearerTransport_ReplacesCallerAuthorization(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := &http.Client{Transport: NewBearerTransport(nil, tokenstore.NewMemoryStore(), nil, nil)}
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	req.Header.Set("Authorization", "Bearer forged")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if gotAuth != "" {
		t.Errorf("トークン未保存時は Authorization を送らない: got %q", gotAuth)
	}
}
