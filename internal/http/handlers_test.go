package http

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feverscan/internal/advisor"
	"feverscan/internal/auth"
	"feverscan/internal/engine"
	"feverscan/pkg"
)

// memStore backs the handlers with in-memory history and users.
type memStore struct {
	mu      sync.Mutex
	records []pkg.HistoryRecord
	users   map[string]*pkg.User
}

func newMemStore() *memStore { return &memStore{users: map[string]*pkg.User{}} }

func (s *memStore) Append(ctx context.Context, rec *pkg.HistoryRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = int64(len(s.records) + 1)
	rec.CreatedAt = time.Now()
	s.records = append(s.records, *rec)
	return rec.ID, nil
}

func (s *memStore) Recent(ctx context.Context, userID string, limit int) ([]pkg.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pkg.HistoryRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].UserID == userID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *memStore) GetActivity(ctx context.Context, userID string) (*pkg.UserActivity, error) {
	return nil, nil
}

func (s *memStore) CreateUser(ctx context.Context, u *pkg.User) error {
	s.users[u.Username] = u
	return nil
}

func (s *memStore) GetUser(ctx context.Context, username string) (*pkg.User, error) {
	return s.users[username], nil
}

// slowAdviser stalls in Diagnose so overlapping requests stay in flight
// together.
type slowAdviser struct {
	delay time.Duration
	calls int32
}

func (a *slowAdviser) Diagnose(ctx context.Context, answers []pkg.Answer) (string, pkg.Mode) {
	atomic.AddInt32(&a.calls, 1)
	time.Sleep(a.delay)
	return "Hasil penilaian gejala.", pkg.ModeProduction
}

func (a *slowAdviser) AnswerFollowup(ctx context.Context, question string) (string, pkg.Mode) {
	return "Jawaban tindak lanjut.", pkg.ModeFallback
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	return newTestServerWith(t, advisor.New(nil, nil, 3, time.Second, nil))
}

func newTestServerWith(t *testing.T, adv Adviser) (*httptest.Server, *memStore) {
	t.Helper()
	store := newMemStore()
	srv, err := NewServer(store, auth.NewService(store), adv, Config{
		RateWindow:   time.Minute,
		RateBudget:   10,
		HistoryLimit: 10,
	}, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, store
}

// signedInClient registers and signs in a user, returning a cookie-carrying
// client.
func signedInClient(t *testing.T, ts *httptest.Server) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(ts.URL+"/signup", url.Values{
		"username": {"user1"}, "password": {"rahasia"}, "confirm": {"rahasia"},
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	resp.Body.Close()

	resp, err = client.PostForm(ts.URL+"/signin", url.Values{
		"username": {"user1"}, "password": {"rahasia"},
	})
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	resp.Body.Close()
	return client
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestChatRequiresSession(t *testing.T) {
	ts, _ := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/chat")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("anonymous /chat should redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/signin" {
		t.Fatalf("expected redirect to /signin, got %q", loc)
	}
}

func TestSignInAndChatPage(t *testing.T) {
	ts, _ := newTestServer(t)
	client := signedInClient(t, ts)

	resp, err := client.Get(ts.URL + "/chat")
	if err != nil {
		t.Fatal(err)
	}
	html := body(t, resp)
	if !strings.Contains(html, engine.Greeting) {
		t.Error("chat page should show the greeting")
	}
	if !strings.Contains(html, "demam tinggi") {
		t.Error("chat page should show the first question")
	}
}

func TestAnswerAdvancesConversation(t *testing.T) {
	ts, _ := newTestServer(t)
	client := signedInClient(t, ts)

	resp, err := client.PostForm(ts.URL+"/chat/answer", url.Values{"option": {"1"}})
	if err != nil {
		t.Fatal(err)
	}
	html := body(t, resp)
	// The second question is now on the transcript.
	if !strings.Contains(html, "berapa hari") {
		t.Errorf("expected the second question after answering, page:\n%s", html)
	}
}

func TestEmptyFreeformShowsNotice(t *testing.T) {
	ts, _ := newTestServer(t)
	client := signedInClient(t, ts)

	resp, err := client.PostForm(ts.URL+"/chat/answer", url.Values{"text": {"   "}})
	if err != nil {
		t.Fatal(err)
	}
	html := body(t, resp)
	if !strings.Contains(html, "tidak boleh kosong") {
		t.Error("blank answer should surface the validation notice")
	}
}

func TestFullIntakeOverHTTP(t *testing.T) {
	ts, store := newTestServer(t)
	client := signedInClient(t, ts)

	var html string
	for i := 0; i < 12; i++ {
		resp, err := client.PostForm(ts.URL+"/chat/answer", url.Values{"text": {"Tidak"}})
		if err != nil {
			t.Fatal(err)
		}
		html = body(t, resp)
	}
	if !strings.Contains(html, engine.FollowupInvitation) {
		t.Error("completed intake should show the follow-up invitation")
	}
	if len(store.records) != 1 || store.records[0].Type != pkg.RecordDiagnosis {
		t.Fatalf("expected one diagnosis record, got %+v", store.records)
	}

	// Follow-up question afterwards.
	resp, err := client.PostForm(ts.URL+"/chat/followup", url.Values{"text": {"bagaimana pencegahan?"}})
	if err != nil {
		t.Fatal(err)
	}
	html = body(t, resp)
	if !strings.Contains(html, "3M") {
		t.Error("prevention follow-up should show the prevention block")
	}
	if len(store.records) != 2 {
		t.Fatalf("expected followup record, got %d records", len(store.records))
	}
}

// A double-submitted final answer must resolve as a single diagnosis: the
// first request completes the intake and the second is rejected as out of
// phase, so the adviser runs once and exactly one record is stored.
func TestDoubleSubmittedFinalAnswerYieldsOneDiagnosis(t *testing.T) {
	adv := &slowAdviser{delay: 50 * time.Millisecond}
	ts, store := newTestServerWith(t, adv)
	client := signedInClient(t, ts)

	for i := 0; i < 11; i++ {
		resp, err := client.PostForm(ts.URL+"/chat/answer", url.Values{"text": {"Tidak"}})
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.PostForm(ts.URL+"/chat/answer", url.Values{"text": {"Tidak"}})
			if err != nil {
				t.Error(err)
				return
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&adv.calls); n != 1 {
		t.Fatalf("adviser called %d times, want 1", n)
	}
	if len(store.records) != 1 || store.records[0].Type != pkg.RecordDiagnosis {
		t.Fatalf("expected exactly one diagnosis record, got %+v", store.records)
	}
}

func TestMalformedOptionRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	client := signedInClient(t, ts)

	resp, err := client.PostForm(ts.URL+"/chat/answer", url.Values{"option": {"1xyz"}})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("option with trailing garbage should get 400, got %d", resp.StatusCode)
	}
}

func TestMalformedResumeIDRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	client := signedInClient(t, ts)

	resp, err := client.PostForm(ts.URL+"/history/resume", url.Values{"id": {"7abc"}})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("record id with trailing garbage should get 400, got %d", resp.StatusCode)
	}
}

func TestTranscriptAPIUnauthorized(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/transcript")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous API call should get 401, got %d", resp.StatusCode)
	}
}
