package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"certstudio/internal/models"
)

// testValkeyClient connects to the test Valkey (DB 15, isolated from dev
// data) or skips the test when it is unreachable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		if keys, _ := client.Keys(ctx, "session:*").Result(); len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// open creates a session and hands back the cookie plus a request that
// carries it.
func open(t *testing.T, store *Store, data *Data) (*http.Cookie, *http.Request) {
	t.Helper()
	w := httptest.NewRecorder()
	if _, err := store.Create(context.Background(), w, data); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Create did not set a cookie")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return cookies[0], req
}

func TestSessionRoundTrip(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	userID := uuid.New()

	cookie, req := open(t, store, &Data{
		UserID:      userID,
		Email:       "editor@certstudio.local",
		DisplayName: "Editor",
		Role:        models.RoleAdmin,
	})

	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if cookie.Secure {
		t.Error("Secure flag must follow the store setting (false here)")
	}

	got, err := store.Get(context.Background(), req)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("session vanished")
	}
	if got.UserID != userID || got.Email != "editor@certstudio.local" {
		t.Errorf("payload mismatch: %+v", got)
	}
	if !got.IsAdmin() {
		t.Errorf("admin role lost: %q", got.Role)
	}
}

func TestSessionAbsenceIsNotAnError(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	ctx := context.Background()

	t.Run("no cookie", func(t *testing.T) {
		got, err := store.Get(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil || got != nil {
			t.Errorf("got (%v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("stale cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "expired-or-forged"})
		got, err := store.Get(ctx, req)
		if err != nil || got != nil {
			t.Errorf("got (%v, %v), want (nil, nil)", got, err)
		}
	})
}

func TestSessionUpdateKeepsIdentity(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	ctx := context.Background()

	data := &Data{UserID: uuid.New(), Email: "u@certstudio.local", Role: models.RoleUser}
	_, req := open(t, store, data)

	data.TwoFADone = true
	if err := store.Update(ctx, req, data); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.Get(ctx, req)
	if err != nil || got == nil {
		t.Fatalf("Get after update: (%v, %v)", got, err)
	}
	if !got.TwoFADone {
		t.Error("TwoFADone not persisted")
	}
}

func TestSessionDestroy(t *testing.T) {
	store := NewStore(testValkeyClient(t), false)
	ctx := context.Background()

	_, req := open(t, store, &Data{UserID: uuid.New(), Email: "bye@certstudio.local", Role: models.RoleUser})

	w := httptest.NewRecorder()
	if err := store.Destroy(ctx, w, req); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if got, _ := store.Get(ctx, req); got != nil {
		t.Error("session survived Destroy")
	}

	cleared := w.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge != -1 {
		t.Error("Destroy must expire the cookie")
	}

	// Destroying again, with no session behind the cookie, stays quiet.
	if err := store.Destroy(ctx, httptest.NewRecorder(), req); err != nil {
		t.Errorf("second Destroy: %v", err)
	}
}
