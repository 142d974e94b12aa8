// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"certstudio/internal/cache"
	"certstudio/internal/database"
	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/session"
	"certstudio/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "certstudio")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "certstudio")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "fields:*", "genjob:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Sessions      *session.Store
	UserStore     *store.UserStore
	TemplateStore *store.TemplateStore
	CertStore     *store.CertificateStore
	DatasetStore  *store.DatasetStore
	FieldStore    *store.FieldStore
	GenStore      *store.GenerationStore
	Auth          *Auth
	Templates     *Templates
	Datasets      *Datasets
	Fields        *Fields
	Certificates  *Certificates
	Generate      *Generate
	Admin         *Admin
}

// newTestEnv creates a complete test environment with all handler
// dependencies that do not need object storage.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	templateStore := store.NewTemplateStore(db)
	certStore := store.NewCertificateStore(db)
	datasetStore := store.NewDatasetStore(db)
	fieldStore := store.NewFieldStore(db)
	genStore := store.NewGenerationStore(db)
	fieldCache := cache.NewFieldCache(vk, cache.DefaultFieldTTL)
	progress := cache.NewProgressTracker(vk, cache.DefaultProgressTTL)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Sessions:      sessions,
		UserStore:     userStore,
		TemplateStore: templateStore,
		CertStore:     certStore,
		DatasetStore:  datasetStore,
		FieldStore:    fieldStore,
		GenStore:      genStore,
		Auth:          NewAuth(sessions, userStore),
		Templates:     NewTemplates(templateStore),
		Datasets:      NewDatasets(datasetStore, 5<<20),
		Fields:        NewFields(fieldStore, fieldCache),
		Certificates:  NewCertificates(certStore, templateStore),
		Generate:      NewGenerate(nil, templateStore, datasetStore, genStore, nil, progress),
		Admin:         NewAdmin(userStore, templateStore, certStore, genStore),
	}
}

// testUser creates a user and registers cleanup.
func (e *testEnv) testUser(t *testing.T, role models.Role) *models.User {
	t.Helper()
	email := "test-" + uuid.NewString() + "@handlers.local"
	u, err := e.UserStore.Create(email, "password123", "Handler Test", role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { e.UserStore.Delete(u.ID) })
	return u
}

// sessionFor builds session data for a user with 2FA considered done.
func sessionFor(u *models.User) *session.Data {
	return &session.Data{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		TwoFADone:   true,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// jsonRequest builds a JSON request carrying the given session.
func jsonRequest(method, target string, body any, sess *session.Data) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	if sess != nil {
		r = r.WithContext(ctxWithSession(r.Context(), sess))
	}
	return r
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// decodeEnvelope unmarshals a recorded response body into the envelope
// with data decoded into dst (may be nil).
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dst any) envelope {
	t.Helper()
	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, body)
	}
	if dst != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return envelope{Success: raw.Success, Error: raw.Error}
}
