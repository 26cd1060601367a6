package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
	"github.com/mrpdigital/office-portal/internal/domain/user"
	"github.com/mrpdigital/office-portal/internal/reconcile"
	"github.com/mrpdigital/office-portal/internal/remote"
	"github.com/mrpdigital/office-portal/internal/sqlite"
	"github.com/mrpdigital/office-portal/internal/transport"
)

// newTestServer wires the full stack over an in-memory database. The
// remote endpoint is unconfigured, so pushes degrade to failed
// dispatches without touching the network.
func newTestServer(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	letterRepo := sqlite.NewLetterRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	settings := sqlite.NewSettingsRepository(db, remote.Config{})

	client := remote.NewClient(settings, nil, nil)
	controller := reconcile.NewController(letterRepo, client, 0, nil)
	t.Cleanup(controller.Flush)

	letterSvc := letter.NewService(letterRepo, controller, client, nil)
	userSvc := user.NewService(userRepo, nil)
	require.NoError(t, userSvc.EnsureDefaults(context.Background()))

	return transport.NewServer(letterSvc, userSvc, controller, settings, nil)
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAPI_CreateLetterScenario(t *testing.T) {
	router := newTestServer(t)

	create := func(date string) map[string]any {
		rec := doJSON(t, router, http.MethodPost, "/api/letters", map[string]string{
			"date":        date,
			"typeCode":    "SPK",
			"companyName": "PT Sinar Abadi",
			"requestor":   "Rifa",
			"subject":     "Instalasi",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		return got
	}

	a := create("2025-06-01")
	require.EqualValues(t, 341, a["sequence"])
	require.Equal(t, "341/MRP/SPK/VI/2025", a["letterNumber"])

	b := create("2025-07-02")
	require.EqualValues(t, 342, b["sequence"])

	c := create("2026-01-05")
	require.EqualValues(t, 1, c["sequence"])
	require.Equal(t, "001/MRP/SPK/I/2026", c["letterNumber"])

	// Listing is most-recent-first.
	rec := doJSON(t, router, http.MethodGet, "/api/letters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 3)
	require.Equal(t, c["id"], listed[0]["id"])
}

func TestAPI_CreateLetterValidation(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/letters", map[string]string{
		"typeCode": "NOPE", "companyName": "x", "requestor": "y", "subject": "z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/letters", map[string]string{
		"date": "31/12/2025", "typeCode": "SPK", "companyName": "x", "requestor": "y", "subject": "z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_UpdateLetterKeepsSequence(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/letters", map[string]string{
		"date": "2025-06-01", "typeCode": "SPK",
		"companyName": "PT Sinar Abadi", "requestor": "Rifa", "subject": "Instalasi",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"].(string)

	rec = doJSON(t, router, http.MethodPatch, "/api/letters/"+id, map[string]string{
		"subject": "Instalasi revisi",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.EqualValues(t, 341, updated["sequence"])
	require.Equal(t, "341/MRP/SPK/VI/2025", updated["letterNumber"])
	require.Equal(t, "Instalasi revisi", updated["subject"])

	rec = doJSON(t, router, http.MethodPatch, "/api/letters/missing", map[string]string{"subject": "x"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_DeleteLetter(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/letters", map[string]string{
		"date": "2025-06-01", "typeCode": "SK",
		"companyName": "PT Cahaya", "requestor": "Sandra", "subject": "Kuasa",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"].(string)

	rec = doJSON(t, router, http.MethodDelete, "/api/letters/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/letters/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Login(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "admin", "password": "12345",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var u map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	require.Equal(t, "admin", u["role"])
	require.NotContains(t, rec.Body.String(), `"password"`)

	rec = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "admin", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_DeleteAdminForbidden(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))

	var adminID string
	for _, u := range users {
		if u["username"] == "admin" {
			adminID = u["id"].(string)
		}
	}
	require.NotEmpty(t, adminID)

	rec = doJSON(t, router, http.MethodDelete, "/api/users/"+adminID, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_Settings(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPut, "/api/settings", map[string]string{
		"script_url": "https://script.example/exec",
		"store_id":   "sheet-42",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Overrides remote.Config `json:"overrides"`
		Effective remote.Config `json:"effective"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "sheet-42", got.Overrides.StoreID)
	require.Equal(t, "https://script.example/exec", got.Effective.ScriptURL)
}

func TestAPI_SyncStatusAndRefresh(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/sync/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// No endpoint configured: refresh reports the cloud as unreachable
	// and local data stays usable.
	rec = doJSON(t, router, http.MethodPost, "/api/sync/refresh", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/letters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_AttachAfterRemove(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/letters", map[string]string{
		"date": "2025-06-01", "typeCode": "SPK",
		"companyName": "PT Sinar Abadi", "requestor": "Rifa", "subject": "Instalasi",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"].(string)

	attach := func() []any {
		rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/letters/%s/files", id), map[string]string{
			"fileData": "JVBERg==",
			"mimeType": "application/pdf",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		return got["files"].([]any)
	}

	attach()
	files := attach()
	require.Len(t, files, 2)
	first := files[0].(map[string]any)["name"].(string)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/letters/%s/files/%s", id, url.PathEscape(first)), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The new copy must not collide with the surviving "... - 2" name.
	files = attach()
	require.Len(t, files, 2)
	names := map[string]bool{}
	for _, f := range files {
		names[f.(map[string]any)["name"].(string)] = true
	}
	require.Len(t, names, 2)
}

func TestAPI_RemoveAttachmentFlipsCompleteness(t *testing.T) {
	router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/letters", map[string]string{
		"date": "2025-06-01", "typeCode": "SPK",
		"companyName": "PT Sinar Abadi", "requestor": "Rifa", "subject": "Instalasi",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created["id"].(string)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/letters/%s/files", id), map[string]string{
		"fileData": "JVBERg==",
		"mimeType": "application/pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var withFile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withFile))
	files := withFile["files"].([]any)
	require.Len(t, files, 1)
	name := files[0].(map[string]any)["name"].(string)
	require.Equal(t, letter.PendingUploadURL, files[0].(map[string]any)["url"])

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/letters/%s/files/%s", id, url.PathEscape(name)), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var without map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &without))
	require.Empty(t, without["files"])
}
