package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"adboard/internal/geocode"
	"adboard/internal/middleware"
	"adboard/internal/model"
	"adboard/internal/repository/memrepo"
	"adboard/internal/service"
	"adboard/internal/storage"
	"adboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookieName = "session"

func init() {
	gin.SetMode(gin.TestMode)
}

type mapGeocoder map[string]geocode.Coordinates

func (g mapGeocoder) Resolve(_ context.Context, address string) (*geocode.Coordinates, error) {
	if address == "Offline" {
		return nil, fmt.Errorf("%w: connection refused", geocode.ErrUnavailable)
	}
	coords, ok := g[address]
	if !ok {
		return nil, geocode.ErrLocationNotFound
	}
	return &coords, nil
}

type testApp struct {
	router    *gin.Engine
	auth      service.AuthService
	ads       *memrepo.Advertisements
	users     *memrepo.Users
	uploadDir string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	users := memrepo.NewUsers()
	ads := memrepo.NewAdvertisements()
	auth := service.NewAuthService(users, memrepo.NewSessions(), utils.NewJWTUtil("router-secret", time.Hour))

	dir := t.TempDir()
	images, err := storage.NewImageStore(dir)
	require.NoError(t, err)
	geo := mapGeocoder{"Paris": {Latitude: 48.8566, Longitude: 2.3522}}

	router, err := NewRouter(RouterDeps{
		Auth:       auth,
		Ads:        service.NewAdvertisementService(ads, images, geo),
		Cookie:     middleware.CookieConfig{Name: testCookieName},
		UploadsDir: dir,
	})
	require.NoError(t, err)

	_, err = auth.EnsureAdmin(context.Background(), "admin@x.com", "secret1")
	require.NoError(t, err)
	return &testApp{router: router, auth: auth, ads: ads, users: users, uploadDir: dir}
}

func (a *testApp) do(req *http.Request, session *http.Cookie) *httptest.ResponseRecorder {
	if session != nil {
		req.AddCookie(session)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path string, session *http.Cookie) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil), session)
}

func (a *testApp) postForm(path string, values url.Values, session *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, session)
}

type upload struct {
	filename string
	content  []byte
}

func (a *testApp) postMultipart(path string, values map[string]string, file *upload, session *http.Cookie) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		part, _ := mw.CreateFormFile("image", file.filename)
		_, _ = part.Write(file.content)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, session)
}

func (a *testApp) login(t *testing.T, identity, password string) *http.Cookie {
	t.Helper()
	w := a.postForm("/login", url.Values{"identity": {identity}, "password": {password}}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie after login")
	return nil
}

func (a *testApp) userSession(t *testing.T, identity string) *http.Cookie {
	t.Helper()
	_, err := a.auth.Register(context.Background(), identity, "secret1", model.RoleUser)
	require.NoError(t, err)
	return a.login(t, identity, "secret1")
}

func acmeFields() map[string]string {
	return map[string]string{
		"company_name": "Acme",
		"location":     "Paris",
		"renewal_date": "2025-01-01",
		"amount":       "99.50",
	}
}

func TestRouter_LoginAddAndList(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

	w := app.postMultipart("/add", acmeFields(), nil, session)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	require.Equal(t, 1, app.ads.Count())
	stored, err := app.ads.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored[0].CompanyName)
	assert.Equal(t, 99.50, stored[0].Amount)
	require.True(t, stored[0].HasCoordinates())
	assert.InDelta(t, 48.8566, *stored[0].Latitude, 1e-9)

	w = app.get("/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme")
	assert.Contains(t, w.Body.String(), "99.50")
	assert.Contains(t, w.Body.String(), "2025-01-01")
}

func TestRouter_AddValidationFailureWritesNothing(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")

	fields := acmeFields()
	fields["company_name"] = "   "
	w := app.postMultipart("/add", fields, nil, session)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
	assert.Equal(t, 0, app.ads.Count())
}

func TestRouter_AddWithBadImage(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")

	w := app.postMultipart("/add", acmeFields(), &upload{filename: "run.exe", content: []byte("MZ")}, session)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, app.ads.Count())
	entries, err := os.ReadDir(app.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRouter_AddWithImageIsServed(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")

	w := app.postMultipart("/add", acmeFields(), &upload{filename: "logo.png", content: []byte("png-bytes")}, session)
	require.Equal(t, http.StatusSeeOther, w.Code)

	stored, err := app.ads.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].Image)

	w = app.get("/uploads/"+*stored[0].Image, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestRouter_GeocodingFailureStillStores(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")

	fields := acmeFields()
	fields["location"] = "Offline"
	w := app.postMultipart("/add", fields, nil, session)
	require.Equal(t, http.StatusSeeOther, w.Code)

	stored, err := app.ads.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].Latitude)
	assert.Nil(t, stored[0].Longitude)
}

func TestRouter_ListKeepsInsertionOrder(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")

	for _, name := range []string{"First Co", "Second Co", "Third Co"} {
		fields := acmeFields()
		fields["company_name"] = name
		require.Equal(t, http.StatusSeeOther, app.postMultipart("/add", fields, nil, session).Code)
	}

	body := app.get("/", nil).Body.String()
	first := strings.Index(body, "First Co")
	second := strings.Index(body, "Second Co")
	third := strings.Index(body, "Third Co")
	assert.True(t, first >= 0 && first < second && second < third)
}

func TestRouter_AnonymousAddRedirects(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/add", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = app.postMultipart("/add", acmeFields(), nil, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 0, app.ads.Count())
}

func TestRouter_LoginInvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm("/login", url.Values{"identity": {"admin@x.com"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid identity or password.")
	assert.Empty(t, w.Result().Cookies())

	w = app.postForm("/login", url.Values{"identity": {"ghost@x.com"}, "password": {"secret1"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.postForm("/login", url.Values{"identity": {""}, "password": {""}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRouter_LogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")
	require.Equal(t, http.StatusOK, app.get("/add", session).Code)

	w := app.get("/logout", session)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// replaying the old cookie no longer works
	w = app.get("/add", session)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRouter_RegisterRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/register", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	userSession := app.userSession(t, "user@x.com")
	form := url.Values{
		"identity":         {"new@x.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	}
	w = app.postForm("/register", form, userSession)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You do not have permission to register users")
	assert.Equal(t, 2, app.users.Count())
}

func TestRouter_RegisterByAdmin(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@x.com", "secret1")

	form := url.Values{
		"identity":         {"bob@x.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
		"role":             {"user"},
	}
	w := app.postForm("/register", form, admin)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// the new user can log in and is not an admin
	bob := app.login(t, "bob@x.com", "secret1")
	assert.Equal(t, http.StatusForbidden, app.get("/register", bob).Code)

	w = app.postForm("/register", form, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
	assert.Equal(t, 2, app.users.Count())

	form.Set("confirm_password", "different")
	form.Set("identity", "carol@x.com")
	w = app.postForm("/register", form, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords must match.")
}

func TestRouter_RegisterPasswordTooLong(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, "admin@x.com", "secret1")

	long := strings.Repeat("p", 80)
	form := url.Values{
		"identity":         {"bob@x.com"},
		"password":         {long},
		"confirm_password": {long},
	}
	w := app.postForm("/register", form, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Must be at most 72 bytes.")
	assert.Equal(t, 1, app.users.Count())
}

func TestRouter_AddAmountTooLarge(t *testing.T) {
	app := newTestApp(t)
	session := app.login(t, "admin@x.com", "secret1")

	for _, amount := range []string{"10000000000", "1e20", "1e-5"} {
		fields := acmeFields()
		fields["amount"] = amount
		w := app.postMultipart("/add", fields, nil, session)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, amount)
	}
	assert.Equal(t, 0, app.ads.Count())
}

func TestRouter_GetLocation(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/get_location/Paris", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var coords geocode.Coordinates
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coords))
	assert.InDelta(t, 48.8566, coords.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, coords.Longitude, 1e-9)

	for _, address := range []string{"Atlantis", "Offline"} {
		w = app.get("/get_location/"+address, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Location not found"}`, w.Body.String())
	}
}

func TestRouter_StorageFailureRendersGenericPage(t *testing.T) {
	app := newTestApp(t)
	app.ads.Fail = true

	w := app.get("/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), memrepo.ErrInjected.Error())
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusOK, app.get("/health", nil).Code)

	router, err := NewRouter(RouterDeps{
		Auth:       app.auth,
		Ads:        service.NewAdvertisementService(app.ads, nil, mapGeocoder{}),
		Cookie:     middleware.CookieConfig{Name: testCookieName},
		UploadsDir: app.uploadDir,
		Health:     func(context.Context) error { return errors.New("db down") },
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
