package web

import (
	"encoding/json"
	"gravatarlib/internal/config"
	"gravatarlib/internal/gravatar"
	"gravatarlib/internal/metrics"
	"gravatarlib/internal/models"
	"gravatarlib/internal/utils"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testEmail    = "nic.gille@gmail.com"
	testHash     = "ceaac5a38484c84251076c359cbf2ab2"
	testPassword = "hunter2"
)

// adminHash is generated once; scrypt at full cost is slow.
var adminHash string

type WebTestSuite struct {
	suite.Suite
	app     *App
	router  chi.Router
	dbFile  *os.File
	dbPath  string
	cookies []*http.Cookie
}

func (suite *WebTestSuite) SetupSuite() {
	hash, err := utils.GeneratePasswordHash(testPassword)
	suite.Require().NoError(err)
	adminHash = hash
}

// Set up blank database before each test
func (suite *WebTestSuite) SetupTest() {
	dbFile, err := os.CreateTemp("", "gravatar-test-*.db")
	suite.Require().NoError(err)

	suite.dbFile = dbFile
	suite.dbPath = dbFile.Name()

	db, err := gorm.Open(sqlite.Open(suite.dbPath), &gorm.Config{Logger: logger.Discard})
	suite.Require().NoError(err)
	suite.Require().NoError(db.AutoMigrate(&models.Preset{}))

	suite.app = &App{
		DB:       db,
		Store:    sessions.NewCookieStore([]byte("12345678901234567890123456789012")),
		Pages:    LoadPages(),
		Defaults: gravatar.DefaultOptions(),
		Admin:    config.AdminConfig{Username: "admin", PasswordHash: adminHash},
		Metrics:  metrics.New(),
	}
	suite.router = suite.app.NewRouter()
	suite.cookies = nil
}

// TearDownTest closes and deletes the temp db
func (suite *WebTestSuite) TearDownTest() {
	if sqlDB, err := suite.app.DB.DB(); err == nil {
		sqlDB.Close()
	}
	if suite.dbFile != nil {
		suite.dbFile.Close()
		os.Remove(suite.dbPath)
	}
}

// helper functions:

// request sends a request carrying the cookies collected so far.
func (suite *WebTestSuite) request(method, path, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.SetBasicAuth("admin", testPassword)
	}
	for _, c := range suite.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		suite.cookies = set
	}
	return w
}

func (suite *WebTestSuite) avatarURL(query string) string {
	w := suite.request(http.MethodGet, "/avatar?"+query, "", false)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp avatarResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.URL
}

func (suite *WebTestSuite) errorField(w *httptest.ResponseRecorder) string {
	var resp errorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Field
}

func (suite *WebTestSuite) putPreset(name, body string) *httptest.ResponseRecorder {
	return suite.request(http.MethodPut, "/presets/"+name, body, true)
}

// tests:

func (suite *WebTestSuite) TestAvatarDefaults() {
	suite.Equal("http://www.gravatar.com/avatar/"+testHash+"?s=80;r=g", suite.avatarURL("email="+testEmail))
}

func (suite *WebTestSuite) TestAvatarQueryOverrides() {
	suite.Equal(
		"http://www.gravatar.com/avatar/"+testHash+"?s=120;r=pg;d=identicon",
		suite.avatarURL("email="+testEmail+"&s=120&r=pg&d=identicon"))

	suite.Equal(
		"https://www.gravatar.com/avatar/"+testHash+"?s=80;r=g;d=http%3A%2F%2Fexample.com%2Fa.png;f=y",
		suite.avatarURL("email="+testEmail+"&secure=true&f=1&d=http%3A%2F%2Fexample.com%2Fa.png"))
}

func (suite *WebTestSuite) TestAvatarHashedIdentifier() {
	suite.Equal("http://www.gravatar.com/avatar/abc123?s=80;r=g", suite.avatarURL("email=abc123&hashed=true"))
}

func (suite *WebTestSuite) TestAvatarEmptyEmail() {
	suite.Equal("http://www.gravatar.com/avatar/"+strings.Repeat("0", 32)+"?s=80;r=g", suite.avatarURL(""))
}

func (suite *WebTestSuite) TestAvatarRejectsInvalidOptions() {
	tests := map[string]string{
		"s=2049":       "size",
		"s=-1":         "size",
		"s=big":        "size",
		"r=nc17":       "max_rating",
		"d=robohash":   "default_image",
		"f=maybe":      "force_default_image",
		"secure=maybe": "secure",
		"hashed=maybe": "hashed",
	}
	for query, field := range tests {
		w := suite.request(http.MethodGet, "/avatar?email=a@b.c&"+query, "", false)
		suite.Equal(http.StatusBadRequest, w.Code, query)
		suite.Equal(field, suite.errorField(w), query)
	}
}

func (suite *WebTestSuite) TestAvatarSizeBoundaries() {
	suite.Contains(suite.avatarURL("email=a@b.c&s=0"), "?s=0;")
	suite.Contains(suite.avatarURL("email=a@b.c&s=2048"), "?s=2048;")
}

func (suite *WebTestSuite) TestAvatarRedirect() {
	w := suite.request(http.MethodGet, "/avatar/redirect?email="+testEmail+"&secure=1", "", false)
	suite.Equal(http.StatusFound, w.Code)
	suite.Equal("https://www.gravatar.com/avatar/"+testHash+"?s=80;r=g", w.Header().Get("Location"))

	w = suite.request(http.MethodGet, "/avatar/redirect?s=9999", "", false)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *WebTestSuite) TestPresetWritesRequireAdmin() {
	w := suite.request(http.MethodPut, "/presets/team", `{"size":64,"max_rating":"g"}`, false)
	suite.Equal(http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/presets/team", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *WebTestSuite) TestPresetWritesDisabledWithoutHash() {
	suite.app.Admin.PasswordHash = ""
	w := suite.putPreset("team", `{"size":64,"max_rating":"g"}`)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *WebTestSuite) TestPresetCRUD() {
	w := suite.putPreset("team", `{"size":64,"default_image":"https://Example.com/A.png","max_rating":"PG","secure":true}`)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var saved models.Preset
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &saved))
	suite.Equal("team", saved.Name)
	suite.Equal("https://Example.com/A.png", saved.DefaultImage)

	w = suite.request(http.MethodGet, "/presets/team", "", false)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.putPreset("team", `{"size":32,"max_rating":"g"}`)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, "/presets", "", false)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Presets []models.Preset `json:"presets"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	suite.Require().Len(list.Presets, 1)
	suite.Equal(32, list.Presets[0].Size)

	w = suite.request(http.MethodDelete, "/presets/team", "", true)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.request(http.MethodDelete, "/presets/team", "", true)
	suite.Equal(http.StatusNotFound, w.Code)
	w = suite.request(http.MethodGet, "/presets/team", "", false)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *WebTestSuite) TestPresetRejectsInvalidOptions() {
	w := suite.putPreset("bad", `{"size":5000,"max_rating":"g"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("size", suite.errorField(w))

	w = suite.putPreset("bad", `{"size":80,"max_rating":""}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("max_rating", suite.errorField(w))

	w = suite.putPreset("bad", `not json`)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodGet, "/presets/bad", "", false)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *WebTestSuite) TestPresetOmittedFieldsTakeDefaults() {
	w := suite.putPreset("team", `{"max_rating":"g"}`)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var saved models.Preset
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &saved))
	suite.Equal(gravatar.DefaultSize, saved.Size)
	suite.Equal("g", saved.MaxRating)

	w = suite.putPreset("plain", `{"size":64}`)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &saved))
	suite.Equal(64, saved.Size)
	suite.Equal("g", saved.MaxRating)
}

func (suite *WebTestSuite) TestSessionPresetInvalidRowIsSkipped() {
	bad := models.Preset{Name: "broken", Size: 9000, MaxRating: "g"}
	suite.Require().NoError(suite.app.DB.Create(&bad).Error)

	suite.Require().Equal(http.StatusNoContent, suite.request(http.MethodPost, "/presets/broken/use", "", false).Code)

	w := suite.request(http.MethodGet, "/avatar?email="+testEmail, "", false)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp avatarResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Empty(resp.Preset)
	suite.Equal("http://www.gravatar.com/avatar/"+testHash+"?s=80;r=g", resp.URL)
}

func (suite *WebTestSuite) TestSessionPreset() {
	w := suite.putPreset("team", `{"size":120,"default_image":"identicon","max_rating":"pg"}`)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/presets/missing/use", "", false)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/presets/team/use", "", false)
	suite.Require().Equal(http.StatusNoContent, w.Code)
	suite.Require().NotEmpty(suite.cookies)

	w = suite.request(http.MethodGet, "/avatar?email="+testEmail, "", false)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp avatarResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("team", resp.Preset)
	suite.Equal("http://www.gravatar.com/avatar/"+testHash+"?s=120;r=pg;d=identicon", resp.URL)

	// query parameters still win over the preset
	suite.Equal(
		"http://www.gravatar.com/avatar/"+testHash+"?s=40;r=pg",
		suite.avatarURL("email="+testEmail+"&s=40&d="))

	w = suite.request(http.MethodDelete, "/session/preset", "", false)
	suite.Require().Equal(http.StatusNoContent, w.Code)
	suite.Equal("http://www.gravatar.com/avatar/"+testHash+"?s=80;r=g", suite.avatarURL("email="+testEmail))
}

func (suite *WebTestSuite) TestSessionPresetDeletedFallsBack() {
	suite.Require().Equal(http.StatusOK, suite.putPreset("team", `{"size":120,"max_rating":"x"}`).Code)
	suite.Require().Equal(http.StatusNoContent, suite.request(http.MethodPost, "/presets/team/use", "", false).Code)
	suite.Require().Equal(http.StatusNoContent, suite.request(http.MethodDelete, "/presets/team", "", true).Code)

	suite.Equal("http://www.gravatar.com/avatar/"+testHash+"?s=80;r=g", suite.avatarURL("email="+testEmail))
}

func (suite *WebTestSuite) TestPreviewPage() {
	suite.Require().Equal(http.StatusOK, suite.putPreset("team", `{"size":120,"max_rating":"pg"}`).Code)

	w := suite.request(http.MethodGet, "/?email="+testEmail+"&s=48&d=retro", "", false)
	suite.Require().Equal(http.StatusOK, w.Code)

	body := w.Body.String()
	suite.Contains(body, `src="http://www.gravatar.com/avatar/`+testHash+`?s=48;r=g;d=retro"`)
	suite.Contains(body, "team (s=120, r=pg)")
}

func (suite *WebTestSuite) TestPreviewPageShowsValidationError() {
	w := suite.request(http.MethodGet, "/?email="+testEmail+"&s=5000", "", false)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "size must be within 0 and 2048")
}

func (suite *WebTestSuite) TestPreviewPageInvalidOptionsBuildNoURL() {
	suite.app.Defaults.Endpoints = gravatar.Endpoints{
		Secure:   "https://img.example/avatar/",
		Insecure: "http://img.example/avatar/",
	}

	w := suite.request(http.MethodGet, "/?email="+testEmail+"&s=5000", "", false)
	suite.Require().Equal(http.StatusOK, w.Code)

	body := w.Body.String()
	suite.Contains(body, "size must be within 0 and 2048")
	suite.NotContains(body, "<img")
	suite.NotContains(body, "www.gravatar.com")

	w = suite.request(http.MethodGet, "/metrics", "", false)
	suite.NotContains(w.Body.String(), "gravatar_urls_built_total{")

	w = suite.request(http.MethodGet, "/?email="+testEmail, "", false)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `src="http://img.example/avatar/`+testHash+`?s=80;r=g"`)
}

func (suite *WebTestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/healthz", "", false)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp healthResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("ok", resp.Status)
	suite.Equal("ok", resp.Database)
}

func (suite *WebTestSuite) TestMetrics() {
	suite.avatarURL("email=" + testEmail + "&secure=1")
	suite.request(http.MethodGet, "/avatar?s=-5", "", false)

	w := suite.request(http.MethodGet, "/metrics", "", false)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `gravatar_urls_built_total{transport="https"} 1`)
	suite.Contains(w.Body.String(), `gravatar_invalid_configuration_total{field="size"} 1`)
}

func TestWebTestSuite(t *testing.T) {
	suite.Run(t, new(WebTestSuite))
}
