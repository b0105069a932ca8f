package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grandeva/store-api/app/auth"
	"grandeva/store-api/config"
	"grandeva/store-api/db"
	"grandeva/store-api/internal"
	"grandeva/store-api/internal/model"
	"grandeva/store-api/internal/service"
	"grandeva/store-api/pkg/middleware"
	"grandeva/store-api/pkg/security"
	"grandeva/store-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	deps   *internal.Deps
	mem    *storage.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viper.Reset()
	t.Cleanup(viper.Reset)

	config.SetDefaults()
	viper.Set("jwt.secret", "test-secret")
	viper.Set("storage.type", "memory")
	viper.Set("security.rate_limit", 1000)
	require.NoError(t, config.Validate())

	conn, err := db.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	mem := storage.NewMemory("http://localhost/blobs")
	d := NewDeps(conn, mem)
	// Default argon costs make every register take far too long
	d.Identity.Hasher = &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testServer{t: t, router: NewRouter(ctx, d), deps: d, mem: mem}
}

func (s *testServer) do(method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set(middleware.AuthHeader, token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(email string) string {
	s.t.Helper()

	body, _ := json.Marshal(map[string]string{
		"method":   service.MethodEmailPassword,
		"email":    email,
		"name":     "Ana",
		"password": "pw1",
	})

	w := s.do(http.MethodPost, "/auth/register", "", body, "application/json")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	token := w.Header().Get(auth.TokenHeader)
	require.NotEmpty(s.t, token)

	return token
}

func (s *testServer) createShirt(token string) model.Product {
	s.t.Helper()

	var img bytes.Buffer
	require.NoError(s.t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 100, 100))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(s.t, mw.WriteField("name", "Shirt"))
	require.NoError(s.t, mw.WriteField("type", "CLOTHES"))
	require.NoError(s.t, mw.WriteField("price", "29.9"))
	require.NoError(s.t, mw.WriteField("features", `{"color":"blue"}`))

	part, err := mw.CreateFormFile("image", "shirt.png")
	require.NoError(s.t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	w := s.do(http.MethodPost, "/products", token, body.Bytes(), mw.FormDataContentType())
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var p model.Product
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &p))

	return p
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	code, _ := body["error"].(string)
	return code
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodHead, "/heartbeat", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterTwice(t *testing.T) {
	s := newTestServer(t)

	token := s.register("a@x.com")

	body, _ := json.Marshal(map[string]string{"email": "a@x.com", "password": "pw1"})
	w := s.do(http.MethodPost, "/auth/register", "", body, "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email_taken", errorCode(t, w))

	w = s.do(http.MethodGet, "/validate", token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct {
		body map[string]string
		code string
	}{
		{map[string]string{"email": "nope", "password": "pw1"}, "invalid_email"},
		{map[string]string{"email": "a@x.com", "password": "p"}, "invalid_password"},
		{map[string]string{"method": "Google", "email": "a@x.com", "password": "pw1"}, "unsupported_method"},
	} {
		body, _ := json.Marshal(tc.body)
		w := s.do(http.MethodPost, "/auth/register", "", body, "application/json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, tc.code, errorCode(t, w))
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	first := s.register("a@x.com")

	body, _ := json.Marshal(map[string]string{"email": "a@x.com", "password": "wrong"})
	w := s.do(http.MethodPost, "/auth/signin", "", body, "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, w))

	body, _ = json.Marshal(map[string]string{"email": "a@x.com", "password": "pw1"})
	w = s.do(http.MethodPost, "/auth/signin", "", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, w.Header().Get(auth.TokenHeader))

	w = s.do(http.MethodPost, "/auth/refresh", first, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	second := w.Header().Get(auth.TokenHeader)
	assert.NotEqual(t, first, second)

	w = s.do(http.MethodGet, "/validate", first, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_revoked", errorCode(t, w))

	w = s.do(http.MethodDelete, "/auth/signout", second, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/validate", second, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/validate", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing_auth_token", errorCode(t, w))
}

func TestCreateAndDeleteProduct(t *testing.T) {
	s := newTestServer(t)
	token := s.register("a@x.com")

	p := s.createShirt(token)
	assert.Equal(t, "Shirt", p.Name)
	assert.Equal(t, model.ProductClothes, p.Type)
	assert.Equal(t, s.mem.URL(p.ImageName), p.ImageURL)
	assert.True(t, strings.HasSuffix(p.ImageURL, ".webp"))

	_, ct, err := s.mem.Get(p.ImageName)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", ct)

	w := s.do(http.MethodGet, "/products/"+p.ID, "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/products", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = s.do(http.MethodDelete, "/products/"+p.ID, token, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/products/"+p.ID, "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product_not_found", errorCode(t, w))

	_, _, err = s.mem.Get(p.ImageName)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateProductRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/products", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBadProductID(t *testing.T) {
	s := newTestServer(t)
	token := s.register("a@x.com")

	w := s.do(http.MethodGet, "/products/bad", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_id", errorCode(t, w))

	w = s.do(http.MethodPatch, "/products/bad/like", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/products/0000000000000000/like", token, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register("a@x.com")
	p := s.createShirt(token)

	w := s.do(http.MethodPatch, "/products/"+p.ID+"/like", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, "/products/"+p.ID+"/like", token, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_liked", errorCode(t, w))

	w = s.do(http.MethodGet, "/user/products/liked", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var liked []model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &liked))
	require.Len(t, liked, 1)
	assert.Equal(t, 1, liked[0].Likes)

	w = s.do(http.MethodPatch, "/products/"+p.ID+"/dislike", token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, "/products/"+p.ID+"/dislike", token, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_liked", errorCode(t, w))
}

func TestReserveFlow(t *testing.T) {
	s := newTestServer(t)
	u1 := s.register("a@x.com")
	u2 := s.register("b@x.com")
	p := s.createShirt(u1)

	w := s.do(http.MethodPatch, "/products/"+p.ID+"/reserve", u1, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, "/products/"+p.ID+"/reserve", u2, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_reserved", errorCode(t, w))

	w = s.do(http.MethodPatch, "/products/"+p.ID+"/release", u2, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/user", u1, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile struct {
		User          model.User      `json:"user"`
		LikedProducts []model.Product `json:"likedProducts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "a@x.com", profile.User.Email)
	require.Len(t, profile.User.ReservedProducts, 1)
	assert.Empty(t, profile.LikedProducts)

	w = s.do(http.MethodPatch, "/products/"+p.ID+"/release", u1, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, "/products/"+p.ID+"/reserve", u2, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/user/products/reserved", u2, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var reserved []model.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reserved))
	assert.Len(t, reserved, 1)
}

func TestDeleteAllProducts(t *testing.T) {
	s := newTestServer(t)
	token := s.register("a@x.com")
	s.createShirt(token)

	w := s.do(http.MethodDelete, "/products", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
	assert.Empty(t, s.mem.Keys())
}

func TestMemoryBlobsAreServed(t *testing.T) {
	s := newTestServer(t)
	token := s.register("a@x.com")
	p := s.createShirt(token)

	w := s.do(http.MethodGet, "/blobs/"+p.ImageName, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/webp", w.Header().Get("Content-Type"))

	w = s.do(http.MethodGet, "/blobs/products/missing.webp", "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
