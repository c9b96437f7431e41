package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/provider"

	"github.com/gin-gonic/gin"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "tajne-haslo-1"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Decode(config.New())
	if err != nil {
		t.Fatalf("decode config failed: %v", err)
	}
	cfg.JWT.SecretKey = "router-test-secret"
	cfg.Database.Driver = "sqlite"

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := models.OpenDB("sqlite", dsn, models.DBPoolConfig{MaxOpenConns: 4, MaxIdleConns: 4})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	t.Cleanup(func() { _ = models.CloseDB(db) })
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := models.EnsureDefaultAdmin(db, "Admin", testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("default admin failed: %v", err)
	}

	container, err := provider.NewContainer(cfg, db)
	if err != nil {
		t.Fatalf("container failed: %v", err)
	}
	t.Cleanup(container.Close)
	return SetupRouter(cfg, container)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": testAdminEmail, "password": testAdminPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login want 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	decodeBody(t, w, &resp)
	if resp.Token == "" || resp.User["email"] != testAdminEmail {
		t.Fatalf("unexpected login response: %s", w.Body.String())
	}
	if _, leaked := resp.User["password_hash"]; leaked {
		t.Fatalf("password hash must not be returned")
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	r := setupTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r := setupTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": testAdminEmail, "password": "zle-haslo-1"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", w.Code)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["message"] == "" {
		t.Fatalf("401 body must carry message, got %s", w.Body.String())
	}
}

func TestGuestAccessMatrix(t *testing.T) {
	r := setupTestRouter(t)

	cases := []struct {
		method string
		path   string
		body   interface{}
		want   int
	}{
		{http.MethodGet, "/api/posts", nil, http.StatusOK},
		{http.MethodGet, "/api/products", nil, http.StatusOK},
		{http.MethodGet, "/api/content", nil, http.StatusOK},
		{http.MethodGet, "/api/orders", nil, http.StatusForbidden},
		{http.MethodGet, "/api/admins", nil, http.StatusForbidden},
		{http.MethodPost, "/api/products", gin.H{"name": "x"}, http.StatusForbidden},
		{http.MethodPut, "/api/posts/1", gin.H{"title": "x"}, http.StatusForbidden},
		{http.MethodDelete, "/api/posts/1", nil, http.StatusForbidden},
		{http.MethodGet, "/api/auth/me", nil, http.StatusForbidden},
		{http.MethodGet, "/api/dashboard/stats", nil, http.StatusForbidden},
		{http.MethodPost, "/api/auth/register-admin", gin.H{"email": "x@example.com"}, http.StatusForbidden},
		{http.MethodGet, "/api/posts/brak", nil, http.StatusNotFound},
		{http.MethodGet, "/api/widgets", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		w := doJSON(t, r, tc.method, tc.path, "", tc.body)
		if w.Code != tc.want {
			t.Fatalf("%s %s: want %d got %d body=%s", tc.method, tc.path, tc.want, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/posts", "not-a-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("invalid token on public route should fall back to guest, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/orders", "not-a-token", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("invalid token on admin route want 403 got %d", w.Code)
	}
}

func TestAdminProductAndOrderFlow(t *testing.T) {
	r := setupTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{
		"name":     "Piasek płukany",
		"slug":     "piasek-plukany",
		"price":    "10.00",
		"category": "materialy",
		"unknown":  "dropped",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product want 201 got %d body=%s", w.Code, w.Body.String())
	}
	var product map[string]interface{}
	decodeBody(t, w, &product)
	if product["id"] == nil || product["unknown"] != nil {
		t.Fatalf("unexpected created product: %v", product)
	}

	w = doJSON(t, r, http.MethodPost, "/api/products", token, gin.H{"name": "Inny", "slug": "piasek-plukany", "price": 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate slug want 409 got %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/products/piasek-plukany", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("guest get by slug want 200 got %d", w.Code)
	}

	order := gin.H{
		"customer_name":    "Jan Nowak",
		"customer_phone":   "+48 600 000 000",
		"customer_address": "ul. Leśna 2, Gdańsk",
		"items":            []gin.H{{"product_id": 1, "name": "Piasek płukany", "price": 10, "quantity": 3}},
		"total":            30,
		"status":           "completed",
	}
	w = doJSON(t, r, http.MethodPost, "/api/orders", "", order)
	if w.Code != http.StatusCreated {
		t.Fatalf("guest create order want 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created map[string]interface{}
	decodeBody(t, w, &created)
	if created["status"] != "new" || !strings.HasPrefix(fmt.Sprint(created["order_number"]), "POL-") {
		t.Fatalf("unexpected created order: %v", created)
	}
	orderPath := fmt.Sprintf("/api/orders/%v", created["id"])

	order["total"] = 31.5
	w = doJSON(t, r, http.MethodPost, "/api/orders", "", order)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("total mismatch want 400 got %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, orderPath, token, gin.H{"status": 5})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-string status want 400 got %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPut, orderPath, token, gin.H{"status": "completed"})
	if w.Code != http.StatusConflict {
		t.Fatalf("skipping states want 409 got %d body=%s", w.Code, w.Body.String())
	}
	for _, status := range []string{"confirmed", "in_progress", "completed"} {
		w = doJSON(t, r, http.MethodPut, orderPath, token, gin.H{"status": status})
		if w.Code != http.StatusOK {
			t.Fatalf("move to %s want 200 got %d body=%s", status, w.Code, w.Body.String())
		}
	}

	w = doJSON(t, r, http.MethodPut, "/api/orders/999", token, gin.H{"notes": "x"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("update missing order want 404 got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/stats?force_refresh=1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard want 200 got %d", w.Code)
	}
	var stats map[string]interface{}
	decodeBody(t, w, &stats)
	if stats["revenue"] != 30.0 || stats["completed_orders"] != 1.0 || stats["products"] != 1.0 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/products/1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete want 200 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/api/products/1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("repeated delete want 200 got %d", w.Code)
	}
}

func TestRegisterAdminAndMe(t *testing.T) {
	r := setupTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), testAdminEmail) {
		t.Fatalf("me want 200 got %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/register-admin", token, gin.H{"name": "Druga", "email": "druga@example.com", "password": "krotkie"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("weak password want 400 got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/auth/register-admin", token, gin.H{"name": "Druga", "email": "druga@example.com", "password": "mocne-haslo-2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register want 201 got %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/auth/register-admin", token, gin.H{"name": "Druga", "email": "druga@example.com", "password": "mocne-haslo-2"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email want 400 got %d", w.Code)
	}
}

func TestPostViewAndComments(t *testing.T) {
	r := setupTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/posts", token, gin.H{"title": "Beton", "slug": "beton", "published": true})
	if w.Code != http.StatusCreated {
		t.Fatalf("create post want 201 got %d body=%s", w.Code, w.Body.String())
	}

	for i := 0; i < 2; i++ {
		w = doJSON(t, r, http.MethodPost, "/api/posts/beton/view", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("view want 200 got %d body=%s", w.Code, w.Body.String())
		}
	}
	w = doJSON(t, r, http.MethodGet, "/api/posts/beton", "", nil)
	var post map[string]interface{}
	decodeBody(t, w, &post)
	if post["views"] != 2.0 {
		t.Fatalf("want 2 views got %v", post["views"])
	}

	w = doJSON(t, r, http.MethodPost, "/api/comments", "", gin.H{
		"post_id":      post["id"],
		"author_name":  "Ewa",
		"author_email": "ewa@example.com",
		"content":      "Dzięki!",
		"approved":     true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("guest comment want 201 got %d body=%s", w.Code, w.Body.String())
	}
	var comment map[string]interface{}
	decodeBody(t, w, &comment)
	if comment["approved"] != false {
		t.Fatalf("guest comments must start unapproved: %v", comment)
	}

	commentsPath := fmt.Sprintf("/api/comments?post_id=%v", post["id"])
	w = doJSON(t, r, http.MethodGet, commentsPath, "", nil)
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "Dzięki!") {
		t.Fatalf("pending comments must be hidden from guests: %d %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, commentsPath, token, nil)
	if !strings.Contains(w.Body.String(), "ewa@example.com") {
		t.Fatalf("admins should see author_email: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/comments/%v", comment["id"]), token, gin.H{"approved": true})
	if w.Code != http.StatusOK {
		t.Fatalf("approve want 200 got %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, commentsPath, "", nil)
	if !strings.Contains(w.Body.String(), "Dzięki!") || strings.Contains(w.Body.String(), "ewa@example.com") {
		t.Fatalf("approved comment should be public without author_email: %s", w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/comments?post_id=4242", "", nil)
	if strings.Contains(w.Body.String(), "Dzięki!") {
		t.Fatalf("post_id filter should exclude other posts: %s", w.Body.String())
	}
}

func TestGuestsCannotReadDrafts(t *testing.T) {
	r := setupTestRouter(t)
	token := login(t, r)

	for _, post := range []gin.H{
		{"title": "Gotowy", "slug": "gotowy", "published": true},
		{"title": "Szkic", "slug": "szkic", "published": false},
	} {
		if w := doJSON(t, r, http.MethodPost, "/api/posts", token, post); w.Code != http.StatusCreated {
			t.Fatalf("create post want 201 got %d body=%s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/posts/szkic", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("guest draft get want 404 got %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/posts/szkic", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin draft get want 200 got %d", w.Code)
	}

	var posts []map[string]interface{}
	w = doJSON(t, r, http.MethodGet, "/api/posts", "", nil)
	decodeBody(t, w, &posts)
	if len(posts) != 1 || posts[0]["slug"] != "gotowy" {
		t.Fatalf("guest list should only contain published posts: %s", w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/posts?slug=szkic&published=false", "", nil)
	decodeBody(t, w, &posts)
	if len(posts) != 0 {
		t.Fatalf("query filters must not widen the guest scope: %s", w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/posts?slug=szkic", token, nil)
	decodeBody(t, w, &posts)
	if len(posts) != 1 || posts[0]["title"] != "Szkic" {
		t.Fatalf("admin slug filter failed: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/products?category=nieznana", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad enum filter want 400 got %d", w.Code)
	}
}

func TestProductFiltersByStock(t *testing.T) {
	r := setupTestRouter(t)
	token := login(t, r)

	for _, product := range []gin.H{
		{"name": "Piasek", "slug": "piasek", "price": 10, "category": "materialy", "in_stock": true},
		{"name": "Żwir", "slug": "zwir", "price": 12, "category": "materialy", "in_stock": false},
	} {
		if w := doJSON(t, r, http.MethodPost, "/api/products", token, product); w.Code != http.StatusCreated {
			t.Fatalf("create product want 201 got %d body=%s", w.Code, w.Body.String())
		}
	}

	var products []map[string]interface{}
	w := doJSON(t, r, http.MethodGet, "/api/products?in_stock=true&category=materialy", "", nil)
	decodeBody(t, w, &products)
	if len(products) != 1 || products[0]["slug"] != "piasek" {
		t.Fatalf("want only in-stock products: %s", w.Body.String())
	}
	w = doJSON(t, r, http.MethodGet, "/api/products?in_stock=false", "", nil)
	decodeBody(t, w, &products)
	if len(products) != 1 || products[0]["slug"] != "zwir" {
		t.Fatalf("want only out-of-stock products: %s", w.Body.String())
	}
}

func TestCORSDefaultsDoNotAllowCredentials(t *testing.T) {
	r := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://obca-strona.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("want wildcard origin got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("credentials must not be allowed by default, got %q", got)
	}
}
