package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Inventario/internal/auth"
	"Inventario/internal/catalog"
	"Inventario/internal/gateway"
	"Inventario/internal/history"
	"Inventario/internal/kv"
)

const jwtSecret = "test-secret"

func newDeps(t *testing.T) gateway.Deps {
	t.Helper()
	ctx := context.Background()

	store := kv.NewMemStore()
	users := auth.NewUsers(store, zap.NewNop())
	users.HashCost = bcrypt.MinCost
	hist := history.NewLog(store, zap.NewNop(), history.WithLocation(time.UTC))
	repo := catalog.NewRepository(store, hist, &auth.Session{Users: users}, zap.NewNop())

	for _, initFn := range []func(context.Context) error{users.Init, hist.Init, repo.Init} {
		if err := initFn(ctx); err != nil {
			t.Fatalf("init: %v", err)
		}
	}

	return gateway.Deps{
		Store:    store,
		Users:    users,
		Catalog:  repo,
		History:  hist,
		Tokens:   auth.NewTokenMaker(jwtSecret),
		TokenTTL: time.Minute,
	}
}

func newGatewayTS(t *testing.T, deps gateway.Deps, httpDeps gateway.HTTPDeps) *httptest.Server {
	t.Helper()

	h, err := gateway.NewHandler(deps, httpDeps)
	if err != nil {
		t.Fatalf("gateway.NewHandler: %v", err)
	}

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, c *http.Client, baseURL, username, password string) string {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, string(raw))
	}

	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil {
		t.Fatalf("decode login: %v body=%s", err, string(raw))
	}
	if lr.AccessToken == "" {
		t.Fatalf("empty access_token")
	}
	return lr.AccessToken
}

func TestGateway_PublicAPI_HappyPath(t *testing.T) {
	deps := newDeps(t)
	gwTS := newGatewayTS(t, deps, gateway.HTTPDeps{Log: zap.NewNop(), Service: "inventario"})
	c := &http.Client{}

	{
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/auth/register", map[string]any{
			"username": "maria",
			"password": "secreto1",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("register status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	bearer := map[string]string{"Authorization": "Bearer " + login(t, c, gwTS.URL, "maria", "secreto1")}

	var created struct {
		Success bool            `json:"success"`
		Product catalog.Product `json:"product"`
	}
	{
		resp, raw := doJSON(t, c, http.MethodPost, gwTS.URL+"/products", map[string]any{
			"name":     "Arena para gato",
			"category": "Gato",
			"quantity": 20,
			"price":    "99.50",
		}, bearer)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create product status=%d body=%s", resp.StatusCode, string(raw))
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("decode product: %v body=%s", err, string(raw))
		}
		if !created.Success || created.Product.ID != 4 {
			t.Fatalf("created=%+v", created)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/products?q=gato", nil, bearer)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search status=%d body=%s", resp.StatusCode, string(raw))
		}
		var got []catalog.Product
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode search: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("search results=%d want=2", len(got))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/history?user=maria", nil, bearer)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("history status=%d body=%s", resp.StatusCode, string(raw))
		}
		var got []struct {
			Username  string `json:"username"`
			Action    string `json:"action"`
			Label     string `json:"label"`
			ProductID int    `json:"productId"`
		}
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode history: %v body=%s", err, string(raw))
		}
		if len(got) != 1 || got[0].Action != "ADD" || got[0].Label != "Agregar" || got[0].ProductID != 4 {
			t.Fatalf("history=%+v", got)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/history/users", nil, bearer)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("history users status=%d", resp.StatusCode)
		}
		var users []string
		if err := json.Unmarshal(raw, &users); err != nil {
			t.Fatalf("decode users: %v", err)
		}
		if len(users) != 1 || users[0] != "maria" {
			t.Fatalf("users=%v", users)
		}
	}
}

func TestGateway_PublicAPI_ProductsRequireAuth(t *testing.T) {
	gwTS := newGatewayTS(t, newDeps(t), gateway.HTTPDeps{Log: zap.NewNop()})
	c := &http.Client{}

	for _, path := range []string{"/products", "/products/1", "/history"} {
		resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+path, nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s status=%d body=%s", path, resp.StatusCode, string(raw))
		}
	}

	resp, _ := doJSON(t, c, http.MethodGet, gwTS.URL+"/products", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status=%d", resp.StatusCode)
	}
}

func TestGateway_HealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	gwTS := newGatewayTS(t, newDeps(t), gateway.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "inventario",
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   "scrape",
	})
	c := &http.Client{}

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, c, http.MethodGet, gwTS.URL+path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d", path, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, c, http.MethodGet, gwTS.URL+"/metrics", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}

	resp, raw := doJSON(t, c, http.MethodGet, gwTS.URL+"/metrics", nil, map[string]string{
		"Authorization": "Bearer scrape",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status=%d", resp.StatusCode)
	}
	if !bytes.Contains(raw, []byte("http_requests_total")) {
		t.Fatalf("metrics body missing request counter")
	}
}

func TestGateway_ReadyzFailsWhenStoreClosed(t *testing.T) {
	deps := newDeps(t)
	gwTS := newGatewayTS(t, deps, gateway.HTTPDeps{Log: zap.NewNop()})

	if err := deps.Store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	resp, _ := doJSON(t, &http.Client{}, http.MethodGet, gwTS.URL+"/readyz", nil, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}
