package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ims_backend/internal/database"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const businessDate = "2024-03-01"

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.ConfigureJWT("router-test-secret", time.Hour)

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "ims.db"), 0)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.ApplyMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	opening, _ := time.Parse("2006-01-02", businessDate)
	clock := services.BusinessClock{Location: time.UTC, Now: func() time.Time { return opening.Add(10 * time.Hour) }}

	engine := gin.New()
	Setup(engine, db, clock)
	return &testAPI{t: t, engine: engine}
}

// call sends a JSON request and decodes the JSON response into a generic map.
func (a *testAPI) call(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("encode body: %v", err)
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
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (a *testAPI) expect(wantStatus int, method, path, token string, body interface{}) map[string]interface{} {
	a.t.Helper()
	status, out := a.call(method, path, token, body)
	if status != wantStatus {
		a.t.Fatalf("%s %s: status %d, want %d (body %v)", method, path, status, wantStatus, out)
	}
	return out
}

func errorMessage(out map[string]interface{}) string {
	apiErr, _ := out["error"].(map[string]interface{})
	msg, _ := apiErr["message"].(string)
	return msg
}

func id(out map[string]interface{}) int64 {
	v, _ := out["id"].(float64)
	return int64(v)
}

func (a *testAPI) formLogin(phone, password string) string {
	a.t.Helper()
	form := url.Values{"username": {phone}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		a.t.Fatalf("form login: status %d body %s", rec.Code, rec.Body.String())
	}
	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &token); err != nil {
		a.t.Fatalf("decode token: %v", err)
	}
	if token.TokenType != "bearer" || token.AccessToken == "" {
		a.t.Fatalf("unexpected token response %s", rec.Body.String())
	}
	return token.AccessToken
}

func TestHealthRoutes(t *testing.T) {
	api := newTestAPI(t)
	if out := api.expect(http.StatusOK, http.MethodGet, "/", "", nil); out["status"] != "ok" {
		t.Fatalf("root: %v", out)
	}
	if out := api.expect(http.StatusOK, http.MethodGet, "/ping", "", nil); out["message"] != "pong" {
		t.Fatalf("ping: %v", out)
	}
}

func TestBootstrapAndAuth(t *testing.T) {
	api := newTestAPI(t)

	owner := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/employees", "", map[string]interface{}{
		"name": "Jane Owner", "phone": "+254700000001", "password": "secret1",
	})
	if owner["role"] != "employer" {
		t.Fatalf("bootstrap account role = %v, want employer", owner["role"])
	}
	if _, leaked := owner["password_hash"]; leaked {
		t.Fatal("password hash must not be serialised")
	}

	// Once an employee exists, anonymous creation is refused.
	api.expect(http.StatusUnauthorized, http.MethodPost, "/api/v1/employees", "", map[string]interface{}{
		"name": "Intruder", "phone": "+254700000009", "password": "secret9",
	})

	out := api.expect(http.StatusUnauthorized, http.MethodPost, "/api/v1/auth/login-json", "", map[string]interface{}{
		"phone": "+254700000001", "password": "wrong-password",
	})
	if msg := errorMessage(out); msg != "Invalid phone or password" {
		t.Fatalf("login failure message = %q", msg)
	}

	token := api.formLogin("+254700000001", "secret1")
	me := api.expect(http.StatusOK, http.MethodGet, "/api/v1/auth/me", token, nil)
	if id(me) != id(owner) {
		t.Fatalf("me = %v, want employee %d", me, id(owner))
	}

	api.expect(http.StatusUnauthorized, http.MethodGet, "/api/v1/auth/me", "", nil)

	// A second employer is rejected.
	api.expect(http.StatusConflict, http.MethodPost, "/api/v1/employees", token, map[string]interface{}{
		"name": "Other Owner", "phone": "+254700000003", "password": "secret3", "role": "employer",
	})
}

func TestSalesDayWorkflow(t *testing.T) {
	api := newTestAPI(t)

	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/employees", "", map[string]interface{}{
		"name": "Jane Owner", "phone": "+254700000001", "password": "secret1",
	})
	admin := api.formLogin("+254700000001", "secret1")
	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/employees", admin, map[string]interface{}{
		"name": "Sam Cashier", "phone": "+254700000002", "password": "secret2", "role": "employee",
	})
	login := api.expect(http.StatusOK, http.MethodPost, "/api/v1/auth/login-json", "", map[string]interface{}{
		"phone": "+254700000002", "password": "secret2",
	})
	cashier, _ := login["access_token"].(string)

	// Catalogue.
	category := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/categories", admin, map[string]interface{}{"name": "  soft   DRINKS "})
	if category["name"] != "Soft Drinks" {
		t.Fatalf("category name = %v, want Soft Drinks", category["name"])
	}
	api.expect(http.StatusForbidden, http.MethodPost, "/api/v1/categories", cashier, map[string]interface{}{"name": "Snacks"})

	supplier := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/suppliers", admin, map[string]interface{}{
		"name": "acme distributors", "contact": "0712345678",
	})
	if supplier["contact"] != "+254712345678" {
		t.Fatalf("supplier contact = %v", supplier["contact"])
	}

	product := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/products", admin, map[string]interface{}{
		"name": "coca cola", "sku": "cc-500", "price": 50, "stock": 10,
		"category_id": id(category), "supplier_id": id(supplier),
	})
	if product["sku"] != "CC-500" {
		t.Fatalf("product sku = %v, want CC-500", product["sku"])
	}
	productPath := fmt.Sprintf("/api/v1/products/%d", id(product))

	// No open day yet.
	current := api.expect(http.StatusOK, http.MethodGet, "/api/v1/days/current", cashier, nil)
	if current["is_open"] != false || current["date"] != businessDate {
		t.Fatalf("current day before opening = %v", current)
	}
	saleBody := func(qty int, credit bool) map[string]interface{} {
		body := map[string]interface{}{
			"items":     []map[string]interface{}{{"product_id": id(product), "quantity": qty}},
			"is_credit": credit,
		}
		if !credit {
			body["payment_method"] = "cash"
		}
		return body
	}
	out := api.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/sales", cashier, saleBody(1, false))
	if msg := errorMessage(out); !strings.HasPrefix(msg, "Day is closed") {
		t.Fatalf("sale without open day message = %q", msg)
	}

	api.expect(http.StatusForbidden, http.MethodPost, "/api/v1/days/open", cashier, nil)
	day := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/days/open", admin, nil)
	if day["date"] != businessDate || day["is_open"] != true {
		t.Fatalf("opened day = %v", day)
	}
	out = api.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/days/open", admin, nil)
	if msg := errorMessage(out); msg != "Day is already open" {
		t.Fatalf("second open message = %q", msg)
	}

	// Sales.
	out = api.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/sales", cashier, saleBody(20, false))
	if msg := errorMessage(out); msg != "Not enough stock for product Coca Cola (available: 10)" {
		t.Fatalf("insufficient stock message = %q", msg)
	}

	cashSale := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/sales", cashier, saleBody(3, false))
	if cashSale["total_amount"] != float64(150) || cashSale["is_paid"] != true || cashSale["payment_method"] != "cash" {
		t.Fatalf("cash sale = %v", cashSale)
	}
	creditSale := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/sales", cashier, saleBody(2, true))
	if creditSale["is_paid"] != false || creditSale["payment_method"] != nil || creditSale["is_credit"] != true {
		t.Fatalf("credit sale = %v", creditSale)
	}

	stocked := api.expect(http.StatusOK, http.MethodGet, productPath, cashier, nil)
	if stocked["stock"] != float64(5) {
		t.Fatalf("stock after sales = %v, want 5", stocked["stock"])
	}

	mine := api.expect(http.StatusOK, http.MethodGet, "/api/v1/sales/my", cashier, nil)
	if mine["total"] != float64(2) {
		t.Fatalf("my sales total = %v, want 2", mine["total"])
	}
	api.expect(http.StatusForbidden, http.MethodGet, "/api/v1/sales", cashier, nil)
	out = api.expect(http.StatusBadRequest, http.MethodGet, "/api/v1/sales?start_date=2024-03-05&end_date=2024-03-01", admin, nil)
	if msg := errorMessage(out); msg != "end_date cannot be earlier than start_date" {
		t.Fatalf("date range message = %q", msg)
	}

	// The open credit blocks closing the day.
	out = api.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/days/close", admin, nil)
	if msg := errorMessage(out); msg != "Cannot close day with uncleared credits" {
		t.Fatalf("close with credit message = %q", msg)
	}

	credits := api.expect(http.StatusOK, http.MethodGet, "/api/v1/credits?status=open", admin, nil)
	list, _ := credits["data"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("open credits = %v", credits)
	}
	credit, _ := list[0].(map[string]interface{})
	if credit["amount"] != float64(100) {
		t.Fatalf("credit amount = %v, want 100", credit["amount"])
	}
	creditPath := fmt.Sprintf("/api/v1/credits/%d", id(credit))

	api.expect(http.StatusForbidden, http.MethodPut, creditPath, cashier, map[string]interface{}{"status": "cleared", "payment_method": "mpesa"})
	api.expect(http.StatusBadRequest, http.MethodPut, creditPath, admin, map[string]interface{}{"status": "open", "payment_method": "mpesa"})
	cleared := api.expect(http.StatusOK, http.MethodPut, creditPath, admin, map[string]interface{}{"status": "cleared", "payment_method": "mpesa"})
	if cleared["status"] != "cleared" {
		t.Fatalf("cleared credit = %v", cleared)
	}
	api.expect(http.StatusBadRequest, http.MethodPut, creditPath, admin, map[string]interface{}{"status": "cleared", "payment_method": "cash"})

	settled := api.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/sales/%d", id(creditSale)), cashier, nil)
	if settled["is_paid"] != true || settled["is_credit"] != false || settled["payment_method"] != "mpesa" {
		t.Fatalf("sale after clearing credit = %v", settled)
	}

	// Reports.
	api.expect(http.StatusForbidden, http.MethodGet, "/api/v1/reports/daily", cashier, nil)
	report := api.expect(http.StatusOK, http.MethodGet, "/api/v1/reports/daily", admin, nil)
	summary, _ := report["sales_summary"].(map[string]interface{})
	if summary["total_sales"] != float64(250) || summary["number_of_sales"] != float64(2) || summary["total_cash"] != float64(250) {
		t.Fatalf("sales summary = %v", summary)
	}
	if report["day_report"] == nil {
		t.Fatal("daily report should carry the day report")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/daily/export", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != services.XLSXContentType {
		t.Fatalf("export: status %d content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "daily-report-"+businessDate+".xlsx") {
		t.Fatalf("export disposition = %q", rec.Header().Get("Content-Disposition"))
	}

	dashboard := api.expect(http.StatusOK, http.MethodGet, "/api/v1/dashboard/summary", admin, nil)
	if dashboard["day_open"] != true {
		t.Fatalf("dashboard = %v", dashboard)
	}

	closed := api.expect(http.StatusOK, http.MethodPost, "/api/v1/days/close", admin, nil)
	if closed["is_open"] != false {
		t.Fatalf("closed day = %v", closed)
	}
	out = api.expect(http.StatusBadRequest, http.MethodPost, "/api/v1/days/close", admin, nil)
	if msg := errorMessage(out); msg != "No open day to close" {
		t.Fatalf("close twice message = %q", msg)
	}

	// Sales of a closed day are frozen.
	api.expect(http.StatusBadRequest, http.MethodDelete, fmt.Sprintf("/api/v1/sales/%d", id(cashSale)), admin, nil)
}
