package router

import (
	"fmt"
	"net/http"
	"testing"
)

// shop is a bootstrapped store: an employer, a cashier, one supplier and one product.
type shop struct {
	api       *testAPI
	admin     string
	cashier   string
	ownerID   int64
	cashierID int64
	category  int64
	supplier  int64
	product   int64
}

func newShop(t *testing.T) *shop {
	t.Helper()
	api := newTestAPI(t)

	owner := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/employees", "", map[string]interface{}{
		"name": "Jane Owner", "phone": "+254700000001", "password": "secret1",
	})
	admin := api.formLogin("+254700000001", "secret1")
	cashier := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/employees", admin, map[string]interface{}{
		"name": "Sam Cashier", "phone": "+254700000002", "password": "secret2", "role": "employee",
	})
	category := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/categories", admin, map[string]interface{}{"name": "Soft Drinks"})
	supplier := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/suppliers", admin, map[string]interface{}{
		"name": "Acme Distributors", "contact": "+254712345678",
	})
	product := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/products", admin, map[string]interface{}{
		"name": "coca cola", "sku": "cc-500", "price": 50, "stock": 10,
		"category_id": id(category), "supplier_id": id(supplier),
	})

	return &shop{
		api:       api,
		admin:     admin,
		cashier:   api.formLogin("+254700000002", "secret2"),
		ownerID:   id(owner),
		cashierID: id(cashier),
		category:  id(category),
		supplier:  id(supplier),
		product:   id(product),
	}
}

func (s *shop) saleBody(productID int64, qty int, credit bool) map[string]interface{} {
	body := map[string]interface{}{
		"items":     []map[string]interface{}{{"product_id": productID, "quantity": qty}},
		"is_credit": credit,
	}
	if !credit {
		body["payment_method"] = "cash"
	}
	return body
}

func (s *shop) stock(t *testing.T) float64 {
	t.Helper()
	product := s.api.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", s.product), s.admin, nil)
	v, _ := product["stock"].(float64)
	return v
}

// creditOf returns the credit recorded against saleID.
func (s *shop) creditOf(t *testing.T, saleID int64) map[string]interface{} {
	t.Helper()
	out := s.api.expect(http.StatusOK, http.MethodGet, "/api/v1/credits?page_size=100", s.admin, nil)
	list, _ := out["data"].([]interface{})
	for _, item := range list {
		credit, _ := item.(map[string]interface{})
		if v, _ := credit["sale_id"].(float64); int64(v) == saleID {
			return credit
		}
	}
	t.Fatalf("no credit for sale %d in %v", saleID, out)
	return nil
}

func TestSaleEditsAndPendingBills(t *testing.T) {
	s := newShop(t)
	api := s.api
	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/days/open", s.admin, nil)

	sale := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/sales", s.cashier, s.saleBody(s.product, 2, true))
	salePath := fmt.Sprintf("/api/v1/sales/%d", id(sale))
	if got := s.stock(t); got != 8 {
		t.Fatalf("stock after credit sale = %v, want 8", got)
	}

	// Editing replaces the items: old stock comes back, the credit follows the new total.
	edit := map[string]interface{}{"items": []map[string]interface{}{{"product_id": s.product, "quantity": 1}}}
	api.expect(http.StatusForbidden, http.MethodPut, salePath, s.cashier, edit)
	updated := api.expect(http.StatusOK, http.MethodPut, salePath, s.admin, edit)
	if updated["total_amount"] != float64(50) {
		t.Fatalf("updated total = %v, want 50", updated["total_amount"])
	}
	if got := s.stock(t); got != 9 {
		t.Fatalf("stock after edit = %v, want 9", got)
	}
	credit := s.creditOf(t, id(sale))
	if credit["amount"] != float64(50) || credit["status"] != "open" {
		t.Fatalf("credit after edit = %v", credit)
	}

	reversals := api.expect(http.StatusOK, http.MethodGet,
		fmt.Sprintf("/api/v1/stock-movements?product_id=%d&type=sale_reversal", s.product), s.admin, nil)
	if reversals["total"] != float64(1) {
		t.Fatalf("sale reversal movements = %v", reversals)
	}

	// Dropping the credit turns the sale into a pending bill.
	api.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/credits/%d", id(credit)), s.admin, nil)
	pending := api.expect(http.StatusOK, http.MethodGet, salePath, s.cashier, nil)
	if pending["is_credit"] != false || pending["is_paid"] != false || pending["payment_method"] != nil {
		t.Fatalf("pending bill = %v", pending)
	}

	// An employee cannot book a credit under someone else's name.
	api.expect(http.StatusForbidden, http.MethodPost, "/api/v1/credits", s.cashier, map[string]interface{}{
		"sale_id": id(sale), "employee_id": s.ownerID,
	})

	paid := api.expect(http.StatusOK, http.MethodPost, salePath+"/pay", s.cashier, map[string]interface{}{"payment_method": "card"})
	if paid["is_paid"] != true || paid["payment_method"] != "card" {
		t.Fatalf("paid sale = %v", paid)
	}
	out := api.expect(http.StatusBadRequest, http.MethodPost, salePath+"/pay", s.cashier, map[string]interface{}{"payment_method": "cash"})
	if msg := errorMessage(out); msg != "Sale is already paid" {
		t.Fatalf("second payment message = %q", msg)
	}

	// Credit sales are settled through their credit, and freeze once it is cleared.
	second := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/sales", s.cashier, s.saleBody(s.product, 1, true))
	secondPath := fmt.Sprintf("/api/v1/sales/%d", id(second))
	out = api.expect(http.StatusBadRequest, http.MethodPost, secondPath+"/pay", s.cashier, map[string]interface{}{"payment_method": "cash"})
	if msg := errorMessage(out); msg != "Credit sales are settled by clearing the credit" {
		t.Fatalf("paying a credit sale message = %q", msg)
	}

	secondCredit := s.creditOf(t, id(second))
	api.expect(http.StatusOK, http.MethodPut, fmt.Sprintf("/api/v1/credits/%d", id(secondCredit)), s.admin,
		map[string]interface{}{"status": "cleared", "payment_method": "mpesa"})
	out = api.expect(http.StatusBadRequest, http.MethodPut, secondPath, s.admin, edit)
	if msg := errorMessage(out); msg != "Sale credit has already been cleared" {
		t.Fatalf("editing a cleared sale message = %q", msg)
	}
	out = api.expect(http.StatusBadRequest, http.MethodDelete, fmt.Sprintf("/api/v1/credits/%d", id(secondCredit)), s.admin, nil)
	if msg := errorMessage(out); msg != "Credit is already cleared" {
		t.Fatalf("deleting a cleared credit message = %q", msg)
	}

	if got := s.stock(t); got != 8 {
		t.Fatalf("final stock = %v, want 8", got)
	}
}

func TestRestockAndSupplierPayments(t *testing.T) {
	s := newShop(t)
	api := s.api
	restockPath := fmt.Sprintf("/api/v1/products/%d/restock", s.product)
	supplierPath := fmt.Sprintf("/api/v1/suppliers/%d", s.supplier)

	api.expect(http.StatusForbidden, http.MethodPost, restockPath, s.cashier, map[string]interface{}{"quantity": 3})
	restocked := api.expect(http.StatusOK, http.MethodPost, restockPath, s.admin, map[string]interface{}{
		"quantity": 3, "unit_cost": 10.1, "note": "weekly delivery",
	})
	if restocked["stock"] != float64(13) {
		t.Fatalf("stock after restock = %v, want 13", restocked["stock"])
	}
	supplier := api.expect(http.StatusOK, http.MethodGet, supplierPath, s.admin, nil)
	if supplier["balance"] != 30.3 {
		t.Fatalf("supplier balance after restock = %v, want 30.3", supplier["balance"])
	}

	// Without a unit cost the balance is left alone.
	api.expect(http.StatusOK, http.MethodPost, restockPath, s.admin, map[string]interface{}{"quantity": 2})
	supplier = api.expect(http.StatusOK, http.MethodGet, supplierPath, s.admin, nil)
	if supplier["balance"] != 30.3 {
		t.Fatalf("supplier balance after free restock = %v, want 30.3", supplier["balance"])
	}

	payment := api.expect(http.StatusCreated, http.MethodPost, supplierPath+"/payments", s.admin, map[string]interface{}{"amount": 30})
	if payment["balance_after"] != 0.3 {
		t.Fatalf("balance after first payment = %v, want 0.3", payment["balance_after"])
	}
	payment = api.expect(http.StatusCreated, http.MethodPost, supplierPath+"/payments", s.admin, map[string]interface{}{"amount": 5})
	if payment["balance_after"] != float64(0) {
		t.Fatalf("overpayment balance = %v, want 0", payment["balance_after"])
	}
	supplier = api.expect(http.StatusOK, http.MethodGet, supplierPath, s.admin, nil)
	if supplier["balance"] != float64(0) {
		t.Fatalf("supplier balance = %v, want 0", supplier["balance"])
	}
	api.expect(http.StatusBadRequest, http.MethodPost, supplierPath+"/payments", s.admin, map[string]interface{}{"amount": -1})

	payments := api.expect(http.StatusOK, http.MethodGet, supplierPath+"/payments", s.admin, nil)
	if payments["total"] != float64(2) {
		t.Fatalf("payments = %v", payments)
	}
	beyond := api.expect(http.StatusOK, http.MethodGet, supplierPath+"/payments?page=3", s.admin, nil)
	if data, _ := beyond["data"].([]interface{}); len(data) != 0 || beyond["total"] != float64(2) {
		t.Fatalf("payments past the last page = %v", beyond)
	}
}

func TestEmployeeRules(t *testing.T) {
	s := newShop(t)
	api := s.api

	manager := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/employees", s.admin, map[string]interface{}{
		"name": "Mary Manager", "phone": "+254700000004", "password": "secret4", "role": "manager",
	})
	managerToken := api.formLogin("+254700000004", "secret4")

	// Only the employer appoints managers, and there is only ever one.
	api.expect(http.StatusForbidden, http.MethodPost, "/api/v1/employees", managerToken, map[string]interface{}{
		"name": "Other Manager", "phone": "+254700000005", "password": "secret5", "role": "manager",
	})
	out := api.expect(http.StatusConflict, http.MethodPost, "/api/v1/employees", s.admin, map[string]interface{}{
		"name": "Other Manager", "phone": "+254700000005", "password": "secret5", "role": "manager",
	})
	if msg := errorMessage(out); msg != "Only one employer and one manager may exist" {
		t.Fatalf("second manager message = %q", msg)
	}
	out = api.expect(http.StatusConflict, http.MethodPost, "/api/v1/employees", s.admin, map[string]interface{}{
		"name": "Phone Clash", "phone": "+254700000002", "password": "secret6",
	})
	if msg := errorMessage(out); msg != "Phone number already registered" {
		t.Fatalf("duplicate phone message = %q", msg)
	}

	// The first employer is protected.
	ownerPath := fmt.Sprintf("/api/v1/employees/%d", s.ownerID)
	api.expect(http.StatusForbidden, http.MethodPut, ownerPath, managerToken, map[string]interface{}{"name": "Renamed"})
	for _, change := range []map[string]interface{}{{"role": "employee"}, {"status": "inactive"}} {
		out = api.expect(http.StatusBadRequest, http.MethodPut, ownerPath, s.admin, change)
		if msg := errorMessage(out); msg != "This account is protected" {
			t.Fatalf("protected employer change %v message = %q", change, msg)
		}
	}
	api.expect(http.StatusBadRequest, http.MethodDelete, fmt.Sprintf("/api/v1/employees/%d", id(manager)), s.admin, nil)

	// Employees with sales stay on record.
	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/days/open", s.admin, nil)
	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/sales", s.cashier, s.saleBody(s.product, 1, false))
	out = api.expect(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/v1/employees/%d", s.cashierID), s.admin, nil)
	if msg := errorMessage(out); msg != "Employee has sales or credits and cannot be deleted" {
		t.Fatalf("busy employee delete message = %q", msg)
	}

	idle := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/employees", s.admin, map[string]interface{}{
		"name": "Idle Worker", "phone": "+254700000007", "password": "secret7",
	})
	api.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/employees/%d", id(idle)), managerToken, nil)

	beyond := api.expect(http.StatusOK, http.MethodGet, "/api/v1/employees?page=9", s.admin, nil)
	if data, _ := beyond["data"].([]interface{}); len(data) != 0 || beyond["total"] != float64(3) {
		t.Fatalf("employees past the last page = %v", beyond)
	}
}

func TestCatalogueDeletesWhileInUse(t *testing.T) {
	s := newShop(t)
	api := s.api

	out := api.expect(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", s.category), s.admin, nil)
	if msg := errorMessage(out); msg != "Category has products and cannot be deleted" {
		t.Fatalf("category delete message = %q", msg)
	}
	out = api.expect(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/v1/suppliers/%d", s.supplier), s.admin, nil)
	if msg := errorMessage(out); msg != "Supplier has products and cannot be deleted" {
		t.Fatalf("supplier delete message = %q", msg)
	}

	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/days/open", s.admin, nil)
	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/sales", s.cashier, s.saleBody(s.product, 1, false))
	out = api.expect(http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", s.product), s.admin, nil)
	if msg := errorMessage(out); msg != "Product has been sold and cannot be deleted" {
		t.Fatalf("product delete message = %q", msg)
	}

	unsold := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/products", s.admin, map[string]interface{}{
		"name": "fanta", "sku": "fa-500", "price": 45, "stock": 4,
	})
	api.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", id(unsold)), s.admin, nil)

	snacks := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/categories", s.admin, map[string]interface{}{"name": "Snacks"})
	api.expect(http.StatusOK, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", id(snacks)), s.admin, nil)

	beyond := api.expect(http.StatusOK, http.MethodGet, "/api/v1/categories?page=4", s.cashier, nil)
	if data, _ := beyond["data"].([]interface{}); len(data) != 0 || beyond["total"] != float64(1) {
		t.Fatalf("categories past the last page = %v", beyond)
	}
}

func TestReportTotalsKeepCents(t *testing.T) {
	s := newShop(t)
	api := s.api

	var products []int64
	for i, price := range []float64{0.1, 0.2} {
		product := api.expect(http.StatusCreated, http.MethodPost, "/api/v1/products", s.admin, map[string]interface{}{
			"name": fmt.Sprintf("sweet %d", i+1), "sku": fmt.Sprintf("sw-%d", i+1), "price": price, "stock": 5,
		})
		products = append(products, id(product))
	}

	api.expect(http.StatusCreated, http.MethodPost, "/api/v1/days/open", s.admin, nil)
	for _, productID := range products {
		api.expect(http.StatusCreated, http.MethodPost, "/api/v1/sales", s.cashier, s.saleBody(productID, 1, false))
	}

	report := api.expect(http.StatusOK, http.MethodGet, "/api/v1/reports/daily", s.admin, nil)
	summary, _ := report["sales_summary"].(map[string]interface{})
	if summary["total_sales"] != 0.3 || summary["total_cash"] != 0.3 {
		t.Fatalf("sales summary = %v", summary)
	}
	methods, _ := report["sales_by_payment_method"].([]interface{})
	if len(methods) != 1 {
		t.Fatalf("sales by payment method = %v", methods)
	}
	if cash, _ := methods[0].(map[string]interface{}); cash["total_sales"] != 0.3 {
		t.Fatalf("cash total = %v", cash)
	}

	dashboard := api.expect(http.StatusOK, http.MethodGet, "/api/v1/dashboard/summary", s.admin, nil)
	if dashboard["sales_today"] != 0.3 {
		t.Fatalf("dashboard sales today = %v", dashboard["sales_today"])
	}
}
