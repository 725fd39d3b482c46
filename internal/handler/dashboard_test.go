package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukewell/chorewheel/internal/allowance"
	"github.com/dukewell/chorewheel/internal/auth"
	"github.com/dukewell/chorewheel/internal/database"
	"github.com/dukewell/chorewheel/internal/model"
	"github.com/dukewell/chorewheel/internal/store"
)

type dashFixture struct {
	h     *DashboardHandler
	child *model.User
	admin *model.User
}

// today is a Wednesday; its week runs Monday 2024-03-04 to Sunday 2024-03-10.
var dashToday = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

func newDashFixture(t *testing.T) *dashFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	chores := store.NewChoreStore(db)
	weeks := store.NewWeekStore(db)
	assignments := store.NewAssignmentStore(db)
	logs := store.NewChoreLogStore(db)
	payments := store.NewPaymentStore(db)

	svc := allowance.NewService(users, chores, weeks, assignments, logs, payments, discardLogger())

	child, err := users.Create("Isla", nil, false, decimal.NewFromFloat(3))
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	email := "mum@example.com"
	admin, err := users.Create("Mum", &email, true, decimal.Zero)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	h := NewDashboardHandler(svc, chores, assignments, discardLogger())
	h.now = func() time.Time { return dashToday }
	return &dashFixture{h: h, child: child, admin: admin}
}

func authedRequest(as *model.User, method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{
		UserID: as.ID, Name: as.Name, IsAdmin: as.IsAdmin,
	})
	return req.WithContext(ctx)
}

func TestWeekMaterializesGrid(t *testing.T) {
	f := newDashFixture(t)

	rec := httptest.NewRecorder()
	f.h.Week(rec, authedRequest(f.child, "GET", "/api/dashboard/week", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp weekResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StartDate != "2024-03-04" || resp.EndDate != "2024-03-10" {
		t.Errorf("week = %s..%s, want 2024-03-04..2024-03-10", resp.StartDate, resp.EndDate)
	}
	if len(resp.Days) != 7 {
		t.Errorf("days = %d, want 7", len(resp.Days))
	}
	// The seed migration ships 7 apply-to-all presets.
	if len(resp.Chores) != 7 {
		t.Errorf("chores = %d, want 7 seeded presets", len(resp.Chores))
	}
	if resp.Locked {
		t.Error("fresh week should not be locked")
	}
	if resp.Teeth.Target != 14 {
		t.Errorf("teeth target = %d, want 14", resp.Teeth.Target)
	}
	for _, row := range resp.Chores {
		if len(row.Days) != 7 {
			t.Errorf("chore %q has %d day cells, want 7", row.Name, len(row.Days))
		}
	}
}

func TestToggleThroughHandler(t *testing.T) {
	f := newDashFixture(t)

	// Materialize the week first.
	rec := httptest.NewRecorder()
	f.h.Week(rec, authedRequest(f.child, "GET", "/api/dashboard/week", ""))
	var grid weekResponse
	json.NewDecoder(rec.Body).Decode(&grid)
	if len(grid.Chores) == 0 {
		t.Fatal("no chores in grid")
	}
	choreID := grid.Chores[0].ChoreID

	body := `{"chore_id":` + jsonID(choreID) + `,"date":"2024-03-06","slot":1}`
	rec = httptest.NewRecorder()
	f.h.Toggle(rec, authedRequest(f.child, "POST", "/api/dashboard/toggle", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["completed"] != true {
		t.Errorf("completed = %v, want true", resp["completed"])
	}

	// Toggle again undoes it.
	rec = httptest.NewRecorder()
	f.h.Toggle(rec, authedRequest(f.child, "POST", "/api/dashboard/toggle", body))
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["completed"] != false {
		t.Errorf("second toggle completed = %v, want false", resp["completed"])
	}
}

func TestChildCannotViewOtherUser(t *testing.T) {
	f := newDashFixture(t)

	target := "/api/dashboard/week?user_id=" + jsonID(f.admin.ID)
	rec := httptest.NewRecorder()
	f.h.Week(rec, authedRequest(f.child, "GET", target, ""))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestAdminCanViewChild(t *testing.T) {
	f := newDashFixture(t)

	target := "/api/dashboard/week?user_id=" + jsonID(f.child.ID)
	rec := httptest.NewRecorder()
	f.h.Week(rec, authedRequest(f.admin, "GET", target, ""))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestAdHocLifecycleThroughHandler(t *testing.T) {
	f := newDashFixture(t)

	body := `{"name":"Wash Car","amount":"2.00","date":"2024-03-06"}`
	rec := httptest.NewRecorder()
	f.h.AddAdHoc(rec, authedRequest(f.child, "POST", "/api/dashboard/ad-hoc", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var a model.ChoreAssignment
	json.NewDecoder(rec.Body).Decode(&a)
	if a.CustomName == nil || *a.CustomName != "Wash Car" {
		t.Errorf("custom name = %v, want Wash Car", a.CustomName)
	}

	rec = httptest.NewRecorder()
	req := authedRequest(f.child, "DELETE", "/api/assignments/"+jsonID(a.ID), "")
	req.SetPathValue("id", jsonID(a.ID))
	f.h.RemoveAssignment(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
}
