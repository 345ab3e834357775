package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/mealplanner/pkg/auth"
	"github.com/ghuser/mealplanner/pkg/logger"
	"github.com/ghuser/mealplanner/services/shopping/application/handlers"
	appsvcs "github.com/ghuser/mealplanner/services/shopping/application/services"
	shoppingdomain "github.com/ghuser/mealplanner/services/shopping/domain"
	"github.com/ghuser/mealplanner/services/shopping/domain/models"
)

// stubStore serves one plan with a single recipe and keeps lists in memory.
type stubStore struct {
	mu        sync.Mutex
	owner     uuid.UUID
	plan      uuid.UUID
	recipe    uuid.UUID
	lists     map[uuid.UUID]*models.ShoppingList
	fetchErr  error
	insertErr error
}

func newStubStore() *stubStore {
	return &stubStore{plan: uuid.New(), recipe: uuid.New(), lists: make(map[uuid.UUID]*models.ShoppingList)}
}

func (s *stubStore) ListEntries(_ context.Context, ownerID, planID uuid.UUID, _ models.DateRange) ([]models.MealPlanEntry, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if planID != s.plan || ownerID != s.owner {
		return nil, shoppingdomain.ErrMealPlanNotFound
	}
	return []models.MealPlanEntry{{
		ID:         uuid.New(),
		MealPlanID: planID,
		RecipeID:   uuid.NullUUID{UUID: s.recipe, Valid: true},
		MealDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		MealType:   models.MealTypeDinner,
		Servings:   2,
	}}, nil
}

func (s *stubStore) ListIngredients(context.Context, uuid.UUID) ([]models.RecipeIngredient, error) {
	rice, egg := 100.0, 2.0
	return []models.RecipeIngredient{
		{Name: "Rice", Quantity: &rice, Unit: "g"},
		{Name: "Egg", Quantity: &egg, Unit: "pcs"},
	}, nil
}

func (s *stubStore) CreateShoppingList(_ context.Context, ownerID, planID uuid.UUID, name string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.lists[id] = &models.ShoppingList{ID: id, OwnerID: ownerID, MealPlanID: uuid.NullUUID{UUID: planID, Valid: true}, Name: name}
	return id, nil
}

func (s *stubStore) InsertShoppingListItems(_ context.Context, _, listID uuid.UUID, items []models.AggregatedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, it := range items {
		s.lists[listID].Items = append(s.lists[listID].Items, models.ShoppingListItem{
			ID: uuid.New(), ShoppingListID: listID, ProductName: it.ProductName, Quantity: it.Quantity, Unit: it.Unit,
		})
	}
	return nil
}

func (s *stubStore) GetByID(_ context.Context, ownerID, listID uuid.UUID) (*models.ShoppingList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok || l.OwnerID != ownerID {
		return nil, shoppingdomain.ErrShoppingListNotFound
	}
	return l, nil
}

func (s *stubStore) SetItemPurchased(_ context.Context, ownerID, listID, itemID uuid.UUID, purchased bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lists[listID]; ok && l.OwnerID == ownerID {
		for i := range l.Items {
			if l.Items[i].ID == itemID {
				l.Items[i].Purchased = purchased
				return nil
			}
		}
	}
	return shoppingdomain.ErrShoppingListItemNotFound
}

func (s *stubStore) Delete(_ context.Context, ownerID, listID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lists[listID]; !ok || l.OwnerID != ownerID {
		return shoppingdomain.ErrShoppingListNotFound
	}
	delete(s.lists, listID)
	return nil
}

type stubStarter struct {
	err     error
	ownerID uuid.UUID
}

func (s *stubStarter) StartGeneration(_ context.Context, ownerID, _ uuid.UUID, _, _ string) (string, string, error) {
	s.ownerID = ownerID
	if s.err != nil {
		return "", "", s.err
	}
	return "shopping-list-wf", "run-1", nil
}

type testServer struct {
	router http.Handler
	store  *stubStore
	user   uuid.UUID
}

func newTestServer(t *testing.T, async handlers.AsyncGenerator) *testServer {
	t.Helper()
	store := newStubStore()
	svc := appsvcs.NewShoppingListService(store, auth.ContextUser{}, nil, logger.NewWithWriter(io.Discard, "error"))
	r := chi.NewRouter()
	Mount(r, &appsvcs.Services{ShoppingList: svc}, async)
	user := uuid.New()
	store.owner = user
	return &testServer{router: r, store: store, user: user}
}

// do sends a request; a nil user sends it unauthenticated.
func (ts *testServer) do(t *testing.T, method, path string, body any, user *uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(auth.WithUserID(req.Context(), *user))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func week() map[string]string {
	return map[string]string{"start_date": "2024-01-01", "end_date": "2024-01-07"}
}

func TestPostShoppingList_Created(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/meal-plans/"+ts.store.plan.String()+"/shopping-lists", week(), &ts.user)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp handlers.GenerateShoppingListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ItemCount != 2 || resp.ListID == uuid.Nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPostShoppingList_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       func(ts *testServer) string
		body       any
		anonymous  bool
		setup      func(s *stubStore)
		wantStatus int
	}{
		{
			name:       "unauthenticated",
			body:       week(),
			anonymous:  true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bad meal plan id",
			path:       func(*testServer) string { return "/meal-plans/not-a-uuid/shopping-lists" },
			body:       week(),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing dates",
			body:       map[string]string{},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed date",
			body:       map[string]string{"start_date": "01/01/2024", "end_date": "2024-01-07"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "inverted range",
			body:       map[string]string{"start_date": "2024-01-07", "end_date": "2024-01-01"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "store unavailable",
			body:       week(),
			setup:      func(s *stubStore) { s.fetchErr = errors.New("connection refused") },
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unknown meal plan",
			body:       week(),
			path:       func(*testServer) string { return "/meal-plans/" + uuid.New().String() + "/shopping-lists" },
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "meal plan of another user",
			body:       week(),
			setup:      func(s *stubStore) { s.owner = uuid.New() },
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "items not written",
			body:       week(),
			setup:      func(s *stubStore) { s.insertErr = errors.New("disk full") },
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			if tt.setup != nil {
				tt.setup(ts.store)
			}
			path := "/meal-plans/" + ts.store.plan.String() + "/shopping-lists"
			if tt.path != nil {
				path = tt.path(ts)
			}
			user := &ts.user
			if tt.anonymous {
				user = nil
			}
			w := ts.do(t, http.MethodPost, path, tt.body, user)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestPostShoppingList_PartialWriteReportsListID(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.store.insertErr = errors.New("disk full")

	w := ts.do(t, http.MethodPost, "/meal-plans/"+ts.store.plan.String()+"/shopping-lists", week(), &ts.user)
	var resp handlers.PartialWriteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := ts.store.lists[resp.ListID]; !ok {
		t.Fatalf("response list_id %v does not name the orphaned list", resp.ListID)
	}
	if resp.Error != "write failure" {
		t.Errorf("error: got %q, want the bare write failure", resp.Error)
	}
}

func TestShoppingListLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/meal-plans/"+ts.store.plan.String()+"/shopping-lists", week(), &ts.user)
	var created handlers.GenerateShoppingListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	listPath := "/shopping-lists/" + created.ListID.String()

	w = ts.do(t, http.MethodGet, listPath, nil, &ts.user)
	if w.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", w.Code)
	}
	var list handlers.ShoppingListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list.Items))
	}
	if list.MealPlanID == nil || *list.MealPlanID != ts.store.plan {
		t.Fatalf("meal_plan_id: got %v", list.MealPlanID)
	}

	other := uuid.New()
	if w := ts.do(t, http.MethodGet, listPath, nil, &other); w.Code != http.StatusNotFound {
		t.Fatalf("GET as other user: expected 404, got %d", w.Code)
	}

	itemPath := listPath + "/items/" + list.Items[0].ID.String()
	if w := ts.do(t, http.MethodPatch, itemPath, map[string]bool{"purchased": true}, &ts.user); w.Code != http.StatusNoContent {
		t.Fatalf("PATCH: expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if !ts.store.lists[created.ListID].Items[0].Purchased {
		t.Fatal("item not marked purchased")
	}
	if w := ts.do(t, http.MethodPatch, itemPath, map[string]string{}, &ts.user); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("PATCH without purchased: expected 422, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPatch, listPath+"/items/"+uuid.NewString(), map[string]bool{"purchased": true}, &ts.user); w.Code != http.StatusNotFound {
		t.Fatalf("PATCH unknown item: expected 404, got %d", w.Code)
	}

	if w := ts.do(t, http.MethodDelete, listPath, nil, &ts.user); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected 204, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, listPath, nil, &ts.user); w.Code != http.StatusNotFound {
		t.Fatalf("GET after delete: expected 404, got %d", w.Code)
	}
}

func TestAsyncRoute(t *testing.T) {
	t.Run("not mounted without a starter", func(t *testing.T) {
		ts := newTestServer(t, nil)
		w := ts.do(t, http.MethodPost, "/meal-plans/"+ts.store.plan.String()+"/shopping-lists/async", week(), &ts.user)
		if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected route to be absent, got %d", w.Code)
		}
	})

	t.Run("accepted", func(t *testing.T) {
		starter := &stubStarter{}
		ts := newTestServer(t, starter)
		w := ts.do(t, http.MethodPost, "/meal-plans/"+ts.store.plan.String()+"/shopping-lists/async", week(), &ts.user)
		if w.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
		}
		var resp handlers.GenerationAcceptedResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.WorkflowID != "shopping-list-wf" || resp.RunID != "run-1" {
			t.Fatalf("unexpected response %+v", resp)
		}
		if starter.ownerID != ts.user {
			t.Fatalf("workflow owner: got %v, want %v", starter.ownerID, ts.user)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		ts := newTestServer(t, &stubStarter{})
		w := ts.do(t, http.MethodPost, "/meal-plans/"+ts.store.plan.String()+"/shopping-lists/async", week(), nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("scheduler unavailable", func(t *testing.T) {
		ts := newTestServer(t, &stubStarter{err: errors.New("temporal down")})
		w := ts.do(t, http.MethodPost, "/meal-plans/"+ts.store.plan.String()+"/shopping-lists/async", week(), &ts.user)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
	})
}
