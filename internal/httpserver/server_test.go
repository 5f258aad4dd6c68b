package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/orbitdine/internal/broadcast"
	"github.com/Skotchmaster/orbitdine/internal/cart"
	"github.com/Skotchmaster/orbitdine/internal/models"
	"github.com/Skotchmaster/orbitdine/internal/repo"
	"github.com/Skotchmaster/orbitdine/internal/service"
	"github.com/Skotchmaster/orbitdine/internal/transport"
	"github.com/Skotchmaster/orbitdine/pkg/db"
	"github.com/Skotchmaster/orbitdine/pkg/hash"
	middleware "github.com/Skotchmaster/orbitdine/pkg/middleware/auth"
	"github.com/Skotchmaster/orbitdine/pkg/tokens"
)

type testServer struct {
	e     *echo.Echo
	repo  *repo.GormRepo
	hub   *broadcast.Hub
	codec *tokens.Codec
	redis *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(ctx, gdb))
	r := &repo.GormRepo{DB: gdb}

	mr := miniredis.RunT(t)
	store := cart.NewRedisStore("redis://"+mr.Addr(), 0)
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { _ = store.Close() })

	legacy, err := hash.LegacyHash("floor-pass", "")
	require.NoError(t, err)
	require.NoError(t, r.CreateUser(ctx, &models.User{Username: "maria", PasswordHash: legacy, Role: models.RoleManager}))

	hub := broadcast.NewHub(16, nil)
	codec := tokens.NewCodec([]byte("test-jwt-secret"), 0)
	cartSvc := &service.CartService{Store: store}

	e := echo.New()
	Register(e, &Deps{
		OrderHandler:    &OrderHTTP{Svc: &service.OrderService{Store: r, Notifier: hub}, Cart: cartSvc},
		CartHandler:     &CartHTTP{Svc: cartSvc},
		AuthHandler:     &AuthHTTP{Svc: &service.AuthService{Users: r, Tokens: codec}},
		RealtimeHandler: NewRealtimeHTTP(hub, nil),
		Gate:            middleware.NewRoleGate(codec),
		Ready:           func(ctx context.Context) error { return store.Ping(ctx) },
	})

	return &testServer{e: e, repo: r, hub: hub, codec: codec, redis: mr}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	tok, _, err := s.codec.IssueDefault(tokens.Subject{ID: "1", Role: role, Username: "maria"})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func bearer(tok string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + tok}
}

func orderBody(table uint) map[string]any {
	return map[string]any{
		"tableId":      table,
		"customerName": "Ann",
		"total":        847,
		"items": []map[string]any{
			{"id": 2, "quantity": 2, "price": 349, "notes": "no onion"},
			{"id": 5, "quantity": 1, "price": 149},
		},
	}
}

func createOrder(t *testing.T, s *testServer, table uint) uint {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/orders", orderBody(table), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res transport.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	return res.OrderID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", nil, nil).Code)

	s.redis.Close()
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/health/ready", nil, nil).Code)
}

func TestCreateOrder_PersistsAndBroadcasts(t *testing.T) {
	s := newTestServer(t)
	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	id := createOrder(t, s, 3)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "new_order", ev.Kind.WireName())
		detail, ok := ev.Payload.(models.OrderDetail)
		require.True(t, ok)
		assert.Equal(t, id, detail.ID)
		assert.Len(t, detail.Items, 2)
	case <-time.After(time.Second):
		t.Fatal("no new_order event")
	}

	rec := s.do(t, http.MethodGet, "/api/orders/"+itoa(id), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.OrderDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusNew, got.Status)
	assert.Equal(t, "Ann", got.CustomerName)
	assert.Equal(t, 3, got.TableNumber)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Legendary Burger", got.Items[0].Name)

	table, err := s.repo.GetTable(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, table.Status)
}

func TestCreateOrder_Geofence(t *testing.T) {
	s := newTestServer(t)

	body := orderBody(2)
	body["geofence"] = map[string]any{"enabled": true, "distanceMeters": 500, "allowedMeters": 250}
	rec := s.do(t, http.MethodPost, "/api/orders", body, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body["geofence"] = map[string]any{"enabled": true, "distanceMeters": 100, "allowedMeters": 250}
	rec = s.do(t, http.MethodPost, "/api/orders", body, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateOrder_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{name: "empty items", body: map[string]any{"tableId": 1, "items": []any{}}, status: http.StatusBadRequest},
		{name: "wrong total", body: func() map[string]any { b := orderBody(1); b["total"] = 1; return b }(), status: http.StatusBadRequest},
		{name: "unknown table", body: orderBody(99), status: http.StatusNotFound},
		{name: "not json", body: "nope", status: http.StatusBadRequest},
		{name: "total overflows", body: map[string]any{
			"tableId": 1,
			"items":   []map[string]any{{"id": 1, "quantity": 2, "price": int64(5_000_000_000_000_000_000)}},
		}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/orders", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestUpdateStatus_RoleGating(t *testing.T) {
	s := newTestServer(t)
	id := createOrder(t, s, 1)
	path := "/api/orders/" + itoa(id) + "/status"
	body := map[string]string{"status": "preparing"}

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, path, body, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, path, body, bearer(s.token(t, "customer"))).Code)

	rec := s.do(t, http.MethodPost, path, body, bearer(s.token(t, "manager")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res transport.UpdateStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Changed)
	assert.Equal(t, "preparing", res.Status)

	rec = s.do(t, http.MethodPost, path, body, bearer(s.token(t, "owner")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Changed)

	rec = s.do(t, http.MethodPost, path, map[string]string{"status": "new"}, bearer(s.token(t, "owner")))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, path, map[string]string{"status": "flambe"}, bearer(s.token(t, "owner")))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/orders/9999/status", body, bearer(s.token(t, "owner")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompletingLastOrderFreesTable(t *testing.T) {
	s := newTestServer(t)
	id := createOrder(t, s, 8)

	rec := s.do(t, http.MethodPost, "/api/orders/"+itoa(id)+"/status", map[string]string{"status": "completed"}, bearer(s.token(t, "manager")))
	require.Equal(t, http.StatusOK, rec.Code)

	table, err := s.repo.GetTable(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)

	rec = s.do(t, http.MethodGet, "/api/orders/active", nil, bearer(s.token(t, "manager")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestActiveOrdersAndPrint(t *testing.T) {
	s := newTestServer(t)
	a := createOrder(t, s, 1)
	b := createOrder(t, s, 2)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/orders/active", nil, nil).Code)

	rec := s.do(t, http.MethodGet, "/api/orders/active", nil, bearer(s.token(t, "owner")))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.OrderDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, b, list[0].ID)
	assert.Equal(t, a, list[1].ID)

	rec = s.do(t, http.MethodGet, "/api/orders/"+itoa(a)+"/print", nil, bearer(s.token(t, "manager")))
	require.Equal(t, http.StatusOK, rec.Code)
	var printed PrintResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &printed))
	assert.Equal(t, a, printed.ID)
	assert.Contains(t, printed.Ticket, "2 x Legendary Burger")
	assert.Contains(t, printed.Ticket, "* no onion")
	assert.Contains(t, printed.Ticket, "8.47")
}

func TestCartEndpoints(t *testing.T) {
	s := newTestServer(t)
	sess := map[string]string{HeaderSessionID: "sess-42"}

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/cart/3", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/cart/abc", nil, sess).Code)

	rec := s.do(t, http.MethodGet, "/api/cart/3", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	put := map[string]any{"items": []map[string]any{{"id": 2, "name": "Legendary Burger", "price": 349, "quantity": 1}}}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/cart/3", put, sess).Code)

	rec = s.do(t, http.MethodPost, "/api/cart/3/items", map[string]any{"id": 2, "name": "Legendary Burger", "price": 349, "quantity": 2}, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	var res transport.CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.Items[0].Quantity)

	rec = s.do(t, http.MethodPatch, "/api/cart/3/items/2", map[string]int{"delta": -3}, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Empty(t, res.Items)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/cart/3/items/2", nil, sess).Code)
	rec = s.do(t, http.MethodPost, "/api/cart/3/items", map[string]any{"id": 5, "name": "Nebula Mojito", "price": 149}, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/cart/3/items/5", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/cart/3", nil, map[string]string{HeaderSessionID: "someone-else"})
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/cart/3", nil, sess).Code)
}

func TestCreateOrder_ClearsCallersCart(t *testing.T) {
	s := newTestServer(t)
	sess := map[string]string{HeaderSessionID: "sess-7"}

	put := map[string]any{"items": []map[string]any{{"id": 5, "name": "Nebula Mojito", "price": 149, "quantity": 1}}}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/cart/4", put, sess).Code)

	rec := s.do(t, http.MethodPost, "/api/orders", orderBody(4), sess)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.False(t, s.redis.Exists(cart.Key("sess-7", 4)))
}

func TestCart_StoreDown(t *testing.T) {
	s := newTestServer(t)
	s.redis.Close()

	rec := s.do(t, http.MethodGet, "/api/cart/3", nil, map[string]string{HeaderSessionID: "s"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestTableRequest(t *testing.T) {
	s := newTestServer(t)
	sub := s.hub.Subscribe(6)
	defer s.hub.Unsubscribe(sub)

	rec := s.do(t, http.MethodPost, "/api/tables/6/request", map[string]string{"type": "bill"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	table, err := s.repo.GetTable(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, models.TableBillRequested, table.Status)

	ev := <-sub.Events()
	assert.Equal(t, broadcast.TableRequestPayload{TableID: 6, Type: "bill"}, ev.Payload)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/tables/6/request", map[string]string{"type": "karaoke"}, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/tables/60/request", map[string]string{"type": "bill"}, nil).Code)

	ghost := s.hub.Subscribe(60)
	defer s.hub.Unsubscribe(ghost)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/tables/60/request", map[string]string{"type": "help"}, nil).Code)
	select {
	case ev := <-ghost.Events():
		t.Fatalf("unexpected event for unknown table: %v", ev.Kind)
	default:
	}
}

func TestMenuAndTables(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/menu", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var menu []models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	assert.Len(t, menu, 4)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/tables", nil, nil).Code)
	rec = s.do(t, http.MethodGet, "/api/tables", nil, bearer(s.token(t, "manager")))
	require.Equal(t, http.StatusOK, rec.Code)
	var tables []models.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tables))
	assert.Len(t, tables, 10)
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "maria", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "maria"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "maria", "password": "floor-pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "manager", res.User.Role)
	assert.True(t, strings.Contains(rec.Header().Get("Set-Cookie"), middleware.AccessCookie+"="))

	rec = s.do(t, http.MethodGet, "/api/auth/me", nil, bearer(res.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"maria"`)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
