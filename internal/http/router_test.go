package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/newsletter"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/preference"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-secret"

type testServer struct {
	router http.Handler
	store  *storage.Memory
}

func newTestServer(t *testing.T, backendURL string) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemory()

	cat, err := catalog.Default()
	require.NoError(t, err)

	carts := cart.NewManager(store, logger)
	history := order.NewKVHistory(store, logger)
	sessions := checkout.NewSessions(carts, history, checkout.SimulatedProcessor{}, nil, "/login", logger)

	client, err := newsletter.NewClient(backendURL, &http.Client{}, adminToken, store, logger)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Logger:      logger,
		Cfg:         config.Config{CORSAllowOrigins: []string{"*"}, AdminToken: adminToken},
		Catalog:     cat,
		Carts:       carts,
		Checkout:    sessions,
		Orders:      history,
		Newsletter:  client,
		Preferences: preference.NewStore(store, logger),
	})
	return &testServer{router: router, store: store}
}

type call struct {
	method  string
	path    string
	body    any
	session string
	user    string
	token   string
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.session != "" {
		req.Header.Set(middleware.HeaderSessionID, c.session)
	}
	if c.user != "" {
		req.Header.Set(middleware.HeaderUserID, c.user)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func validShipping() order.Shipping {
	return order.Shipping{
		Name:    "Amina Wanjiru",
		Email:   "amina@example.com",
		Phone:   "+254 712 345 678",
		Address: "12 Moi Avenue",
		County:  "Nairobi",
		Town:    "Nairobi",
	}
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(t, "")
	rr := s.do(t, call{method: http.MethodGet, path: "/health"})

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]string](t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rr.Header().Get(middleware.HeaderCorrelationID))
	assert.NotEmpty(t, rr.Header().Get(middleware.HeaderSessionID))
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantTotal int
		wantFirst string
		wantPage  int
	}{
		{name: "default first page", query: "", wantCode: http.StatusOK, wantTotal: 21, wantFirst: "bs1", wantPage: 1},
		{name: "benefit sorted by price", query: "?benefit=immune&sort=price-asc", wantCode: http.StatusOK, wantTotal: 6, wantFirst: "hs3", wantPage: 1},
		{name: "page clamps to last", query: "?page=99", wantCode: http.StatusOK, wantTotal: 21, wantPage: 3},
		{name: "contradictory bracket is empty", query: "?price=3000-1000", wantCode: http.StatusOK, wantTotal: 0, wantPage: 1},
		{name: "unknown sort key", query: "?sort=cheapest", wantCode: http.StatusBadRequest},
		{name: "bad page", query: "?page=two", wantCode: http.StatusBadRequest},
		{name: "page size is fixed", query: "?pageSize=50", wantCode: http.StatusOK, wantTotal: 21, wantFirst: "bs1", wantPage: 1},
		{name: "page size cannot shrink", query: "?pageSize=1&page=3", wantCode: http.StatusOK, wantTotal: 21, wantPage: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, call{method: http.MethodGet, path: "/api/products" + tt.query})
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			page := decode[productPage](t, rr)
			assert.Equal(t, tt.wantTotal, page.TotalItems)
			assert.Equal(t, tt.wantPage, page.Page.Page)
			assert.Equal(t, catalog.DefaultPageSize, page.PageSize)
			assert.Equal(t, catalog.DefaultPageSize, page.Criteria.PageSize)
			if tt.wantTotal > 0 {
				assert.Len(t, page.Items, min(catalog.DefaultPageSize, tt.wantTotal-(tt.wantPage-1)*catalog.DefaultPageSize))
			}
			if tt.wantFirst != "" {
				require.NotEmpty(t, page.Items)
				assert.Equal(t, tt.wantFirst, page.Items[0].ID)
			}
		})
	}
}

func TestListProducts_FilterChangeResetsPage(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name     string
		session  string
		query    string
		wantPage int
	}{
		{name: "first view keeps page", session: "browse-session", query: "?page=2", wantPage: 2},
		{name: "new sort starts over", session: "browse-session", query: "?sort=price-asc&page=2", wantPage: 1},
		{name: "same filters page on", session: "browse-session", query: "?sort=price-asc&page=2", wantPage: 2},
		{name: "new category starts over", session: "browse-session", query: "?sort=price-asc&category=supplements&page=2", wantPage: 1},
		{name: "other session unaffected", session: "other-browser", query: "?sort=price-desc&page=3", wantPage: 3},
		{name: "anonymous request is stateless", query: "?sort=rating&page=2", wantPage: 2},
		{name: "anonymous again", query: "?sort=newest&page=2", wantPage: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, call{method: http.MethodGet, path: "/api/products" + tt.query, session: tt.session})
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			page := decode[productPage](t, rr)
			assert.Equal(t, tt.wantPage, page.Page.Page)
			assert.Equal(t, tt.wantPage, page.Criteria.Page)
		})
	}
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t, "")

	rr := s.do(t, call{method: http.MethodGet, path: "/api/products/bs1"})
	require.Equal(t, http.StatusOK, rr.Code)
	p := decode[catalog.Product](t, rr)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(1299)))

	rr = s.do(t, call{method: http.MethodGet, path: "/api/products/nope"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFilters(t *testing.T) {
	s := newTestServer(t, "")
	rr := s.do(t, call{method: http.MethodGet, path: "/api/filters"})
	require.Equal(t, http.StatusOK, rr.Code)

	f := decode[filtersResponse](t, rr)
	assert.Len(t, f.Categories, 5)
	assert.Contains(t, f.Benefits, "Immune Support")
	assert.Equal(t, catalog.DefaultPageSize, f.PageSize)
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t, "")
	sid := "cart-session"

	for range 2 {
		rr := s.do(t, call{method: http.MethodPost, path: "/api/cart/items", body: addItemRequest{ProductID: "bs1"}, session: sid})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
	rr := s.do(t, call{method: http.MethodPost, path: "/api/cart/items", body: addItemRequest{ProductID: "eo1"}, session: sid})
	require.Equal(t, http.StatusOK, rr.Code)

	view := decode[cartResponse](t, s.do(t, call{method: http.MethodGet, path: "/api/cart", session: sid}))
	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.Count)

	qty := 0
	rr = s.do(t, call{method: http.MethodPut, path: "/api/cart/items/eo1", body: quantityRequest{Quantity: &qty}, session: sid})
	require.Equal(t, http.StatusOK, rr.Code)
	view = decode[cartResponse](t, rr)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(2598)), view.Total.String())

	rr = s.do(t, call{method: http.MethodDelete, path: "/api/cart/items/bs1", session: sid})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[cartResponse](t, rr).Items)

	other := decode[cartResponse](t, s.do(t, call{method: http.MethodGet, path: "/api/cart", session: "someone-else"}))
	assert.Empty(t, other.Items)
}

func TestAddCartItemErrors(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "unknown product", body: addItemRequest{ProductID: "missing"}, want: http.StatusNotFound},
		{name: "out of stock", body: addItemRequest{ProductID: "hs4"}, want: http.StatusConflict},
		{name: "missing id", body: addItemRequest{}, want: http.StatusBadRequest},
		{name: "malformed body", body: "not an object", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, call{method: http.MethodPost, path: "/api/cart/items", body: tt.body, session: "s1"})
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t, "")
	sid := "checkout-session"
	user := "user-42"

	for range 2 {
		require.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodPost, path: "/api/cart/items", body: addItemRequest{ProductID: "bs1"}, session: sid}).Code)
	}

	rr := s.do(t, call{method: http.MethodPost, path: "/api/checkout", session: sid})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, checkout.StepShipping, decode[checkout.State](t, rr).Step)

	rr = s.do(t, call{method: http.MethodPut, path: "/api/checkout/shipping", body: validShipping(), session: sid})
	require.Equal(t, http.StatusOK, rr.Code)

	// Anonymous shoppers are sent to login and come back to the same step.
	rr = s.do(t, call{method: http.MethodPost, path: "/api/checkout/next", session: sid})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	login := decode[loginResponse](t, rr)
	assert.Equal(t, "/login?returnTo=%2Fcheckout", login.LoginURL)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/checkout", session: sid})
	st := decode[checkout.State](t, rr)
	assert.Equal(t, checkout.StepShipping, st.Step)
	assert.True(t, st.ResumeAfterLogin)

	rr = s.do(t, call{method: http.MethodPost, path: "/api/checkout/next", session: sid, user: user})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, checkout.StepReview, decode[checkout.State](t, rr).Step)

	rr = s.do(t, call{method: http.MethodPost, path: "/api/checkout/next", session: sid, user: user})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, checkout.StepPayment, decode[checkout.State](t, rr).Step)

	rr = s.do(t, call{method: http.MethodPut, path: "/api/checkout/payment-method", body: paymentMethodRequest{PaymentMethod: "mobile-money"}, session: sid})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, call{method: http.MethodPost, path: "/api/checkout/confirm", session: sid, user: user})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	first := decode[confirmResponse](t, rr)
	assert.True(t, first.Order.Total.Equal(decimal.NewFromInt(2598)))
	assert.Equal(t, checkout.StepCompleted, first.State.Step)
	assert.Equal(t, order.PaymentMobileMoney, first.Order.PaymentMethod)

	rr = s.do(t, call{method: http.MethodPost, path: "/api/checkout/confirm", session: sid, user: user})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, first.Order.ID, decode[confirmResponse](t, rr).Order.ID)

	view := decode[cartResponse](t, s.do(t, call{method: http.MethodGet, path: "/api/cart", session: sid}))
	assert.Empty(t, view.Items)

	orders := decode[[]order.Order](t, s.do(t, call{method: http.MethodGet, path: "/api/orders", session: sid}))
	require.Len(t, orders, 1)
	assert.Equal(t, first.Order.ID, orders[0].ID)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/orders/" + first.Order.ID, session: sid})
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = s.do(t, call{method: http.MethodGet, path: "/api/orders/" + first.Order.ID, session: "other"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/admin/stats", token: adminToken})
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[order.Stats](t, rr)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, 2, stats.ItemsSold)
}

// placeOrder walks a signed-in shopper through the whole wizard.
func (s *testServer) placeOrder(t *testing.T, sid, user, productID string) order.Order {
	t.Helper()
	require.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodPost, path: "/api/cart/items", body: addItemRequest{ProductID: productID}, session: sid}).Code)
	require.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodPut, path: "/api/checkout/shipping", body: validShipping(), session: sid}).Code)
	for range 2 {
		rr := s.do(t, call{method: http.MethodPost, path: "/api/checkout/next", session: sid, user: user})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
	rr := s.do(t, call{method: http.MethodPost, path: "/api/checkout/confirm", session: sid, user: user})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[confirmResponse](t, rr).Order
}

func TestOrdersNotVisibleAcrossSessions(t *testing.T) {
	s := newTestServer(t, "")
	placed := s.placeOrder(t, "victim-session", "victim", "bs1")

	for _, sid := range []string{"all", "ledger", "orders-ledger", "victim"} {
		t.Run(sid, func(t *testing.T) {
			rr := s.do(t, call{method: http.MethodGet, path: "/api/orders", session: sid})
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, decode[[]order.Order](t, rr))

			rr = s.do(t, call{method: http.MethodGet, path: "/api/orders/" + placed.ID, session: sid})
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}

	// A session named "all" checking out must not overwrite the store-wide ledger.
	s.placeOrder(t, "all", "attacker", "eo1")

	rr := s.do(t, call{method: http.MethodGet, path: "/api/admin/stats", token: adminToken})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, decode[order.Stats](t, rr).Orders)

	mine := decode[[]order.Order](t, s.do(t, call{method: http.MethodGet, path: "/api/orders", session: "all"}))
	require.Len(t, mine, 1)
	assert.NotEqual(t, placed.ID, mine[0].ID)
}

func TestCheckoutValidationErrors(t *testing.T) {
	s := newTestServer(t, "")
	sid := "invalid-session"
	require.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodPost, path: "/api/cart/items", body: addItemRequest{ProductID: "bs1"}, session: sid}).Code)

	ship := validShipping()
	ship.Email = "not-an-email"
	ship.Town = ""
	require.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodPut, path: "/api/checkout/shipping", body: ship, session: sid}).Code)

	rr := s.do(t, call{method: http.MethodPost, path: "/api/checkout/next", session: sid, user: "u1"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decode[validationResponse](t, rr)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "town")

	view := decode[cartResponse](t, s.do(t, call{method: http.MethodGet, path: "/api/cart", session: sid}))
	assert.Len(t, view.Items, 1)

	rr = s.do(t, call{method: http.MethodPost, path: "/api/checkout/confirm", session: sid, user: "u1"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, call{method: http.MethodPut, path: "/api/checkout/payment-method", body: paymentMethodRequest{PaymentMethod: "cheque"}, session: sid})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := newTestServer(t, "")
	sid := "empty-session"
	require.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodPut, path: "/api/checkout/shipping", body: validShipping(), session: sid}).Code)

	rr := s.do(t, call{method: http.MethodPost, path: "/api/checkout/next", session: sid, user: "u1"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, "")

	rr := s.do(t, call{method: http.MethodGet, path: "/api/admin/stats"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/admin/stats", token: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/admin/stats", token: adminToken})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[order.Stats](t, rr).Orders)
}

func TestNewsletterRoutes(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/newsletter/subscribe":
			_, _ = w.Write([]byte(`{"message":"Thanks for subscribing"}`))
		case "/api/newsletter/subscribers":
			if r.Header.Get("Authorization") != "Bearer "+adminToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[{"id":"1","email":"a@example.com","active":true}]`))
		case "/api/blog/posts/7/likes":
			_, _ = w.Write([]byte(`{"likes":[{"email":"a@example.com"},{"email":"b@example.com"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Subscriber not found"}`))
		}
	}))
	defer backend.Close()

	s := newTestServer(t, backend.URL)

	rr := s.do(t, call{method: http.MethodPost, path: "/api/newsletter/subscribe", body: emailRequest{Email: "a@example.com"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Thanks for subscribing", decode[newsletter.Result](t, rr).Message)

	rr = s.do(t, call{method: http.MethodPost, path: "/api/newsletter/subscribe", body: emailRequest{Email: "nope"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/blog/posts/7/likes"})
	require.Equal(t, http.StatusOK, rr.Code)
	likes := decode[newsletter.PostLikes](t, rr)
	assert.Equal(t, "7", likes.PostID)
	assert.Equal(t, 2, likes.Count)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/admin/newsletter/subscribers", token: adminToken})
	require.Equal(t, http.StatusOK, rr.Code)
	subs := decode[subscribersResponse](t, rr)
	require.Len(t, subs.Subscribers, 1)
	assert.Empty(t, subs.Pending)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/admin/newsletter/subscribers/99", token: adminToken})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubscribeFallsBackLocally(t *testing.T) {
	s := newTestServer(t, "")

	rr := s.do(t, call{method: http.MethodPost, path: "/api/newsletter/subscribe", body: emailRequest{Email: "Offline@Example.com"}})
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.True(t, decode[newsletter.Result](t, rr).SavedLocally)

	var pending []string
	require.NoError(t, storage.LoadJSON(t.Context(), s.store, storage.KeySubscribers, &pending))
	assert.Equal(t, []string{"offline@example.com"}, pending)

	rr = s.do(t, call{method: http.MethodPost, path: "/api/admin/newsletter/send", body: newsletter.Message{Subject: "Hi", Body: "News"}, token: adminToken})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestThemePreference(t *testing.T) {
	s := newTestServer(t, "")
	sid := "theme-session"

	rr := s.do(t, call{method: http.MethodGet, path: "/api/preferences/theme", session: sid})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "system", decode[themeBody](t, rr).Theme)

	rr = s.do(t, call{method: http.MethodPut, path: "/api/preferences/theme", body: themeBody{Theme: "dark"}, session: sid})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, call{method: http.MethodGet, path: "/api/preferences/theme", session: sid})
	assert.Equal(t, "dark", decode[themeBody](t, rr).Theme)

	rr = s.do(t, call{method: http.MethodPut, path: "/api/preferences/theme", body: themeBody{Theme: "neon"}, session: sid})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
