package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotel-booking-server/models"
	"hotel-booking-server/reservation"
	"hotel-booking-server/storage"
	"hotel-booking-server/utils"

	"github.com/golang-jwt/jwt/v4"
	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	sent chan *reservation.Confirmation
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, conf *reservation.Confirmation) error {
	n.sent <- conf
	return nil
}

type testServer struct {
	app      *iris.Application
	store    *storage.MemoryStore
	notifier *recordingNotifier
}

func buildTestApp(t *testing.T, opts AppOptions) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStore()
	notifier := &recordingNotifier{sent: make(chan *reservation.Confirmation, 8)}
	h := &Handler{
		Engine:   reservation.New(store, reservation.WithLogger(log)),
		Store:    store,
		Notifier: notifier,
		Log:      log,
	}
	app := NewApp(h, opts)
	if err := app.Build(); err != nil {
		t.Fatalf("building app: %v", err)
	}
	return &testServer{app: app, store: store, notifier: notifier}
}

func (s *testServer) seed(t *testing.T, date string, counts map[models.RoomType]string) {
	t.Helper()
	if err := s.store.PutAvailability(context.Background(), models.AvailabilityRecord{Date: date, Counts: counts}); err != nil {
		t.Fatal(err)
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp := httptest.NewRecorder()
	s.app.ServeHTTP(resp, req)

	var decoded map[string]any
	if resp.Body.Len() > 0 {
		if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding %s %s response %q: %v", method, path, resp.Body.String(), err)
		}
	}
	return resp, decoded
}

const aliceBooking = `{"guestName":"Alice","checkInDate":"2024-06-01","numberofNights":3,"roomType":"Sea View"}`

func seedJune(t *testing.T, s *testServer, seaView string) {
	for _, d := range []string{"2024-06-01", "2024-06-02", "2024-06-03"} {
		s.seed(t, d, map[models.RoomType]string{models.SeaView: seaView, models.GardenView: "5"})
	}
}

func TestBookHotelRoom(t *testing.T) {
	s := buildTestApp(t, AppOptions{})
	seedJune(t, s, "2")

	resp, body := s.do(t, http.MethodPost, "/bookHotelRoom", aliceBooking, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.Code, body)
	}
	if body["roomType"] != "seaView" || body["numberofNights"] != float64(3) {
		t.Fatalf("unexpected body %v", body)
	}
	if dates, _ := body["reservedDates"].([]any); len(dates) != 3 {
		t.Fatalf("expected 3 reserved dates, got %v", body["reservedDates"])
	}

	select {
	case conf := <-s.notifier.sent:
		if conf.BookingID != body["bookingId"] {
			t.Fatalf("notified %s, booked %v", conf.BookingID, body["bookingId"])
		}
	case <-time.After(time.Second):
		t.Fatal("booking notification was not sent")
	}

	id, _ := body["bookingId"].(string)
	resp, stored := s.do(t, http.MethodGet, "/bookings/"+id, "", nil)
	if resp.Code != http.StatusOK || stored["guestName"] != "Alice" {
		t.Fatalf("lookup returned %d: %v", resp.Code, stored)
	}

	resp, inv := s.do(t, http.MethodGet, "/getRoomInventory/2024-06-02", "", nil)
	if resp.Code != http.StatusOK || inv["seaViewInventory"] != float64(1) {
		t.Fatalf("inventory after booking: %d %v", resp.Code, inv)
	}
}

func TestBookHotelRoomPropertiesForm(t *testing.T) {
	s := buildTestApp(t, AppOptions{})
	seedJune(t, s, "2")

	payload := `{"properties":[
		{"name":"guestName","type":"string","value":"Alice"},
		{"name":"checkInDate","type":"string","value":"2024-06-01"},
		{"name":"numberofNights","type":"integer","value":"2"},
		{"name":"roomType","type":"string","value":"sea_view"}]}`
	resp, body := s.do(t, http.MethodPost, "/bookHotelRoom", payload, nil)
	if resp.Code != http.StatusOK || body["numberofNights"] != float64(2) {
		t.Fatalf("expected 200 for properties form, got %d: %v", resp.Code, body)
	}
}

func TestBookHotelRoomErrors(t *testing.T) {
	s := buildTestApp(t, AppOptions{})
	seedJune(t, s, "2")
	s.seed(t, "2024-06-10", map[models.RoomType]string{models.SeaView: "0"})

	cases := []struct {
		name   string
		body   string
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{"malformed json", `{"guestName":`, http.StatusBadRequest, nil},
		{"too many nights", `{"guestName":"Alice","checkInDate":"2024-06-01","numberofNights":25,"roomType":"seaView"}`, http.StatusBadRequest,
			func(t *testing.T, body map[string]any) {
				if body["reason"] != "too_many_nights" {
					t.Fatalf("reason = %v", body["reason"])
				}
			}},
		{"unknown room", `{"guestName":"Alice","checkInDate":"2024-06-01","numberofNights":1,"roomType":"mountain"}`, http.StatusBadRequest, nil},
		{"missing dates", `{"guestName":"Alice","checkInDate":"2024-06-03","numberofNights":2,"roomType":"seaView"}`, http.StatusNotFound,
			func(t *testing.T, body map[string]any) {
				missing, _ := body["missingDates"].([]any)
				if len(missing) != 1 || missing[0] != "2024-06-04" {
					t.Fatalf("missingDates = %v", body["missingDates"])
				}
			}},
		{"insufficient", `{"guestName":"Alice","checkInDate":"2024-06-10","numberofNights":1,"roomType":"seaView"}`, http.StatusNotFound,
			func(t *testing.T, body map[string]any) {
				details, _ := body["details"].([]any)
				if len(details) != 1 {
					t.Fatalf("details = %v", body["details"])
				}
				d := details[0].(map[string]any)
				if d["date"] != "2024-06-10" || d["available"] != float64(0) {
					t.Fatalf("detail = %v", d)
				}
			}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, body := s.do(t, http.MethodPost, "/bookHotelRoom", c.body, nil)
			if resp.Code != c.status {
				t.Fatalf("expected %d, got %d: %v", c.status, resp.Code, body)
			}
			if body["error"] == nil {
				t.Fatalf("error body lacks error field: %v", body)
			}
			if c.check != nil {
				c.check(t, body)
			}
		})
	}

	if got, _ := s.store.GetAvailability(context.Background(), "2024-06-03"); got.Counts[models.SeaView] != "2" {
		t.Fatalf("failed bookings mutated inventory: %v", got.Counts)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	s := buildTestApp(t, AppOptions{})
	resp, _ := s.do(t, http.MethodGet, "/bookings/does-not-exist", "", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetRoomInventory(t *testing.T) {
	s := buildTestApp(t, AppOptions{})
	s.seed(t, "2024-06-01", map[models.RoomType]string{models.SeaView: "2", models.GardenView: "3"})
	s.seed(t, "2024-06-02", map[models.RoomType]string{models.SeaView: "lots"})

	resp, body := s.do(t, http.MethodGet, "/getRoomInventory/2024-06-01", "", nil)
	summary, _ := body["summary"].(map[string]any)
	if resp.Code != http.StatusOK || summary["totalAvailable"] != float64(5) {
		t.Fatalf("got %d %v", resp.Code, body)
	}

	resp, body = s.do(t, http.MethodGet, "/getRoomInventory/2024-06-02", "", nil)
	summary, _ = body["summary"].(map[string]any)
	if resp.Code != http.StatusOK || body["seaViewInventory"] != "lots" || summary["totalAvailable"] != nil {
		t.Fatalf("got %d %v", resp.Code, body)
	}

	if resp, _ := s.do(t, http.MethodGet, "/getRoomInventory/2024-07-01", "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp, _ := s.do(t, http.MethodGet, "/getRoomInventory/June-first", "", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

type stallingStore struct {
	*storage.MemoryStore
}

func (s *stallingStore) GetAvailability(ctx context.Context, _ string) (*models.AvailabilityRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGetRoomInventoryTimeout(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &stallingStore{MemoryStore: storage.NewMemoryStore()}
	app := NewApp(&Handler{
		Engine:   reservation.New(store, reservation.WithLogger(log), reservation.WithTimeout(20*time.Millisecond)),
		Store:    store,
		Notifier: utils.NopNotifier{},
		Log:      log,
	}, AppOptions{})
	if err := app.Build(); err != nil {
		t.Fatal(err)
	}
	s := &testServer{app: app}

	resp, body := s.do(t, http.MethodGet, "/getRoomInventory/2024-06-01", "", nil)
	if resp.Code != http.StatusInternalServerError || body["timeout"] != true {
		t.Fatalf("expected a 500 timeout, got %d %v", resp.Code, body)
	}
}

func agentBody(t *testing.T, envelope map[string]any) (int, map[string]any) {
	t.Helper()
	res := envelope["response"].(map[string]any)
	content := res["responseBody"].(map[string]any)["application/json"].(map[string]any)
	var body map[string]any
	if err := json.Unmarshal([]byte(content["body"].(string)), &body); err != nil {
		t.Fatal(err)
	}
	return int(res["httpStatusCode"].(float64)), body
}

func TestAgentActions(t *testing.T) {
	s := buildTestApp(t, AppOptions{})
	seedJune(t, s, "2")

	booking := `{
		"messageVersion": "1.0",
		"actionGroup": "HotelBooking",
		"apiPath": "/bookHotelRoom",
		"httpMethod": "POST",
		"sessionAttributes": {"session": "abc"},
		"requestBody": {"content": {"application/json": {"properties": [
			{"name":"guestName","value":"Alice"},
			{"name":"checkInDate","value":"2024-06-01"},
			{"name":"numberofNights","value":"1"},
			{"name":"roomType","value":"seaView"}]}}}
	}`
	resp, envelope := s.do(t, http.MethodPost, "/agent/actions", booking, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("transport status %d", resp.Code)
	}
	status, body := agentBody(t, envelope)
	if status != http.StatusOK || body["bookingId"] == nil {
		t.Fatalf("agent booking returned %d %v", status, body)
	}
	if envelope["messageVersion"] != "1.0" || envelope["sessionAttributes"].(map[string]any)["session"] != "abc" {
		t.Fatalf("envelope not echoed: %v", envelope)
	}

	inventory := `{"apiPath": "/getRoomInventory/{date}", "httpMethod": "GET",
		"parameters": [{"name": "date", "type": "string", "value": "2024-06-01"}]}`
	_, envelope = s.do(t, http.MethodPost, "/agent/actions", inventory, nil)
	status, body = agentBody(t, envelope)
	if status != http.StatusOK || body["seaViewInventory"] != float64(1) {
		t.Fatalf("agent inventory returned %d %v", status, body)
	}

	mapForm := `{"apiPath": "/getRoomInventory/{date}", "parameters": {"path": {"date": "2024-06-02"}}}`
	_, envelope = s.do(t, http.MethodPost, "/agent/actions", mapForm, nil)
	if status, body = agentBody(t, envelope); status != http.StatusOK || body["date"] != "2024-06-02" {
		t.Fatalf("agent inventory (map form) returned %d %v", status, body)
	}
	res := envelope["response"].(map[string]any)
	if res["actionGroup"] != "Hotel Room Inventory API" || res["httpMethod"] != http.MethodGet {
		t.Fatalf("inventory defaults not applied: %v", res)
	}

	unnamed := `{"apiPath": "/bookHotelRoom", "requestBody": {"content": {"application/json": {"guestName": "Bob"}}}}`
	_, envelope = s.do(t, http.MethodPost, "/agent/actions", unnamed, nil)
	res = envelope["response"].(map[string]any)
	if res["actionGroup"] != "Hotel Booking API" || res["httpMethod"] != http.MethodPost {
		t.Fatalf("booking defaults not applied: %v", res)
	}
	if status, _ = agentBody(t, envelope); status != http.StatusBadRequest {
		t.Fatalf("incomplete agent booking returned %d", status)
	}

	_, envelope = s.do(t, http.MethodPost, "/agent/actions", `{"apiPath": "/cancelBooking"}`, nil)
	if status, _ = agentBody(t, envelope); status != http.StatusNotFound {
		t.Fatalf("unknown apiPath returned %d", status)
	}
}

func TestAdminInventory(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("let-me-in"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	s := buildTestApp(t, AppOptions{AdminKeyHash: string(hash)})

	resp, _ := s.do(t, http.MethodPut, "/admin/inventory/2024-06-01", `{"seaView":2}`, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without key, got %d", resp.Code)
	}

	key := http.Header{"X-Admin-Key": {"let-me-in"}}
	resp, body := s.do(t, http.MethodPut, "/admin/inventory/2024-06-01", `{"seaView":2,"gardenView":0}`, key)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.Code, body)
	}
	rec, err := s.store.GetAvailability(context.Background(), "2024-06-01")
	if err != nil || rec.Counts[models.SeaView] != "2" || rec.Counts[models.GardenView] != "0" {
		t.Fatalf("stored %v, %v", rec, err)
	}

	if resp, _ := s.do(t, http.MethodPut, "/admin/inventory/2024-06-01", `{"seaView":-1}`, key); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative count, got %d", resp.Code)
	}
	if resp, _ := s.do(t, http.MethodPut, "/admin/inventory/2024-06-01", `{}`, key); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty counts, got %d", resp.Code)
	}

	resp, body = s.do(t, http.MethodPost, "/admin/notifications/test", "", key)
	if resp.Code != http.StatusOK || body["sent"] != true {
		t.Fatalf("test notification returned %d %v", resp.Code, body)
	}
}

func TestBookingRoutesRequireTokenWhenConfigured(t *testing.T) {
	s := buildTestApp(t, AppOptions{Verifier: utils.NewHMACVerifier("testsecret")})
	seedJune(t, s, "2")

	resp, _ := s.do(t, http.MethodPost, "/bookHotelRoom", aliceBooking, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.GuestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "guest-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("testsecret"))
	if err != nil {
		t.Fatal(err)
	}
	resp, body := s.do(t, http.MethodPost, "/bookHotelRoom", aliceBooking, http.Header{"Authorization": {"Bearer " + signed}})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %v", resp.Code, body)
	}
}

func TestRateLimit(t *testing.T) {
	s := buildTestApp(t, AppOptions{RateLimiter: utils.NewRateLimiter(0.001, 1)})

	if resp, _ := s.do(t, http.MethodGet, "/bookings/x", "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("first request should pass the limiter, got %d", resp.Code)
	}
	if resp, _ := s.do(t, http.MethodGet, "/bookings/x", "", nil); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", resp.Code)
	}
}
