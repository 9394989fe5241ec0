package api

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/recommend"
	"alcyxob/gym-app/internal/repository"
	"alcyxob/gym-app/internal/service"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Fakes ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	r.users[u.ID] = *u
	return u.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) AddManagedGym(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (r *memUserRepo) RemoveManagedGym(context.Context, primitive.ObjectID) error { return nil }

// Stubs embed the interface so only the methods a test needs are implemented.

type stubGyms struct {
	service.GymService
	createErr error
}

func (s *stubGyms) Create(_ context.Context, managerID primitive.ObjectID, name, address string) (*domain.Gym, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Gym{ID: primitive.NewObjectID(), Name: name, Address: address, Managers: []primitive.ObjectID{managerID}}, nil
}

type stubEquipment struct {
	service.EquipmentService
	statusErr error
	lastImage *service.ImageUpload
	lastInput service.EquipmentInput
}

func (s *stubEquipment) UpdateStatus(_ context.Context, _, id primitive.ObjectID, status domain.EquipmentStatus) (*domain.Equipment, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &domain.Equipment{ID: id, Name: "Bike", Status: status}, nil
}

func (s *stubEquipment) CreateWithImage(_ context.Context, _, gymID primitive.ObjectID, input service.EquipmentInput, image *service.ImageUpload) (*domain.Equipment, *domain.EquipmentImage, error) {
	s.lastInput = input
	s.lastImage = image
	eq := &domain.Equipment{ID: primitive.NewObjectID(), GymID: gymID, Name: input.Name, Status: domain.StatusActive}
	if image == nil {
		return eq, nil, nil
	}
	return eq, &domain.EquipmentImage{Key: "equipment/x.png", URL: "https://cdn.test/equipment/x.png"}, nil
}

type stubWorkouts struct {
	service.WorkoutService
	logErr    error
	lastInput service.WorkoutInput
	page      int
	limit     int
}

func (s *stubWorkouts) LogWorkout(_ context.Context, userID primitive.ObjectID, input service.WorkoutInput) (*domain.Workout, error) {
	s.lastInput = input
	if s.logErr != nil {
		return nil, s.logErr
	}
	return &domain.Workout{ID: primitive.NewObjectID(), UserID: userID, Gym: domain.NewRef(input.GymID), Items: input.Items}, nil
}

func (s *stubWorkouts) GetWorkoutHistory(_ context.Context, _ primitive.ObjectID, page, limit int) ([]domain.Workout, error) {
	s.page, s.limit = page, limit
	return nil, nil
}

func (s *stubWorkouts) GetWorkoutAdvice(_ context.Context, userID primitive.ObjectID, _ int) (*service.AdviceResult, error) {
	return &service.AdviceResult{UserID: userID, Advice: domain.DegradedAdvice("AI advice is not configured.")}, nil
}

type stubRecommendations struct {
	gotGym *primitive.ObjectID
	err    error
}

func (s *stubRecommendations) GetRecommendations(_ context.Context, _ primitive.ObjectID, gymID *primitive.ObjectID) (*recommend.Result, error) {
	s.gotGym = gymID
	if s.err != nil {
		return nil, s.err
	}
	res := recommend.Compose(nil, nil, recommend.MapCatalog{}, nil, 10)
	return &res, nil
}

// --- Harness ---

type harness struct {
	router    *gin.Engine
	auth      service.AuthService
	gyms      *stubGyms
	equipment *stubEquipment
	workouts  *stubWorkouts
	recs      *stubRecommendations
}

func newHarness() *harness {
	h := &harness{
		auth:      service.NewAuthService(&memUserRepo{users: map[primitive.ObjectID]domain.User{}}, "test-secret", time.Minute, time.Hour),
		gyms:      &stubGyms{},
		equipment: &stubEquipment{},
		workouts:  &stubWorkouts{},
		recs:      &stubRecommendations{},
	}
	h.router = NewRouter(Services{
		Auth:           h.auth,
		Gyms:           h.gyms,
		Equipment:      h.equipment,
		Workouts:       h.workouts,
		Recommendation: h.recs,
	}, RouterOptions{MaxImageBytes: 1024})
	return h
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// login registers a user with the given role and returns its tokens.
func (h *harness) login(t *testing.T, role domain.Role) LoginResponse {
	t.Helper()
	email := strings.ToLower(primitive.NewObjectID().Hex()) + "@gym.test"
	w := h.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Test", "email": email, "password": "secret123", "role": role})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp
}

// --- Tests ---

func TestPingAndMetrics(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/ping", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("ping: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Errorf("expected a request id header")
	}

	w = h.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "gymapp_http_requests_total") {
		t.Errorf("metrics: expected request counter, got %d", w.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	h := newHarness()
	tokens := h.login(t, domain.RoleMember)

	w := h.do(http.MethodGet, "/api/v1/users/me", tokens.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me UserResponse
	_ = json.Unmarshal(w.Body.Bytes(), &me)
	if me.Role != domain.RoleMember || me.ID != tokens.User.ID {
		t.Errorf("unexpected profile: %+v", me)
	}

	if w := h.do(http.MethodGet, "/api/v1/users/me", tokens.RefreshToken, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("refresh token used as access token: expected 401, got %d", w.Code)
	}

	w = h.do(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refreshToken": tokens.RefreshToken})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "accessToken") {
		t.Errorf("refresh: %d %s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refreshToken": "garbage"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad refresh: expected 401, got %d", w.Code)
	}
}

func TestAuthErrors(t *testing.T) {
	h := newHarness()
	body := gin.H{"name": "Dup", "email": "dup@gym.test", "password": "secret123"}

	if w := h.do(http.MethodPost, "/api/v1/auth/register", "", body); w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPost, "/api/v1/auth/register", "", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "X", "email": "x@gym.test", "password": "secret123", "role": "ADMIN"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad role: expected 400, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "dup@gym.test", "password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/api/v1/workouts/me", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", w.Code)
	}
}

func TestGymRoutes_RequireManagerRole(t *testing.T) {
	h := newHarness()
	member := h.login(t, domain.RoleMember)
	manager := h.login(t, domain.RoleManager)

	if w := h.do(http.MethodPost, "/api/v1/gyms", member.AccessToken, gin.H{"name": "Gym"}); w.Code != http.StatusForbidden {
		t.Errorf("member: expected 403, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/api/v1/gyms", manager.AccessToken, gin.H{"name": "Gym"}); w.Code != http.StatusCreated {
		t.Errorf("manager: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	h.gyms.createErr = service.ErrValidationFailed
	if w := h.do(http.MethodPost, "/api/v1/gyms", manager.AccessToken, gin.H{"name": "Gym"}); w.Code != http.StatusBadRequest {
		t.Errorf("validation error: expected 400, got %d", w.Code)
	}
}

func TestEquipmentStatus_Validation(t *testing.T) {
	h := newHarness()
	manager := h.login(t, domain.RoleManager)
	path := "/api/v1/equipment/" + primitive.NewObjectID().Hex() + "/status"

	if w := h.do(http.MethodPatch, path, manager.AccessToken, gin.H{"status": "BROKEN"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown status: expected 400, got %d", w.Code)
	}

	w := h.do(http.MethodPatch, path, manager.AccessToken, gin.H{"status": "RETIRED"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"RETIRED"`) {
		t.Errorf("valid status: %d %s", w.Code, w.Body.String())
	}

	h.equipment.statusErr = service.ErrNotGymManager
	if w := h.do(http.MethodPatch, path, manager.AccessToken, gin.H{"status": "ACTIVE"}); w.Code != http.StatusForbidden {
		t.Errorf("foreign gym: expected 403, got %d", w.Code)
	}

	if w := h.do(http.MethodPatch, "/api/v1/equipment/not-an-id/status", manager.AccessToken, gin.H{"status": "ACTIVE"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(data)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestCreateEquipmentWithImage(t *testing.T) {
	h := newHarness()
	manager := h.login(t, domain.RoleManager)
	path := "/api/v1/equipment/gyms/" + primitive.NewObjectID().Hex() + "/with-image"

	body, ct := multipartBody(t, map[string]string{"name": "Rower", "category": "Cardio"}, "rower.png", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+manager.AccessToken)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if h.equipment.lastImage == nil || h.equipment.lastImage.ContentType != "image/png" || string(h.equipment.lastImage.Data) != "png-bytes" {
		t.Errorf("unexpected image passed to service: %+v", h.equipment.lastImage)
	}
	if h.equipment.lastInput.Category != "Cardio" {
		t.Errorf("expected category from form, got %+v", h.equipment.lastInput)
	}
	if !strings.Contains(w.Body.String(), `"s3Result"`) {
		t.Errorf("expected s3Result in body: %s", w.Body.String())
	}

	// Oversized files are rejected before reaching the service.
	body, ct = multipartBody(t, map[string]string{"name": "Rower"}, "big.png", "image/png", bytes.Repeat([]byte{1}, 2048))
	req = httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+manager.AccessToken)
	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized: expected 413, got %d", w.Code)
	}
}

func TestLogWorkout(t *testing.T) {
	h := newHarness()
	member := h.login(t, domain.RoleMember)
	gymID := primitive.NewObjectID()
	e1, e2 := primitive.NewObjectID(), primitive.NewObjectID()

	w := h.do(http.MethodPost, "/api/v1/workouts", member.AccessToken, gin.H{
		"gym":   gymID.Hex(),
		"items": []gin.H{{"equipment": e1.Hex(), "sets": 3}, {"equipment": e2.Hex(), "sets": 4}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	in := h.workouts.lastInput
	if in.GymID != gymID || len(in.Items) != 2 || in.Items[0].Equipment.ID != e1 || in.Items[1].Equipment.ID != e2 {
		t.Errorf("unexpected input: %+v", in)
	}

	h.workouts.logErr = service.ErrWorkoutNotFound
	w = h.do(http.MethodPost, "/api/v1/workouts", member.AccessToken, gin.H{"workoutId": primitive.NewObjectID().Hex()})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign workout: expected 404, got %d", w.Code)
	}

	if w := h.do(http.MethodPost, "/api/v1/workouts", member.AccessToken, gin.H{"gym": "nope"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad gym id: expected 400, got %d", w.Code)
	}
}

func TestWorkoutHistoryAndAdvice(t *testing.T) {
	h := newHarness()
	member := h.login(t, domain.RoleMember)

	w := h.do(http.MethodGet, "/api/v1/workouts/me?page=2&limit=5", member.AccessToken, nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("history: %d %s", w.Code, w.Body.String())
	}
	if h.workouts.page != 2 || h.workouts.limit != 5 {
		t.Errorf("expected page 2 limit 5, got %d %d", h.workouts.page, h.workouts.limit)
	}
	if w := h.do(http.MethodGet, "/api/v1/workouts/me?limit=abc", member.AccessToken, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", w.Code)
	}

	w = h.do(http.MethodGet, "/api/v1/workouts/me/advice?limit=50", member.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("advice: expected 200, got %d", w.Code)
	}
	var res struct {
		UserID string `json:"userId"`
		Advice struct {
			Summary         string        `json:"summary"`
			Recommendations []interface{} `json:"recommendations"`
		} `json:"advice"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.UserID != member.User.ID || res.Advice.Summary == "" || res.Advice.Recommendations == nil || len(res.Advice.Recommendations) != 0 {
		t.Errorf("unexpected advice: %s", w.Body.String())
	}
}

func TestRecommendations(t *testing.T) {
	h := newHarness()
	member := h.login(t, domain.RoleMember)

	w := h.do(http.MethodGet, "/api/v1/recommend/me", member.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"categoriesLiked":[]`) || !strings.Contains(body, `"recommendations":[]`) {
		t.Errorf("expected empty arrays, got %s", body)
	}
	if h.recs.gotGym != nil {
		t.Errorf("expected no gym filter, got %v", h.recs.gotGym)
	}

	gymID := primitive.NewObjectID()
	h.do(http.MethodGet, "/api/v1/recommend/me?gym="+gymID.Hex(), member.AccessToken, nil)
	if h.recs.gotGym == nil || *h.recs.gotGym != gymID {
		t.Errorf("expected gym filter %s, got %v", gymID.Hex(), h.recs.gotGym)
	}

	if w := h.do(http.MethodGet, "/api/v1/recommend/me?gym=xyz", member.AccessToken, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad gym: expected 400, got %d", w.Code)
	}

	h.recs.err = service.ErrGymNotFound
	if w := h.do(http.MethodGet, "/api/v1/recommend/me?gym="+gymID.Hex(), member.AccessToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown gym: expected 404, got %d", w.Code)
	}
}
