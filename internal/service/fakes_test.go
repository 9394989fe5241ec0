package service

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/recommend"
	"alcyxob/gym-app/internal/repository"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories used by the service tests.

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *memUsers) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	r.users[u.ID] = &cp
	return u.ID, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) AddManagedGym(_ context.Context, userID, gymID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, g := range u.GymsManaged {
		if g == gymID {
			return nil
		}
	}
	u.GymsManaged = append(u.GymsManaged, gymID)
	return nil
}

func (r *memUsers) RemoveManagedGym(_ context.Context, gymID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		kept := u.GymsManaged[:0]
		for _, g := range u.GymsManaged {
			if g != gymID {
				kept = append(kept, g)
			}
		}
		u.GymsManaged = kept
	}
	return nil
}

type memGyms struct {
	mu   sync.Mutex
	gyms map[primitive.ObjectID]*domain.Gym
}

func newMemGyms() *memGyms {
	return &memGyms{gyms: make(map[primitive.ObjectID]*domain.Gym)}
}

func (r *memGyms) Create(_ context.Context, g *domain.Gym) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.ID = primitive.NewObjectID()
	cp := *g
	cp.Managers = append([]primitive.ObjectID(nil), g.Managers...)
	r.gyms[g.ID] = &cp
	return g.ID, nil
}

func (r *memGyms) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Gym, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gyms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	cp.Managers = append([]primitive.ObjectID(nil), g.Managers...)
	return &cp, nil
}

func (r *memGyms) List(_ context.Context) ([]domain.Gym, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Gym, 0, len(r.gyms))
	for _, g := range r.gyms {
		out = append(out, *g)
	}
	return out, nil
}

func (r *memGyms) Update(_ context.Context, g *domain.Gym) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.gyms[g.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = g.Name
	existing.Address = g.Address
	return nil
}

func (r *memGyms) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.gyms[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.gyms, id)
	return nil
}

func (r *memGyms) AddManager(_ context.Context, gymID, userID primitive.ObjectID) (*domain.Gym, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gyms[gymID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !g.IsManagedBy(userID) {
		g.Managers = append(g.Managers, userID)
	}
	cp := *g
	return &cp, nil
}

type memEquipment struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*domain.Equipment
}

func newMemEquipment() *memEquipment {
	return &memEquipment{items: make(map[primitive.ObjectID]*domain.Equipment)}
}

// put stores eq as-is and returns its id.
func (r *memEquipment) put(eq domain.Equipment) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if eq.ID.IsZero() {
		eq.ID = primitive.NewObjectID()
	}
	r.items[eq.ID] = &eq
	return eq.ID
}

func (r *memEquipment) Create(_ context.Context, eq *domain.Equipment) (primitive.ObjectID, error) {
	eq.ID = primitive.NewObjectID()
	return r.put(*eq), nil
}

func (r *memEquipment) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eq, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *eq
	return &cp, nil
}

func (r *memEquipment) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Equipment, 0, len(ids))
	for _, id := range ids {
		if eq, ok := r.items[id]; ok {
			out = append(out, *eq)
		}
	}
	return out, nil
}

func (r *memEquipment) ListByGym(_ context.Context, gymID primitive.ObjectID) ([]domain.Equipment, error) {
	return r.Search(context.Background(), gymID, repository.EquipmentFilter{})
}

func (r *memEquipment) Search(_ context.Context, gymID primitive.ObjectID, f repository.EquipmentFilter) ([]domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Equipment, 0)
	for _, eq := range r.items {
		if eq.GymID != gymID {
			continue
		}
		if f.Category != "" && eq.Category != f.Category {
			continue
		}
		if f.Status != "" && eq.Status != f.Status {
			continue
		}
		out = append(out, *eq)
	}
	return out, nil
}

func (r *memEquipment) Update(_ context.Context, eq *domain.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[eq.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *eq
	r.items[eq.ID] = &cp
	return nil
}

func (r *memEquipment) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.EquipmentStatus) (*domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eq, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	eq.Status = status
	cp := *eq
	return &cp, nil
}

func (r *memEquipment) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memWorkouts struct {
	mu        sync.Mutex
	workouts  []*domain.Workout
	equipment *memEquipment
	clock     time.Time
}

func newMemWorkouts(equipment *memEquipment) *memWorkouts {
	return &memWorkouts{equipment: equipment, clock: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (r *memWorkouts) Create(_ context.Context, w *domain.Workout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = primitive.NewObjectID()
	r.clock = r.clock.Add(time.Hour)
	w.CreatedAt = r.clock
	w.UpdatedAt = r.clock
	if w.StartedAt.IsZero() {
		w.StartedAt = r.clock
	}
	cp := *w
	cp.Items = append([]domain.WorkoutItem(nil), w.Items...)
	r.workouts = append(r.workouts, &cp)
	return w.ID, nil
}

func (r *memWorkouts) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workouts {
		if w.ID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memWorkouts) UpdateOwned(_ context.Context, id, userID primitive.ObjectID, items []domain.WorkoutItem, endedAt *time.Time) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workouts {
		if w.ID != id || w.UserID != userID {
			continue
		}
		if items != nil {
			w.Items = append([]domain.WorkoutItem(nil), items...)
		}
		if endedAt != nil {
			t := *endedAt
			w.EndedAt = &t
		}
		cp := *w
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memWorkouts) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Workout, 0)
	for _, w := range r.workouts {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *memWorkouts) ListByGym(_ context.Context, gymID *primitive.ObjectID) ([]domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Workout, 0)
	for _, w := range r.workouts {
		if gymID == nil || w.Gym.ID == *gymID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *memWorkouts) ListHistory(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]domain.Workout, error) {
	all, _ := r.ListByUser(ctx, userID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if skip >= int64(len(all)) {
		return []domain.Workout{}, nil
	}
	all = all[skip:]
	if limit > 0 && limit < int64(len(all)) {
		all = all[:limit]
	}

	for i := range all {
		items := make([]domain.WorkoutItem, len(all[i].Items))
		for j, it := range all[i].Items {
			items[j] = it
			if eq, err := r.equipment.GetByID(ctx, it.Equipment.ID); err == nil {
				items[j].Equipment.Doc = map[string]interface{}{"name": eq.Name, "category": eq.Category}
			}
		}
		all[i].Items = items
	}
	return all, nil
}

// memStorage records uploads and deletes.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Upload(_ context.Context, folder, filename, _ string, body io.Reader, _ int64) (domain.EquipmentImage, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return domain.EquipmentImage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := folder + "/" + primitive.NewObjectID().Hex() + "-" + filename
	s.objects[key] = data
	return domain.EquipmentImage{URL: "https://cdn.test/" + key, Key: key, Bucket: "test-bucket"}, nil
}

func (s *memStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.test/" + key + "?signed=1", nil
}

func (s *memStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type stubClassifier struct {
	result domain.EquipmentClassification
}

func (c stubClassifier) Classify(context.Context, []byte, string, string) domain.EquipmentClassification {
	return c.result
}

type stubAdvisor struct {
	mu   sync.Mutex
	seen []domain.Workout
}

func (a *stubAdvisor) Advise(_ context.Context, workouts []domain.Workout) domain.AdviceDocument {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen = workouts
	return domain.DegradedAdvice("stub")
}

// fixture wires every service over the in-memory repositories.
type fixture struct {
	users     *memUsers
	gyms      *memGyms
	equipment *memEquipment
	workouts  *memWorkouts
	storage   *memStorage
	advisor   *stubAdvisor

	gymSvc       GymService
	equipmentSvc EquipmentService
	workoutSvc   WorkoutService
	recSvc       RecommendationService
}

func newFixture() *fixture {
	f := &fixture{
		users:     newMemUsers(),
		gyms:      newMemGyms(),
		equipment: newMemEquipment(),
		storage:   newMemStorage(),
		advisor:   &stubAdvisor{},
	}
	f.workouts = newMemWorkouts(f.equipment)
	f.gymSvc = NewGymService(f.gyms, f.users)
	f.equipmentSvc = NewEquipmentService(f.equipment, f.gymSvc, f.storage,
		stubClassifier{result: domain.EquipmentClassification{Label: "Rowing Machine", Category: "Cardio", Confidence: 0.9}},
		1024, time.Minute)
	f.workoutSvc = NewWorkoutService(f.workouts, f.equipment, f.gymSvc, f.advisor, 0, 0)
	f.recSvc = NewRecommendationService(f.workouts, f.equipment, f.gymSvc, recommend.DefaultLimits())
	return f
}

// manager registers a manager user with one gym.
func (f *fixture) manager() (primitive.ObjectID, primitive.ObjectID) {
	u := &domain.User{Email: primitive.NewObjectID().Hex() + "@gym.test", Name: "Manager", Role: domain.RoleManager}
	userID, _ := f.users.Create(context.Background(), u)
	gym, err := f.gymSvc.Create(context.Background(), userID, "Downtown", "1 Main St")
	if err != nil {
		panic(err)
	}
	return userID, gym.ID
}

func (f *fixture) addEquipment(gymID primitive.ObjectID, name, category string, status domain.EquipmentStatus) primitive.ObjectID {
	return f.equipment.put(domain.Equipment{GymID: gymID, Name: name, Category: category, Status: status})
}

func (f *fixture) logItems(userID, gymID primitive.ObjectID, ids ...primitive.ObjectID) {
	items := make([]domain.WorkoutItem, len(ids))
	for i, id := range ids {
		items[i] = domain.WorkoutItem{Equipment: domain.NewRef(id)}
	}
	if _, err := f.workoutSvc.LogWorkout(context.Background(), userID, WorkoutInput{GymID: gymID, Items: items}); err != nil {
		panic(err)
	}
}
