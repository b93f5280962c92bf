package application

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
)

type reservationRepoStub struct {
	mu      sync.Mutex
	records map[string]Reservation

	findErr   error
	createErr error
	updateErr error
	listErr   error
	count     int

	createCalls int
	updateCalls int
	lastQuery   ReservationQuery
}

func newReservationRepoStub(seed ...Reservation) *reservationRepoStub {
	r := &reservationRepoStub{records: make(map[string]Reservation)}
	for _, res := range seed {
		r.records[res.ID] = res
	}
	return r
}

func (r *reservationRepoStub) CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return Reservation{}, r.createErr
	}
	reservation.ResourceName = "Recurso " + reservation.ResourceID
	r.records[reservation.ID] = reservation
	return reservation, nil
}

func (r *reservationRepoStub) GetReservation(ctx context.Context, id string) (Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.records[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return res, nil
}

func (r *reservationRepoStub) UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.updateErr != nil {
		return Reservation{}, r.updateErr
	}
	if _, ok := r.records[reservation.ID]; !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	r.records[reservation.ID] = reservation
	return reservation, nil
}

func (r *reservationRepoStub) ListReservations(ctx context.Context, query ReservationQuery) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = query
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Reservation
	for _, res := range r.records {
		if query.UserID != "" && res.UserID != query.UserID {
			continue
		}
		if query.ResourceID != "" && res.ResourceID != query.ResourceID {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *reservationRepoStub) CountReservations(ctx context.Context, query ReservationQuery) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = query
	return r.count, nil
}

func (r *reservationRepoStub) FindOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []Reservation
	for _, res := range r.records {
		if res.ResourceID != resourceID || res.ID == excludeID || res.Status != StatusConfirmed {
			continue
		}
		if res.Start.Before(end) && start.Before(res.End) {
			out = append(out, res)
		}
	}
	return out, nil
}

type resourceRepoStub struct {
	records map[string]Resource
	getErr  error
	saveErr error
	count   int

	created  Resource
	updated  Resource
	deleted  string
	filter   ResourceFilter
	listResp []Resource
}

func newResourceRepoStub(seed ...Resource) *resourceRepoStub {
	r := &resourceRepoStub{records: make(map[string]Resource)}
	for _, res := range seed {
		r.records[res.ID] = res
	}
	return r
}

func (r *resourceRepoStub) CreateResource(ctx context.Context, resource Resource) (Resource, error) {
	if r.saveErr != nil {
		return Resource{}, r.saveErr
	}
	r.created = resource
	r.records[resource.ID] = resource
	return resource, nil
}

func (r *resourceRepoStub) GetResource(ctx context.Context, id string) (Resource, error) {
	if r.getErr != nil {
		return Resource{}, r.getErr
	}
	res, ok := r.records[id]
	if !ok {
		return Resource{}, persistence.ErrNotFound
	}
	return res, nil
}

func (r *resourceRepoStub) UpdateResource(ctx context.Context, resource Resource) (Resource, error) {
	if r.saveErr != nil {
		return Resource{}, r.saveErr
	}
	r.updated = resource
	r.records[resource.ID] = resource
	return resource, nil
}

func (r *resourceRepoStub) DeleteResource(ctx context.Context, id string) error {
	if _, ok := r.records[id]; !ok {
		return persistence.ErrNotFound
	}
	r.deleted = id
	delete(r.records, id)
	return nil
}

func (r *resourceRepoStub) ListResources(ctx context.Context, filter ResourceFilter) ([]Resource, error) {
	r.filter = filter
	return r.listResp, nil
}

func (r *resourceRepoStub) CountResources(ctx context.Context) (int, error) {
	return r.count, nil
}

type settingsRepoStub struct {
	settings Settings
	getErr   error
	saveErr  error
	saves    int
}

func (s *settingsRepoStub) GetSettings(ctx context.Context) (Settings, error) {
	if s.getErr != nil {
		return Settings{}, s.getErr
	}
	return s.settings, nil
}

func (s *settingsRepoStub) SaveSettings(ctx context.Context, settings Settings) (Settings, error) {
	if s.saveErr != nil {
		return Settings{}, s.saveErr
	}
	s.saves++
	s.settings = settings
	return settings, nil
}

type notifierStub struct {
	mu      sync.Mutex
	changes []ReservationChange
	err     error
}

func (n *notifierStub) NotifyReservationChange(ctx context.Context, change ReservationChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return n.err
}

type imageStoreStub struct {
	contentType string
	size        int64
	err         error
}

func (i *imageStoreStub) PutResourceImage(ctx context.Context, resourceID, contentType string, body io.Reader, size int64) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	i.contentType = contentType
	i.size = int64(len(data))
	return "https://imagens.escola.test/recursos/" + resourceID, nil
}

type userRepoStub struct {
	users  map[string]User
	hashes map[string]string

	createErr error
	updateErr error
	deleteErr error
	deleted   string
}

func newUserRepoStub(seed ...User) *userRepoStub {
	r := &userRepoStub{users: make(map[string]User), hashes: make(map[string]string)}
	for _, u := range seed {
		r.users[u.ID] = u
		r.hashes[u.ID] = "seed-hash"
	}
	return r
}

func (r *userRepoStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if r.createErr != nil {
		return User{}, r.createErr
	}
	r.users[user.ID] = user
	r.hashes[user.ID] = passwordHash
	return user, nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (r *userRepoStub) UpdateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if r.updateErr != nil {
		return User{}, r.updateErr
	}
	r.users[user.ID] = user
	if passwordHash != "" {
		r.hashes[user.ID] = passwordHash
	}
	return user, nil
}

func (r *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.users[id]; !ok {
		return persistence.ErrNotFound
	}
	r.deleted = id
	delete(r.users, id)
	return nil
}

func (r *userRepoStub) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

type credentialStoreStub struct {
	credentials UserCredentials
	err         error
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if c.err != nil {
		return UserCredentials{}, c.err
	}
	if c.credentials.User.Email != email {
		return UserCredentials{}, persistence.ErrNotFound
	}
	return c.credentials, nil
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if c.credentials.User.ID != id {
		return User{}, persistence.ErrNotFound
	}
	return c.credentials.User, nil
}

type sessionRepositoryStub struct {
	mu          sync.Mutex
	sessions    map[string]Session
	createErr   error
	deleteErr   error
	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]Session)}
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	if session.RevokedAt == nil {
		at := revokedAt
		session.RevokedAt = &at
	}
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	return s.deleteErr
}
