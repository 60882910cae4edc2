package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-auth-service/pkg/mailer"
)

// clock is a settable time source shared by fakes and services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now().UTC()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]entity.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]entity.User{}} }

func (r *memUsers) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) SetVerifiedByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Email == email {
			u.Verified = true
			r.users[id] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memUsers) patch(id string, fn func(u *entity.User) error) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return &u, nil
}

func (r *memUsers) MarkSession(_ context.Context, id string, active bool, at time.Time) (*entity.User, error) {
	return r.patch(id, func(u *entity.User) error {
		u.Active = active
		u.LastLogin = at
		return nil
	})
}

func (r *memUsers) SetPassword(_ context.Context, id, hash string) (*entity.User, error) {
	return r.patch(id, func(u *entity.User) error {
		u.Password = hash
		return nil
	})
}

func (r *memUsers) ChangeEmail(_ context.Context, id, email string) (*entity.User, error) {
	return r.patch(id, func(u *entity.User) error {
		for other, existing := range r.users {
			if other != id && existing.Email == email {
				return repository.ErrDuplicate
			}
		}
		u.Email = email
		u.Verified = false
		u.Active = false
		return nil
	})
}

func (r *memUsers) SetFullName(_ context.Context, id, name string) (*entity.User, error) {
	return r.patch(id, func(u *entity.User) error {
		u.FullName = name
		return nil
	})
}

func (r *memUsers) SetProfileImage(_ context.Context, id, key string) (*entity.User, error) {
	return r.patch(id, func(u *entity.User) error {
		u.ProfileImage = key
		return nil
	})
}

type memTokens struct {
	mu    sync.Mutex
	clock *clock
	rows  map[string]entity.Token // key: user|type
}

func newMemTokens(c *clock) *memTokens {
	return &memTokens{clock: c, rows: map[string]entity.Token{}}
}

func tokenKey(userID string, typ entity.TokenType) string { return userID + "|" + string(typ) }

func (r *memTokens) FindLive(_ context.Context, userID string, typ entity.TokenType) (*entity.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[tokenKey(userID, typ)]
	if !ok || !t.Live(r.clock.Now()) {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *memTokens) CreateIfAbsent(_ context.Context, t *entity.Token) (*entity.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := tokenKey(t.UserID, t.Type)
	if existing, ok := r.rows[k]; ok && existing.Live(r.clock.Now()) {
		return &existing, nil
	}
	t.ID = "tok-" + k
	r.rows[k] = *t
	return t, nil
}

func (r *memTokens) Replace(_ context.Context, t *entity.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = "tok-" + tokenKey(t.UserID, t.Type)
	r.rows[tokenKey(t.UserID, t.Type)] = *t
	return nil
}

func (r *memTokens) DeleteByUser(_ context.Context, userID string, typ entity.TokenType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, tokenKey(userID, typ))
	return nil
}

func (r *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.rows {
		if !t.Live(now) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

func (r *memTokens) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type otpEntry struct {
	code    string
	expires time.Time
}

type memOTPs struct {
	mu      sync.Mutex
	clock   *clock
	byEmail map[string]otpEntry
	byCode  map[string]string
}

func newMemOTPs(c *clock) *memOTPs {
	return &memOTPs{clock: c, byEmail: map[string]otpEntry{}, byCode: map[string]string{}}
}

func (r *memOTPs) live(email string) (otpEntry, bool) {
	e, ok := r.byEmail[email]
	if !ok {
		return otpEntry{}, false
	}
	if !r.clock.Now().Before(e.expires) {
		delete(r.byEmail, email)
		delete(r.byCode, e.code)
		return otpEntry{}, false
	}
	return e, true
}

func (r *memOTPs) FindByEmail(_ context.Context, email string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live(email)
	if !ok {
		return "", repository.ErrNotFound
	}
	return e.code, nil
}

func (r *memOTPs) Reserve(_ context.Context, email, code string, ttl time.Duration) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.live(email); ok {
		return e.code, true, nil
	}
	if owner, ok := r.byCode[code]; ok {
		if _, live := r.live(owner); live {
			return "", false, nil
		}
	}
	r.byEmail[email] = otpEntry{code: code, expires: r.clock.Now().Add(ttl)}
	r.byCode[code] = email
	return code, true, nil
}

func (r *memOTPs) Consume(_ context.Context, email, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.live(email)
	if !ok || e.code != code {
		return false, nil
	}
	delete(r.byEmail, email)
	delete(r.byCode, code)
	return true, nil
}

// plainHasher keeps tests fast; it still never stores the plain value.
type plainHasher struct {
	mu       sync.Mutex
	compares int
}

func (h *plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (h *plainHasher) Compare(hash, plain string) bool {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	return hash == "hashed:"+plain
}

func (h *plainHasher) Compares() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compares
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Dispatch(ctx context.Context, job mailer.EmailJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// recordingMailer keeps every job it was handed.
type recordingMailer struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (m *recordingMailer) Dispatch(_ context.Context, job mailer.EmailJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return m.err
}

func (m *recordingMailer) last() mailer.EmailJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.jobs) == 0 {
		return mailer.EmailJob{}
	}
	return m.jobs[len(m.jobs)-1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key, _ string, r io.Reader) error {
	if s.putErr != nil {
		return s.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *memStore) URL(key string) string { return "https://cdn.test/" + key }

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type memIndex struct {
	mu   sync.Mutex
	docs map[string]entity.User
}

func newMemIndex() *memIndex { return &memIndex{docs: map[string]entity.User{}} }

func (i *memIndex) Index(_ context.Context, u *entity.User) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	doc := *u
	doc.Password = ""
	i.docs[u.ID] = doc
	return nil
}

func (i *memIndex) Search(_ context.Context, q string, size int) ([]entity.User, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []entity.User
	for _, d := range i.docs {
		if strings.Contains(d.Email, q) || strings.Contains(strings.ToLower(d.FullName), strings.ToLower(q)) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

// interleavedUsers runs a hook right before a write reaches the store, to
// simulate another request landing between a service's read and its write.
type interleavedUsers struct {
	*memUsers
	beforeMarkSession func()
	beforeChangeEmail func()
}

func (r *interleavedUsers) MarkSession(ctx context.Context, id string, active bool, at time.Time) (*entity.User, error) {
	if r.beforeMarkSession != nil {
		r.beforeMarkSession()
	}
	return r.memUsers.MarkSession(ctx, id, active, at)
}

func (r *interleavedUsers) ChangeEmail(ctx context.Context, id, email string) (*entity.User, error) {
	if r.beforeChangeEmail != nil {
		r.beforeChangeEmail()
	}
	return r.memUsers.ChangeEmail(ctx, id, email)
}
