package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gradus/internal/auth/models"
	refreshtoken "gradus/internal/auth/store/refresh-token"
	sessionstore "gradus/internal/auth/store/session"
	studentmodels "gradus/internal/student/models"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/middleware/requesttime"
	"gradus/pkg/requestcontext"
	"gradus/pkg/secrets"
	"gradus/pkg/testutil"
)

var testTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Hashed once; bcrypt is slow enough to notice per-test.
var passwordHash = func() string {
	hash, err := secrets.Hash("correct-horse")
	if err != nil {
		panic(err)
	}
	return hash
}()

func account(email string) *studentmodels.Student {
	student, err := studentmodels.NewStudent(id.StudentID(uuid.New()), email, passwordHash, "Ada Lovelace", id.StudentTypeFreshman, "2024", testTime)
	if err != nil {
		panic(err)
	}
	return student
}

// stubDirectory is a test double for the student directory
type stubDirectory struct {
	mu       sync.Mutex
	students map[id.StudentID]studentmodels.Student
	byEmail  map[string]id.StudentID

	findErr error
	getErr  error
}

func newStubDirectory(students ...*studentmodels.Student) *stubDirectory {
	d := &stubDirectory{
		students: make(map[id.StudentID]studentmodels.Student),
		byEmail:  make(map[string]id.StudentID),
	}
	for _, student := range students {
		d.students[student.ID] = *student
		d.byEmail[student.Email] = student.ID
	}
	return d
}

func (d *stubDirectory) FindByEmail(_ context.Context, email string) (*studentmodels.Student, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if studentID, ok := d.byEmail[email]; ok {
		student := d.students[studentID]
		return &student, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
}

func (d *stubDirectory) GetAccount(_ context.Context, studentID id.StudentID) (*studentmodels.Student, error) {
	if d.getErr != nil {
		return nil, d.getErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if student, ok := d.students[studentID]; ok {
		return &student, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
}

// stubTokenIssuer mints predictable tokens so tests can follow a pair
// through the stores.
type stubTokenIssuer struct {
	issued     int
	accessErr  error
	refreshErr error
}

func (t *stubTokenIssuer) GenerateAccessTokenWithJTI(_ context.Context, _ id.StudentID, _ id.SessionID, _ string) (string, string, error) {
	if t.accessErr != nil {
		return "", "", t.accessErr
	}
	t.issued++
	return fmt.Sprintf("access-%d", t.issued), fmt.Sprintf("jti-%d", t.issued), nil
}

func (t *stubTokenIssuer) CreateRefreshToken() (string, error) {
	if t.refreshErr != nil {
		return "", t.refreshErr
	}
	return fmt.Sprintf("refresh-%d", t.issued), nil
}

func (t *stubTokenIssuer) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

// stubSessionStore is a test double for the session store
type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[id.SessionID]models.Session

	createErr  error
	findErr    error
	listErr    error
	advanceErr error
	revokeErr  error
}

func newStubSessionStore(sessions ...*models.Session) *stubSessionStore {
	s := &stubSessionStore{sessions: make(map[id.SessionID]models.Session)}
	for _, session := range sessions {
		s.sessions[session.ID] = *session
	}
	return s
}

func (s *stubSessionStore) Create(_ context.Context, session *models.Session) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *stubSessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return &session, nil
	}
	return nil, sessionstore.ErrNotFound
}

func (s *stubSessionStore) ListByStudent(_ context.Context, studentID id.StudentID) ([]models.Session, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]models.Session, 0)
	for _, session := range s.sessions {
		if session.StudentID == studentID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastSeenAt.After(sessions[j].LastSeenAt)
	})
	return sessions, nil
}

func (s *stubSessionStore) AdvanceRefresh(_ context.Context, sessionID id.SessionID, at time.Time, jti string) (*models.Session, error) {
	if s.advanceErr != nil {
		return nil, s.advanceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sessionstore.ErrNotFound
	}
	if session.IsRevoked() {
		return nil, sessionstore.ErrRevoked
	}
	if !session.IsActive(at) {
		return nil, sessionstore.ErrExpired
	}
	session.RecordRefresh(at, jti)
	s.sessions[sessionID] = session
	return &session, nil
}

func (s *stubSessionStore) Revoke(_ context.Context, sessionID id.SessionID, at time.Time) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return sessionstore.ErrNotFound
	}
	session.Revoke(at)
	s.sessions[sessionID] = session
	return nil
}

func (s *stubSessionStore) get(sessionID id.SessionID) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *stubSessionStore) single() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) != 1 {
		return models.Session{}, false
	}
	for _, session := range s.sessions {
		return session, true
	}
	return models.Session{}, false
}

// stubRefreshTokenStore is a test double for the refresh token store
type stubRefreshTokenStore struct {
	mu      sync.Mutex
	records map[string]models.RefreshTokenRecord

	createErr  error
	consumeErr error
	deleteErr  error
}

func newStubRefreshTokenStore() *stubRefreshTokenStore {
	return &stubRefreshTokenStore{records: make(map[string]models.RefreshTokenRecord)}
}

func (s *stubRefreshTokenStore) Create(_ context.Context, record *models.RefreshTokenRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.TokenHash] = *record
	return nil
}

func (s *stubRefreshTokenStore) ConsumeRefreshToken(_ context.Context, tokenHash string, now time.Time) (*models.RefreshTokenRecord, error) {
	if s.consumeErr != nil {
		return nil, s.consumeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[tokenHash]
	if !ok {
		return nil, refreshtoken.ErrNotFound
	}
	if record.IsExpired(now) {
		expired := record
		return &expired, refreshtoken.ErrTokenExpired
	}
	if record.Used {
		used := record
		return &used, refreshtoken.ErrTokenUsed
	}
	record.Used = true
	refreshedAt := now
	record.LastRefreshedAt = &refreshedAt
	s.records[tokenHash] = record
	consumed := record
	return &consumed, nil
}

func (s *stubRefreshTokenStore) DeleteBySessionID(_ context.Context, sessionID id.SessionID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := false
	for hash, record := range s.records {
		if record.SessionID == sessionID {
			delete(s.records, hash)
			deleted = true
		}
	}
	if !deleted {
		return refreshtoken.ErrNotFound
	}
	return nil
}

func (s *stubRefreshTokenStore) forSession(sessionID id.SessionID) []models.RefreshTokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []models.RefreshTokenRecord
	for _, record := range s.records {
		if record.SessionID == sessionID {
			records = append(records, record)
		}
	}
	return records
}

// stubTRL captures revoked JTIs for assertions.
type stubTRL struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newStubTRL() *stubTRL {
	return &stubTRL{revoked: make(map[string]time.Duration)}
}

func (l *stubTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = ttl
	return nil
}

func (l *stubTRL) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.revoked[jti]
	return ok, nil
}

func (l *stubTRL) revokedTTL(jti string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ttl, ok := l.revoked[jti]
	return ttl, ok
}

// capturingEmitter records audit events for assertions.
type capturingEmitter struct {
	events []audit.Event
}

func (e *capturingEmitter) Emit(_ context.Context, event audit.Event) error {
	e.events = append(e.events, event)
	return nil
}

func (e *capturingEmitter) actions() []string {
	actions := make([]string, 0, len(e.events))
	for _, event := range e.events {
		actions = append(actions, event.Action)
	}
	return actions
}

// serviceEnv wires a Service over fresh stubs for one subtest.
type serviceEnv struct {
	directory *stubDirectory
	tokens    *stubTokenIssuer
	sessions  *stubSessionStore
	refresh   *stubRefreshTokenStore
	trl       *stubTRL
	emitter   *capturingEmitter
	svc       *Service
}

func newTestService(students ...*studentmodels.Student) *serviceEnv {
	env := &serviceEnv{
		directory: newStubDirectory(students...),
		tokens:    &stubTokenIssuer{},
		sessions:  newStubSessionStore(),
		refresh:   newStubRefreshTokenStore(),
		trl:       newStubTRL(),
		emitter:   &capturingEmitter{},
	}
	env.svc = New(env.directory, env.tokens, env.sessions, env.refresh,
		WithRevocationList(env.trl),
		WithAuditLogger(audit.NewLogger(nil, env.emitter)),
	)
	return env
}

func (env *serviceEnv) seedSession(session *models.Session) {
	env.sessions.sessions[session.ID] = *session
}

func (env *serviceEnv) seedToken(raw string, sessionID id.SessionID, expiresAt time.Time) {
	hash := models.HashToken(raw)
	env.refresh.records[hash] = models.RefreshTokenRecord{
		TokenHash: hash,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		CreatedAt: testTime,
	}
}

type ServiceSuite struct {
	suite.Suite
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestLogin() {
	ctx := requesttime.WithTime(context.Background(), testTime)

	s.Run("opens a session and returns a bearer token pair", func() {
		student := account("ada@university.edu")
		env := newTestService(student)
		loginCtx := requestcontext.WithClientMetadata(ctx, "203.0.113.7",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		result, err := env.svc.Login(loginCtx, " Ada@University.EDU ", "correct-horse")
		s.Require().NoError(err)
		s.Equal("Bearer", result.TokenType)
		s.Equal(900, result.ExpiresIn)
		s.Equal("access-1", result.AccessToken)
		s.Equal("refresh-1", result.RefreshToken)

		session, ok := env.sessions.single()
		s.Require().True(ok)
		s.Equal(student.ID, session.StudentID)
		s.Equal(models.SessionStatusActive, session.Status)
		s.Equal("jti-1", session.LastAccessTokenJTI)
		s.Contains(session.DeviceDisplayName, "Chrome")
		s.Equal(testTime, session.CreatedAt)
		s.Equal(testTime.Add(defaultSessionTTL), session.ExpiresAt)

		record, ok := env.refresh.records[models.HashToken(result.RefreshToken)]
		s.Require().True(ok)
		s.Equal(session.ID, record.SessionID)
		s.Equal(testTime.Add(defaultRefreshTTL), record.ExpiresAt)
		s.False(record.Used)

		s.Contains(env.emitter.actions(), string(audit.EventSessionCreated))
	})

	s.Run("answers unknown emails and wrong passwords identically", func() {
		env := newTestService(account("ada@university.edu"))

		_, unknownErr := env.svc.Login(ctx, "nobody@university.edu", "correct-horse")
		_, wrongErr := env.svc.Login(ctx, "ada@university.edu", "wrong-horse")
		s.Require().Error(unknownErr)
		s.Require().Error(wrongErr)
		s.True(dErrors.HasCode(unknownErr, dErrors.CodeInvalidCredentials))
		s.True(dErrors.HasCode(wrongErr, dErrors.CodeInvalidCredentials))
		s.Equal(unknownErr.Error(), wrongErr.Error())
		s.Contains(env.emitter.actions(), string(audit.EventAuthFailed))
	})

	s.Run("rejects missing email and password", func() {
		env := newTestService()

		_, err := env.svc.Login(ctx, "", "correct-horse")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = env.svc.Login(ctx, "ada@university.edu", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("wraps directory failures as internal", func() {
		env := newTestService()
		env.directory.findErr = errors.New("directory down")

		_, err := env.svc.Login(ctx, "ada@university.edu", "correct-horse")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("ends the session when the refresh token cannot be stored", func() {
		env := newTestService(account("ada@university.edu"))
		env.refresh.createErr = errors.New("disk full")

		_, err := env.svc.Login(ctx, "ada@university.edu", "correct-horse")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		session, ok := env.sessions.single()
		s.Require().True(ok)
		s.Equal(models.SessionStatusRevoked, session.Status)
	})
}

func (s *ServiceSuite) TestRefresh() {
	ctx := requesttime.WithTime(context.Background(), testTime)

	s.Run("rotates the token pair and advances the session", func() {
		student := account("ada@university.edu")
		env := newTestService(student)
		session := testutil.NewSessionBuilder().
			WithStudentID(student.ID).
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(29 * 24 * time.Hour)).
			Build()
		env.seedSession(session)
		env.seedToken("old-refresh", session.ID, testTime.Add(time.Hour))

		result, err := env.svc.Refresh(ctx, "old-refresh")
		s.Require().NoError(err)
		s.Equal("access-1", result.AccessToken)
		s.Equal("refresh-1", result.RefreshToken)
		s.NotEqual("old-refresh", result.RefreshToken)

		old := env.refresh.records[models.HashToken("old-refresh")]
		s.True(old.Used)

		replacement, ok := env.refresh.records[models.HashToken(result.RefreshToken)]
		s.Require().True(ok)
		s.Equal(session.ID, replacement.SessionID)
		s.Equal(testTime.Add(defaultRefreshTTL), replacement.ExpiresAt)

		advanced, ok := env.sessions.get(session.ID)
		s.Require().True(ok)
		s.Equal("jti-1", advanced.LastAccessTokenJTI)
		s.Require().NotNil(advanced.LastRefreshedAt)
		s.Equal(testTime, *advanced.LastRefreshedAt)
		s.Equal(testTime, advanced.LastSeenAt)

		s.Contains(env.emitter.actions(), string(audit.EventTokenRefreshed))
	})

	s.Run("rejects an unknown token", func() {
		env := newTestService()

		_, err := env.svc.Refresh(ctx, "never-issued")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("rejects an expired token without burning it", func() {
		student := account("ada@university.edu")
		env := newTestService(student)
		session := testutil.NewSessionBuilder().WithStudentID(student.ID).CreatedAt(testTime.Add(-time.Hour)).Build()
		env.seedSession(session)
		env.seedToken("stale-refresh", session.ID, testTime.Add(-time.Minute))

		_, err := env.svc.Refresh(ctx, "stale-refresh")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
		s.False(env.refresh.records[models.HashToken("stale-refresh")].Used)
	})

	s.Run("rejects a token whose session was revoked", func() {
		student := account("ada@university.edu")
		env := newTestService(student)
		session := testutil.NewSessionBuilder().
			WithStudentID(student.ID).
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(29 * 24 * time.Hour)).
			Revoked().
			Build()
		env.seedSession(session)
		env.seedToken("doomed-refresh", session.ID, testTime.Add(time.Hour))

		_, err := env.svc.Refresh(ctx, "doomed-refresh")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
		s.Contains(env.emitter.actions(), string(audit.EventAuthFailed))
	})

	s.Run("treats a burned token as theft and ends the session", func() {
		student := account("ada@university.edu")
		env := newTestService(student)
		session := testutil.NewSessionBuilder().
			WithStudentID(student.ID).
			WithLastAccessTokenJTI("jti-stolen").
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(29 * 24 * time.Hour)).
			Build()
		env.seedSession(session)
		env.seedToken("stolen-refresh", session.ID, testTime.Add(time.Hour))
		env.seedToken("live-refresh", session.ID, testTime.Add(time.Hour))
		burned := env.refresh.records[models.HashToken("stolen-refresh")]
		burned.Used = true
		env.refresh.records[burned.TokenHash] = burned

		_, err := env.svc.Refresh(ctx, "stolen-refresh")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))

		revoked, ok := env.sessions.get(session.ID)
		s.Require().True(ok)
		s.Equal(models.SessionStatusRevoked, revoked.Status)
		s.Empty(env.refresh.forSession(session.ID))

		ttl, ok := env.trl.revokedTTL("jti-stolen")
		s.Require().True(ok)
		s.Equal(15*time.Minute, ttl)

		s.Contains(env.emitter.actions(), string(audit.EventTokenReuseDetected))

		// The thief learns nothing: same answer as for a token that
		// never existed.
		_, unknownErr := newTestService().svc.Refresh(ctx, "never-issued")
		s.Equal(unknownErr.Error(), err.Error())
	})

	s.Run("rejects a token whose account is gone", func() {
		env := newTestService()
		session := testutil.NewSessionBuilder().
			WithStudentID(id.StudentID(uuid.New())).
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(29 * 24 * time.Hour)).
			Build()
		env.seedSession(session)
		env.seedToken("orphan-refresh", session.ID, testTime.Add(time.Hour))

		_, err := env.svc.Refresh(ctx, "orphan-refresh")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	s.Run("rejects an empty token", func() {
		env := newTestService()

		_, err := env.svc.Refresh(ctx, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestLogout() {
	ctx := requesttime.WithTime(context.Background(), testTime)

	s.Run("revokes the session and destroys its tokens", func() {
		env := newTestService()
		session := testutil.NewSessionBuilder().
			WithLastAccessTokenJTI("jti-current").
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(29 * 24 * time.Hour)).
			Build()
		env.seedSession(session)
		env.seedToken("current-refresh", session.ID, testTime.Add(time.Hour))

		s.Require().NoError(env.svc.Logout(ctx, session.ID))

		revoked, ok := env.sessions.get(session.ID)
		s.Require().True(ok)
		s.Equal(models.SessionStatusRevoked, revoked.Status)
		s.Empty(env.refresh.forSession(session.ID))

		_, ok = env.trl.revokedTTL("jti-current")
		s.True(ok)
		s.Contains(env.emitter.actions(), string(audit.EventSessionRevoked))
	})

	s.Run("logging out an unknown session succeeds", func() {
		env := newTestService()

		s.NoError(env.svc.Logout(ctx, id.SessionID(uuid.New())))
		s.Empty(env.emitter.events)
	})

	s.Run("rejects a nil session ID", func() {
		env := newTestService()

		err := env.svc.Logout(ctx, id.SessionID{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestRevokeSession() {
	ctx := requesttime.WithTime(context.Background(), testTime)
	studentID := id.StudentID(uuid.New())

	s.Run("ends another of the student's sessions", func() {
		env := newTestService()
		current := testutil.NewSessionBuilder().
			WithStudentID(studentID).
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(29 * 24 * time.Hour)).
			Build()
		other := testutil.NewSessionBuilder().
			WithStudentID(studentID).
			WithLastAccessTokenJTI("jti-other").
			CreatedAt(testTime.Add(-48 * time.Hour)).
			ExpiresAt(testTime.Add(27 * 24 * time.Hour)).
			Build()
		env.seedSession(current)
		env.seedSession(other)
		env.seedToken("other-refresh", other.ID, testTime.Add(time.Hour))

		s.Require().NoError(env.svc.RevokeSession(ctx, studentID, other.ID))

		revoked, _ := env.sessions.get(other.ID)
		s.Equal(models.SessionStatusRevoked, revoked.Status)
		untouched, _ := env.sessions.get(current.ID)
		s.Equal(models.SessionStatusActive, untouched.Status)
		s.Empty(env.refresh.forSession(other.ID))

		_, ok := env.trl.revokedTTL("jti-other")
		s.True(ok)
	})

	s.Run("answers not found for someone else's session", func() {
		env := newTestService()
		foreign := testutil.NewSessionBuilder().
			WithStudentID(id.StudentID(uuid.New())).
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(29 * 24 * time.Hour)).
			Build()
		env.seedSession(foreign)

		err := env.svc.RevokeSession(ctx, studentID, foreign.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		untouched, _ := env.sessions.get(foreign.ID)
		s.Equal(models.SessionStatusActive, untouched.Status)
	})

	s.Run("answers not found for an unknown session", func() {
		env := newTestService()

		err := env.svc.RevokeSession(ctx, studentID, id.SessionID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListSessions() {
	ctx := requesttime.WithTime(context.Background(), testTime)
	studentID := id.StudentID(uuid.New())

	s.Run("lists live sessions newest first with the caller flagged", func() {
		env := newTestService()
		current := testutil.NewSessionBuilder().
			WithStudentID(studentID).
			CreatedAt(testTime.Add(-2 * time.Hour)).
			LastSeenAt(testTime).
			ExpiresAt(testTime.Add(24 * time.Hour)).
			Build()
		older := testutil.NewSessionBuilder().
			WithStudentID(studentID).
			WithDevice("").
			CreatedAt(testTime.Add(-48 * time.Hour)).
			LastSeenAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(24 * time.Hour)).
			Build()
		revoked := testutil.NewSessionBuilder().
			WithStudentID(studentID).
			CreatedAt(testTime.Add(-time.Hour)).
			ExpiresAt(testTime.Add(24 * time.Hour)).
			Revoked().
			Build()
		expired := testutil.NewSessionBuilder().
			WithStudentID(studentID).
			CreatedAt(testTime.Add(-40 * 24 * time.Hour)).
			ExpiresAt(testTime.Add(-time.Minute)).
			Build()
		env.seedSession(current)
		env.seedSession(older)
		env.seedSession(revoked)
		env.seedSession(expired)

		summaries, err := env.svc.ListSessions(ctx, studentID, current.ID)
		s.Require().NoError(err)
		s.Require().Len(summaries, 2)

		s.Equal(current.ID, summaries[0].SessionID)
		s.True(summaries[0].IsCurrent)
		s.Equal("Chrome on Mac OS X", summaries[0].Device)
		s.Equal(testTime, summaries[0].LastActivity)

		s.Equal(older.ID, summaries[1].SessionID)
		s.False(summaries[1].IsCurrent)
		s.Equal("Unknown device", summaries[1].Device)
	})

	s.Run("returns an empty list for a student with no sessions", func() {
		env := newTestService()

		summaries, err := env.svc.ListSessions(ctx, studentID, id.SessionID{})
		s.Require().NoError(err)
		s.Empty(summaries)
	})

	s.Run("rejects a nil student ID", func() {
		env := newTestService()

		_, err := env.svc.ListSessions(ctx, id.StudentID{}, id.SessionID{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("wraps store failures as internal", func() {
		env := newTestService()
		env.sessions.listErr = errors.New("store down")

		_, err := env.svc.ListSessions(ctx, studentID, id.SessionID{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
