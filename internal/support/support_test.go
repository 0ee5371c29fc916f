package support

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/plugfox/helpdesk-server/internal/auth"
	"github.com/plugfox/helpdesk-server/internal/captcha"
	config "github.com/plugfox/helpdesk-server/internal/config"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	log "github.com/plugfox/helpdesk-server/internal/log"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/plugfox/helpdesk-server/internal/storage"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeCaptcha accepts every token once, except "wrong".
type fakeCaptcha struct {
	mu   sync.Mutex
	used map[string]bool
}

func (f *fakeCaptcha) Consume(_ context.Context, proof captcha.Proof) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if proof.Token == "wrong" || f.used[proof.Token] {
		return apperr.Validation("invalid captcha")
	}
	f.used[proof.Token] = true
	return nil
}

type recordedEvent struct {
	name   string
	userID int64
}

type recordingMetrics struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingMetrics) LogEvent(name string, _ map[string]string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: name})
}

func (r *recordingMetrics) LogUserEvent(name string, userID int64, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: name, userID: userID})
}

func (r *recordingMetrics) Close() {}

func (r *recordingMetrics) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.name == name {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu     sync.Mutex
	banned []string
}

func (n *recordingNotifier) UserBanned(_ context.Context, user *model.User, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.banned = append(n.banned, user.Username)
	return nil
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.banned...)
}

// blockingNotifier holds every notification until released or cancelled and
// reports the context error it saw.
type blockingNotifier struct {
	release chan struct{}
	done    chan error
}

func (n *blockingNotifier) UserBanned(ctx context.Context, _ *model.User, _ int) error {
	select {
	case <-n.release:
		n.done <- ctx.Err()
		return nil
	case <-ctx.Done():
		n.done <- ctx.Err()
		return ctx.Err()
	}
}

type testEnv struct {
	svc      *Service
	db       *storage.Storage
	clock    *testClock
	metrics  *recordingMetrics
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := storage.Open(sqlite.Open(dsn), log.Discard(), storage.WithSingleConnection(), storage.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens, err := auth.NewProvider("test-secret", time.Hour)
	require.NoError(t, err)

	env := &testEnv{db: db, clock: clock, metrics: &recordingMetrics{}, notifier: &recordingNotifier{}}
	env.svc, err = New(db, Dependencies{
		Config: &config.Config{
			Moderation: config.ModerationConfig{
				WarningThreshold: 3,
				BanReason:        "automatic: 3 violations",
				MaxMessageLength: 1000,
			},
			Stats: config.StatsConfig{
				CacheTTL:            time.Minute,
				TopLimit:            10,
				DefaultResponseTime: 45,
			},
		},
		Tokens:   tokens,
		Captcha:  &fakeCaptcha{used: map[string]bool{}},
		Metrics:  env.metrics,
		Notifier: env.notifier,
		Logger:   log.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(env.svc.Close)
	return env
}

func (e *testEnv) register(t *testing.T, username string) *auth.Identity {
	t.Helper()
	session, err := e.svc.Users.Register(context.Background(), Registration{
		Username: username,
		Password: "secret-" + username,
		Email:    username + "@zion.example",
		Station:  "Nebuchadnezzar",
		Captcha:  captcha.Proof{Token: "captcha-" + username, Answer: "12345"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	return &auth.Identity{UserID: session.User.ID, Role: session.User.Role}
}

func (e *testEnv) moderator(t *testing.T, username string) *auth.Identity {
	t.Helper()
	identity := e.register(t, username)
	user, err := e.db.SetRole(context.Background(), username, model.RoleModerator)
	require.NoError(t, err)
	identity.Role = user.Role
	return identity
}

func TestHelpdeskScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	neo := env.register(t, "neo")
	trinity := env.moderator(t, "trinity")

	ticket, err := env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "Cannot reach the Oracle"})
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusOpen, ticket.Status)
	require.Equal(t, model.TicketPriorityMedium, ticket.Priority)
	require.Equal(t, model.DefaultTicketCategory, ticket.Category)

	_, err = env.svc.Messages.Send(ctx, neo, NewMessage{TicketID: ticket.ID, Content: "  Hello?  "})
	require.NoError(t, err)

	dashboard, err := env.svc.Stats.Dashboard(ctx, trinity, nil)
	require.NoError(t, err)
	require.Zero(t, dashboard.Moderator.TotalTicketsClosed)
	require.Empty(t, dashboard.Top)
	require.Equal(t, int64(1), dashboard.System.OpenTickets)
	require.Equal(t, int64(45), dashboard.System.AverageResponseTime)

	env.clock.Advance(30 * time.Minute)
	reply, err := env.svc.Messages.Send(ctx, trinity, NewMessage{TicketID: ticket.ID, Content: "On my way"})
	require.NoError(t, err)
	require.Equal(t, model.DefaultMessageType, reply.MessageType)

	rows, err := env.svc.Tickets.List(ctx, trinity)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0].MessageCount)

	closed, err := env.svc.Tickets.UpdateStatus(ctx, trinity, StatusUpdate{TicketID: ticket.ID, Status: model.TicketStatusClosed})
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.AssignedModeratorID)
	require.Equal(t, trinity.UserID, *closed.AssignedModeratorID)

	rating, err := env.svc.Tickets.Rate(ctx, neo, Rating{TicketID: ticket.ID, Rating: 5, Comment: "fast"})
	require.NoError(t, err)
	require.Equal(t, trinity.UserID, rating.ModeratorID)

	dashboard, err = env.svc.Stats.Dashboard(ctx, trinity, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), dashboard.Moderator.TotalTicketsClosed)
	require.Equal(t, 5.0, dashboard.Moderator.AverageRating)
	require.Equal(t, int64(30), dashboard.Moderator.ResponseTimeAvg)
	require.Len(t, dashboard.Top, 1)
	require.Equal(t, "trinity", dashboard.Top[0].Username)
	require.Equal(t, int64(1), dashboard.System.TotalTickets)
	require.Zero(t, dashboard.System.OpenTickets)
	require.Equal(t, int64(1), dashboard.System.ClosedToday)
	require.Equal(t, int64(30), dashboard.System.AverageResponseTime)
	require.Equal(t, 100.0, dashboard.System.Satisfaction)

	require.Equal(t, 1, env.metrics.count("ticket_created"))
	require.Equal(t, 2, env.metrics.count("message_sent"))
	require.Equal(t, 1, env.metrics.count("ticket_rated"))
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "neo")

	session, err := env.svc.Users.Authenticate(ctx, "neo", "secret-neo")
	require.NoError(t, err)
	require.Equal(t, int64(1), session.User.TotalLogins)
	require.True(t, session.User.LastLogin.Valid)

	testcases := []struct {
		name     string
		username string
		password string
		kind     error
	}{
		{name: "wrong password", username: "neo", password: "secret", kind: apperr.ErrInvalidCredentials},
		{name: "unknown user", username: "smith", password: "secret-neo", kind: apperr.ErrInvalidCredentials},
		{name: "empty password", username: "neo", password: "", kind: apperr.ErrValidation},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Users.Authenticate(ctx, tc.username, tc.password)
			require.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestRegisterRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "neo")

	testcases := []struct {
		name string
		in   Registration
		kind error
	}{
		{
			name: "duplicate username",
			in:   Registration{Username: "neo", Password: "x", Email: "other@zion.example", Station: "Zion", Captcha: captcha.Proof{Token: "a"}},
			kind: apperr.ErrConflict,
		},
		{
			name: "duplicate email ignores case",
			in:   Registration{Username: "thomas", Password: "x", Email: "NEO@zion.example", Station: "Zion", Captcha: captcha.Proof{Token: "b"}},
			kind: apperr.ErrConflict,
		},
		{
			name: "missing station",
			in:   Registration{Username: "morpheus", Password: "x", Email: "m@zion.example", Captcha: captcha.Proof{Token: "c"}},
			kind: apperr.ErrValidation,
		},
		{
			name: "missing captcha",
			in:   Registration{Username: "morpheus", Password: "x", Email: "m@zion.example", Station: "Zion"},
			kind: apperr.ErrValidation,
		},
		{
			name: "wrong captcha",
			in:   Registration{Username: "morpheus", Password: "x", Email: "m@zion.example", Station: "Zion", Captcha: captcha.Proof{Token: "wrong"}},
			kind: apperr.ErrValidation,
		},
		{
			name: "invalid email",
			in:   Registration{Username: "morpheus", Password: "x", Email: "not an email", Station: "Zion", Captcha: captcha.Proof{Token: "d"}},
			kind: apperr.ErrValidation,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Users.Register(ctx, tc.in)
			require.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestTicketIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	neo := env.register(t, "neo")
	cypher := env.register(t, "cypher")
	trinity := env.moderator(t, "trinity")

	ticket, err := env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "private", Priority: model.TicketPriorityHigh})
	require.NoError(t, err)
	_, err = env.svc.Tickets.Create(ctx, cypher, NewTicket{Title: "steak"})
	require.NoError(t, err)

	own, err := env.svc.Tickets.List(ctx, cypher)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, "steak", own[0].Title)

	all, err := env.svc.Tickets.List(ctx, trinity)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = env.svc.Messages.List(ctx, cypher, ticket.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.svc.Messages.Send(ctx, cypher, NewMessage{TicketID: ticket.ID, Content: "let me in"})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.svc.Messages.List(ctx, trinity, ticket.ID)
	require.NoError(t, err)
}

func TestMessageOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	neo := env.register(t, "neo")

	ticket, err := env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "order"})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		env.clock.Advance(time.Minute)
		_, err := env.svc.Messages.Send(ctx, neo, NewMessage{TicketID: ticket.ID, Content: fmt.Sprintf("message %d", i)})
		require.NoError(t, err)
	}

	messages, err := env.svc.Messages.List(ctx, neo, ticket.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, msg := range messages {
		require.Equal(t, fmt.Sprintf("message %d", i+1), msg.Content)
	}

	rows, err := env.svc.Tickets.List(ctx, neo)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].UpdatedAt.Equal(env.clock.Now()))
}

func TestValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	neo := env.register(t, "neo")
	ticket, err := env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "valid"})
	require.NoError(t, err)

	testcases := []struct {
		name string
		call func() error
		kind error
	}{
		{
			name: "anonymous ticket",
			call: func() error {
				_, err := env.svc.Tickets.Create(ctx, nil, NewTicket{Title: "x"})
				return err
			},
			kind: apperr.ErrUnauthenticated,
		},
		{
			name: "empty title",
			call: func() error {
				_, err := env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "   "})
				return err
			},
			kind: apperr.ErrValidation,
		},
		{
			name: "unknown priority",
			call: func() error {
				_, err := env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "x", Priority: "urgent"})
				return err
			},
			kind: apperr.ErrValidation,
		},
		{
			name: "blank message",
			call: func() error {
				_, err := env.svc.Messages.Send(ctx, neo, NewMessage{TicketID: ticket.ID, Content: " \n "})
				return err
			},
			kind: apperr.ErrValidation,
		},
		{
			name: "message too long",
			call: func() error {
				_, err := env.svc.Messages.Send(ctx, neo, NewMessage{TicketID: ticket.ID, Content: strings.Repeat("ж", 1001)})
				return err
			},
			kind: apperr.ErrValidation,
		},
		{
			name: "message to unknown ticket",
			call: func() error {
				_, err := env.svc.Messages.Send(ctx, neo, NewMessage{TicketID: 999, Content: "hello"})
				return err
			},
			kind: apperr.ErrNotFound,
		},
		{
			name: "status update by user",
			call: func() error {
				_, err := env.svc.Tickets.UpdateStatus(ctx, neo, StatusUpdate{TicketID: ticket.ID, Status: model.TicketStatusClosed})
				return err
			},
			kind: apperr.ErrForbidden,
		},
		{
			name: "unknown status",
			call: func() error {
				_, err := env.svc.Tickets.UpdateStatus(ctx, neo, StatusUpdate{TicketID: ticket.ID, Status: "resolved"})
				return err
			},
			kind: apperr.ErrValidation,
		},
		{
			name: "report without reason",
			call: func() error {
				_, err := env.svc.Moderation.Report(ctx, neo, NewReport{MessageID: 1})
				return err
			},
			kind: apperr.ErrValidation,
		},
		{
			name: "reports listed by user",
			call: func() error {
				_, err := env.svc.Moderation.ListReports(ctx, neo)
				return err
			},
			kind: apperr.ErrForbidden,
		},
		{
			name: "dashboard for user",
			call: func() error {
				_, err := env.svc.Stats.Dashboard(ctx, neo, nil)
				return err
			},
			kind: apperr.ErrForbidden,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.call(), tc.kind)
		})
	}

	_, err = env.svc.Messages.Send(ctx, neo, NewMessage{TicketID: ticket.ID, Content: strings.Repeat("ж", 1000)})
	require.NoError(t, err)
}

func TestReportsBanAtThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	neo := env.register(t, "neo")
	smith := env.register(t, "smith")
	trinity := env.moderator(t, "trinity")

	smithTicket, err := env.svc.Tickets.Create(ctx, smith, NewTicket{Title: "mr anderson"})
	require.NoError(t, err)

	reporters := []*auth.Identity{neo, trinity, env.register(t, "morpheus")}
	messages := make([]*model.Message, len(reporters))
	for i := range reporters {
		messages[i], err = env.svc.Messages.Send(ctx, smith, NewMessage{TicketID: smithTicket.ID, Content: fmt.Sprintf("insult %d", i)})
		require.NoError(t, err)
	}

	outcomes := make([]*model.ReportOutcome, len(reporters))
	errs := make([]error, len(reporters))
	var wg sync.WaitGroup
	for i, reporter := range reporters {
		wg.Add(1)
		go func(i int, reporter *auth.Identity) {
			defer wg.Done()
			outcomes[i], errs[i] = env.svc.Moderation.Report(ctx, reporter, NewReport{
				MessageID: messages[i].ID,
				Reason:    "spam",
			})
		}(i, reporter)
	}
	wg.Wait()

	triggered := 0
	for i := range reporters {
		require.NoError(t, errs[i])
		if outcomes[i].Banned {
			triggered++
		}
	}
	require.Equal(t, 1, triggered)

	user, err := env.db.UserByID(ctx, smith.UserID)
	require.NoError(t, err)
	require.Equal(t, 3, user.WarningCount)
	require.True(t, user.IsBanned)
	require.Equal(t, "automatic: 3 violations", user.BanReason)
	env.svc.Moderation.Wait()
	require.Equal(t, []string{"smith"}, env.notifier.names())
	require.Equal(t, 1, env.metrics.count("user_banned"))

	_, err = env.svc.Users.Authenticate(ctx, "smith", "secret-smith")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.svc.Messages.Send(ctx, smith, NewMessage{TicketID: smithTicket.ID, Content: "still here"})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.svc.Moderation.Report(ctx, neo, NewReport{MessageID: messages[0].ID, Reason: "again"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	reports, err := env.svc.Moderation.ListReports(ctx, trinity)
	require.NoError(t, err)
	require.Len(t, reports, 3)
}

func TestBanNotificationDetached(t *testing.T) {
	testcases := []struct {
		name    string
		timeout time.Duration
		release bool
		wantErr error
	}{
		{name: "outlives the request", timeout: time.Minute, release: true},
		{name: "gives up after the timeout", timeout: 20 * time.Millisecond, wantErr: context.DeadlineExceeded},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			notifier := &blockingNotifier{release: make(chan struct{}), done: make(chan error, 1)}
			env.svc.Moderation.notifier = notifier
			env.svc.Moderation.notifyTimeout = tc.timeout

			smith := env.register(t, "smith")
			ticket, err := env.svc.Tickets.Create(context.Background(), smith, NewTicket{Title: "mr anderson"})
			require.NoError(t, err)

			var outcome *model.ReportOutcome
			for i, reporter := range []string{"neo", "morpheus", "tank"} {
				msg, err := env.svc.Messages.Send(context.Background(), smith, NewMessage{TicketID: ticket.ID, Content: fmt.Sprintf("insult %d", i)})
				require.NoError(t, err)
				ctx, cancel := context.WithCancel(context.Background())
				outcome, err = env.svc.Moderation.Report(ctx, env.register(t, reporter), NewReport{MessageID: msg.ID, Reason: "spam"})
				cancel()
				require.NoError(t, err)
			}
			require.True(t, outcome.Banned)
			require.Equal(t, 1, env.metrics.count("user_banned"))

			if tc.release {
				close(notifier.release)
			}
			env.svc.Moderation.Wait()
			err = <-notifier.done
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStoredRoleGatesModeratorReads(t *testing.T) {
	testcases := []struct {
		name      string
		role      model.Role
		wantErr   error
		wantCount int
	}{
		{name: "moderator keeps access", role: model.RoleModerator, wantCount: 1},
		{name: "admin keeps access", role: model.RoleAdmin, wantCount: 1},
		{name: "demoted user loses access", role: model.RoleUser, wantErr: apperr.ErrForbidden},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			neo := env.register(t, "neo")
			trinity := env.moderator(t, "trinity")

			ticket, err := env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "Router down"})
			require.NoError(t, err)

			// The token keeps the moderator role issued at login.
			_, err = env.db.SetRole(ctx, "trinity", tc.role)
			require.NoError(t, err)
			require.True(t, trinity.IsModerator())

			rows, err := env.svc.Tickets.List(ctx, trinity)
			require.NoError(t, err)
			_, reportsErr := env.svc.Moderation.ListReports(ctx, trinity)
			_, dashboardErr := env.svc.Stats.Dashboard(ctx, trinity, nil)
			_, messagesErr := env.svc.Messages.List(ctx, trinity, ticket.ID)

			if tc.wantErr != nil {
				require.Empty(t, rows)
				require.ErrorIs(t, reportsErr, tc.wantErr)
				require.ErrorIs(t, dashboardErr, tc.wantErr)
				require.ErrorIs(t, messagesErr, tc.wantErr)
				return
			}
			require.Len(t, rows, tc.wantCount)
			require.NoError(t, reportsErr)
			require.NoError(t, dashboardErr)
			require.NoError(t, messagesErr)
		})
	}
}

func TestNewRejectsWarningThreshold(t *testing.T) {
	testcases := []struct {
		name      string
		threshold int
	}{
		{name: "zero", threshold: 0},
		{name: "negative", threshold: -1},
	}

	env := newTestEnv(t)
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := New(env.db, Dependencies{
				Config: &config.Config{
					Moderation: config.ModerationConfig{WarningThreshold: tc.threshold},
					Stats:      config.StatsConfig{TopLimit: 10},
				},
				Logger: log.Discard(),
			})
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

func TestSatisfaction(t *testing.T) {
	testcases := []struct {
		avg  float64
		want float64
	}{
		{avg: 5, want: 100},
		{avg: 4, want: 80},
		{avg: 2.5, want: 50},
		{avg: 0, want: 0},
		{avg: 7, want: 100},
		{avg: -1, want: 0},
	}
	for _, tc := range testcases {
		t.Run(fmt.Sprint(tc.avg), func(t *testing.T) {
			require.InDelta(t, tc.want, satisfaction(tc.avg), 1e-9)
		})
	}
}

func TestStatsCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	neo := env.register(t, "neo")

	overview, err := env.svc.Stats.SystemOverview(ctx)
	require.NoError(t, err)
	require.Zero(t, overview.TotalTickets)

	// Written behind the aggregator's back, so the cached rollup is stale.
	require.NoError(t, env.db.CreateTicket(ctx, &model.Ticket{
		Title:    "direct",
		Priority: model.TicketPriorityLow,
		Category: model.DefaultTicketCategory,
		UserID:   neo.UserID,
	}))
	overview, err = env.svc.Stats.SystemOverview(ctx)
	require.NoError(t, err)
	require.Zero(t, overview.TotalTickets)

	env.svc.Stats.Invalidate()
	overview, err = env.svc.Stats.SystemOverview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), overview.TotalTickets)

	_, err = env.svc.Tickets.Create(ctx, neo, NewTicket{Title: "through the store"})
	require.NoError(t, err)
	overview, err = env.svc.Stats.SystemOverview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), overview.TotalTickets)
}
