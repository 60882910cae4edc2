package application

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/oksasatya/go-auth-service/config"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
)

type harness struct {
	clock    *clock
	users    *memUsers
	tokens   *memTokens
	otps     *memOTPs
	hasher   *plainHasher
	mail     *recordingMailer
	index    *memIndex
	jwt      *helpers.JWTManager
	issuer   *TokenIssuer
	verifier *CredentialVerifier
	sm       *SessionManager
	registry *prometheus.Registry
	logs     *test.Hook
}

type harnessOption func(*SessionConfig)

func requireVerified(c *SessionConfig) { c.RequireVerifiedLogin = true }

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	c := newClock()
	h := &harness{
		clock:    c,
		users:    newMemUsers(),
		tokens:   newMemTokens(c),
		otps:     newMemOTPs(c),
		hasher:   &plainHasher{},
		mail:     &recordingMailer{},
		index:    newMemIndex(),
		registry: prometheus.NewRegistry(),
	}
	h.jwt = helpers.NewJWTManager(helpers.JWTOptions{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		ResetSecret:   "reset-secret",
		Issuer:        "go-auth-service",
		Audience:      "go-auth-service-clients",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTTL:      30 * time.Minute,
	}).WithClock(c.Now)

	h.issuer = NewTokenIssuer(h.jwt, h.tokens)
	h.issuer.now = c.Now
	h.verifier = NewCredentialVerifier(h.users, h.hasher)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h.logs = hook

	cfg := SessionConfig{OTPTTL: 5 * time.Minute}
	for _, o := range opts {
		o(&cfg)
	}
	appCfg := &config.Config{AppName: "Acme", ResetPasswordURL: "https://front.test/reset-password"}
	h.sm = NewSessionManager(SessionDeps{
		Users:    h.users,
		OTPs:     h.otps,
		Issuer:   h.issuer,
		Verifier: h.verifier,
		Hasher:   h.hasher,
		Notifier: NewNotifier(h.mail, appCfg, logger),
		Indexer:  h.index,
		Metrics:  NewMetrics(h.registry),
		Logger:   logger,
	}, cfg)
	h.sm.now = c.Now
	return h
}

// counter reads auth_events_total{event,outcome} from the registry.
func (h *harness) counter(event, outcome string) float64 {
	families, err := h.registry.Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != "auth_events_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["event"] == event && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
