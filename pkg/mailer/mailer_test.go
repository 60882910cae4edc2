package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/go-auth-service/pkg/mailer/templates"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, to, subject, text, html string) error {
	args := m.Called(ctx, to, subject, text, html)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(ctx context.Context, body any) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}

func verifyJob() EmailJob {
	return EmailJob{
		To:       "a@x.com",
		Template: mailtpl.VerifyEmail,
		Data:     map[string]any{"Name": "Alice", "Code": "123456", "AppName": "Acme"},
	}
}

func TestRender_Template(t *testing.T) {
	msg, err := Render(verifyJob())
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Acme verification code: 123456", msg.Subject)
	assert.Contains(t, msg.Text, "123456")
	assert.Contains(t, msg.HTML, "123456")
}

func TestRender_Raw(t *testing.T) {
	msg, err := Render(EmailJob{To: "a@x.com", Subject: "Hi", Text: "body"})
	require.NoError(t, err)
	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "body", msg.Text)
}

func TestRender_Invalid(t *testing.T) {
	cases := map[string]EmailJob{
		"no recipient":     {Subject: "Hi", Text: "x"},
		"no body":          {To: "a@x.com", Subject: "Hi"},
		"unknown template": {To: "a@x.com", Template: "universal"},
	}
	for name, job := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Render(job)
			assert.True(t, errors.Is(err, ErrInvalidJob))
		})
	}
}

func TestQueueDispatcher(t *testing.T) {
	pub := &mockPublisher{}
	job := verifyJob()
	pub.On("PublishJSON", mock.Anything, job).Return(nil).Once()

	require.NoError(t, NewQueueDispatcher(pub).Dispatch(context.Background(), job))
	pub.AssertExpectations(t)
}

func TestQueueDispatcher_PublishError(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	err := NewQueueDispatcher(pub).Dispatch(context.Background(), verifyJob())
	assert.ErrorContains(t, err, "channel closed")
}

func TestDirectDispatcher(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, "a@x.com", "Acme verification code: 123456", mock.Anything, mock.Anything).
		Return(nil).Once()

	require.NoError(t, NewDirectDispatcher(sender).Dispatch(context.Background(), verifyJob()))
	sender.AssertExpectations(t)
}

func TestNoopDispatcher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, NoopDispatcher{Logger: logger}.Dispatch(context.Background(), verifyJob()))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestWorker_Handle(t *testing.T) {
	logger, _ := test.NewNullLogger()
	body, err := json.Marshal(verifyJob())
	require.NoError(t, err)

	t.Run("sent", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("Send", mock.Anything, "a@x.com", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		w := &Worker{Sender: sender, Logger: logger}
		assert.Equal(t, Ack, w.Handle(context.Background(), body, 1))
	})

	t.Run("send failure retries", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("mailgun down"))
		w := &Worker{Sender: sender, Logger: logger, MaxAttempts: 3}
		assert.Equal(t, Retry, w.Handle(context.Background(), body, 1))
		assert.Equal(t, Retry, w.Handle(context.Background(), body, 2))
	})

	t.Run("bad payload dropped", func(t *testing.T) {
		sender := &mockSender{}
		w := &Worker{Sender: sender, Logger: logger}
		assert.Equal(t, Drop, w.Handle(context.Background(), []byte("{not json"), 1))
		sender.AssertNotCalled(t, "Send")
	})
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	logger, hook := test.NewNullLogger()
	body, err := json.Marshal(verifyJob())
	require.NoError(t, err)

	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("bad recipient domain"))
	w := &Worker{Sender: sender, Logger: logger, MaxAttempts: 3}

	assert.Equal(t, Drop, w.Handle(context.Background(), body, 3))
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, 3, hook.LastEntry().Data["attempt"])

	// the default cap applies when none is configured
	w = &Worker{Sender: sender, Logger: logger}
	assert.Equal(t, Retry, w.Handle(context.Background(), body, 4))
	assert.Equal(t, Drop, w.Handle(context.Background(), body, 5))
}

func TestWorker_Backoff(t *testing.T) {
	w := &Worker{RetryDelay: time.Second}
	assert.Equal(t, time.Second, w.Backoff(0))
	assert.Equal(t, time.Second, w.Backoff(1))
	assert.Equal(t, 3*time.Second, w.Backoff(3))
	assert.Equal(t, time.Minute, w.Backoff(500))

	assert.Equal(t, 4*time.Second, (&Worker{}).Backoff(2))
}
