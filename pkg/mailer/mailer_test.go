package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSendGridSenderSend(t *testing.T) {
	var payload map[string]interface{}
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewSendGridSender(Config{APIKey: "sg-key", FromName: "Registrar", FromAddress: "registrar@school.test", Host: srv.URL})
	err := sender.Send(context.Background(), Message{To: []string{"ops@school.test"}, Subject: "Transcript failed", Text: "stu-1"})
	require.NoError(t, err)
	require.Equal(t, "Bearer sg-key", auth)
	require.Equal(t, "/v3/mail/send", path)
	require.Equal(t, "registrar@school.test", payload["from"].(map[string]interface{})["email"])
	personalizations := payload["personalizations"].([]interface{})
	require.Len(t, personalizations, 1)
	require.Equal(t, "Transcript failed", personalizations[0].(map[string]interface{})["subject"])
}

func TestSendGridSenderRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	sender := NewSendGridSender(Config{APIKey: "bad", FromAddress: "registrar@school.test", Host: srv.URL})
	err := sender.Send(context.Background(), Message{To: []string{"ops@school.test"}, Subject: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")

	require.NoError(t, sender.Send(context.Background(), Message{}), "no recipients is a no-op")
}

func TestNewSelectsProvider(t *testing.T) {
	s, err := New(Config{Provider: "sendgrid", APIKey: "k"}, nil)
	require.NoError(t, err)
	require.IsType(t, &SendGridSender{}, s)

	_, err = New(Config{Provider: "sendgrid"}, nil)
	require.Error(t, err)

	s, err = New(Config{}, nil)
	require.NoError(t, err)
	require.IsType(t, &LogSender{}, s)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	require.NoError(t, NewLogSender(zap.New(core)).Send(context.Background(), Message{To: []string{"a@b.test"}, Subject: "hi"}))
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "hi", logs.All()[0].ContextMap()["subject"])
}

func TestParseAddresses(t *testing.T) {
	out, err := ParseAddresses(" ops@school.test, Registrar <reg@school.test>,, ")
	require.NoError(t, err)
	require.Equal(t, []string{"ops@school.test", "reg@school.test"}, out)

	_, err = ParseAddresses("not-an-address")
	require.Error(t, err)
}
