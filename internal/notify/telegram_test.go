package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type botServer struct {
	mu       sync.Mutex
	methods  []string
	document string
	fileName string
	caption  string
	chatID   string
	fail     bool
}

func (b *botServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	b.methods = append(b.methods, method)
	w.Header().Set("Content-Type", "application/json")

	switch method {
	case "getMe":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Todo","username":"todolist_bot"}}`)
	case "sendDocument":
		if b.fail {
			_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			b.caption = r.FormValue("caption")
			b.chatID = r.FormValue("chat_id")
			if file, header, err := r.FormFile("document"); err == nil {
				data, _ := io.ReadAll(file)
				b.document = string(data)
				b.fileName = header.Filename
			}
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		http.NotFound(w, r)
	}
}

func newNotifier(t *testing.T, srv *botServer) *TelegramNotifier {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	logger, _ := test.NewNullLogger()
	n, err := NewTelegramNotifierWithEndpoint("token", ts.URL+"/bot%s/%s", ts.Client(), 42, logger)
	require.NoError(t, err)
	return n
}

func TestTelegramNotifier_SendReport(t *testing.T) {
	srv := &botServer{}
	n := newNotifier(t, srv)

	err := n.SendReport(context.Background(), "Статистика за 15 октября 2026 г..csv", []byte("Id,Name\n1,a\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"getMe", "sendDocument"}, srv.methods)
	assert.Equal(t, "42", srv.chatID)
	assert.Equal(t, "📋 Статистика за 15 октября 2026 г.", srv.caption)
	assert.Equal(t, "Id,Name\n1,a\n", srv.document)
	assert.Equal(t, "Статистика за 15 октября 2026 г..csv", srv.fileName)
}

func TestTelegramNotifier_SendReportErrors(t *testing.T) {
	srv := &botServer{fail: true}
	n := newNotifier(t, srv)

	err := n.SendReport(context.Background(), "report.csv", []byte("x"))
	assert.ErrorContains(t, err, "chat not found")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = n.SendReport(ctx, "report.csv", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTelegramNotifierRequiresSettings(t *testing.T) {
	_, err := NewTelegramNotifier("", 42, nil)
	assert.ErrorContains(t, err, "token")

	_, err = NewTelegramNotifier("token", 0, nil)
	assert.ErrorContains(t, err, "chat id")
}
