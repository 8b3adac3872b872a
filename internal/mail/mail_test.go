package mail

import (
	"context"
	"strings"
	"testing"
)

func TestConfigIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{name: "empty config", config: Config{}, expected: false},
		{name: "missing host", config: Config{Port: "587", From: "noreply@example.com"}, expected: false},
		{name: "missing from", config: Config{Host: "smtp.example.com", Port: "587"}, expected: false},
		{name: "fully configured", config: Config{Host: "smtp.example.com", Port: "587", From: "noreply@example.com"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.IsConfigured(); got != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewFallsBackToLogMailer(t *testing.T) {
	m := New(Config{})
	if _, ok := m.(LogMailer); !ok {
		t.Fatalf("New(empty) = %T, want LogMailer", m)
	}
	if err := m.Send(context.Background(), Message{To: "a@b.c", Subject: "x"}); err != nil {
		t.Fatalf("LogMailer.Send: %v", err)
	}
	if _, ok := New(Config{Host: "h", Port: "25", From: "f@x"}).(*SMTPMailer); !ok {
		t.Fatal("configured New should return an SMTPMailer")
	}
}

func TestBanMessageIncludesReason(t *testing.T) {
	msg, err := BanMessage("student@example.com", AccountData{
		AppName:     "Campus Troc",
		DisplayName: "Alex",
		Reason:      "Repeated spam listings <script>",
	})
	if err != nil {
		t.Fatalf("BanMessage: %v", err)
	}
	if msg.To != "student@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "suspended") {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "Repeated spam listings") {
		t.Error("text body should contain the reason")
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("html body must escape the reason")
	}
	if !strings.Contains(msg.HTML, "Repeated spam listings &lt;script&gt;") {
		t.Errorf("html body should contain escaped reason: %s", msg.HTML)
	}
}

func TestUnbanMessage(t *testing.T) {
	msg, err := UnbanMessage("student@example.com", AccountData{AppName: "Campus Troc", DisplayName: "Alex"})
	if err != nil {
		t.Fatalf("UnbanMessage: %v", err)
	}
	if !strings.Contains(msg.Subject, "reactivated") || !strings.Contains(msg.Text, "reactivated") {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestBuildMIME(t *testing.T) {
	raw := string(buildMIME("Campus Troc <noreply@example.com>", Message{
		To:      "a@example.com",
		Subject: "Hello",
		Text:    "line one\nline two",
		HTML:    "<p>hi</p>",
	}))

	for _, want := range []string{
		"To: a@example.com\r\n",
		"From: Campus Troc <noreply@example.com>\r\n",
		"Subject: Hello\r\n",
		"line one\r\nline two",
		"Content-Type: text/html; charset=UTF-8",
		"--" + boundary + "--",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
