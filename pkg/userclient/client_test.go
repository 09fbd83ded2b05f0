package userclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExistsByNickname(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		want       bool
		wantErr    bool
	}{
		{"nickname taken", "true", http.StatusOK, true, false},
		{"nickname available", "false", http.StatusOK, false, false},
		{"server error", "boom", http.StatusInternalServerError, false, true},
		{"not found", "", http.StatusNotFound, false, true},
		{"garbage body", "maybe", http.StatusOK, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/users/exists/nickname/ana" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second)
			got, err := client.ExistsByNickname(context.Background(), "ana")

			if tt.wantErr {
				if err == nil {
					t.Fatal("ExistsByNickname() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExistsByNickname() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExistsByNickname() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExistsByNicknameEscapesPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte("false"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.ExistsByNickname(context.Background(), "a/b c"); err != nil {
		t.Fatalf("ExistsByNickname() error = %v", err)
	}
	if gotPath != "/users/exists/nickname/a%2Fb%20c" {
		t.Errorf("request path = %q", gotPath)
	}
}

func TestExistsByNicknameUnreachableService(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	if _, err := client.ExistsByNickname(context.Background(), "ana"); err == nil {
		t.Fatal("ExistsByNickname() succeeded against an unreachable service")
	}
}

func TestExistsByNicknameHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.ExistsByNickname(ctx, "ana"); err == nil {
		t.Fatal("ExistsByNickname() ignored context cancellation")
	}
}
