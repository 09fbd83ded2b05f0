package domain

import (
	"strings"
	"testing"
)

func TestRegisterRequestValidate(t *testing.T) {
	valid := RegisterRequest{
		Name:     "Ana",
		Surname:  "Torres",
		Nickname: "anatorres",
		Email:    "ana@example.com",
		Password: "secret123",
	}

	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		wantErr string
	}{
		{"valid request", func(r *RegisterRequest) {}, ""},
		{"blank name", func(r *RegisterRequest) { r.Name = "  " }, "name"},
		{"blank surname", func(r *RegisterRequest) { r.Surname = "" }, "surname"},
		{"blank nickname", func(r *RegisterRequest) { r.Nickname = "" }, "nickname"},
		{"nickname too short", func(r *RegisterRequest) { r.Nickname = "ab" }, "between 3 and 30"},
		{"nickname too long", func(r *RegisterRequest) { r.Nickname = strings.Repeat("a", 31) }, "between 3 and 30"},
		{"blank email", func(r *RegisterRequest) { r.Email = "" }, "email"},
		{"invalid email", func(r *RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"password too short", func(r *RegisterRequest) { r.Password = "abc" }, "at least 6"},
		{"password too long", func(r *RegisterRequest) { r.Password = strings.Repeat("x", 101) }, "at most 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
