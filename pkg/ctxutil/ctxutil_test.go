package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserIDFromCtx(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	tests := []struct {
		name   string
		ctx    context.Context
		want   uuid.UUID
		wantOK bool
	}{
		{"set", WithUserID(context.Background(), id), id, true},
		{"missing", context.Background(), uuid.Nil, false},
		{"nil uuid", WithUserID(context.Background(), uuid.Nil), uuid.Nil, false},
		{"wrong type", context.WithValue(context.Background(), userIDKey, id.String()), uuid.Nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := UserIDFromCtx(tt.ctx)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("UserIDFromCtx = (%s, %v), want (%s, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRequestIDFromCtx(t *testing.T) {
	t.Parallel()

	if got := RequestIDFromCtx(WithRequestID(context.Background(), "req-7f3a")); got != "req-7f3a" {
		t.Fatalf("RequestIDFromCtx = %q, want %q", got, "req-7f3a")
	}
	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("RequestIDFromCtx on empty ctx = %q", got)
	}
	if got := RequestIDFromCtx(context.WithValue(context.Background(), requestIDKey, 42)); got != "" {
		t.Fatalf("RequestIDFromCtx with wrong type = %q", got)
	}
}

func TestHasRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		role  string
		allow []string
		want  bool
		admin bool
	}{
		{"admin allowed", RoleAdmin, []string{RoleAdmin}, true, true},
		{"service among producers", RoleService, []string{RoleAdmin, RoleService}, true, false},
		{"user on admin route", RoleUser, []string{RoleAdmin}, false, false},
		{"no role", "", []string{RoleAdmin, RoleService}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			if tt.role != "" {
				ctx = WithUserRole(ctx, tt.role)
			}
			if got := UserRoleFromCtx(ctx); got != tt.role {
				t.Fatalf("UserRoleFromCtx = %q, want %q", got, tt.role)
			}
			if got := HasRole(ctx, tt.allow...); got != tt.want {
				t.Fatalf("HasRole(%v) = %v, want %v", tt.allow, got, tt.want)
			}
			if got := IsAdminCtx(ctx); got != tt.admin {
				t.Fatalf("IsAdminCtx = %v, want %v", got, tt.admin)
			}
		})
	}
}
