package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/metrics":                       "/metrics",
		"/api/v1/auth/login":             "/api/v1/auth/login",
		"/api/v1/admin/users/abc123":     "/api/v1/admin/users/:id",
		"/api/v1/admin/users/abc/extra":  "/api/v1/admin/users/abc/extra",
		"/api/v1/user/profile?fields=x":  "/api/v1/user/profile",
		"/api/v1/admin/users/42?force=1": "/api/v1/admin/users/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
