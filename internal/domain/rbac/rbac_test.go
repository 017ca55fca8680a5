package rbac

import "testing"

// TestParseRole проверяет разбор строковых ролей от backend.
func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"manager", RoleManager},
		{"director", RoleDirector},
		{"teacher", RoleTeacher},
		{"student", RoleStudent},
		{"", RoleUnknown},
		{"superuser", RoleUnknown},
		{"Admin", RoleAdmin},   // регистр не значим
		{"TEACHER", RoleTeacher},
	}

	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q): want %q, got %q", tt.in, tt.want, got)
		}
	}
}

// TestResolveLandingRouteDistinct проверяет, что каждая роль даёт ровно
// один уникальный маршрут и ни одна роль не "проваливается" в чужой.
func TestResolveLandingRouteDistinct(t *testing.T) {
	want := map[Role]string{
		RoleAdmin:    "/admin",
		RoleManager:  "/manager",
		RoleDirector: "/director",
		RoleTeacher:  "/teacher",
		RoleStudent:  "/student",
	}

	seen := make(map[string]Role)
	for role, route := range want {
		got := ResolveLandingRoute(role)
		if got != route {
			t.Errorf("ResolveLandingRoute(%q): want %q, got %q", role, route, got)
		}
		if prev, dup := seen[got]; dup {
			t.Errorf("Маршрут %q разрешается для двух ролей: %q и %q", got, prev, role)
		}
		seen[got] = role
	}

	// director не должен разрешаться в маршрут teacher.
	if ResolveLandingRoute(RoleDirector) == ResolveLandingRoute(RoleTeacher) {
		t.Error("director и teacher разрешаются в один маршрут")
	}
}

// TestResolveLandingRouteUnknown проверяет нейтральный исход для
// неизвестной роли: пустая строка, не ошибка и не чужой маршрут.
func TestResolveLandingRouteUnknown(t *testing.T) {
	if got := ResolveLandingRoute(RoleUnknown); got != "" {
		t.Errorf("ResolveLandingRoute(unknown): want \"\", got %q", got)
	}
	if got := ResolveLandingRoute(Role("ghost")); got != "" {
		t.Errorf("ResolveLandingRoute(ghost): want \"\", got %q", got)
	}
}

// TestRequireRole проверяет авторизацию и fallback-перенаправления.
func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		allowed []Role
		want    Decision
	}{
		{
			name:    "роль в разрешённом наборе",
			role:    RoleAdmin,
			allowed: []Role{RoleAdmin},
			want:    Decision{Authorized: true},
		},
		{
			name:    "несколько разрешённых ролей",
			role:    RoleTeacher,
			allowed: []Role{RoleAdmin, RoleTeacher},
			want:    Decision{Authorized: true},
		},
		{
			name:    "отказ → landing собственной роли",
			role:    RoleStudent,
			allowed: []Role{RoleAdmin},
			want:    Decision{Redirect: "/student"},
		},
		{
			name:    "отказ director → собственный landing, не teacher",
			role:    RoleDirector,
			allowed: []Role{RoleAdmin},
			want:    Decision{Redirect: "/director"},
		},
		{
			name:    "неизвестная роль → login",
			role:    RoleUnknown,
			allowed: []Role{RoleAdmin},
			want:    Decision{Redirect: LoginPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequireRole(tt.role, tt.allowed...)
			if got != tt.want {
				t.Errorf("RequireRole(%q, %v): want %+v, got %+v", tt.role, tt.allowed, tt.want, got)
			}
		})
	}
}
