package auth

import (
	"testing"

	"tg-relay/internal/domain"
)

func TestCanRegisterKnownAlwaysAllowed(t *testing.T) {
	for _, mode := range []domain.AuthMode{domain.AuthModeUserList, domain.AuthModePassword} {
		d := CanRegister(true, mode, "", "secret")
		if !d.Allowed {
			t.Fatalf("известный пользователь должен проходить в режиме %s", mode)
		}
	}
}

func TestCanRegisterUserListClosed(t *testing.T) {
	d := CanRegister(false, domain.AuthModeUserList, "secret", "secret")
	if d.Allowed {
		t.Fatalf("userlist не должен пускать неизвестных даже с верным паролем")
	}
	if d.Reason != DenyUserListOnly {
		t.Fatalf("ожидали %s, получили %s", DenyUserListOnly, d.Reason)
	}
}

func TestCanRegisterPasswordMode(t *testing.T) {
	cases := []struct {
		supplied string
		allowed  bool
		reason   DenyReason
	}{
		{"secret", true, ""},
		{"  secret  ", true, ""},
		{"", false, DenyNoPassword},
		{"   ", false, DenyNoPassword},
		{"wrong", false, DenyWrongPassword},
	}
	for _, c := range cases {
		d := CanRegister(false, domain.AuthModePassword, c.supplied, "secret")
		if d.Allowed != c.allowed {
			t.Fatalf("пароль %q: ожидали allowed=%v", c.supplied, c.allowed)
		}
		if d.Reason != c.reason {
			t.Fatalf("пароль %q: ожидали причину %q, получили %q", c.supplied, c.reason, d.Reason)
		}
	}
}

func TestCanRegisterTrimsConfiguredPassword(t *testing.T) {
	d := CanRegister(false, domain.AuthModePassword, "secret", " secret\n")
	if !d.Allowed {
		t.Fatalf("пробелы в настроенном пароле не должны ломать сверку")
	}
}
