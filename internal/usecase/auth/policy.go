package auth

import (
	"strings"

	"tg-relay/internal/domain"
)

// DenyReason — класс отказа в регистрации. В чат пользователю уходит
// общий отказ, точная причина остаётся в логах.
type DenyReason string

const (
	DenyUserListOnly  DenyReason = "userlist_only"
	DenyNoPassword    DenyReason = "no_password"
	DenyWrongPassword DenyReason = "wrong_password"
)

// Decision — результат проверки регистрации.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// CanRegister решает, может ли идентити зарегистрироваться. Функция
// чистая: known — уже ли id присутствует в базе получателей.
// В режиме userlist регистрация закрыта: пускаем только известных.
// В режиме password известных пускаем сразу, остальных — по точному
// совпадению пароля (пробелы по краям не считаются).
func CanRegister(known bool, mode domain.AuthMode, supplied, configured string) Decision {
	if known {
		return Decision{Allowed: true}
	}
	if mode != domain.AuthModePassword {
		return Decision{Reason: DenyUserListOnly}
	}
	supplied = strings.TrimSpace(supplied)
	if supplied == "" {
		return Decision{Reason: DenyNoPassword}
	}
	if supplied != strings.TrimSpace(configured) {
		return Decision{Reason: DenyWrongPassword}
	}
	return Decision{Allowed: true}
}
