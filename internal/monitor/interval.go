package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxInterval — верхняя граница: всё, что больше суток, ужимается до суток.
const maxInterval = 24 * time.Hour

// ParseInterval разбирает интервал в человеческом формате: "10m",
// "1h 30m", "1m 30s", "1d". Нулевой или пустой интервал — ошибка.
func ParseInterval(raw string) (time.Duration, error) {
	var total time.Duration
	for _, token := range strings.Fields(raw) {
		d, err := parseToken(token)
		if err != nil {
			return 0, err
		}
		total += d
	}
	if total <= 0 {
		return 0, fmt.Errorf("не удалось разобрать интервал %q", raw)
	}
	if total > maxInterval {
		total = maxInterval
	}
	return total, nil
}

func parseToken(token string) (time.Duration, error) {
	if len(token) < 2 {
		return 0, fmt.Errorf("не удалось разобрать интервал %q", token)
	}
	unit := token[len(token)-1]
	value, err := strconv.Atoi(token[:len(token)-1])
	if err != nil || value < 0 {
		return 0, fmt.Errorf("не удалось разобрать интервал %q", token)
	}
	switch unit {
	case 's':
		return time.Duration(value) * time.Second, nil
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("неизвестная единица интервала %q", token)
	}
}
