package cli

import "time"

// Config содержит конфигурацию CLI executor
type Config struct {
	// Command - путь или имя исполняемой команды (например, "/usr/sbin/sendmail")
	Command string
	// Timeout ограничивает одно выполнение; 0 - без ограничения
	Timeout time.Duration
}
