// Package sl содержит мелкие помощники для структурированного
// логирования через slog.
package sl

import "log/slog"

// Err оборачивает ошибку в атрибут с ключом "error", чтобы записи
// об ошибках выглядели в логе одинаково.
func Err(err error) slog.Attr {
	return slog.String("error", err.Error())
}
