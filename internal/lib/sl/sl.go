// Package sl — небольшие помощники для структурированного логирования
// через slog: единые ключи атрибутов вместо разнобоя по обработчикам.
package sl

import "log/slog"

// Err оборачивает ошибку в атрибут с ключом "error", чтобы во всех
// записях лога текст ошибки лежал в одном и том же поле.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
