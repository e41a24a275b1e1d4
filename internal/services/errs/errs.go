// Package errs определяет классы ожидаемых ошибок бизнес-уровня и их
// отображение в HTTP-статусы. Сервисы оборачивают причину через
// fmt.Errorf("%w: ...", errs.ErrX), обработчики переводят ошибку в
// статус и текст ответа, не зная деталей бизнес-логики.
package errs

import (
	"errors"
	"net/http"
)

// Классы ожидаемых ошибок. Всё, что не подпадает ни под один класс,
// считается внутренней ошибкой и наружу не раскрывается.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrUpstream      = errors.New("upstream failure")
)

// HTTPStatus переводит класс ошибки в HTTP-статус.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage возвращает текст ошибки для клиента. Ожидаемые ошибки
// отдаются как есть, внутренние заменяются общей фразой, чтобы не
// раскрывать детали реализации.
func UserMessage(err error) string {
	for _, expected := range []error{
		ErrValidation, ErrConflict, ErrUnauthorized, ErrForbidden,
		ErrNotFound, ErrQuotaExceeded, ErrUpstream,
	} {
		if errors.Is(err, expected) {
			return err.Error()
		}
	}
	return "internal service error"
}
