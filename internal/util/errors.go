package util

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 错误分类：所有领域错误都包装其中之一，控制器按分类映射 HTTP 状态码
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("store unavailable")
)

var (
	ErrPillarNotFound     = fmt.Errorf("pillar %w", ErrNotFound)
	ErrJourneyNotFound    = fmt.Errorf("active journey %w", ErrNotFound)
	ErrInsightNotFound    = fmt.Errorf("insight %w", ErrNotFound)
	ErrInvalidDate        = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	ErrDateOutOfRange     = fmt.Errorf("%w: date outside the journey window", ErrInvalidInput)
	ErrJourneyNotFinished = fmt.Errorf("%w: journey has not reached its final day", ErrInvalidInput)
)

// InvalidInputf 构造带说明的输入错误
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// StoreError 把 gorm 返回的错误归类，nil 原样返回
func StoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrConflict), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
