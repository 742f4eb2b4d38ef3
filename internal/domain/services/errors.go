package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
)

// dbErr passes business errors through and maps driver errors to codes.
// notFoundCode is used when the row does not exist.
func dbErr(err error, notFoundCode int) error {
	if err == nil {
		return nil
	}
	var e *code.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return code.New(notFoundCode)
	}
	return code.Wrap(code.ErrDatabase, err)
}
