package booking

import (
	"errors"
	"fmt"
)

// 业务错误分为四类：NotFound / InvalidInput / Conflict / ExpiredResource，
// 全部作为可恢复错误返回给调用方；存储层错误不在此列，原样向上传递。
var (
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrCarTypeNotFound     = errors.New("car type not found")
	ErrHubNotFound         = errors.New("hub not found")
	ErrAddOnNotFound       = errors.New("add-on not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrInvalidDuration   = errors.New("invalid rental duration")
	ErrInvalidReturnDate = errors.New("invalid return date")
	ErrInvalidFuelStatus = errors.New("invalid fuel status")

	ErrAddOnExpired       = errors.New("add-on rate expired")
	ErrVehicleUnavailable = errors.New("vehicle not available for booking")

	// ErrConfirmationGeneration 确认号重试耗尽（按 Conflict 类处理）
	ErrConfirmationGeneration = errors.New("failed to generate unique confirmation number")
)

// ConflictError 预订区间冲突，携带冲突预订的 ID 供调用方排查。
type ConflictError struct {
	ConflictingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict with reservation %s", e.ConflictingID)
}

// TransitionError 非法的生命周期流转。
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid reservation status transition: %s -> %s", e.From, e.To)
}
