package booking

import "time"

// AllowTransition 预订状态机：仅允许单调前进，终态无出边。
var AllowTransition = map[Status][]Status{
	StatusRequested:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedOut, StatusCancelled},
	StatusCheckedOut: {StatusReturned},
	StatusReturned:   {},
	StatusCancelled:  {},
}

// CanTransition 判断 from 到 to 是否为合法流转。同状态不算流转。
func CanTransition(from, to Status) bool {
	for _, next := range AllowTransition[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyTransition 执行状态流转并打上对应时间戳。
// 非法流转返回 *TransitionError，模型不做任何修改。
func ApplyTransition(r *Reservation, to Status, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return &TransitionError{From: r.Status, To: to}
	}
	r.Status = to
	switch to {
	case StatusConfirmed:
		r.ConfirmedAt = &now
	case StatusCheckedOut:
		r.CheckedOutAt = &now
	case StatusReturned:
		r.ReturnedAt = &now
	case StatusCancelled:
		r.CancelledAt = &now
	}
	return nil
}
