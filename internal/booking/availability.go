package booking

import "time"

// Availability 车辆可用性查询结果。
type Availability struct {
	Free                     bool   `json:"free"`
	ConflictingReservationID string `json:"conflicting_reservation_id,omitempty"`
}

// overlap 判断两个闭区间 [s1,e1] 和 [s2,e2] 是否重叠。
// 区间按天闭合：同一天取车与还车视为冲突。
func overlap(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}

// findConflict 在候选预订中找出与 [start,end] 重叠的第一条。
// excludeID 用于修改场景下排除预订自身；候选列表只应包含非终态预订。
func findConflict(list []Reservation, start, end time.Time, excludeID string) *Reservation {
	for i := range list {
		r := &list[i]
		if r.ID == excludeID {
			continue
		}
		if r.Status.Terminal() {
			continue
		}
		if overlap(r.StartDate, r.EndDate, start, end) {
			return r
		}
	}
	return nil
}
