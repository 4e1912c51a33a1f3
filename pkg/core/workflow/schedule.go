package workflow

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultScheduleInterval 无法解析schedule时使用的默认间隔
const DefaultScheduleInterval = time.Hour

// ErrInvalidSchedule schedule格式错误
var ErrInvalidSchedule = errors.New("invalid schedule")

var schedulePattern = regexp.MustCompile(`^every_(\d+)(minutes|hours|days)$`)

var scheduleUnits = map[string]time.Duration{
	"minutes": time.Minute,
	"hours":   time.Hour,
	"days":    24 * time.Hour,
}

// ParseSchedule 严格解析 every_<N><unit> 格式的调度字符串
// 例如 every_5minutes -> 5m，every_2hours -> 2h，every_1days -> 24h
func ParseSchedule(schedule string) (time.Duration, error) {
	m := schedulePattern.FindStringSubmatch(schedule)
	if m == nil {
		return 0, fmt.Errorf("%w: %q 不符合 every_<N><minutes|hours|days> 格式", ErrInvalidSchedule, schedule)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q 的间隔必须为正整数", ErrInvalidSchedule, schedule)
	}
	return time.Duration(n) * scheduleUnits[m[2]], nil
}

// ScheduleInterval 宽松解析：无法解析时回退到1小时，ok为false
func ScheduleInterval(schedule string) (interval time.Duration, ok bool) {
	d, err := ParseSchedule(schedule)
	if err != nil {
		return DefaultScheduleInterval, false
	}
	return d, true
}
