package planner

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ── 星期代码解析 ──
//
// 查表规则：
//   - 按词元长度从长到短贪心匹配（大小写不敏感），匹配到的字母整体消费
//   - 全称与常见简写：Monday Tues Thurs Thur Weds 等，避免 "Tues" 的 s 被当成 Saturday
//   - 两字母：Tu Th Sa Su，因此 "TTh" = {Tue, Thu}，"Th" 永远不会被拆成 T + h
//   - 单字母 R = Thursday、S = Saturday、U = Sunday（部分教务系统的写法）
//   - 无法识别的字符忽略；空串 / "Online" / "Async" / "TBA" 返回空集合

type dayToken struct {
	token string
	day   int
}

var dayTokens = []dayToken{
	{"wednesday", Wednesday},
	{"thursday", Thursday},
	{"saturday", Saturday},
	{"tuesday", Tuesday},
	{"monday", Monday},
	{"friday", Friday},
	{"sunday", Sunday},
	{"thurs", Thursday},
	{"tues", Tuesday},
	{"thur", Thursday},
	{"weds", Wednesday},
	{"mon", Monday},
	{"tue", Tuesday},
	{"wed", Wednesday},
	{"thu", Thursday},
	{"fri", Friday},
	{"sat", Saturday},
	{"sun", Sunday},
	{"tu", Tuesday},
	{"th", Thursday},
	{"sa", Saturday},
	{"su", Sunday},
}

var oneLetterDays = map[byte]int{
	'm': Monday,
	't': Tuesday,
	'w': Wednesday,
	'r': Thursday,
	'f': Friday,
	's': Saturday,
	'u': Sunday,
}

var noMeetingMarkers = []string{"online", "async", "asynchronous", "tba", "arr", "arranged"}

// ParseDaysString 将 "MWF" / "TTh" 等星期代码解析为有序去重的 ISO 星期编号
func ParseDaysString(days string) []int {
	s := strings.ToLower(strings.TrimSpace(days))
	if s == "" {
		return []int{}
	}
	for _, marker := range noMeetingMarkers {
		if strings.Contains(s, marker) {
			return []int{}
		}
	}

	seen := make(map[int]bool)
	for i := 0; i < len(s); {
		if d, n := matchDayToken(s[i:]); n > 0 {
			seen[d] = true
			i += n
			continue
		}
		if d, ok := oneLetterDays[s[i]]; ok {
			seen[d] = true
		}
		i++
	}

	result := make([]int, 0, len(seen))
	for d := range seen {
		result = append(result, d)
	}
	sort.Ints(result)
	return result
}

// matchDayToken 返回最长匹配的星期与消费的字节数，未匹配时 n 为 0
func matchDayToken(s string) (day, n int) {
	for _, t := range dayTokens {
		if strings.HasPrefix(s, t.token) {
			return t.day, len(t.token)
		}
	}
	return 0, 0
}

var dayNames = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DayName 星期编号 → 英文缩写
func DayName(day int) string {
	if day < Monday || day > Sunday {
		return ""
	}
	return dayNames[day]
}

// ── 时间格式 ──

var (
	clockPattern    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	meridiemPattern = regexp.MustCompile(`^(?i)(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\.?$`)
)

// NormalizeTimeFormat 将 "9:30" / "09:30:00" / "9:30 AM" / "2 PM" 统一为 24 小时制 "HH:MM"
func NormalizeTimeFormat(value string) (string, error) {
	v := strings.TrimSpace(value)

	if m := clockPattern.FindStringSubmatch(v); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		if h > 23 || mins > 59 {
			return "", fmt.Errorf("时间超出范围: %q", value)
		}
		return fmt.Sprintf("%02d:%02d", h, mins), nil
	}

	if m := meridiemPattern.FindStringSubmatch(v); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || mins > 59 {
			return "", fmt.Errorf("时间超出范围: %q", value)
		}
		pm := strings.EqualFold(m[3], "p")
		switch {
		case pm && h != 12:
			h += 12
		case !pm && h == 12:
			h = 0
		}
		return fmt.Sprintf("%02d:%02d", h, mins), nil
	}

	return "", fmt.Errorf("无法识别的时间格式: %q", value)
}

// toMinutes "HH:MM"（或任意可归一化格式）→ 当日分钟数
func toMinutes(value string) (int, error) {
	n, err := NormalizeTimeFormat(value)
	if err != nil {
		return 0, err
	}
	h, _ := strconv.Atoi(n[:2])
	m, _ := strconv.Atoi(n[3:])
	return h*60 + m, nil
}

// mustMinutes 用于已校验过的数据；格式非法时返回 -1
func mustMinutes(value string) int {
	m, err := toMinutes(value)
	if err != nil {
		return -1
	}
	return m
}

// TimeRangesOverlap 半开区间 [startA,endA) 与 [startB,endB) 是否相交。
// 首尾相接（endA == startB）不算重叠。
func TimeRangesOverlap(startA, endA, startB, endB string) (bool, error) {
	sa, err := toMinutes(startA)
	if err != nil {
		return false, err
	}
	ea, err := toMinutes(endA)
	if err != nil {
		return false, err
	}
	sb, err := toMinutes(startB)
	if err != nil {
		return false, err
	}
	eb, err := toMinutes(endB)
	if err != nil {
		return false, err
	}
	return sa < eb && sb < ea, nil
}

// CalculateDuration 两个时间之间的分钟数；end <= start 时返回错误
func CalculateDuration(start, end string) (int, error) {
	s, err := toMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := toMinutes(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		return 0, fmt.Errorf("结束时间 %s 不晚于开始时间 %s", end, start)
	}
	return e - s, nil
}

// TimeOfDay 粗粒度时段
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// GetTimeOfDay [06:00,12:00) 上午，[12:00,17:00) 下午，其余为晚上
func GetTimeOfDay(value string) (TimeOfDay, error) {
	m, err := toMinutes(value)
	if err != nil {
		return "", err
	}
	switch h := m / 60; {
	case h >= 6 && h < 12:
		return Morning, nil
	case h >= 12 && h < 17:
		return Afternoon, nil
	default:
		return Evening, nil
	}
}
