package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"course-scheduler/internal/planner"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为周循环的个人日历事件，
// 作为选课会话的初始日历。
//
// 规则：
//   - DTSTART/DTEND 确定时间，DTSTART 确定星期
//   - RRULE FREQ=WEEKLY 且带 BYDAY 时展开为多个星期
//   - 全天事件与跨天事件忽略
//   - CATEGORIES 映射到事件分类，无法识别时为 Other
//   - 合并 title+day+start+end 相同的事件（ICS 可能以多个单次事件表示同一事务）
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
)

// personalEvent ICS 解析中间结构
type personalEvent struct {
	Title     string
	Days      []int // 1=Monday … 7=Sunday
	StartTime string
	EndTime   string
	Location  string
	Category  planner.EventCategory
}

// ErrUnsafeICSURL 日历地址不是 https，或指向回环 / 内网地址
var ErrUnsafeICSURL = errors.New("日历地址必须是公网 https 地址")

// icsHTTPClient 拨号时校验解析后的 IP，重定向与 DNS 重绑定同样受限
var icsHTTPClient = &http.Client{
	Timeout: icsFetchTimeout,
	Transport: &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
			Control: rejectNonPublicDial,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("重定向次数过多")
		}
		if req.URL.Scheme != "https" {
			return ErrUnsafeICSURL
		}
		return nil
	},
}

// FetchICSContent 从订阅地址获取 ICS 内容
// 仅允许 https（webcal:// 视为 https），拒绝回环、内网、链路本地等地址
func FetchICSContent(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := normalizeICSURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	resp, err := icsHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

func normalizeICSURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeICSURL, err)
	}
	if strings.EqualFold(u.Scheme, "webcal") {
		u.Scheme = "https"
	}
	if !strings.EqualFold(u.Scheme, "https") || u.Hostname() == "" || u.User != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsafeICSURL, rawURL)
	}
	// 字面量 IP 提前拒绝，域名在拨号时按解析结果校验
	if ip := net.ParseIP(u.Hostname()); ip != nil && !isPublicIP(ip) {
		return nil, fmt.Errorf("%w: %s", ErrUnsafeICSURL, rawURL)
	}
	return u, nil
}

func rejectNonPublicDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrUnsafeICSURL, host)
	}
	return nil
}

var cgnatBlock = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

func isPublicIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() {
		return false
	}
	return !cgnatBlock.Contains(ip)
}

// ParsePersonalEvents 解析 ICS 内容为个人日历事件
// loc 为学生所在时区，UTC 时间会换算到该时区后再取星期与时刻；nil 视为 UTC
func ParsePersonalEvents(reader io.Reader, loc *time.Location) ([]planner.CalendarEvent, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	// 阶段 1: 解析所有 VEVENT
	var parsed []personalEvent
	for _, comp := range cal.Events() {
		evt, ok := parseVEvent(comp, loc)
		if !ok {
			continue
		}
		parsed = append(parsed, evt)
	}

	// 阶段 2: 展开星期并合并重复事件
	return mergeEvents(parsed), nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent, loc *time.Location) (personalEvent, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return personalEvent{}, false
	}

	dtStart, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil || allDay {
		return personalEvent{}, false
	}
	dtEnd, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// 无 DTEND 时尝试 DURATION
		d, ok := parseICSDuration(evt)
		if !ok {
			return personalEvent{}, false
		}
		dtEnd = dtStart.Add(d)
	}
	if !dtEnd.After(dtStart) || dtEnd.YearDay() != dtStart.YearDay() {
		return personalEvent{}, false
	}

	out := personalEvent{
		Title:     strings.TrimSpace(summary.Value),
		Days:      []int{goWeekdayToISO(dtStart.Weekday())},
		StartTime: dtStart.Format("15:04"),
		EndTime:   dtEnd.Format("15:04"),
		Category:  planner.CategoryOther,
	}
	if p := evt.GetProperty(ics.ComponentPropertyLocation); p != nil {
		out.Location = strings.TrimSpace(p.Value)
	}
	if p := evt.GetProperty(ics.ComponentPropertyCategories); p != nil {
		out.Category = mapCategory(p.Value)
	}
	if p := evt.GetProperty(ics.ComponentPropertyRrule); p != nil {
		if days := weeklyByDay(p.Value); len(days) > 0 {
			out.Days = days
		}
	}
	return out, true
}

// icsDayCodes RRULE BYDAY 代码 → ISO 星期
var icsDayCodes = map[string]int{
	"MO": planner.Monday,
	"TU": planner.Tuesday,
	"WE": planner.Wednesday,
	"TH": planner.Thursday,
	"FR": planner.Friday,
	"SA": planner.Saturday,
	"SU": planner.Sunday,
}

// weeklyByDay 解析 RRULE（如 FREQ=WEEKLY;BYDAY=MO,WE）中的 BYDAY
// 非 WEEKLY 规则返回空
func weeklyByDay(value string) []int {
	var freq string
	var days []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			freq = strings.ToUpper(kv[1])
		case "BYDAY":
			for _, code := range strings.Split(kv[1], ",") {
				code = strings.ToUpper(strings.TrimSpace(code))
				// 去掉 "1MO" / "-1FR" 这类序数前缀
				if len(code) > 2 {
					code = code[len(code)-2:]
				}
				if d, ok := icsDayCodes[code]; ok && !seen[d] {
					seen[d] = true
					days = append(days, d)
				}
			}
		}
	}
	if freq != "WEEKLY" {
		return nil
	}
	return days
}

// mapCategory 取 CATEGORIES 中第一个可识别的分类
func mapCategory(value string) planner.EventCategory {
	known := []planner.EventCategory{
		planner.CategoryWork,
		planner.CategoryClub,
		planner.CategorySports,
		planner.CategoryStudy,
		planner.CategoryFamily,
	}
	for _, raw := range strings.Split(value, ",") {
		raw = strings.TrimSpace(raw)
		for _, c := range known {
			if strings.EqualFold(raw, string(c)) {
				return c
			}
		}
	}
	return planner.CategoryOther
}

// mergeEvents 按星期展开并合并相同事件，保持首次出现的顺序
func mergeEvents(events []personalEvent) []planner.CalendarEvent {
	type key struct {
		Title     string
		DayOfWeek int
		StartTime string
		EndTime   string
	}
	seen := make(map[key]bool)
	result := make([]planner.CalendarEvent, 0, len(events))

	for _, e := range events {
		for _, day := range e.Days {
			k := key{Title: e.Title, DayOfWeek: day, StartTime: e.StartTime, EndTime: e.EndTime}
			if seen[k] {
				continue
			}
			seen[k] = true
			result = append(result, planner.CalendarEvent{
				ID:        uuid.New().String(),
				Title:     e.Title,
				DayOfWeek: day,
				StartTime: e.StartTime,
				EndTime:   e.EndTime,
				Location:  e.Location,
				Category:  e.Category,
			})
		}
	}
	return result
}

// ── 辅助函数 ──

// goWeekdayToISO 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=Monday … 7=Sunday)
func goWeekdayToISO(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// parseICSDuration 解析 DURATION（仅支持 PT#H#M 与 P#D 形式）
func parseICSDuration(evt *ics.VEvent) (time.Duration, bool) {
	prop := evt.GetProperty(ics.ComponentPropertyDuration)
	if prop == nil {
		return 0, false
	}
	v := strings.ToUpper(strings.TrimSpace(prop.Value))
	if !strings.HasPrefix(v, "PT") {
		return 0, false
	}
	d, err := time.ParseDuration(strings.ToLower(strings.TrimPrefix(v, "PT")))
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，第二个返回值表示是否为全天日期
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.In(loc), false, nil
	}

	// 检查 TZID 参数
	tzLoc := loc
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if l, err := time.LoadLocation(v[0]); err == nil {
				tzLoc = l
			}
		}
	}
	if t, err := time.ParseInLocation("20060102T150405", val, tzLoc); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.ParseInLocation("20060102", val, loc); err == nil {
		return t, true, nil
	}

	return time.Time{}, false, fmt.Errorf("无法解析日期: %s", val)
}
