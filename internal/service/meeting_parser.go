package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"course-scheduler/internal/model"
	"course-scheduler/internal/planner"
)

// rawMeeting meetings_json 中的单条上课时间；导入来源不同，起止时间的键名也不同
type rawMeeting struct {
	Days      string `json:"days"`
	Start     string `json:"start"`
	StartTime string `json:"start_time"`
	End       string `json:"end"`
	EndTime   string `json:"end_time"`
	Location  string `json:"location"`
}

func (m rawMeeting) start() string {
	if m.Start != "" {
		return m.Start
	}
	return m.StartTime
}

func (m rawMeeting) end() string {
	if m.End != "" {
		return m.End
	}
	return m.EndTime
}

// parseMeetings 解析 meetings_json（对象或数组）
// meetings_json 为空时回退到 days_raw / start_time_raw / end_time_raw 列。
// 无法解析的条目被丢弃；全部丢弃时视为线上/异步课程。
func parseMeetings(o *model.CourseOffering) []planner.ParsedMeeting {
	raws, err := decodeRawMeetings(o.MeetingsJSON)
	if err != nil {
		return []planner.ParsedMeeting{}
	}
	if len(raws) == 0 && o.DaysRaw != nil && o.StartTimeRaw != nil && o.EndTimeRaw != nil {
		raws = []rawMeeting{{
			Days:     *o.DaysRaw,
			Start:    *o.StartTimeRaw,
			End:      *o.EndTimeRaw,
			Location: deref(o.LocationRaw),
		}}
	}

	out := make([]planner.ParsedMeeting, 0, len(raws))
	for _, r := range raws {
		pm, ok := toParsedMeeting(r, deref(o.LocationRaw))
		if ok {
			out = append(out, pm)
		}
	}
	return out
}

func decodeRawMeetings(data []byte) ([]rawMeeting, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []rawMeeting
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, fmt.Errorf("meetings_json 数组格式错误: %w", err)
		}
		return list, nil
	}
	var one rawMeeting
	if err := json.Unmarshal([]byte(trimmed), &one); err != nil {
		return nil, fmt.Errorf("meetings_json 对象格式错误: %w", err)
	}
	return []rawMeeting{one}, nil
}

func toParsedMeeting(r rawMeeting, fallbackLocation string) (planner.ParsedMeeting, bool) {
	days := planner.ParseDaysString(r.Days)
	if len(days) == 0 {
		return planner.ParsedMeeting{}, false
	}
	start, err := planner.NormalizeTimeFormat(r.start())
	if err != nil {
		return planner.ParsedMeeting{}, false
	}
	end, err := planner.NormalizeTimeFormat(r.end())
	if err != nil || end <= start {
		return planner.ParsedMeeting{}, false
	}
	loc := strings.TrimSpace(r.Location)
	if loc == "" {
		loc = fallbackLocation
	}
	return planner.ParsedMeeting{
		Days:       strings.TrimSpace(r.Days),
		DaysOfWeek: days,
		StartTime:  start,
		EndTime:    end,
		Location:   loc,
	}, true
}

// toCourseSection 数据库行 → 核心班级结构
func toCourseSection(o *model.CourseOffering) planner.CourseSection {
	return planner.CourseSection{
		OfferingID:     o.OfferingID,
		CourseCode:     o.CourseCode,
		SectionLabel:   o.SectionLabel,
		Title:          o.Title,
		Credits:        o.CreditsDecimal,
		Instructor:     deref(o.Instructor),
		MeetingsRaw:    string(o.MeetingsJSON),
		SeatsAvailable: o.SeatsAvailable,
		SeatsCapacity:  o.SeatsCapacity,
		WaitlistCount:  o.WaitlistCount,
		TermName:       o.TermName,
		LocationRaw:    deref(o.LocationRaw),
		Meetings:       parseMeetings(o),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
