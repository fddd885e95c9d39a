package planner

import (
	"reflect"
	"testing"
)

func TestParseDaysString(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"MWF", []int{1, 3, 5}},
		{"TTh", []int{2, 4}},
		{"TuTh", []int{2, 4}},
		{"TR", []int{2, 4}},
		{"MTWRF", []int{1, 2, 3, 4, 5}},
		{"MTh", []int{1, 4}},
		{"mwf", []int{1, 3, 5}},
		{"M W F", []int{1, 3, 5}},
		{"MonWedFri", []int{1, 3, 5}},
		{"Sa", []int{6}},
		{"SaSu", []int{6, 7}},
		{"FMW", []int{1, 3, 5}},
		{"MM", []int{1}},
		{"Tues", []int{2}},
		{"Thurs", []int{4}},
		{"Thur", []int{4}},
		{"TuesThurs", []int{2, 4}},
		{"Tuesday", []int{2}},
		{"Wednesday", []int{3}},
		{"Weds", []int{3}},
		{"Monday Wednesday Friday", []int{1, 3, 5}},
		{"Tuesday/Thursday", []int{2, 4}},
		{"Saturday", []int{6}},
		{"Sunday", []int{7}},
		{"SU", []int{7}},
		{"", []int{}},
		{"Online", []int{}},
		{"ASYNC", []int{}},
		{"TBA", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDaysString(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDaysString(%q) = %v, 期望 %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDayName(t *testing.T) {
	if DayName(Monday) != "Mon" || DayName(Sunday) != "Sun" {
		t.Errorf("星期名称错误: %s %s", DayName(Monday), DayName(Sunday))
	}
	if DayName(0) != "" || DayName(8) != "" {
		t.Error("非法星期应返回空串")
	}
}

func TestNormalizeTimeFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"9:30", "09:30", false},
		{"09:30", "09:30", false},
		{"09:30:00", "09:30", false},
		{"9:30 AM", "09:30", false},
		{"2 PM", "14:00", false},
		{"2PM", "14:00", false},
		{"12:00 AM", "00:00", false},
		{"12:15 pm", "12:15", false},
		{"1:05 p.m.", "13:05", false},
		{" 14:45 ", "14:45", false},
		{"25:00", "", true},
		{"10:75", "", true},
		{"13 PM", "", true},
		{"noon", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeTimeFormat(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeTimeFormat(%q) 应返回错误，实际 %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTimeFormat(%q) 不应出错: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeTimeFormat(%q) = %q, 期望 %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeRangesOverlap(t *testing.T) {
	tests := []struct {
		name         string
		startA, endA string
		startB, endB string
		want         bool
	}{
		{"部分重叠", "09:00", "10:30", "10:00", "11:00", true},
		{"包含", "09:00", "12:00", "10:00", "11:00", true},
		{"完全相同", "09:00", "10:00", "09:00", "10:00", true},
		{"首尾相接", "09:00", "10:00", "10:00", "11:00", false},
		{"相离", "09:00", "10:00", "13:00", "14:00", false},
		{"混合格式", "9:00 AM", "10:30 AM", "10:00", "11:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TimeRangesOverlap(tt.startA, tt.endA, tt.startB, tt.endB)
			if err != nil {
				t.Fatalf("不应出错: %v", err)
			}
			if got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}

	if _, err := TimeRangesOverlap("bad", "10:00", "09:00", "10:00"); err == nil {
		t.Error("非法时间应返回错误")
	}
}

func TestCalculateDuration(t *testing.T) {
	d, err := CalculateDuration("09:00", "10:15")
	if err != nil || d != 75 {
		t.Errorf("期望 75 分钟，实际 %d (err=%v)", d, err)
	}
	if _, err := CalculateDuration("10:00", "09:00"); err == nil {
		t.Error("结束早于开始应返回错误")
	}
	if _, err := CalculateDuration("10:00", "10:00"); err == nil {
		t.Error("零时长应返回错误")
	}
}

func TestGetTimeOfDay(t *testing.T) {
	tests := map[string]TimeOfDay{
		"08:00": Morning,
		"11:59": Morning,
		"12:00": Afternoon,
		"16:30": Afternoon,
		"17:00": Evening,
		"05:00": Evening,
	}
	for in, want := range tests {
		got, err := GetTimeOfDay(in)
		if err != nil {
			t.Fatalf("GetTimeOfDay(%q) 不应出错: %v", in, err)
		}
		if got != want {
			t.Errorf("GetTimeOfDay(%q) = %s, 期望 %s", in, got, want)
		}
	}
}
