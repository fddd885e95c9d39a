package planner

import (
	"fmt"
	"strings"
)

// ── 对话消息 ──
//
// 每次状态迁移都返回一条 Message；展示层只需要它即可渲染任意状态。

// OptionVariant 按钮样式
type OptionVariant string

const (
	VariantPrimary   OptionVariant = "primary"
	VariantSecondary OptionVariant = "secondary"
)

// Option 可点击的快捷回复
type Option struct {
	Label   string        `json:"label"`
	Value   string        `json:"value"`
	Variant OptionVariant `json:"variant,omitempty"`
}

// SectionCard 班级卡片
type SectionCard struct {
	Section          CourseSection  `json:"section"`
	Score            int            `json:"score"`
	Pros             []string       `json:"pros"`
	Cons             []string       `json:"cons"`
	Status           WaitlistStatus `json:"status"`
	WaitlistPosition int            `json:"waitlist_position,omitempty"`
}

// Message 一次迁移的输出
type Message struct {
	Text           string          `json:"text"`
	Options        []Option        `json:"options,omitempty"`
	SectionCards   []SectionCard   `json:"section_cards,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
	CalendarUpdate []CalendarEvent `json:"calendar_update,omitempty"` // 本次迁移新增的日历事件
}

func toCards(ranked []RankedSection, limit int) []SectionCard {
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	cards := make([]SectionCard, 0, len(ranked))
	for _, r := range ranked {
		cards = append(cards, SectionCard{
			Section:          r.Section,
			Score:            r.Score,
			Pros:             r.Details.Pros,
			Cons:             r.Details.Cons,
			Status:           r.Details.WaitlistStatus,
			WaitlistPosition: r.Section.WaitlistCount,
		})
	}
	return cards
}

func welcomeMessage(term string, codes []string) Message {
	var b strings.Builder
	b.WriteString("👋 Hi! I'm your course scheduling assistant.\n\n")
	fmt.Fprintf(&b, "I'll help you find the best sections for your **%d courses** in **%s**:\n\n", len(codes), term)
	for i, code := range codes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, code)
	}
	b.WriteString("\nI'll process each course one at a time, showing you sections ranked by your preferences. ")
	b.WriteString("You'll pick a primary section and 2 backups for each course.\n\nReady to start?")
	return Message{
		Text: b.String(),
		Options: []Option{
			{Label: "Let's go!", Value: "start", Variant: VariantPrimary},
			{Label: "Cancel", Value: "cancel", Variant: VariantSecondary},
		},
	}
}

func sectionListMessage(code, title string, ranked []RankedSection, limit int) Message {
	heading := fmt.Sprintf("**%s**", code)
	if title != "" {
		heading += " - " + title
	}
	return Message{
		Text: fmt.Sprintf("Let's find a section for %s\n\nI found %d available sections, ranked by your preferences:",
			heading, len(ranked)),
		SectionCards: toCards(ranked, limit),
		Options:      []Option{{Label: "Skip this course", Value: "skip", Variant: VariantSecondary}},
		Prompt:       "Which section do you prefer?",
	}
}

func waitlistConfirmMessage(s CourseSection) Message {
	return Message{
		Text: fmt.Sprintf("⚠️ **Section %s** is waitlisted (position #%d).\n\nDo you want to join the waitlist?",
			s.SectionLabel, s.WaitlistCount),
		Options: []Option{
			{Label: "Yes, join waitlist", Value: "yes", Variant: VariantPrimary},
			{Label: "No, show other options", Value: "no", Variant: VariantSecondary},
		},
	}
}

func backupRequestMessage(slot int, remaining []RankedSection, limit int) Message {
	return Message{
		Text:         fmt.Sprintf("Great choice! Now let's pick backup #%d in case you don't get your first choice.", slot),
		SectionCards: toCards(remaining, limit),
		Options:      []Option{{Label: "Skip this course", Value: "skip", Variant: VariantSecondary}},
		Prompt:       fmt.Sprintf("Select backup #%d:", slot),
	}
}

func noValidSectionsMessage(code string) Message {
	return Message{
		Text: fmt.Sprintf("❌ Unfortunately, all sections for **%s** conflict with your current schedule or personal events.\n\n", code) +
			"Your options:\n" +
			"1. Choose a different course for this requirement\n" +
			"2. Skip this course for now\n" +
			"3. Exit and adjust your personal events",
		Options: []Option{
			{Label: "Choose different course", Value: "different_course"},
			{Label: "Skip for now", Value: "skip"},
			{Label: "Exit to calendar", Value: "exit"},
		},
	}
}

func noSectionsFoundMessage(code, term string) Message {
	return Message{
		Text: fmt.Sprintf("❌ No sections found for **%s** in %s.", code, term),
		Options: []Option{
			{Label: "Skip course", Value: "skip"},
			{Label: "Exit", Value: "exit"},
		},
	}
}

func differentCourseMessage(code string) Message {
	return Message{
		Text: fmt.Sprintf("The course list for this session is fixed. To replace **%s**, exit, update your plan and start a new session. ", code) +
			"You can also skip it for now.",
		Options: []Option{
			{Label: "Skip for now", Value: "skip"},
			{Label: "Check again", Value: "retry"},
			{Label: "Exit to calendar", Value: "exit"},
		},
	}
}

func courseCompleteMessage(code, label string, done, total int) Message {
	msg := Message{
		Text: fmt.Sprintf("✅ **%s Section %s** scheduled!\n\nProgress: %d of %d courses completed.", code, label, done, total),
	}
	if done < total {
		msg.Prompt = "Let's move to the next course..."
		msg.Options = []Option{{Label: "Next course", Value: "next", Variant: VariantPrimary}}
	} else {
		msg.Prompt = "All courses scheduled! 🎉"
	}
	return msg
}

func sessionCompleteMessage(completed []string) Message {
	var b strings.Builder
	b.WriteString("🎉 **All done!** Your schedule is complete.\n\n**Scheduled courses:**\n")
	for _, code := range completed {
		fmt.Fprintf(&b, "• %s\n", code)
	}
	b.WriteString("\nYou can review your calendar to see all your classes.")
	return Message{
		Text: b.String(),
		Options: []Option{
			{Label: "View calendar", Value: "view_calendar", Variant: VariantPrimary},
			{Label: "Start over", Value: "start_over", Variant: VariantSecondary},
		},
	}
}

func errorMessage(err error) Message {
	return Message{
		Text: fmt.Sprintf("⚠️ **Oops!** I encountered an error:\n\n%s\n\nWould you like to try again or exit?", err.Error()),
		Options: []Option{
			{Label: "Try again", Value: "retry", Variant: VariantPrimary},
			{Label: "Skip course", Value: "skip"},
			{Label: "Exit", Value: "exit", Variant: VariantSecondary},
		},
	}
}

func cancelledMessage() Message {
	return Message{
		Text:    "👋 Scheduling cancelled. Your calendar keeps every course scheduled so far.",
		Options: []Option{{Label: "Start over", Value: "start_over", Variant: VariantPrimary}},
	}
}

// mergeMessages 把前一步的提示拼到下一条消息前面
func mergeMessages(first, next Message) Message {
	next.Text = first.Text + "\n\n" + next.Text
	next.CalendarUpdate = append(first.CalendarUpdate, next.CalendarUpdate...)
	return next
}

// formatProgress 📚 Course N of M - CODE
func formatProgress(index, total int, code string) string {
	switch {
	case total == 0:
		return "📚 No courses to schedule"
	case index >= total:
		return fmt.Sprintf("📚 All %d courses processed", total)
	}
	return fmt.Sprintf("📚 Course %d of %d - %s", index+1, total, code)
}
