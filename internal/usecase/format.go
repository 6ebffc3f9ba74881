package usecase

import (
	"strings"

	"github.com/triple-t/railbot/internal/domain"
)

// Literal reply texts. Tests pin these, treat them as part of the wire
// format.
const (
	TextMainMenuAlt      = "請選擇查詢交通類型"
	TextMainMenuBody     = "請選擇查詢的交通類型"
	TextTRALabel         = "臺鐵"
	TextTHSRLabel        = "高鐵"
	TextAskOrigin        = "請輸入起程站"
	TextAskDestination   = "請輸入目的站"
	TextAskTimeAlt       = "請選擇搭乘時間"
	TextPickTimeLabel    = "選擇時間"
	TextShowMore         = "顯示更多"
	TextMoreMarker       = "更多..."
	TextNoService        = "沒有適合的班次"
	TextSystemError      = "系統發生錯誤，請稍後再試"
	TextResultTitle      = "查詢結果"
	TextSearchTRA        = "查臺鐵"
	TextSearchTHSR       = "查高鐵"
	textIdenticalPrefix  = "輸入的目的站與起程站皆是"
	textIdenticalSuffix  = "，請重新輸入有效目的站"
)

// Text length thresholds before the more-marker truncation kicks in. The
// inline template preview is much tighter than the full-list reply.
const (
	fullListLimit = 1000
	previewLimit  = 125
)

func MainMenuReply() *domain.Reply {
	return &domain.Reply{
		Kind:    domain.ReplyTemplate,
		AltText: TextMainMenuAlt,
		Title:   TextMainMenuBody,
		Text:    TextMainMenuBody,
		Actions: []domain.ReplyAction{
			{Kind: domain.ActionMessage, Label: TextTRALabel, Text: TextSearchTRA},
			{Kind: domain.ActionMessage, Label: TextTHSRLabel, Text: TextSearchTHSR},
		},
	}
}

func OriginPromptReply() *domain.Reply {
	return domain.TextReply(TextAskOrigin)
}

func DestinationPromptReply() *domain.Reply {
	return domain.TextReply(TextAskDestination)
}

func IdenticalStationReply(station string) *domain.Reply {
	return domain.TextReply(textIdenticalPrefix + station + textIdenticalSuffix)
}

func TimePickerReply() *domain.Reply {
	return &domain.Reply{
		Kind:    domain.ReplyTemplate,
		AltText: TextAskTimeAlt,
		Title:   TextAskTimeAlt,
		Text:    TextAskTimeAlt,
		Actions: []domain.ReplyAction{
			{Kind: domain.ActionDatetimePicker, Label: TextPickTimeLabel, Data: "datetime"},
		},
	}
}

// PadTrainNo zero-pads a train number to four digits for display.
func PadTrainNo(no string) string {
	if len(no) >= 4 {
		return no
	}
	return strings.Repeat("0", 4-len(no)) + no
}

func formatConnectionLine(mode domain.Mode, c domain.Connection) string {
	var b strings.Builder
	b.WriteString(PadTrainNo(c.Timetable.Train.TrainNo))
	if mode.HasTrainTypes() {
		b.WriteString(" ")
		b.WriteString(c.Timetable.Train.TrainType)
	}
	b.WriteString(" ")
	b.WriteString(c.Origin.DepartureTime.Format("15:04"))
	b.WriteString("→")
	b.WriteString(c.Destination.ArrivalTime.Format("15:04"))
	return b.String()
}

// FormatConnections renders one line per candidate, truncated with the
// more-marker once the accumulated text passes the limit. It reports
// whether anything was cut off.
func FormatConnections(mode domain.Mode, conns []domain.Connection, limit int) (string, bool) {
	var b strings.Builder
	length := 0 // counted in runes, not bytes
	for _, c := range conns {
		line := formatConnectionLine(mode, c)
		lineLen := len([]rune(line))
		if length > 0 && length+1+lineLen > limit {
			b.WriteString("\n")
			b.WriteString(TextMoreMarker)
			return b.String(), true
		}
		if length > 0 {
			b.WriteString("\n")
			length++
		}
		b.WriteString(line)
		length += lineLen
	}
	return b.String(), false
}

// ConnectionsPreviewReply is the inline template shown right after the time
// is picked; the show-more action re-runs the search for the full list. The
// buttons template needs at least one action, so show-more is attached even
// when nothing was cut off.
func ConnectionsPreviewReply(mode domain.Mode, conns []domain.Connection) *domain.Reply {
	if len(conns) == 0 {
		return domain.TextReply(TextNoService)
	}
	text, _ := FormatConnections(mode, conns, previewLimit)
	return &domain.Reply{
		Kind:    domain.ReplyTemplate,
		AltText: TextResultTitle,
		Title:   TextResultTitle,
		Text:    text,
		Actions: []domain.ReplyAction{
			{Kind: domain.ActionMessage, Label: TextShowMore, Text: TextShowMore},
		},
	}
}

// ConnectionsFullReply is the untruncated-list path used by the show-more
// command; the full-list limit still applies as a hard ceiling.
func ConnectionsFullReply(mode domain.Mode, conns []domain.Connection) *domain.Reply {
	if len(conns) == 0 {
		return domain.TextReply(TextNoService)
	}
	text, _ := FormatConnections(mode, conns, fullListLimit)
	return domain.TextReply(text)
}
