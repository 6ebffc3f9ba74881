package domain

// EventKind enumerates the fixed inbound event kinds delivered by the chat
// platform adapter. Handlers dispatch on it exhaustively.
type EventKind int

const (
	EventMessage EventKind = iota
	EventPostback
	EventFollow
	EventUnfollow
	EventJoin
	EventLeave
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventPostback:
		return "postback"
	case EventFollow:
		return "follow"
	case EventUnfollow:
		return "unfollow"
	case EventJoin:
		return "join"
	case EventLeave:
		return "leave"
	}
	return "unknown"
}

// Event is one normalized inbound event. Text is set for message events,
// Datetime for postback events carrying a datetime picker result.
type Event struct {
	Kind       EventKind
	UserID     string
	GroupID    *string
	ReplyToken string
	Text       string
	Datetime   string
}

// ReplyKind selects between the two outbound shapes the bot produces.
type ReplyKind int

const (
	ReplyText ReplyKind = iota
	ReplyTemplate
)

// ActionKind enumerates the button actions a template reply may carry.
type ActionKind int

const (
	ActionMessage ActionKind = iota
	ActionDatetimePicker
)

type ReplyAction struct {
	Kind  ActionKind
	Label string
	Text  string // message action: text sent back on tap
	Data  string // datetime picker: postback data
}

// Reply is one outbound reply: plain text, or a buttons template with a
// title, body text and a fixed set of actions.
type Reply struct {
	Kind    ReplyKind
	Text    string
	AltText string
	Title   string
	Actions []ReplyAction
}

func TextReply(text string) *Reply {
	return &Reply{Kind: ReplyText, Text: text}
}
