package feed

// idFragmentLen 参与合成 ID 的内容前缀长度（按字符计）.
const idFragmentLen = 16

// emptyContent 推送帧缺失 content 时的占位文本.
const emptyContent = "(no content)"

// Entry 本地消息条目.
type Entry struct {
	// ID 合成标识：时间戳加内容前缀.
	ID string `json:"id"`
	// Content 文本内容.
	Content string `json:"content"`
	// Timestamp ISO-8601 时间戳.
	Timestamp string `json:"timestamp"`
	// Read 本地已读标记，不回传服务端.
	Read bool `json:"read"`
}

// EntryID 合成条目标识.
//
// 同一条消息无论来自一次性读取还是实时推送，合成结果都相同，
// 这是两条路径去重的依据. 时间戳相同且内容前缀相同的两条
// 不同消息会被视为同一条，属于可接受的折衷.
func EntryID(timestamp, content string) string {
	fragment := []rune(content)
	if len(fragment) > idFragmentLen {
		fragment = fragment[:idFragmentLen]
	}
	return timestamp + "|" + string(fragment)
}

// NewEntry 从内容和时间戳构造条目.
func NewEntry(content, timestamp string) Entry {
	return Entry{
		ID:        EntryID(timestamp, content),
		Content:   content,
		Timestamp: timestamp,
	}
}
