package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	replyMu   sync.Mutex
	replyLog  *log.Logger
	replyDump bool
)

// SetReplyWriter 指定模型原始回复的落盘位置；传 nil 关闭。
func SetReplyWriter(w io.Writer) {
	replyMu.Lock()
	defer replyMu.Unlock()
	if w == nil {
		replyLog = nil
		return
	}
	replyLog = log.New(w, "", log.LstdFlags)
}

// EnableReplyDump 控制是否记录模型原始回复（清洗前的全文）。
func EnableReplyDump(enabled bool) {
	replyMu.Lock()
	replyDump = enabled
	replyMu.Unlock()
}

type replySection struct {
	Title string
	Body  string
}

func logReply(endpoint, model string, sections []replySection) {
	replyMu.Lock()
	l := replyLog
	enabled := replyDump
	replyMu.Unlock()
	if l == nil || !enabled {
		return
	}
	var b strings.Builder
	b.WriteString("[OCR]")
	if endpoint != "" {
		b.WriteString("[")
		b.WriteString(endpoint)
		b.WriteString("]")
	}
	if model != "" {
		b.WriteString("[")
		b.WriteString(model)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogModelReply 记录某次推理调用的原始输出，排查清洗规则误伤时使用。
func LogModelReply(endpoint, model, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	logReply(endpoint, model, []replySection{{Title: "RAW", Body: raw}})
}
