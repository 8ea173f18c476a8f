package ollama

import "strings"

const codeFence = "```"

// fillerPrefixes 是模型常见的冗余开场白，命中其一（忽略大小写）即剥离。
// 保持为数据而非控制流，新增短语只改这里。
var fillerPrefixes = []string{
	"Here is the text from the image:",
	"The text in the image is:",
	"Text extracted from image:",
	"The extracted text is:",
}

// CleanText 去掉模型输出的包装残留：首尾空白、包裹正文的代码围栏、
// 一条冗余开场白。对已清洗文本再次调用不改变结果。
func CleanText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = stripCodeFence(text)
	text = stripFillerPrefix(text)
	return strings.TrimSpace(text)
}

// stripCodeFence 剥离正文最外层的围栏行：起始行为 ``` 加可选语言标记，
// 结束行为单独的 ```。两者独立判断，残缺围栏也能去掉。
func stripCodeFence(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && isFenceOpenLine(lines[0]) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == codeFence {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}

func isFenceOpenLine(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, codeFence) {
		return false
	}
	tag := line[len(codeFence):]
	for _, r := range tag {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	}
	return false
}

// stripFillerPrefix 最多剥离一条开场白，剩余正文原样保留。
func stripFillerPrefix(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range fillerPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}
