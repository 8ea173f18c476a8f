package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultSystem 要求模型逐字转写可见文本并附简短描述。
const defaultSystem = "You are a helpful AI assistant that can read text from images and describe what you see. " +
	"When analyzing images, please:\n" +
	"1. Extract all visible text exactly as it appears\n" +
	"2. Preserve formatting, line breaks, and spacing when possible\n" +
	"3. Provide a brief description of what the image contains\n" +
	"4. If it's an ID card, document, or form, identify the type and key information\n" +
	"Be comprehensive but concise in your response."

const defaultUser = "Please analyze this image. Extract any text you can see and describe what the image contains."

// Prompts 是一次提取调用所用的提示词对。
type Prompts struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Defaults 返回内置提示词。
func Defaults() Prompts {
	return Prompts{System: defaultSystem, User: defaultUser}
}

// Load 从 YAML 文件加载提示词，文件缺失或字段为空时回落到内置默认值。
func Load(path string) (Prompts, error) {
	p := Defaults()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("reading prompt file failed (%s): %w", path, err)
	}
	var file Prompts
	if err := yaml.Unmarshal(data, &file); err != nil {
		return p, fmt.Errorf("parsing prompt file failed (%s): %w", path, err)
	}
	if strings.TrimSpace(file.System) != "" {
		p.System = file.System
	}
	if strings.TrimSpace(file.User) != "" {
		p.User = file.User
	}
	return p, nil
}
