package tui

import (
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"github.com/abdul-hamid-achik/ntricacid/internal/chat"
)

// copyToClipboard copies text to system clipboard
func copyToClipboard(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		}
	default:
		return fmt.Errorf("clipboard not supported on %s", runtime.GOOS)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	if _, err := stdin.Write([]byte(text)); err != nil {
		_ = stdin.Close()
		return err
	}
	if err := stdin.Close(); err != nil {
		return err
	}
	return cmd.Wait()
}

// lastReply returns the content of the last successful assistant message
func lastReply(h chat.History) string {
	if m, ok := h.LastReply(); ok {
		return m.Content
	}
	return ""
}

// codeBlockRegex matches fenced code blocks
var codeBlockRegex = regexp.MustCompile("(?s)```[^\n]*\n(.*?)```")

// lastCodeBlock returns the content of the last code block in the conversation
func lastCodeBlock(h chat.History) string {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role != chat.RoleAssistant || h[i].IsError() {
			continue
		}
		matches := codeBlockRegex.FindAllStringSubmatch(h[i].Content, -1)
		if len(matches) > 0 {
			return strings.TrimSpace(matches[len(matches)-1][1])
		}
	}
	return ""
}
