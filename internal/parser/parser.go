package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Priority values recognized on task lines via a trailing !token.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is one parsed checkbox line. It carries no identity of its own;
// identifiers are derived later from title, board and document order.
type Task struct {
	Title      string
	RawLine    string
	LineNumber int
	Done       bool
	Priority   string
	SubItems   []string
}

var (
	taskLineRe = regexp.MustCompile(`^[-*+]\s+\[([ xX])\]\s+(.+)$`)
	priorityRe = regexp.MustCompile(`(?i)\s+!(low|medium|high)\s*$`)
	subItemRe  = regexp.MustCompile(`^[-*+]\s+(?:\[[ xX]\]\s*)?`)
)

// Parse turns file content into an ordered task list. Only top-level
// checkbox lines become tasks; indented non-empty lines following a task
// attach to it as sub-items; all other lines are ignored. Parsing is
// deterministic and preserves document order.
func Parse(content string) ([]Task, error) {
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("content is not valid UTF-8")
	}

	var tasks []Task
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		if m := taskLineRe.FindStringSubmatch(line); m != nil {
			title, priority := splitPriority(m[2])
			tasks = append(tasks, Task{
				Title:      strings.TrimSpace(title),
				RawLine:    line,
				LineNumber: i + 1,
				Done:       m[1] != " ",
				Priority:   priority,
			})
			continue
		}

		// Indented continuation lines belong to the task above them.
		if len(tasks) > 0 && isIndented(line) && strings.TrimSpace(line) != "" {
			last := &tasks[len(tasks)-1]
			last.SubItems = append(last.SubItems, subItemText(line))
		}
	}
	return tasks, nil
}

// Render produces the canonical task line for write-back. Parsing the
// rendered line yields a task with the same title, priority and done flag.
func Render(title, priority string, done bool) string {
	marker := " "
	if done {
		marker = "x"
	}
	line := fmt.Sprintf("- [%s] %s", marker, title)
	if priority != "" {
		line += " !" + priority
	}
	return line
}

// IsTaskLine reports whether a single source line parses as a task.
func IsTaskLine(line string) bool {
	return taskLineRe.MatchString(strings.TrimSuffix(line, "\r"))
}

func splitPriority(text string) (string, string) {
	loc := priorityRe.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	title := text[:loc[0]]
	if strings.TrimSpace(title) == "" {
		// A bare priority token is a title, not a priority.
		return text, ""
	}
	token := strings.TrimSpace(text[loc[0]:])
	return title, strings.ToLower(strings.TrimPrefix(token, "!"))
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func subItemText(line string) string {
	trimmed := strings.TrimSpace(line)
	return strings.TrimSpace(subItemRe.ReplaceAllString(trimmed, ""))
}
