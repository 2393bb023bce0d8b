package reconcile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"vaultboard/internal/model"
	"vaultboard/internal/parser"
)

var (
	// ErrStaleCard is returned when a card's recorded source line can no
	// longer be located in the board file. The caller should re-sync and
	// retry against fresh card state.
	ErrStaleCard = errors.New("card line not found in board file")

	// ErrInvalidTitle rejects titles that cannot live on a single task line.
	ErrInvalidTitle = errors.New("title must be a single non-empty line")
)

var checkboxRe = regexp.MustCompile(`^([-*+]\s+\[)[ xX](\])`)

// Suppressor marks an expected file change so the watch loop does not react
// to this process's own writes.
type Suppressor interface {
	Suppress()
	Unsuppress()
}

// FileWriter performs write-backs: programmatic mutations of board files on
// behalf of the API. Every mutation runs inside exactly one
// suppress/unsuppress pair and lands via an atomic replace, so the watcher
// never reconciles against a half-written file or loops on our own edits.
// Line endings are normalized to LF on rewrite.
type FileWriter struct {
	vaultRoot string
	guard     Suppressor
	logger    *log.Logger
}

func NewFileWriter(vaultRoot string, guard Suppressor, logger *log.Logger) *FileWriter {
	return &FileWriter{vaultRoot: vaultRoot, guard: guard, logger: logger}
}

// EnsureFile creates an empty board file (and parent directories) if absent.
func (w *FileWriter) EnsureFile(board model.Board) error {
	path := BoardFilePath(w.vaultRoot, board)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	w.guard.Suppress()
	defer w.guard.Unsuppress()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(path, nil, 0o644)
}

// AppendTask adds a canonical unchecked task line at the end of the board
// file and returns its 1-based line number.
func (w *FileWriter) AppendTask(board model.Board, title, priority string) (int, error) {
	if err := validateTitle(title); err != nil {
		return 0, err
	}

	lineNumber := 0
	err := w.mutate(board, func(lines []string) ([]string, error) {
		lines = append(lines, parser.Render(title, priority, false))
		lineNumber = len(lines)
		return lines, nil
	})
	return lineNumber, err
}

// UpdateTask rewrites the card's source line with a new title and priority,
// keeping its done marker.
func (w *FileWriter) UpdateTask(board model.Board, card model.Card, title, priority string) error {
	if err := validateTitle(title); err != nil {
		return err
	}

	return w.mutate(board, func(lines []string) ([]string, error) {
		idx, err := locateLine(lines, card)
		if err != nil {
			return nil, err
		}
		lines[idx] = parser.Render(title, priority, card.IsDone)
		return lines, nil
	})
}

// SetDone flips only the checkbox marker of the card's line, leaving the
// rest of the user's text untouched.
func (w *FileWriter) SetDone(board model.Board, card model.Card, done bool) error {
	return w.mutate(board, func(lines []string) ([]string, error) {
		idx, err := locateLine(lines, card)
		if err != nil {
			return nil, err
		}
		marker := " "
		if done {
			marker = "x"
		}
		lines[idx] = checkboxRe.ReplaceAllString(lines[idx], "${1}"+marker+"${2}")
		return lines, nil
	})
}

// RemoveTask deletes the card's line together with its indented sub-item
// lines, so they do not re-attach to the previous task on the next parse.
func (w *FileWriter) RemoveTask(board model.Board, card model.Card) error {
	return w.mutate(board, func(lines []string) ([]string, error) {
		idx, err := locateLine(lines, card)
		if err != nil {
			return nil, err
		}
		end := idx + 1
		for end < len(lines) && isIndentedLine(lines[end]) && strings.TrimSpace(lines[end]) != "" {
			end++
		}
		return append(lines[:idx], lines[end:]...), nil
	})
}

func (w *FileWriter) mutate(board model.Board, fn func(lines []string) ([]string, error)) error {
	w.guard.Suppress()
	defer w.guard.Unsuppress()

	path := BoardFilePath(w.vaultRoot, board)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read board file %s: %w", board.FilePath, err)
	}

	lines, err := fn(splitLines(string(content)))
	if err != nil {
		return err
	}

	out := strings.Join(lines, "\n")
	if out != "" {
		out += "\n"
	}
	if err := writeFileAtomic(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write board file %s: %w", board.FilePath, err)
	}

	w.logger.WithFields(log.Fields{"board": board.Name, "path": board.FilePath}).
		Debug("board file rewritten")
	return nil
}

// locateLine finds the card's line, first by its recorded line number and,
// when the file has drifted underneath it, by exact raw-line content.
func locateLine(lines []string, card model.Card) (int, error) {
	idx := card.LineNumber - 1
	if idx >= 0 && idx < len(lines) && lines[idx] == card.RawLine {
		return idx, nil
	}
	for i, line := range lines {
		if line == card.RawLine {
			return i, nil
		}
	}
	return 0, ErrStaleCard
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" || strings.ContainsAny(title, "\n\r") {
		return ErrInvalidTitle
	}
	return nil
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func isIndentedLine(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place, so watchers and readers never observe a partial
// write.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vaultboard-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
