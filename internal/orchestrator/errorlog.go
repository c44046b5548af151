package orchestrator

import (
	"fmt"
	"os"
	"strings"
)

func ErrorLogName(shardIndex int) string {
	return fmt.Sprintf("excel_errors_shard%d.log", shardIndex)
}

// WriteErrorLog writes the messages separated by blank lines. Nothing is
// written when there are no messages.
func WriteErrorLog(path string, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return os.WriteFile(path, []byte(strings.Join(messages, "\n\n")), 0o644)
}
