package sandbox

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// DecodeConsole decodes one message posted by a preview document. Only
// messages tagged as console messages are accepted. Decoding is total:
// unknown levels become log and non-string payload entries become the
// unserializable sentinel.
func DecodeConsole(data []byte) (types.LogRecord, bool) {
	var raw map[string]interface{}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return types.LogRecord{}, false
	}
	if tag, _ := raw["type"].(string); tag != preview.ConsoleTag {
		return types.LogRecord{}, false
	}

	level := types.LevelLog
	if s, ok := raw["level"].(string); ok && types.Level(s).Valid() {
		level = types.Level(s)
	}

	var parts []string
	switch payload := raw["payload"].(type) {
	case []interface{}:
		parts = make([]string, len(payload))
		for i, p := range payload {
			s, ok := p.(string)
			if !ok {
				s = preview.Unserializable
			}
			parts[i] = s
		}
	case string:
		parts = []string{payload}
	case nil:
	default:
		parts = []string{preview.Unserializable}
	}

	return types.NewLogRecord(level, strings.Join(parts, " ")), true
}
