package telegram

import "sync"

// Per-chat input mode. Default ("") routes photos to diagnose and plain text
// to the follow-up chat; /part arms the part finder for the next photo.
const (
	modeDefault   = ""
	modeAwaitPart = "await_part_photo"
)

var chatMode sync.Map // chatID -> string

func setMode(chatID int64, mode string) { chatMode.Store(chatID, mode) }

func getMode(chatID int64) string {
	if v, ok := chatMode.Load(chatID); ok {
		if s, _ := v.(string); s != "" {
			return s
		}
	}
	return modeDefault
}

func clearMode(chatID int64) { chatMode.Delete(chatID) }
