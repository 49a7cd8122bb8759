// Package telegram is the bot front-end: photo/video + caption in, risk-gated
// repair plan out, follow-up text routed into the solution's chat session.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fixmate/api/internal/fix"
	"fixmate/api/internal/fix/prompt"
	"fixmate/api/internal/fix/types"
	"fixmate/api/internal/session"
)

const requestTimeout = 180 * time.Second

var httpc = &http.Client{Timeout: 60 * time.Second}

type Router struct {
	Bot      *tgbotapi.BotAPI
	Engs     *fix.Engines
	Sessions *session.Manager

	// Locale applied to every prompt this bot builds.
	Locale types.Locale
}

func sessionKey(chatID int64) string { return fmt.Sprintf("tg:%d", chatID) }

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		r.handleCommand(upd)
		return
	}

	// Attachment → diagnose or part finder, depending on armed mode.
	if media, mime, ok := r.extractMedia(upd.Message); ok {
		if getMode(cid) == modeAwaitPart {
			clearMode(cid)
			r.runPartFinder(cid, media, mime, upd.Message.Caption)
			return
		}
		r.runDiagnose(cid, media, mime, upd.Message.Caption)
		return
	}

	// Plain text → follow-up chat about the current solution.
	if txt := strings.TrimSpace(upd.Message.Text); txt != "" {
		r.runChat(cid, txt)
	}
}

func (r *Router) handleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.send(cid, "Send a photo or short video of a household problem with a caption describing it, and I'll diagnose it and walk you through the fix.\nCommands: /part — identify a part from a photo, /reset — start over, /health")
	case "health":
		r.send(cid, "✅ OK ("+r.Engs.Default().Name()+")")
	case "reset":
		if sess, ok := r.Sessions.Get(sessionKey(cid)); ok {
			sess.Reset()
		}
		clearMode(cid)
		r.send(cid, "Cleared. Send a new photo or video to start again.")
	case "part":
		setMode(cid, modeAwaitPart)
		r.send(cid, "Part finder armed: send a close-up photo of the part (a caption with any markings helps).")
	default:
		r.send(cid, "Unknown command. Try /start, /part, /reset or /health.")
	}
}

// extractMedia picks the attachment off a message: largest photo size, video
// or video note, downloaded through the bot file API.
func (r *Router) extractMedia(msg *tgbotapi.Message) ([]byte, string, bool) {
	var fileID, mime string
	switch {
	case len(msg.Photo) > 0:
		fileID = msg.Photo[len(msg.Photo)-1].FileID
		mime = "image/jpeg"
	case msg.Video != nil:
		fileID = msg.Video.FileID
		mime = msg.Video.MimeType
		if mime == "" {
			mime = "video/mp4"
		}
	case msg.VideoNote != nil:
		fileID = msg.VideoNote.FileID
		mime = "video/mp4"
	default:
		return nil, "", false
	}

	tf, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		r.send(msg.Chat.ID, "Couldn't fetch the file: "+err.Error())
		return nil, "", false
	}
	data, err := download(fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, tf.FilePath))
	if err != nil {
		r.send(msg.Chat.ID, "Couldn't download the attachment: "+err.Error())
		return nil, "", false
	}
	return data, mime, true
}

func (r *Router) runDiagnose(cid int64, media []byte, mime, caption string) {
	if strings.TrimSpace(caption) == "" {
		r.send(cid, "Add a caption describing the problem (e.g. \"leaking sink\") and send the photo again.")
		return
	}
	r.send(cid, "Got it, taking a look…")

	sess := r.Sessions.GetOrCreate(sessionKey(cid))
	if err := sess.BeginDiagnose(); err != nil {
		r.send(cid, "Still working on your previous photo — give me a moment.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sol, err := r.Engs.Default().Diagnose(ctx, types.DiagnoseRequest{
		Media:       media,
		MimeType:    mime,
		Description: caption,
		Locale:      r.Locale,
	})
	if err != nil {
		msg := fix.UserMessage(err)
		sess.FailDiagnose(msg)
		r.send(cid, "⚠️ "+msg+"\nSend the photo again to retry, or /reset to start over.")
		return
	}

	var chat fix.ChatSession
	if sol.Assessed() {
		c, cerr := r.Engs.Default().StartChat(context.Background(), prompt.ChatContext(&sol), r.Locale)
		if cerr != nil {
			log.Printf("telegram: chat init failed: %v", cerr)
		} else {
			chat = c
		}
	}
	sess.CompleteDiagnose(sol, chat)

	r.sendLong(cid, renderSolution(&sol, chat != nil))
}

func (r *Router) runPartFinder(cid int64, media []byte, mime, hint string) {
	r.send(cid, "Looking up the part…")

	sess := r.Sessions.GetOrCreate(sessionKey(cid))
	if err := sess.BeginPart(); err != nil {
		r.send(cid, "Still identifying your previous part — give me a moment.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	part, err := r.Engs.Default().IdentifyPart(ctx, types.PartRequest{
		Media:    media,
		MimeType: mime,
		Hint:     hint,
		Locale:   r.Locale,
	})
	if err != nil {
		msg := fix.UserMessage(err)
		sess.FailPart(msg)
		r.send(cid, "⚠️ "+msg)
		return
	}
	sess.CompletePart(part)

	r.sendLong(cid, renderPart(&part))
}

func (r *Router) runChat(cid int64, text string) {
	sess, ok := r.Sessions.Get(sessionKey(cid))
	if !ok {
		r.send(cid, "Send a photo or video of the problem first, then ask me anything about the fix.")
		return
	}
	chat, err := sess.Chat()
	if err != nil {
		if sol := sess.Solution(); sol != nil && sol.HighRisk() {
			r.send(cid, "This one needs a professional — I can't walk you through it. Send a new photo with /reset if you have a different problem.")
			return
		}
		r.send(cid, "Send a photo or video of the problem first, then ask me anything about the fix.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sess.AppendUserMessage(text)
	reply, err := chat.Send(ctx, text, nil)
	if err != nil {
		msg := fix.UserMessage(err)
		sess.FinishAIMessage(msg)
		r.send(cid, "⚠️ "+msg)
		return
	}
	sess.FinishAIMessage("")
	r.sendLong(cid, reply)
}

// ---------------- helpers -----------------

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) sendLong(chatID int64, text string) {
	if len(text) > 3900 {
		text = text[:3900] + "…"
	}
	r.send(chatID, text)
}

func download(url string) ([]byte, error) {
	resp, err := httpc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}
