package chatgptes

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
)

// actionChat is the admin-ajax action the plugin registers for widget
// messages. Part of the upstream's external contract.
const actionChat = "wpaicg_chat_shortcode_message"

// languagePreamble pins the reply language; the plugin otherwise answers in
// the site's locale independent of the prompt.
const languagePreamble = "Human: strictly respond in the same language as my prompt, preferably English"

// conversationLines flattens a message list into the "Human:"/"AI:" line
// format the plugin expects for its history field. User messages become
// Human lines; everything else is attributed to the AI side.
func conversationLines(messages []chat.Message) []string {
	lines := []string{languagePreamble}
	for _, message := range messages {
		if message.Role == chat.RoleUser {
			lines = append(lines, "Human: "+message.Content)
		} else {
			lines = append(lines, "AI: "+message.Content)
		}
	}
	return lines
}

// buildPayload assembles the form-encoded body for one chat POST. message is
// the latest user message; history carries the full conversation including it.
func buildPayload(tokens pageTokens, baseURL, model, message string, history []string) url.Values {
	historyJSON, _ := json.Marshal(history)

	return url.Values{
		"_wpnonce":              {tokens.nonce},
		"post_id":               {tokens.postID},
		"url":                   {baseURL},
		"action":                {actionChat},
		"message":               {message},
		"model":                 {model},
		"bot_id":                {"0"},
		"chatbot_identity":      {"shortcode"},
		"wpaicg_chat_client_id": {newClientID()},
		"wpaicg_chat_history":   {string(historyJSON)},
	}
}

// newClientID returns the 10-hex-character widget client id the plugin
// expects (the browser widget derives it from 5 random bytes).
func newClientID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
