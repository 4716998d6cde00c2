package main

import (
	"context"
	"strings"

	"github.com/joho/godotenv"
	"github.com/whyrusleeping/hellabot"

	"github.com/Supra-San/Snap2Recipe/pkg/common"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/api"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/domain"
	"github.com/Supra-San/Snap2Recipe/pkg/snap2recipe/infrastructure/web"
)

const usageMessage = "send me a link to a photo of a dish and I'll write you a recipe for it"

func main() {
	err := mainImpl()
	if err != nil {
		panic(err)
	}
}

func mainImpl() error {
	_ = godotenv.Load() // .env is optional
	config, err := common.LoadConfig("config.yaml")
	if err != nil {
		return err
	}
	agentName := config.GetStringOrDefault(api.ConfigKeyAgentName, "Snap2Recipe")
	roomName := config.GetStringOrDefault("roomName", "Snap2Recipe")
	serverName := config.GetStringOrDefault("serverName", "irc.libera.chat:6667")
	snap2recipe, stoppable, err := api.NewAPI(config)
	if err != nil {
		return err
	}
	defer stoppable.Stop()
	password := config.GetSecret(web.ConfigKeyChatToken, web.EnvKeyChatToken)
	ircBot, err := hbot.NewBot(serverName, agentName, func(bot *hbot.Bot) {
		bot.Password = password
	})
	if err != nil {
		return err
	}
	var trigger = hbot.Trigger{
		Condition: func(b *hbot.Bot, m *hbot.Message) bool {
			return m.Command == "PRIVMSG"
		},
		Action: func(b *hbot.Bot, m *hbot.Message) bool {
			what, ok := extractRequest(m, agentName)
			if !ok {
				return false
			}
			ref, ok := snap2recipe.FindImageReference(what)
			if !ok {
				b.Reply(m, m.From+": "+usageMessage)
				return true
			}
			// Photos are processed concurrently; the bot keeps reading the chat meanwhile.
			go snap2recipe.HandlePhoto(context.Background(), ref, newReplyNotifier(b, m))
			return true
		},
	}
	ircBot.AddTrigger(trigger)
	ircBot.Channels = []string{"#" + roomName}
	ircBot.Run()
	return nil
}

// extractRequest returns the text of a message meant for the bot: anything said in private, or a channel message
// which starts with the bot's name ("Snap2Recipe: <link>", "Snap2Recipe, <link>").
func extractRequest(m *hbot.Message, agentName string) (string, bool) {
	if len(m.To) == 0 {
		return "", false
	}
	if m.To[0] != '#' {
		return strings.TrimSpace(m.Content), true
	}
	if !strings.HasPrefix(strings.ToLower(m.Content), strings.ToLower(agentName)) {
		return "", false
	}
	what := strings.TrimSpace(m.Content[len(agentName):])
	what = strings.TrimSpace(strings.TrimLeft(what, ":,"))
	if what == "" {
		return "", false
	}
	return what, true
}

// newReplyNotifier hellabot splits a reply into IRC lines itself (on newlines and long lines).
func newReplyNotifier(b *hbot.Bot, m *hbot.Message) domain.Notifier {
	return domain.NotifierFunc(func(ctx context.Context, text string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if reply := formatReply(m, text); reply != "" {
			b.Reply(m, reply)
		}
		return nil
	})
}

// formatReply drops blank lines (IRC can't send an empty message). In a channel, the reply starts with the user's
// nick; only the first IRC line carries it, not the continuation lines.
func formatReply(m *hbot.Message, text string) string {
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	reply := strings.Join(lines, "\n")
	if strings.HasPrefix(m.To, "#") {
		reply = m.From + ": " + reply
	}
	return reply
}
