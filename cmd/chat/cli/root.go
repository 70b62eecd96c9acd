package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the interactive chat client.
func NewRootCommand() *cobra.Command {
	var (
		server   string
		user     string
		platform string
		adminKey string
		explain  bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive client for the discount agent",
		Long: `Chat sends each line you type to the agent's simulate endpoint and
prints the reply. Slash commands talk to the other endpoints:

  /help       show available commands
  /health     check service readiness
  /analytics  print the campaign summary
  /reload     hot-reload the campaign config (admin)
  /reset      wipe demo data (admin)
  /quit       exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAgentClient(server, adminKey)
			fmt.Printf("connected to %s as %s@%s (type /help for commands)\n", server, user, platform)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if strings.HasPrefix(line, "/") {
					if quit := runSlashCommand(client, line); quit {
						return nil
					}
					continue
				}
				client.sendMessage(platform, user, line, explain)
			}
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "agent base URL")
	cmd.Flags().StringVar(&user, "user", "demo_user", "user id to chat as")
	cmd.Flags().StringVar(&platform, "platform", "instagram", "platform to chat on (instagram, tiktok, whatsapp)")
	cmd.Flags().StringVar(&adminKey, "admin-key", "dev-admin-key", "api key for admin slash commands")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the pipeline trace for every message")

	return cmd
}

func runSlashCommand(client *agentClient, line string) (quit bool) {
	switch strings.Fields(line)[0] {
	case "/help":
		fmt.Println("commands: /help /health /analytics /reload /reset /quit")
	case "/health":
		client.health()
	case "/analytics":
		client.analytics()
	case "/reload":
		client.adminPost("/admin/reload")
	case "/reset":
		client.adminPost("/admin/reset")
	case "/quit", "/exit":
		return true
	default:
		fmt.Printf("unknown command %q (try /help)\n", line)
	}
	return false
}
