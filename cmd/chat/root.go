package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rrens/admission-chat/internal/admission"
	"github.com/Rrens/admission-chat/internal/chat"
	"github.com/Rrens/admission-chat/internal/domain"
)

var (
	sessionNumber int
	startNew      bool
)

var rootCmd = &cobra.Command{
	Use:   "admission-chat",
	Short: "Chat with the university admission assistant from the terminal",
	Long: `admission-chat asks the admission answer service questions and keeps the
conversation history in the same storage as the chat server, so chats started
here show up in the web client and the other way round.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		go func() {
			if err := a.sessions.Watch(ctx); err != nil {
				warningStyle.Fprintf(os.Stderr, "History sync stopped: %v\n", err)
			}
		}()

		switch {
		case startNew:
			a.controller.CreateSession(ctx)
		case sessionNumber > 0:
			if err := switchTo(ctx, a, sessionNumber); err != nil {
				return err
			}
		}

		return repl(ctx, a)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVarP(&startNew, "new", "n", false, "Start a new chat")
	rootCmd.Flags().IntVarP(&sessionNumber, "session", "s", 0, "Continue chat number N from the sessions list")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(askCmd)
}

func repl(ctx context.Context, a *app) error {
	botLabel.Println("University Admission Assistant")
	dimStyle.Printf("Answers stream from %s (%s). Type /help for commands.\n\n", a.cfg.Answer.BaseURL, a.cfg.Answer.Framing)

	if s, ok := a.sessions.ActiveSession(); ok && len(s.Messages) > 0 {
		printHistory(s)
		fmt.Println()
	} else {
		dimStyle.Println("Try asking:")
		for _, q := range admission.SuggestedQuestions() {
			dimStyle.Printf("  %s\n", q)
		}
		fmt.Println()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		userPrompt.Print("You: ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runCommand(ctx, a, line)
			if err != nil {
				warningStyle.Println(err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := ask(ctx, a, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			warningStyle.Println(err)
		}
	}
}

// ask sends one question, printing the reply as it streams
func ask(ctx context.Context, a *app, question string) error {
	streamed := false
	res, err := a.controller.Send(ctx, question, chat.Observer{
		OnDelta: func(text string) {
			if !streamed {
				botLabel.Print("Assistant: ")
				streamed = true
			}
			fmt.Print(text)
		},
	})
	if err != nil {
		return err
	}
	printResult(res, streamed)
	fmt.Println()
	return nil
}

func runCommand(ctx context.Context, a *app, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		printHelp()

	case "/new":
		a.controller.CreateSession(ctx)
		dimStyle.Println("Started a new chat.")

	case "/sessions":
		listSessions(a)

	case "/switch":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, errors.New("usage: /switch N")
		}
		if err := switchTo(ctx, a, n); err != nil {
			return false, err
		}
		if s, ok := a.sessions.ActiveSession(); ok {
			printHistory(s)
		}

	case "/rename":
		if arg == "" {
			return false, errors.New("usage: /rename TITLE")
		}
		id, ok := a.sessions.ActiveSessionID()
		if !ok || !a.sessions.RenameSession(ctx, id, arg) {
			return false, errors.New("no active chat")
		}

	case "/delete":
		id, ok := a.sessions.ActiveSessionID()
		if !ok {
			return false, errors.New("no active chat")
		}
		a.controller.DeleteSession(ctx, id)
		dimStyle.Println("Chat deleted.")

	case "/like", "/dislike":
		return false, rateLast(ctx, a, domain.FeedbackType(strings.TrimPrefix(name, "/")))

	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}
	return false, nil
}

func switchTo(ctx context.Context, a *app, n int) error {
	sessions := a.sessions.Sessions()
	if n < 1 || n > len(sessions) {
		return fmt.Errorf("no chat number %d", n)
	}
	a.controller.SwitchSession(ctx, sessions[n-1].ID)
	return nil
}

func rateLast(ctx context.Context, a *app, ft domain.FeedbackType) error {
	s, ok := a.sessions.ActiveSession()
	if !ok {
		return errors.New("no active chat")
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == domain.RoleAssistant {
			if _, err := a.controller.Feedback(ctx, s.Messages[i].ID, ft); err != nil {
				return err
			}
			dimStyle.Println("Thanks for the feedback.")
			return nil
		}
	}
	return errors.New("nothing to rate yet")
}

func listSessions(a *app) {
	sessions := a.sessions.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No chats yet.")
		return
	}
	activeID, _ := a.sessions.ActiveSessionID()
	for i, s := range sessions {
		printSession(i, s, s.ID == activeID)
	}
}
