package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/Rrens/admission-chat/internal/chat"
	"github.com/Rrens/admission-chat/internal/domain"
)

var (
	userPrompt   = color.New(color.FgCyan, color.Bold)
	botLabel     = color.New(color.FgGreen, color.Bold)
	sourceStyle  = color.New(color.FgYellow)
	dimStyle     = color.New(color.Faint)
	warningStyle = color.New(color.FgRed)
)

func printSources(sources []domain.Source) {
	unique := domain.UniqueSources(sources)
	if len(unique) == 0 {
		return
	}
	sourceStyle.Println("Sources:")
	for _, s := range unique {
		sourceStyle.Printf("  • %s", s.Filename)
		if s.Category != "" {
			dimStyle.Printf(" (%s)", s.Category)
		}
		fmt.Println()
	}
}

func printResult(res *chat.Result, streamed bool) {
	if !streamed {
		botLabel.Print("Assistant: ")
		if res.State == chat.StateFailed {
			warningStyle.Println(res.Reply.Content)
		} else {
			fmt.Println(res.Reply.Content)
		}
	} else {
		fmt.Println()
	}
	printSources(res.Reply.Sources)
}

func printSession(i int, s domain.ChatSession, active bool) {
	marker := "  "
	if active {
		marker = "* "
	}
	fmt.Printf("%s%d. %s ", marker, i+1, s.Title)
	dimStyle.Printf("(%d messages, %s)\n", len(s.Messages), s.UpdatedAt.Local().Format("Jan 02 15:04"))
}

func printHistory(s domain.ChatSession) {
	for _, m := range s.Messages {
		if m.Role == domain.RoleUser {
			userPrompt.Print("You: ")
			fmt.Println(m.Content)
			continue
		}
		botLabel.Print("Assistant: ")
		fmt.Println(m.Content)
		if m.Feedback != nil {
			dimStyle.Printf("  [%s]\n", *m.Feedback)
		}
	}
}

func printHelp() {
	dimStyle.Println(strings.Join([]string{
		"Commands:",
		"  /new              start a new chat",
		"  /sessions         list chats",
		"  /switch N         switch to chat N",
		"  /rename TITLE     rename the current chat",
		"  /delete           delete the current chat",
		"  /like, /dislike   rate the last answer",
		"  /help             show this help",
		"  /quit             exit",
	}, "\n"))
}
