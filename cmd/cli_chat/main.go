package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"therapy-chat/internal/domain"
	"therapy-chat/internal/repository"
	"therapy-chat/internal/service"
)

var (
	replyDelay time.Duration
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cli_chat",
	Short: "Chat with the keyword-driven support assistant from the terminal",
	Long: `cli_chat runs the conversation service in-process with an in-memory store.
Type a message and press enter. Commands: /mood, /resources, /history, /quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func main() {
	rootCmd.Flags().DurationVar(&replyDelay, "delay", 1500*time.Millisecond, "artificial typing delay before each reply")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log service events to stderr")
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	store := repository.NewMemoryStore()
	conversation := service.NewConversationService(
		logger,
		store,
		store,
		service.DefaultClassifier,
		service.NewResponseGenerator(nil),
		nil,
		replyDelay,
		24*time.Hour,
	)
	moodSampler := service.NewMoodSampler(nil, nil)
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, domain.Disclaimer)
	fmt.Fprint(out, "Do you accept? [y/N]: ")
	answer, _ := reader.ReadString('\n')
	accepted := strings.EqualFold(strings.TrimSpace(answer), "y") || strings.EqualFold(strings.TrimSpace(answer), "yes")

	session, greeting, err := conversation.StartSession(ctx, accepted)
	if errors.Is(err, service.ErrDisclaimerNotAccepted) {
		fmt.Fprintln(out, "The disclaimer must be accepted to continue.")
		return nil
	}
	if err != nil {
		return err
	}
	for _, msg := range greeting {
		printMessage(out, msg)
	}

	for {
		fmt.Fprint(out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)

		switch line {
		case "/quit", "/exit":
			return nil
		case "/mood":
			current, err := conversation.Session(ctx, session.ID)
			if err != nil {
				return err
			}
			printMood(out, moodSampler.Sample(current.CurrentState))
			continue
		case "/resources":
			printResources(out)
			continue
		case "/history":
			history, err := conversation.History(ctx, session.ID)
			if err != nil {
				return err
			}
			for _, msg := range history {
				printMessage(out, msg)
			}
			continue
		}

		pending, err := conversation.Send(ctx, session.ID, line)
		if errors.Is(err, service.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[%s] Thinking...\n", pending.State)
		reply, err := pending.Wait(ctx)
		if err != nil {
			return err
		}
		printMessage(out, reply)
	}
}

func printMessage(out io.Writer, msg domain.Message) {
	label := "You"
	if msg.Sender == domain.SenderAssistant {
		label = "Assistant"
		if msg.TherapyMode != nil {
			label = fmt.Sprintf("Assistant (%s mode)", *msg.TherapyMode)
		}
	}
	fmt.Fprintf(out, "%s %s:\n%s\n\n", msg.Timestamp.Local().Format("15:04"), label, msg.Content)
}

func printMood(out io.Writer, history domain.MoodHistory) {
	fmt.Fprintf(out, "Current mood: %s (%d/5)\n", history.CurrentMood, history.CurrentScore)
	fmt.Fprintf(out, "Weekly average: %.1f/5.0\n", history.WeeklyAverage)
	for _, day := range history.Days {
		fmt.Fprintf(out, "  %s  %-10s %s\n", day.Date, day.Mood, strings.Repeat("#", day.Score))
	}
	fmt.Fprintln(out, history.Insight)
}

func printResources(out io.Writer) {
	for _, r := range domain.EmergencyResources() {
		fmt.Fprintf(out, "%s: %s (tel:%s)\n  %s\n", r.Name, r.Phone, r.Dial, r.Description)
	}
	for _, r := range domain.OnlineResources() {
		fmt.Fprintf(out, "%s - %s (%s)\n", r.Name, r.Description, r.URL)
	}
}
