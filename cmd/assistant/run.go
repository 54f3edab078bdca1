package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-boss-assistant/internal/assistant"
	"go-boss-assistant/internal/browser"
	"go-boss-assistant/internal/chatdom"
	"go-boss-assistant/internal/config"
	"go-boss-assistant/internal/database"
	"go-boss-assistant/internal/greeting"
	"go-boss-assistant/internal/notify"
	"go-boss-assistant/internal/reply"
	"go-boss-assistant/internal/scheduler"
	"go-boss-assistant/internal/server"
	"go-boss-assistant/internal/store"
	"go-boss-assistant/internal/watcher"
	"go-boss-assistant/utils"

	"github.com/spf13/cobra"
)

// how often a running assistant re-reads the auto-reply switch from the store
const toggleSyncSpec = "@every 5s"

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the chat page and start answering",
	Long: `Launch Chromium with the saved login cookies, open the chat page, watch
the open conversation and fill answers into the chat input. Nothing is ever
sent automatically.

The local control API listens on server_addr (default 127.0.0.1:8089).`,
	Args: cobra.NoArgs,
	RunE: runAssistant,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.TelegramEnabled() {
		return notify.Log{}
	}
	tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Printf("⚠️ Telegram disabled: %v", err)
		return notify.Log{}
	}
	log.Println("🤖 Telegram notifications enabled.")
	return notify.Multi{notify.Log{}, tg}
}

func runAssistant(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, kv, records, err := openRecords()
	if err != nil {
		return err
	}
	defer kv.Close()
	log.Printf("🔧 Config loaded. Store: %s, chat: %s", cfg.Store, cfg.ChatURL)

	notifier := newNotifier(cfg)

	var repo *database.Repository
	if cfg.DatabaseURL != "" {
		repo, err = database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		log.Println("🗄️ Reply audit log enabled.")
	}

	pwManager, err := browser.NewPlaywright(ctx, cfg.Headless)
	if err != nil {
		return fmt.Errorf("failed to init playwright: %w", err)
	}
	defer pwManager.Close()

	cookies, err := browser.LoadCookies(cfg.CookiesPath)
	if err != nil {
		log.Printf("⚠️ Could not load cookies from %s: %v. Log in manually in the browser window.", cfg.CookiesPath, err)
	} else {
		log.Printf("🍪 Loaded cookies (%d)", len(cookies))
	}

	browserCtx, err := pwManager.NewContext(cookies)
	if err != nil {
		return err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		return fmt.Errorf("failed to create new page: %w", err)
	}
	debugger := utils.NewScreenShotDebugger("")

	fetcher := browser.NewDetailFetcher(browserCtx, cfg.JobDetail, cfg.Selectors.JobDetailText).WithDebugger(debugger)
	svc := assistant.NewService(records, fetcher, assistant.Options{
		Streaming:       cfg.AutoReply.StreamingEnabled(),
		MessagesVariant: cfg.AutoReply.PromptVariant == config.VariantMessages,
	})
	tracker := greeting.NewTracker()

	var w *watcher.Watcher
	chatPage, err := browser.NewChatPage(page, cfg.Selectors, browser.Hooks{
		OnMutation:    func() { w.NotifyMutation() },
		OnInput:       func(ev reply.InputEvent) { w.NotifyInput(ev) },
		OnResponse:    func(url string, body []byte) { tracker.HandleResponse(url, body) },
		ResponsePaths: []string{greeting.HistoryMsgPath, greeting.GetBossDataPath},
	})
	if err != nil {
		return err
	}
	applier := reply.NewApplier(chatPage, nil).WithPause(func(ctx context.Context) error {
		return browser.RandomDelay(ctx, 80, 240)
	})

	enabled, err := records.AutoReplyEnabled(ctx)
	if err != nil {
		return err
	}
	w = watcher.New(chatPage, chatdom.NewSiteStructure(cfg.Selectors), svc, applier, watcher.Options{
		Debounce:        cfg.AutoReply.Debounce(),
		Window:          cfg.AutoReply.WindowSize,
		ReplyOnAttach:   cfg.AutoReply.ReplyOnAttach,
		MessagesVariant: cfg.AutoReply.PromptVariant == config.VariantMessages,
		Enabled:         enabled,
		Conversation: func() string {
			data, _, _ := tracker.Current()
			return data.EncryptJobID
		},
	}).WithNotifier(notifier)
	if repo != nil {
		w.WithRecorder(repo)
	}
	generator := greeting.NewGenerator(tracker, svc, applier)

	if err := chatPage.Open(ctx, cfg.ChatURL); err != nil {
		debugger.CaptureAndLog(page, "chat_page", "Chat page failed to open")
		return err
	}

	jobs := []*scheduler.Scheduler{
		scheduler.New(toggleSyncSpec, "auto-reply sync", syncToggle(records, w)),
	}
	if cfg.CookieSaveSpec != "" {
		jobs = append(jobs, scheduler.New(cfg.CookieSaveSpec, "cookie save", browser.CookieSaver(browserCtx, cfg.CookiesPath)))
	}
	for _, s := range jobs {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	defer func() {
		for _, s := range jobs {
			s.Stop(context.Background())
		}
	}()

	handler := server.NewHandler(records, svc).WithPage(generator, w).WithNotifier(notifier)
	if repo != nil {
		handler.WithHistory(repo)
	}

	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("❌ Watcher stopped: %v", err)
		}
	}()
	log.Printf("🚀 Assistant running. Auto-reply is %s.", onOff(enabled))

	return server.Run(ctx, cfg.ServerAddr, server.NewRouter(handler))
}

// syncToggle applies auto-reply switches made outside this process.
func syncToggle(records *store.Records, w *watcher.Watcher) scheduler.Job {
	return func(ctx context.Context) error {
		on, err := records.AutoReplyEnabled(ctx)
		if err != nil {
			return err
		}
		w.SetEnabled(on)
		return nil
	}
}
