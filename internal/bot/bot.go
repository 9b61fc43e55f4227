package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTaskText
	stageName
)

const (
	cbDonePrefix          = "done:"
	cbDuePrefix           = "due:"
	cbDeletePrefix        = "delete:"
	cbConfirmDeletePrefix = "confirm-delete:"
	cbTimerPrefix         = "timer:"
	cbResetConfirm        = "reset:confirm"
	cbCancel              = "cancel"
)

const msgSaveFailed = "⚠️ Could not save that change, please try again."

const (
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Cancel input"
	menuLabelTasks  = "📋 Goals"
	menuLabelDue    = "⚠️ Due"
	menuLabelTimer  = "⏱ Timer"
	menuLabelStats  = "📊 Progress"
	menuLabelInbox  = "📬 Inbox"
	menuLabelHelp   = "ℹ️ Help"
	inboxSize       = 10
)

// Services is everything the chat surface drives.
type Services struct {
	Tasks    *service.TaskService
	Timer    *service.TimerService
	Progress *service.ProgressService
	Profile  *service.ProfileService
	Reset    *service.ResetService
	Relay    *service.NotificationService
	Clock    service.Clock
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api    *tgbotapi.BotAPI
	out    sender
	svc    Services
	chatID int64

	mu            sync.Mutex
	conversations map[int64]conversationStage
}

// NewAPI authorizes token against Telegram.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.WithField("account", api.Self.UserName).Info("bot authorized")
	return api, nil
}

// New builds the bot. When chatID is non-zero, that chat also receives the
// daily summary and may talk to the bot even if it is a group.
func New(api *tgbotapi.BotAPI, svc Services, chatID int64) *Bot {
	return newBot(api, api, svc, chatID)
}

func newBot(api *tgbotapi.BotAPI, out sender, svc Services, chatID int64) *Bot {
	return &Bot{
		api:           api,
		out:           out,
		svc:           svc,
		chatID:        chatID,
		conversations: make(map[int64]conversationStage),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.WithError(err).Warn("handle callback")
			}
		case update.Message != nil:
			if !b.allowedChat(update.Message.Chat) {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.WithError(err).Warn("handle message")
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) allowedChat(chat *tgbotapi.Chat) bool {
	if chat == nil {
		return false
	}
	return chat.IsPrivate() || (b.chatID != 0 && chat.ID == b.chatID)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.WithFields(log.Fields{"from": msg.From.ID, "command": msg.Command()}).Info("command received")
		b.clearConversation(msg.From.ID)
		return b.handleCommand(ctx, msg)
	}

	if stage := b.getConversation(msg.From.ID); stage != stageNone {
		return b.handleConversation(ctx, msg, stage)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /add to create a goal or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(chatID)
	case "tasks":
		return b.sendTaskList(chatID)
	case "add":
		if args == "" {
			b.setConversation(msg.From.ID, stageTaskText)
			return b.sendWithReplyMarkup(chatID, "🆕 What is the new goal?", cancelKeyboard())
		}
		return b.addTask(ctx, chatID, args)
	case "done":
		return b.toggle(ctx, chatID, args, b.svc.Tasks.ToggleComplete)
	case "due":
		return b.toggle(ctx, chatID, args, b.svc.Tasks.ToggleDue)
	case "duelist":
		return b.sendText(chatID, renderDueList(b.svc.Tasks.Due(), b.svc.Profile.Settings()))
	case "delete":
		return b.askDeleteConfirmation(chatID, args)
	case "timer":
		return b.handleTimer(ctx, chatID, args)
	case "progress":
		return b.sendText(chatID, renderProgress(b.svc.Progress.Live(), b.svc.Profile.Settings().CurrentUserID))
	case "history":
		return b.sendText(chatID, renderHistory(b.svc.Progress.History()))
	case "summary":
		return b.sendText(chatID, b.svc.Progress.DailySummary(b.svc.Clock.Today()))
	case "inbox":
		return b.sendText(chatID, renderInbox(b.svc.Relay.Inbox(inboxSize)))
	case "profile":
		return b.sendText(chatID, renderProfile(b.svc.Profile.Settings(), len(b.svc.Relay.Unread())))
	case "name":
		if args == "" {
			b.setConversation(msg.From.ID, stageName)
			return b.sendWithReplyMarkup(chatID, "✏️ What should your partner call you?", cancelKeyboard())
		}
		return b.rename(ctx, chatID, args)
	case "switch":
		return b.switchUser(ctx, chatID, args)
	case "theme":
		settings, err := b.svc.Profile.ToggleTheme(ctx)
		if err != nil {
			log.WithError(err).Warn("save theme")
			return b.sendText(chatID, msgSaveFailed)
		}
		return b.sendText(chatID, fmt.Sprintf("🎨 Theme is now %s.", settings.Theme))
	case "reset":
		return b.askResetConfirmation(chatID)
	case "cancel":
		return b.sendText(chatID, "⏪ Input cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(chatID int64) error {
	settings := b.svc.Profile.Settings()
	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>DuoStudy keeps you and %s on the same page.</b>\n\n"+
			"• /tasks — today's goals\n"+
			"• /add &lt;text&gt; — add a goal\n"+
			"• /done &lt;n&gt; — toggle done for you\n"+
			"• /due &lt;n&gt; — toggle due for you\n"+
			"• /duelist — goals marked as due\n"+
			"• /delete &lt;n&gt; — remove a goal\n"+
			"• /timer [start|stop|reset|stopwatch|countdown N]\n"+
			"• /progress · /history · /summary\n"+
			"• /inbox — partner notifications\n"+
			"• /profile · /name · /switch · /theme\n"+
			"• /reset — archive today and start a new day",
		escape(settings.CurrentName()), escape(settings.Name(settings.CurrentUserID.Partner())),
	)
	return b.sendText(chatID, text)
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, stage conversationStage) error {
	text := strings.TrimSpace(msg.Text)
	switch stage {
	case stageTaskText:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The goal needs some text.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.addTask(ctx, msg.Chat.ID, text)
	case stageName:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The name cannot be empty.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.rename(ctx, msg.Chat.ID, text)
	default:
		b.clearConversation(msg.From.ID)
		return nil
	}
}

func (b *Bot) addTask(ctx context.Context, chatID int64, text string) error {
	task, err := b.svc.Tasks.AddTask(ctx, text)
	switch {
	case errors.Is(err, service.ErrEmptyText):
		return b.sendText(chatID, "The goal needs some text: /add Read chapter 3")
	case err != nil:
		log.WithError(err).WithField("task", task.ID).Warn("save new task")
		return b.sendText(chatID, msgSaveFailed)
	}
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("✅ Added «%s».", escape(normalizeText(task.Text)))); err != nil {
		return err
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) toggle(ctx context.Context, chatID int64, ref string, flip func(context.Context, string) (model.Task, error)) error {
	if ref == "" {
		return b.sendText(chatID, "Tell me which goal, for example /done 2")
	}
	task, err := b.svc.Tasks.Find(ref)
	if err != nil {
		return b.sendText(chatID, "Goal not found.")
	}
	return b.applyToggle(ctx, chatID, task.ID, flip)
}

func (b *Bot) applyToggle(ctx context.Context, chatID int64, id string, flip func(context.Context, string) (model.Task, error)) error {
	task, err := flip(ctx, id)
	if errors.Is(err, service.ErrTaskNotFound) {
		return b.sendText(chatID, "Goal not found or already deleted.")
	}
	if err != nil {
		log.WithError(err).WithField("task", id).Warn("save toggled task")
		return b.sendText(chatID, msgSaveFailed)
	}
	me := b.svc.Profile.Settings().CurrentUserID
	var info string
	switch {
	case task.Completed(me):
		info = fmt.Sprintf("✅ «%s» done.", escape(normalizeText(task.Text)))
	case task.Due(me):
		info = fmt.Sprintf("⚠️ «%s» is due for you.", escape(normalizeText(task.Text)))
	default:
		info = fmt.Sprintf("🟢 «%s» is open.", escape(normalizeText(task.Text)))
	}
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) askDeleteConfirmation(chatID int64, ref string) error {
	if ref == "" {
		return b.sendText(chatID, "Tell me which goal, for example /delete 2")
	}
	task, err := b.svc.Tasks.Find(ref)
	if err != nil {
		return b.sendText(chatID, "Goal not found.")
	}
	text := fmt.Sprintf("Delete «%s» for both of you?", escape(normalizeText(task.Text)))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard(cbConfirmDeletePrefix+task.ID))
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, id string) error {
	task, err := b.svc.Tasks.Find(id)
	if err != nil {
		return b.sendText(chatID, "Goal not found or already deleted.")
	}
	if err := b.svc.Tasks.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return b.sendText(chatID, "Goal not found or already deleted.")
		}
		log.WithError(err).WithField("task", id).Warn("delete task")
		return b.sendText(chatID, msgSaveFailed)
	}
	if err := b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(normalizeText(task.Text)))); err != nil {
		return err
	}
	return b.sendTaskList(chatID)
}

func (b *Bot) askResetConfirmation(chatID int64) error {
	text := "🌅 Finish the day? Today's goals and study time go to history, " +
		"open goals are carried over as due and study time starts from zero."
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard(cbResetConfirm))
}

func (b *Bot) runReset(ctx context.Context, chatID int64) error {
	res, err := b.svc.Reset.Reset(ctx)
	switch {
	case errors.Is(err, service.ErrResetInProgress):
		return b.sendText(chatID, "A reset is already running.")
	case err != nil:
		log.WithError(err).Warn("daily reset failed")
		return b.sendText(chatID, fmt.Sprintf("Could not finish the day: %s", escape(err.Error())))
	}
	return b.sendText(chatID, renderReset(res))
}

func (b *Bot) handleTimer(ctx context.Context, chatID int64, args string) error {
	action, minutes, err := parseTimerArgs(args)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("%s. Try /timer countdown 25", escape(err.Error())))
	}
	return b.applyTimer(ctx, chatID, action, minutes)
}

func (b *Bot) applyTimer(ctx context.Context, chatID int64, action timerAction, minutes int) error {
	timer := b.svc.Timer
	var (
		st  service.TimerState
		err error
	)
	switch action {
	case timerStart:
		st = timer.Start()
	case timerStop:
		st, err = timer.Stop(ctx)
	case timerReset:
		st, err = timer.Reset(ctx)
	case timerStopwatch:
		st = timer.UseStopwatch()
	case timerCountdown:
		st, err = timer.SetCountdown(minutes)
		if errors.Is(err, service.ErrInvalidMinutes) {
			return b.sendText(chatID, "Minutes must be a positive number.")
		}
	default:
		st = timer.State()
	}
	if err != nil {
		log.WithError(err).Warn("save study time")
	}
	return b.sendWithReplyMarkup(chatID, renderTimer(st), timerKeyboard())
}

func (b *Bot) rename(ctx context.Context, chatID int64, name string) error {
	settings, err := b.svc.Profile.Rename(ctx, name)
	switch {
	case errors.Is(err, service.ErrEmptyName):
		return b.sendText(chatID, "The name cannot be empty.")
	case err != nil:
		log.WithError(err).Warn("save name")
		return b.sendText(chatID, msgSaveFailed)
	}
	return b.sendTextWithRemove(chatID, fmt.Sprintf("✏️ You are now %s.", escape(settings.CurrentName())))
}

func (b *Bot) switchUser(ctx context.Context, chatID int64, arg string) error {
	user, ok := parseUser(arg, b.svc.Profile.Settings().CurrentUserID)
	if !ok {
		return b.sendText(chatID, "Use /switch a or /switch b.")
	}
	settings, err := b.svc.Profile.SwitchUser(ctx, user)
	if err != nil {
		log.WithError(err).Warn("save identity")
		return b.sendText(chatID, msgSaveFailed)
	}
	return b.sendText(chatID, fmt.Sprintf("🔁 Acting as %s (%s).", escape(settings.CurrentName()), settings.CurrentUserID))
}

// SendDailySummary posts the live day summary to the configured chat.
func (b *Bot) SendDailySummary(ctx context.Context) error {
	if b.chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.sendText(b.chatID, b.svc.Progress.DailySummary(b.svc.Clock.Today()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || !b.allowedChat(cb.Message.Chat) {
		return nil
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	log.WithFields(log.Fields{"from": cb.From.ID, "data": data}).Info("callback received")
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.WithError(err).Warn("callback ack")
	}

	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		return b.applyToggle(ctx, chatID, strings.TrimPrefix(data, cbDonePrefix), b.svc.Tasks.ToggleComplete)
	case strings.HasPrefix(data, cbDuePrefix):
		return b.applyToggle(ctx, chatID, strings.TrimPrefix(data, cbDuePrefix), b.svc.Tasks.ToggleDue)
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(chatID, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbConfirmDeletePrefix):
		return b.deleteTask(ctx, chatID, strings.TrimPrefix(data, cbConfirmDeletePrefix))
	case data == cbResetConfirm:
		return b.runReset(ctx, chatID)
	case strings.HasPrefix(data, cbTimerPrefix):
		action, minutes, err := parseTimerArgs(strings.TrimPrefix(data, cbTimerPrefix))
		if err != nil {
			return nil
		}
		return b.applyTimer(ctx, chatID, action, minutes)
	case data == cbCancel:
		return b.sendMenuPlaceholder(chatID)
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	chatID := msg.Chat.ID
	switch text {
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(chatID)
	case strings.ToLower(menuLabelDue):
		return true, b.sendText(chatID, renderDueList(b.svc.Tasks.Due(), b.svc.Profile.Settings()))
	case strings.ToLower(menuLabelTimer):
		return true, b.applyTimer(ctx, chatID, timerShow, 0)
	case strings.ToLower(menuLabelStats):
		return true, b.sendText(chatID, renderProgress(b.svc.Progress.Live(), b.svc.Profile.Settings().CurrentUserID))
	case strings.ToLower(menuLabelInbox):
		return true, b.sendText(chatID, renderInbox(b.svc.Relay.Inbox(inboxSize)))
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(chatID)
	default:
		return false, nil
	}
}

func (b *Bot) sendTaskList(chatID int64) error {
	tasks := b.svc.Tasks.List()
	text := renderTaskList(tasks, b.svc.Profile.Settings())
	if len(tasks) == 0 {
		return b.sendText(chatID, text)
	}
	return b.sendWithReplyMarkup(chatID, text, taskKeyboard(tasks))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.out.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Main menu")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, stage conversationStage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = stage
}

func (b *Bot) getConversation(userID int64) conversationStage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func taskKeyboard(tasks []model.Task) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for i, task := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d · %s", iconDone, i+1, shortText(task.Text, 18)), cbDonePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData(iconDue, cbDuePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard(confirmData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnConfirm, confirmData),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancel),
		),
	)
}

func timerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start", cbTimerPrefix+"start"),
			tgbotapi.NewInlineKeyboardButtonData("⏸ Stop", cbTimerPrefix+"stop"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Reset", cbTimerPrefix+"reset"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("10m", cbTimerPrefix+"countdown 10"),
			tgbotapi.NewInlineKeyboardButtonData("25m", cbTimerPrefix+"countdown 25"),
			tgbotapi.NewInlineKeyboardButtonData("45m", cbTimerPrefix+"countdown 45"),
			tgbotapi.NewInlineKeyboardButtonData("⏱ Stopwatch", cbTimerPrefix+"stopwatch"),
		),
	)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelDue),
			tgbotapi.NewKeyboardButton(menuLabelTimer),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelInbox),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}
